package stripe

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidConfig   = errors.New("stripe: invalid channel config")
	ErrGatewayRequest  = errors.New("stripe: gateway request failed")
	ErrGatewayResponse = errors.New("stripe: unexpected gateway response")
	ErrBadSignature    = errors.New("stripe: webhook signature rejected")
)

// 对账状态闭集，回调与主动查询统一映射到这四个值。
const (
	StatePending   = "pending"
	StateSucceeded = "success"
	StateFailed    = "failed"
	StateExpired   = "expired"
)

const (
	liveAPIBase        = "https://api.stripe.com"
	requestTimeout     = 15 * time.Second
	signatureTolerance = 300 // 秒
)

// 最小货币单位即主单位的币种（Stripe 金额不乘 100）
var zeroDecimal = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true,
	"JPY": true, "KMF": true, "KRW": true, "MGA": true,
	"PYG": true, "RWF": true, "UGX": true, "VND": true,
	"VUV": true, "XAF": true, "XOF": true, "XPF": true,
}

// Config 渠道后台录入的 Stripe 配置，存于支付渠道的 config JSON 列。
type Config struct {
	SecretKey               string   `json:"secret_key"`
	PublishableKey          string   `json:"publishable_key"`
	WebhookSecret           string   `json:"webhook_secret"`
	SuccessURL              string   `json:"success_url"`
	CancelURL               string   `json:"cancel_url"`
	APIBaseURL              string   `json:"api_base_url"`
	WebhookToleranceSeconds int      `json:"webhook_tolerance_seconds"`
	PaymentMethodTypes      []string `json:"payment_method_types"`
}

// LoadConfig 从渠道 JSON 配置构造 Config 并补默认值。
func LoadConfig(raw map[string]interface{}) (*Config, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty config", ErrInvalidConfig)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	c.WebhookSecret = strings.TrimSpace(c.WebhookSecret)
	c.SuccessURL = strings.TrimSpace(c.SuccessURL)
	c.CancelURL = strings.TrimSpace(c.CancelURL)
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = liveAPIBase
	}
	if c.WebhookToleranceSeconds <= 0 {
		c.WebhookToleranceSeconds = signatureTolerance
	}
	methods := c.PaymentMethodTypes[:0]
	for _, m := range c.PaymentMethodTypes {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			methods = append(methods, m)
		}
	}
	if len(methods) == 0 {
		methods = []string{"card"}
	}
	c.PaymentMethodTypes = methods
}

// Validate 发起请求前的完整性检查。
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	switch {
	case c.SecretKey == "":
		return fmt.Errorf("%w: secret_key missing", ErrInvalidConfig)
	case c.WebhookSecret == "":
		return fmt.Errorf("%w: webhook_secret missing", ErrInvalidConfig)
	case c.SuccessURL == "":
		return fmt.Errorf("%w: success_url missing", ErrInvalidConfig)
	case c.CancelURL == "":
		return fmt.Errorf("%w: cancel_url missing", ErrInvalidConfig)
	}
	for name, value := range map[string]string{
		"api_base_url": c.APIBaseURL,
		// success_url 可带 {CHECKOUT_SESSION_ID} 占位符，先替换再校验
		"success_url": strings.ReplaceAll(c.SuccessURL, "{CHECKOUT_SESSION_ID}", "cs_placeholder"),
		"cancel_url":  strings.ReplaceAll(c.CancelURL, "{CHECKOUT_SESSION_ID}", "cs_placeholder"),
	} {
		if _, err := url.ParseRequestURI(value); err != nil {
			return fmt.Errorf("%w: %s malformed", ErrInvalidConfig, name)
		}
	}
	return nil
}

// Client Stripe HTTP 客户端（表单编码 REST 接口）。
type Client struct {
	cfg  *Config
	http *http.Client
}

// NewClient 构造客户端，配置不完整时报错。
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: requestTimeout}}, nil
}

// CheckoutParams 创建收银台会话的参数。
type CheckoutParams struct {
	OrderNo     string
	PaymentID   uint
	Amount      string
	Currency    string
	Description string
	SuccessURL  string
	CancelURL   string
}

// Session 创建成功的收银台会话。
type Session struct {
	ID       string
	IntentID string
	URL      string
	State    string
}

// PaymentInfo 主动查询得到的支付状态。
type PaymentInfo struct {
	SessionID string
	IntentID  string
	State     string
	Amount    string
	Currency  string
	PaidAt    *time.Time
}

// Event 验签通过的 webhook 事件。
type Event struct {
	ID        string
	Type      string
	PaymentID uint
	OrderNo   string
	Ref       string
	SessionID string
	IntentID  string
	State     string
	Amount    string
	Currency  string
	PaidAt    *time.Time
}

// CreateCheckoutSession 创建单行收银台会话，金额折算为最小货币单位。
func (cl *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*Session, error) {
	orderNo := strings.TrimSpace(p.OrderNo)
	if orderNo == "" {
		return nil, fmt.Errorf("%w: order_no missing", ErrInvalidConfig)
	}
	currency := strings.ToUpper(strings.TrimSpace(p.Currency))
	if currency == "" {
		return nil, fmt.Errorf("%w: currency missing", ErrInvalidConfig)
	}
	minor, err := minorUnits(p.Amount, currency)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(p.Description)
	if name == "" {
		name = orderNo
	}
	successURL := strings.TrimSpace(p.SuccessURL)
	if successURL == "" {
		successURL = cl.cfg.SuccessURL
	}
	cancelURL := strings.TrimSpace(p.CancelURL)
	if cancelURL == "" {
		cancelURL = cl.cfg.CancelURL
	}
	paymentID := strconv.FormatUint(uint64(p.PaymentID), 10)

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)
	form.Set("client_reference_id", orderNo)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(currency))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(minor, 10))
	form.Set("line_items[0][price_data][product_data][name]", name)
	form.Set("metadata[payment_id]", paymentID)
	form.Set("metadata[order_no]", orderNo)
	form.Set("payment_intent_data[metadata][payment_id]", paymentID)
	form.Set("payment_intent_data[metadata][order_no]", orderNo)
	for _, m := range cl.cfg.PaymentMethodTypes {
		form.Add("payment_method_types[]", m)
	}

	var resp sessionPayload
	if err := cl.call(ctx, http.MethodPost, "/v1/checkout/sessions", form, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" || resp.URL == "" {
		return nil, fmt.Errorf("%w: session id or url missing", ErrGatewayResponse)
	}
	return &Session{
		ID:       resp.ID,
		IntentID: resp.PaymentIntent.ID,
		URL:      resp.URL,
		State:    sessionState(resp.PaymentStatus, resp.Status),
	}, nil
}

// LookupPayment 按外部单号查询支付状态，cs_ 前缀走会话接口，其余走意向单。
func (cl *Client) LookupPayment(ctx context.Context, ref string) (*PaymentInfo, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: ref missing", ErrInvalidConfig)
	}
	if strings.HasPrefix(ref, "pi_") {
		return cl.lookupIntent(ctx, ref)
	}
	info, err := cl.lookupSession(ctx, ref)
	if err != nil && !strings.HasPrefix(ref, "cs_") {
		return cl.lookupIntent(ctx, ref)
	}
	return info, err
}

func (cl *Client) lookupSession(ctx context.Context, id string) (*PaymentInfo, error) {
	var resp sessionPayload
	path := "/v1/checkout/sessions/" + url.PathEscape(id) + "?expand[]=payment_intent"
	if err := cl.call(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("%w: session id missing", ErrGatewayResponse)
	}
	return &PaymentInfo{
		SessionID: resp.ID,
		IntentID:  resp.PaymentIntent.ID,
		State:     sessionState(resp.PaymentStatus, resp.Status),
		Amount:    majorUnits(resp.AmountTotal, resp.Currency),
		Currency:  strings.ToUpper(resp.Currency),
		PaidAt:    unixTime(resp.Created),
	}, nil
}

func (cl *Client) lookupIntent(ctx context.Context, id string) (*PaymentInfo, error) {
	var resp intentPayload
	if err := cl.call(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("%w: payment intent id missing", ErrGatewayResponse)
	}
	return &PaymentInfo{
		IntentID: resp.ID,
		State:    intentState(resp.Status),
		Amount:   majorUnits(resp.amountMinor(), resp.Currency),
		Currency: strings.ToUpper(resp.Currency),
		PaidAt:   unixTime(resp.Created),
	}, nil
}

// ParseEvent 验签并解析 webhook 事件体。
func ParseEvent(cfg *Config, headers map[string]string, body []byte, now time.Time) (*Event, error) {
	if cfg == nil || cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("%w: webhook_secret missing", ErrInvalidConfig)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrGatewayResponse)
	}
	if now.IsZero() {
		now = time.Now()
	}
	if err := verifySignature(cfg, headerValue(headers, "Stripe-Signature"), body, now); err != nil {
		return nil, err
	}

	var envelope struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object json.RawMessage `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayResponse, err)
	}
	if envelope.Type == "" || len(envelope.Data.Object) == 0 {
		return nil, fmt.Errorf("%w: event type or object missing", ErrGatewayResponse)
	}

	event := &Event{ID: envelope.ID, Type: envelope.Type}
	if err := event.fill(envelope.Data.Object); err != nil {
		return nil, err
	}
	return event, nil
}

func (e *Event) fill(object json.RawMessage) error {
	var head struct {
		Object string `json:"object"`
		ID     string `json:"id"`
	}
	if err := json.Unmarshal(object, &head); err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayResponse, err)
	}

	switch head.Object {
	case "checkout.session":
		var s sessionPayload
		if err := json.Unmarshal(object, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrGatewayResponse, err)
		}
		e.SessionID = s.ID
		e.IntentID = s.PaymentIntent.ID
		e.Ref = s.ID
		e.Currency = strings.ToUpper(s.Currency)
		e.Amount = majorUnits(s.AmountTotal, s.Currency)
		e.PaidAt = unixTime(s.Created)
		e.PaymentID = s.Metadata.paymentID()
		e.OrderNo = s.Metadata["order_no"]
		if state, ok := eventState(e.Type); ok {
			e.State = state
		} else {
			e.State = sessionState(s.PaymentStatus, s.Status)
		}
	case "payment_intent":
		var p intentPayload
		if err := json.Unmarshal(object, &p); err != nil {
			return fmt.Errorf("%w: %v", ErrGatewayResponse, err)
		}
		e.IntentID = p.ID
		e.Ref = p.ID
		e.Currency = strings.ToUpper(p.Currency)
		e.Amount = majorUnits(p.amountMinor(), p.Currency)
		e.PaidAt = unixTime(p.Created)
		e.PaymentID = p.Metadata.paymentID()
		e.OrderNo = p.Metadata["order_no"]
		if state, ok := eventState(e.Type); ok {
			e.State = state
		} else {
			e.State = intentState(p.Status)
		}
	default:
		e.Ref = head.ID
		if state, ok := eventState(e.Type); ok {
			e.State = state
		}
	}
	return nil
}

// sessionPayload checkout session 响应体（payment_intent 可为字符串或展开对象）。
type sessionPayload struct {
	ID            string    `json:"id"`
	URL           string    `json:"url"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	Currency      string    `json:"currency"`
	AmountTotal   int64     `json:"amount_total"`
	Created       int64     `json:"created"`
	PaymentIntent intentRef `json:"payment_intent"`
	Metadata      metadata  `json:"metadata"`
}

type intentPayload struct {
	ID             string   `json:"id"`
	Status         string   `json:"status"`
	Currency       string   `json:"currency"`
	Amount         int64    `json:"amount"`
	AmountReceived int64    `json:"amount_received"`
	Created        int64    `json:"created"`
	Metadata       metadata `json:"metadata"`
}

func (p intentPayload) amountMinor() int64 {
	if p.AmountReceived > 0 {
		return p.AmountReceived
	}
	return p.Amount
}

type metadata map[string]string

func (m metadata) paymentID() uint {
	id, err := strconv.ParseUint(strings.TrimSpace(m["payment_id"]), 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

// intentRef 兼容 payment_intent 的两种形态：裸 id 字符串或 expand 后的对象。
type intentRef struct {
	ID string
}

func (r *intentRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	var expanded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &expanded); err != nil {
		return err
	}
	r.ID = expanded.ID
	return nil
}

func eventState(eventType string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded", "payment_intent.succeeded":
		return StateSucceeded, true
	case "checkout.session.expired":
		return StateExpired, true
	case "checkout.session.async_payment_failed", "payment_intent.payment_failed", "payment_intent.canceled":
		return StateFailed, true
	case "payment_intent.processing":
		return StatePending, true
	}
	return "", false
}

func sessionState(paymentStatus, sessionStatus string) string {
	paymentStatus = strings.ToLower(strings.TrimSpace(paymentStatus))
	switch {
	case paymentStatus == "paid":
		return StateSucceeded
	case strings.EqualFold(sessionStatus, "expired"):
		return StateExpired
	case strings.EqualFold(sessionStatus, "complete") && paymentStatus == "no_payment_required":
		return StateSucceeded
	}
	return StatePending
}

func intentState(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "succeeded":
		return StateSucceeded
	case "canceled", "requires_payment_method":
		return StateFailed
	}
	return StatePending
}

// minorUnits 金额折算为 Stripe 最小货币单位，精度超出币种刻度时报错。
func minorUnits(amount, currency string) (int64, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil || !parsed.IsPositive() {
		return 0, fmt.Errorf("%w: amount %q", ErrInvalidConfig, amount)
	}
	shifted := parsed.Shift(currencyExponent(currency))
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("%w: amount %q exceeds currency precision", ErrInvalidConfig, amount)
	}
	return shifted.IntPart(), nil
}

func majorUnits(minor int64, currency string) string {
	if minor <= 0 {
		return ""
	}
	exp := currencyExponent(currency)
	return decimal.NewFromInt(minor).Shift(-exp).StringFixed(exp)
}

func currencyExponent(currency string) int32 {
	if zeroDecimal[strings.ToUpper(strings.TrimSpace(currency))] {
		return 0
	}
	return 2
}

func unixTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0)
	return &t
}

// verifySignature 校验 t=<unix>,v1=<hmac> 签名头，时间戳超窗拒绝。
func verifySignature(cfg *Config, header string, body []byte, now time.Time) error {
	if strings.TrimSpace(header) == "" {
		return fmt.Errorf("%w: Stripe-Signature header missing", ErrBadSignature)
	}
	var timestamp int64
	var candidates []string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil || parsed <= 0 {
				return fmt.Errorf("%w: bad timestamp", ErrBadSignature)
			}
			timestamp = parsed
		case "v1":
			if value != "" {
				candidates = append(candidates, strings.ToLower(value))
			}
		}
	}
	if timestamp <= 0 || len(candidates) == 0 {
		return fmt.Errorf("%w: header incomplete", ErrBadSignature)
	}
	if tolerance := int64(cfg.WebhookToleranceSeconds); tolerance > 0 {
		if delta := now.Unix() - timestamp; delta > tolerance || delta < -tolerance {
			return fmt.Errorf("%w: timestamp outside tolerance", ErrBadSignature)
		}
	}
	expected := signPayload(cfg.WebhookSecret, timestamp, body)
	for _, candidate := range candidates {
		if hmac.Equal([]byte(candidate), []byte(expected)) {
			return nil
		}
	}
	return fmt.Errorf("%w: digest mismatch", ErrBadSignature)
}

func signPayload(secret string, timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// call 发起 API 请求并解码 JSON 响应；form 为 nil 时不带请求体。
func (cl *Client) call(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req, err := http.NewRequestWithContext(ctx, method, cl.cfg.APIBaseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayRequest, err)
	}
	req.Header.Set("Authorization", "Bearer "+cl.cfg.SecretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := cl.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayRequest, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s returned %d", ErrGatewayResponse, method, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayResponse, err)
	}
	return nil
}

func headerValue(headers map[string]string, name string) string {
	for key, value := range headers {
		if strings.EqualFold(strings.TrimSpace(key), name) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
