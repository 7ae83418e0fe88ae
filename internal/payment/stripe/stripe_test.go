package stripe

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testConfig(base string) *Config {
	cfg := &Config{
		SecretKey:     "sk_test_abc",
		WebhookSecret: "whsec_test_abc",
		SuccessURL:    "https://shop.example/checkout/done?session={CHECKOUT_SESSION_ID}",
		CancelURL:     "https://shop.example/checkout/cancel",
		APIBaseURL:    base,
	}
	cfg.applyDefaults()
	return cfg
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(map[string]interface{}{
		"secret_key":           " sk_test_123 ",
		"webhook_secret":       " whsec_123 ",
		"success_url":          "https://shop.example/done",
		"cancel_url":           "https://shop.example/cancel",
		"payment_method_types": []interface{}{" Card ", ""},
	})
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if cfg.SecretKey != "sk_test_123" {
		t.Fatalf("secret key not trimmed: %q", cfg.SecretKey)
	}
	if cfg.APIBaseURL != liveAPIBase {
		t.Fatalf("api base default want %s got %s", liveAPIBase, cfg.APIBaseURL)
	}
	if cfg.WebhookToleranceSeconds != signatureTolerance {
		t.Fatalf("tolerance default want %d got %d", signatureTolerance, cfg.WebhookToleranceSeconds)
	}
	if len(cfg.PaymentMethodTypes) != 1 || cfg.PaymentMethodTypes[0] != "card" {
		t.Fatalf("payment methods want [card] got %v", cfg.PaymentMethodTypes)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
}

func TestValidateRejectsMissingSecrets(t *testing.T) {
	cfg := testConfig(liveAPIBase)
	cfg.WebhookSecret = ""
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("missing webhook secret want ErrInvalidConfig got %v", err)
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	var gotForm map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk_test_abc" {
			t.Errorf("missing bearer auth")
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form failed: %v", err)
		}
		gotForm = r.PostForm
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":             "cs_test_789",
			"url":            "https://checkout.stripe.com/pay/cs_test_789",
			"status":         "open",
			"payment_status": "unpaid",
		})
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	session, err := client.CreateCheckoutSession(nil, CheckoutParams{
		OrderNo:   "MKT-1001",
		PaymentID: 42,
		Amount:    "41.98",
		Currency:  "USD",
	})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if session.ID != "cs_test_789" {
		t.Fatalf("session id want cs_test_789 got %s", session.ID)
	}
	if session.State != StatePending {
		t.Fatalf("fresh session state want pending got %s", session.State)
	}
	// 41.98 USD → 4198 美分
	if got := gotForm["line_items[0][price_data][unit_amount]"]; len(got) != 1 || got[0] != "4198" {
		t.Fatalf("unit amount want 4198 got %v", got)
	}
	if got := gotForm["metadata[payment_id]"]; len(got) != 1 || got[0] != "42" {
		t.Fatalf("payment id metadata want 42 got %v", got)
	}
}

func TestParseEventCheckoutCompleted(t *testing.T) {
	now := time.Unix(1760000000, 0)
	cfg := testConfig(liveAPIBase)
	body, _ := json.Marshal(map[string]interface{}{
		"id":   "evt_1",
		"type": "checkout.session.completed",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"object":         "checkout.session",
				"id":             "cs_test_123",
				"payment_intent": "pi_test_456",
				"payment_status": "paid",
				"currency":       "usd",
				"amount_total":   1288,
				"created":        now.Unix(),
				"metadata": map[string]interface{}{
					"payment_id": "1001",
					"order_no":   "MKT-1001",
				},
			},
		},
	})
	headers := map[string]string{
		"stripe-signature": "t=1760000000,v1=" + signPayload(cfg.WebhookSecret, now.Unix(), body),
	}

	event, err := ParseEvent(cfg, headers, body, now)
	if err != nil {
		t.Fatalf("parse event failed: %v", err)
	}
	if event.State != StateSucceeded {
		t.Fatalf("state want success got %s", event.State)
	}
	if event.PaymentID != 1001 || event.OrderNo != "MKT-1001" {
		t.Fatalf("metadata want payment 1001 / MKT-1001 got %d / %s", event.PaymentID, event.OrderNo)
	}
	if event.Ref != "cs_test_123" || event.IntentID != "pi_test_456" {
		t.Fatalf("refs want cs_test_123 / pi_test_456 got %s / %s", event.Ref, event.IntentID)
	}
	if event.Amount != "12.88" || event.Currency != "USD" {
		t.Fatalf("amount want 12.88 USD got %s %s", event.Amount, event.Currency)
	}
}

func TestParseEventRejectsBadSignature(t *testing.T) {
	now := time.Unix(1760000000, 0)
	cfg := testConfig(liveAPIBase)
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"object":"checkout.session","id":"cs_1"}}}`)

	cases := map[string]string{
		"forged digest":   "t=1760000000,v1=deadbeef",
		"stale timestamp": "t=1759990000,v1=" + signPayload(cfg.WebhookSecret, 1759990000, body),
		"missing v1":      "t=1760000000",
	}
	for name, header := range cases {
		_, err := ParseEvent(cfg, map[string]string{"Stripe-Signature": header}, body, now)
		if !errors.Is(err, ErrBadSignature) {
			t.Fatalf("%s: want ErrBadSignature got %v", name, err)
		}
	}
}

func TestMinorUnits(t *testing.T) {
	cases := []struct {
		amount   string
		currency string
		want     int64
		wantErr  bool
	}{
		{amount: "12.88", currency: "USD", want: 1288},
		{amount: "1288", currency: "JPY", want: 1288},
		{amount: "0.005", currency: "USD", wantErr: true},
		{amount: "0", currency: "USD", wantErr: true},
		{amount: "-3", currency: "USD", wantErr: true},
	}
	for _, tc := range cases {
		got, err := minorUnits(tc.amount, tc.currency)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s %s: expected error", tc.amount, tc.currency)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s %s: %v", tc.amount, tc.currency, err)
		}
		if got != tc.want {
			t.Fatalf("%s %s: want %d got %d", tc.amount, tc.currency, tc.want, got)
		}
	}
	if got := majorUnits(1288, "usd"); got != "12.88" {
		t.Fatalf("major units want 12.88 got %s", got)
	}
}

func TestStateMapping(t *testing.T) {
	if got := intentState("succeeded"); got != StateSucceeded {
		t.Fatalf("succeeded want success got %s", got)
	}
	if got := intentState("requires_payment_method"); got != StateFailed {
		t.Fatalf("requires_payment_method want failed got %s", got)
	}
	if got := sessionState("unpaid", "expired"); got != StateExpired {
		t.Fatalf("expired session want expired got %s", got)
	}
	if state, ok := eventState("checkout.session.expired"); !ok || state != StateExpired {
		t.Fatalf("expired event want expired got %s %v", state, ok)
	}
	if _, ok := eventState("customer.created"); ok {
		t.Fatalf("unrelated event should not map")
	}
}
