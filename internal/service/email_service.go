package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/mercato-next/internal/config"
	"github.com/mercato-next/internal/constants"
	"github.com/mercato-next/internal/i18n"
	"github.com/mercato-next/internal/models"
)

// EmailService SMTP 邮件发送（纯文本通知：订单状态、到货提醒、配置测试）
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SetConfig 更新运行时邮件配置
func (s *EmailService) SetConfig(cfg *config.EmailConfig) {
	if cfg != nil {
		s.cfg = cfg
	}
}

// OrderStatusEmailInput 订单状态邮件输入
type OrderStatusEmailInput struct {
	OrderNo  string
	Status   string
	Amount   models.Money
	Currency string
}

// SendOrderStatusEmail 发送订单状态通知
func (s *EmailService) SendOrderStatusEmail(toEmail string, input OrderStatusEmailInput, locale string) error {
	subject, body := orderStatusContent(input, locale)
	return s.send(toEmail, subject, body)
}

// SendRestockEmail 发送商品到货提醒
func (s *EmailService) SendRestockEmail(toEmail, productName, locale string) error {
	loc := emailLocale(locale)
	return s.send(toEmail,
		i18n.Sprintf(loc, "email.restock.subject", productName),
		i18n.Sprintf(loc, "email.restock.body", productName))
}

// SendCustomEmail 发送测试邮件或自定义邮件
func (s *EmailService) SendCustomEmail(toEmail, subject, body string) error {
	if subject = strings.TrimSpace(subject); subject == "" {
		subject = "SMTP 配置测试邮件"
	}
	if body = strings.TrimSpace(body); body == "" {
		body = "这是一封 SMTP 测试邮件，说明当前配置可正常发送。"
	}
	return s.send(toEmail, subject, body)
}

func (s *EmailService) send(toEmail, subject, body string) error {
	cfg := s.cfg
	if cfg == nil || !cfg.Enabled {
		return ErrEmailServiceDisabled
	}
	if cfg.Host == "" || cfg.Port == 0 || cfg.From == "" {
		return ErrEmailServiceNotConfigured
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return ErrInvalidEmail
	}

	msg := composeMessage(fromHeader(cfg.From, cfg.FromName), toEmail, subject, body)

	client, err := dialSMTP(cfg)
	if err != nil {
		return classifySendError(err)
	}
	defer client.Close()

	if cfg.Username != "" || cfg.Password != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
			if err := client.Auth(auth); err != nil {
				return classifySendError(err)
			}
		}
	}
	return classifySendError(transmit(client, cfg.From, toEmail, msg))
}

// dialSMTP 按配置选择连接方式：隐式 SSL、STARTTLS 或明文
func dialSMTP(cfg *config.EmailConfig) (*smtp.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	if cfg.UseSSL {
		conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: cfg.Host})
		if err != nil {
			return nil, err
		}
		client, err := smtp.NewClient(conn, cfg.Host)
		if err != nil {
			conn.Close()
			return nil, err
		}
		return client, nil
	}

	client, err := smtp.Dial(addr)
	if err != nil {
		return nil, err
	}
	if cfg.UseTLS {
		if err := client.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
			client.Close()
			return nil, err
		}
	}
	return client, nil
}

func transmit(client *smtp.Client, from, to string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func orderStatusContent(input OrderStatusEmailInput, locale string) (string, string) {
	loc := emailLocale(locale)
	status := strings.ToLower(strings.TrimSpace(input.Status))

	statusLabel := i18n.T(loc, "order.status."+status)
	if statusLabel == "order.status."+status {
		statusLabel = input.Status
	}
	subject := i18n.Sprintf(loc, "email.order_status.subject", statusLabel)

	bodyKey := "email.order_status.body"
	switch status {
	case constants.OrderStatusPaid:
		bodyKey = "email.order_status.body_paid"
	case constants.OrderStatusCompleted:
		bodyKey = "email.order_status.body_completed"
	case constants.OrderStatusCanceled:
		bodyKey = "email.order_status.body_canceled"
	}
	body := i18n.Sprintf(loc, bodyKey, input.OrderNo, statusLabel, input.Amount.String(), strings.TrimSpace(input.Currency))
	return subject, body
}

func emailLocale(locale string) string {
	l := strings.ToLower(strings.TrimSpace(locale))
	switch {
	case strings.HasPrefix(l, "zh-tw"), strings.HasPrefix(l, "zh-hk"), strings.HasPrefix(l, "zh-mo"):
		return i18n.LocaleTW
	case strings.HasPrefix(l, "zh"):
		return i18n.LocaleZH
	default:
		return i18n.LocaleEN
	}
}

func fromHeader(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	return (&mail.Address{Name: mime.QEncoding.Encode("UTF-8", name), Address: from}).String()
}

func composeMessage(from, to, subject, body string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	buf.WriteString(body)
	return buf.Bytes()
}

// classifySendError 收件人不存在归一成 ErrEmailRecipientRejected，调用方据此停止重试
func classifySendError(err error) error {
	if err == nil {
		return nil
	}
	message := strings.ToLower(err.Error())
	for _, keyword := range []string{
		"no such recipient",
		"no such user",
		"recipient not found",
		"recipient address rejected",
		"invalid recipient",
		"user unknown",
		"unknown user",
		"unknown mailbox",
		"mailbox unavailable",
	} {
		if strings.Contains(message, keyword) {
			return ErrEmailRecipientRejected
		}
	}
	if strings.Contains(message, "550") {
		for _, hint := range []string{"recipient", "user", "mailbox", "address", "rcpt"} {
			if strings.Contains(message, hint) {
				return ErrEmailRecipientRejected
			}
		}
	}
	return err
}
