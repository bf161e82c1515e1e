package service

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"

	"github.com/littlefidan/littlefidan-sub001/internal/config"
)

type EmailService interface {
	SendOrderConfirmation(to, orderNumber string, total decimal.Decimal) error
}

type smtpEmailService struct {
	cfg    config.SMTP
	dialer *gomail.Dialer
}

func NewSMTPEmailService(cfg config.SMTP) EmailService {
	return &smtpEmailService{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *smtpEmailService) SendOrderConfirmation(to, orderNumber string, total decimal.Decimal) error {
	subject := fmt.Sprintf("Order confirmation %s", orderNumber)
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Thank you for your order!</h2>
			<p>We received your payment for order <strong>%s</strong>.</p>
			<p>Total: € %s (incl. 21%% VAT)</p>
			<p>Your downloads are available in your account.</p>
		</body>
		</html>
	`, orderNumber, total.StringFixed(2))

	plainBody := fmt.Sprintf(`Thank you for your order!

We received your payment for order %s.
Total: EUR %s (incl. 21%% VAT)

Your downloads are available in your account.
`, orderNumber, total.StringFixed(2))

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.FromAddress, s.cfg.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send order confirmation: %w", err)
	}

	return nil
}
