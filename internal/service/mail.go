package service

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/ndenisov/authd/internal/util"
)

// MailService sends mail through SMTP. Delivery is fire-and-forget: failures
// are logged and never surfaced to the caller. The connection carries a
// deadline spanning the whole conversation; gomail's own dialer sets none, so
// a silent server would park the delivery goroutine forever.
type MailService struct {
	host        string
	port        int
	username    string
	password    string
	from        string
	sendTimeout time.Duration
	log         *zap.SugaredLogger
}

func NewMailService(cfg *util.SMTPConfig, log *zap.SugaredLogger) *MailService {
	return &MailService{
		host:        cfg.Host,
		port:        cfg.Port,
		username:    cfg.Username,
		password:    cfg.Password,
		from:        cfg.From,
		sendTimeout: cfg.SendTimeout,
		log:         log,
	}
}

func (s *MailService) Send(to, subject, htmlBody string) {
	go func() {
		if err := s.send(s.message(to, subject, htmlBody)); err != nil {
			s.log.Errorw("failed to send mail", "to", to, "subject", subject, "error", err)
		}
	}()
}

func (s *MailService) message(to, subject, htmlBody string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)
	return m
}

// send drives one SMTP conversation bounded by sendTimeout.
func (s *MailService) send(m *gomail.Message) error {
	sender, err := s.dial()
	if err != nil {
		return err
	}
	defer sender.Close()
	return gomail.Send(sender, m)
}

func (s *MailService) dial() (gomail.SendCloser, error) {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	conn, err := net.DialTimeout("tcp", addr, s.sendTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to dial smtp server: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(s.sendTimeout)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set smtp deadline: %w", err)
	}

	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp handshake failed: %w", err)
	}

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
			c.Close()
			return nil, fmt.Errorf("starttls failed: %w", err)
		}
	}

	if s.username != "" {
		if err := c.Auth(smtp.PlainAuth("", s.username, s.password, s.host)); err != nil {
			c.Close()
			return nil, fmt.Errorf("smtp auth failed: %w", err)
		}
	}

	return &smtpSender{client: c}, nil
}

// smtpSender adapts a net/smtp client to gomail's Sender contract.
type smtpSender struct {
	client *smtp.Client
}

func (s *smtpSender) Send(from string, to []string, msg io.WriterTo) error {
	if err := s.client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := s.client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := s.client.Data()
	if err != nil {
		return err
	}
	if _, err := msg.WriteTo(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (s *smtpSender) Close() error {
	return s.client.Quit()
}
