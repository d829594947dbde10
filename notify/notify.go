package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/smtp"
	"time"

	"github.com/clubverify/kyc-backend/config"
	"github.com/clubverify/kyc-backend/model"
	"github.com/clubverify/kyc-backend/risk"
)

// Sender delivers one composed notification for a submission.
type Sender interface {
	Send(ctx context.Context, sub model.Submission, report risk.Report) error
	Name() string
}

// Dispatcher fans a submission out to every configured channel.
// Delivery is best-effort: failures are logged and never propagate to the
// submission flow.
type Dispatcher struct {
	senders []Sender
}

func NewDispatcher(senders ...Sender) *Dispatcher {
	return &Dispatcher{senders: senders}
}

// Dispatch sends the submission through every channel, logging failures.
func (d *Dispatcher) Dispatch(ctx context.Context, sub model.Submission, report risk.Report) {
	for _, s := range d.senders {
		if err := s.Send(ctx, sub, report); err != nil {
			log.Printf("notify: %s delivery failed for %s: %v", s.Name(), sub.SubmissionID, err)
		}
	}
}

// NewDispatcherFromConfig builds a dispatcher with every channel that has
// credentials configured. An empty dispatcher is valid and dispatches to
// nothing.
func NewDispatcherFromConfig(cfg *config.Config) *Dispatcher {
	var senders []Sender
	if cfg.SMTPHost != "" && cfg.ServiceEmail != "" && cfg.AdminEmail != "" {
		senders = append(senders, &EmailSender{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.ServiceEmail,
			Password: cfg.ServiceEmailPass,
			From:     cfg.ServiceEmail,
			To:       cfg.AdminEmail,
		})
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		senders = append(senders, NewTelegramSender(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	return NewDispatcher(senders...)
}

// EmailSender delivers the HTML notification over SMTP with STARTTLS
// negotiated by the smtp package when the server offers it.
type EmailSender struct {
	Host     string
	Port     uint16
	Username string
	Password string
	From     string
	To       string
}

func (s *EmailSender) Name() string { return "email" }

func (s *EmailSender) Send(_ context.Context, sub model.Submission, report risk.Report) error {
	subject := fmt.Sprintf("New KYC Submission - %s", sub.FullName)
	body := ComposeEmailHTML(sub, report)

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", s.From)
	fmt.Fprintf(&msg, "To: %s\r\n", s.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)
	msg.WriteString("\r\n")

	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	return smtp.SendMail(addr, auth, s.From, []string{s.To}, msg.Bytes())
}

const telegramAPIBase = "https://api.telegram.org"

// TelegramSender posts the Markdown notification to a Telegram chat through
// the Bot API.
type TelegramSender struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

func NewTelegramSender(botToken, chatID string) *TelegramSender {
	return &TelegramSender{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  telegramAPIBase,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// SetBaseURL overrides the Bot API host. This should only be used in tests.
func (s *TelegramSender) SetBaseURL(baseURL string) {
	s.baseURL = baseURL
}

func (s *TelegramSender) Name() string { return "telegram" }

func (s *TelegramSender) Send(ctx context.Context, sub model.Submission, report risk.Report) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id":    s.chatID,
		"text":       ComposeTelegramMessage(sub, report),
		"parse_mode": "Markdown",
	})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}
	return nil
}
