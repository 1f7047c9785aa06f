// Package export hands a grocery list to an outside service. Nothing here
// confirms delivery.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/samber/lo"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"mealcart/internal/config"
)

const Subject = "My Grocery List"

var (
	ErrUnknownTarget = errors.New("unknown export target")
	ErrEmailRequired = errors.New("email address is required")
	ErrPhoneRequired = errors.New("phone number is required")
	ErrInvalidEmail  = errors.New("email address is invalid")
	ErrInvalidPhone  = errors.New("phone number is invalid")
	ErrEmptyList     = errors.New("grocery list is empty")
)

type Target struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Website   string `json:"website,omitempty"`
}

var Targets = []Target{
	{ID: "kroger", Name: "Kroger", Available: true, Website: "https://www.kroger.com"},
	{ID: "walmart", Name: "Walmart"},
	{ID: "target", Name: "Target"},
	{ID: "amazon", Name: "Amazon Fresh"},
	{ID: "instacart", Name: "Instacart", Available: true, Website: "https://www.instacart.com"},
	{ID: "email", Name: "Email", Available: true},
	{ID: "text", Name: "Text Message", Available: true},
	{ID: "clipboard", Name: "Copy to Clipboard", Available: true},
}

func Lookup(id string) (Target, bool) {
	return lo.Find(Targets, func(t Target) bool { return t.ID == strings.ToLower(strings.TrimSpace(id)) })
}

type Request struct {
	Target string `json:"target"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
}

// Action tells the caller what to do with a Result.
type Action string

const (
	ActionOpenURL     Action = "open_url"
	ActionCopied      Action = "copied"
	ActionUnavailable Action = "unavailable"
)

type Result struct {
	Target  string `json:"target"`
	Action  Action `json:"action"`
	URL     string `json:"url,omitempty"`
	Text    string `json:"text,omitempty"`
	Message string `json:"message"`
	// Emailed is set when the list also went out through SendGrid.
	Emailed bool `json:"emailed,omitempty"`
}

type sender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

type Exporter struct {
	client sender
	from   *mail.Email
}

// NewExporter returns an exporter that only builds links unless a SendGrid
// key is configured.
func NewExporter(cfg config.MailConfig) *Exporter {
	e := &Exporter{from: mail.NewEmail(cfg.FromName, cfg.From)}
	if cfg.Enabled() {
		e.client = sendgrid.NewSendClient(cfg.SendGridAPIKey)
	}
	return e
}

// Export dispatches names to the requested target.
func (e *Exporter) Export(ctx context.Context, req Request, names []string) (Result, error) {
	target, ok := Lookup(req.Target)
	if !ok {
		return Result{}, fmt.Errorf("%w %q", ErrUnknownTarget, req.Target)
	}
	res := Result{Target: target.ID}
	if !target.Available {
		res.Action = ActionUnavailable
		res.Message = fmt.Sprintf("Integration with %s is coming soon! We're working on connecting to their systems.", target.Name)
		return res, nil
	}
	if len(names) == 0 {
		return Result{}, ErrEmptyList
	}

	text := ListText(names)
	switch target.ID {
	case "email":
		addr, err := emailAddress(req.Email)
		if err != nil {
			return Result{}, err
		}
		res.Action = ActionOpenURL
		res.URL = MailtoURL(addr, text)
		res.Message = "Opening your mail app."
		res.Emailed = e.send(ctx, addr, text)
	case "text":
		phone, err := phoneNumber(req.Phone)
		if err != nil {
			return Result{}, err
		}
		res.Action = ActionOpenURL
		res.URL = SMSURL(phone, text)
		res.Message = "Opening your messages app."
	case "clipboard":
		res.Action = ActionCopied
		res.Text = text
		res.Message = "Your grocery list has been copied to clipboard!"
	default:
		res.Action = ActionOpenURL
		res.URL = target.Website
		res.Message = fmt.Sprintf("To connect to your %s account you need to authorize this app. Opening the %s website.", target.Name, target.Name)
	}
	slog.InfoContext(ctx, "exported grocery list", "target", target.ID, "items", len(names))
	return res, nil
}

// send mails text through SendGrid when configured. Failures are logged and
// otherwise ignored.
func (e *Exporter) send(ctx context.Context, addr, text string) bool {
	if e.client == nil {
		return false
	}
	message := mail.NewSingleEmailPlainText(e.from, Subject, mail.NewEmail("", addr), text)
	response, err := e.client.Send(message)
	if err != nil {
		slog.ErrorContext(ctx, "failed to send grocery list", "error", err)
		return false
	}
	slog.InfoContext(ctx, "sendgrid response", "status", response.StatusCode)
	return response.StatusCode >= 200 && response.StatusCode < 300
}

// emailAddress returns the bare address from input such as
// "Sam <sam@example.com>".
func emailAddress(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmailRequired
	}
	parsed, err := mail.ParseEmail(input)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, input)
	}
	return parsed.Address, nil
}

// phoneNumber keeps a leading + and the digits, allowing the usual
// separators in between.
func phoneNumber(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrPhoneRequired
	}
	var b strings.Builder
	for i, r := range input {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case strings.ContainsRune(" -.()", r):
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidPhone, input)
		}
	}
	if strings.Trim(b.String(), "+") == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, input)
	}
	return b.String(), nil
}

func ListText(names []string) string {
	return strings.Join(names, "\n")
}

func MailtoURL(addr, body string) string {
	return "mailto:" + url.PathEscape(addr) + "?subject=" + escape(Subject) + "&body=" + escape(body)
}

func SMSURL(phone, body string) string {
	return "sms:" + url.PathEscape(phone) + "?body=" + escape(body)
}

// escape matches what mail and sms handlers expect: spaces as %20, not +.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
