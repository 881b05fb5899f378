package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"project_hub/internal/domain"
	"project_hub/internal/operations"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("mail").Funcs(template.FuncMap{
	"date":  func(t time.Time) string { return t.Format("2 Jan 2006") },
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}).ParseFS(templateFS, "templates/*.html"))

// InvoiceEmail renders the message sent to a client for an invoice
func InvoiceEmail(sender string, inv *domain.Invoice, client *domain.Client) (Message, error) {
	var body bytes.Buffer
	data := map[string]any{
		"Sender":  sender,
		"Invoice": inv,
		"Client":  client,
	}
	if err := templates.ExecuteTemplate(&body, "invoice.html", data); err != nil {
		return Message{}, fmt.Errorf("render invoice email: %w", err)
	}
	return Message{
		To:      []string{client.Email},
		Subject: fmt.Sprintf("Invoice %s from %s", inv.Number, sender),
		HTML:    body.String(),
	}, nil
}

// DigestEmail renders the daily operations digest for a user
func DigestEmail(user *domain.User, d *operations.Dashboard) (Message, error) {
	var body bytes.Buffer
	data := map[string]any{
		"User":      user,
		"Dashboard": d,
	}
	if err := templates.ExecuteTemplate(&body, "digest.html", data); err != nil {
		return Message{}, fmt.Errorf("render digest email: %w", err)
	}
	return Message{
		To: []string{user.Email},
		Subject: fmt.Sprintf("%s: %d overdue, %d due today", d.Date.Format("2 Jan 2006"),
			d.Counts[operations.Overdue], d.Counts[operations.Today]),
		HTML: body.String(),
	}, nil
}
