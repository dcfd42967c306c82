package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"time"
)

var verifyTmpl = template.Must(template.New("verify").Parse(
	`<h3>Welcome to {{.App}}. Click the link below to confirm your email address:</h3>
<a href="{{.Link}}">Verify email</a>`))

var resetTmpl = template.Must(template.New("reset").Parse(
	`<h3>Click the link below to choose a new password for {{.App}}. The link expires in {{.TTL}}.</h3>
<a href="{{.Link}}">Reset password</a>`))

// Mailer renders the account emails and sends them through a Sender.
type Mailer struct {
	Sender    Sender
	AppName   string
	APIURL    string        // origin serving /api/verify-email
	ClientURL string        // origin serving the reset-password page
	ResetTTL  time.Duration // quoted in the reset email
}

// SendVerification mails the link that completes registration.
func (m Mailer) SendVerification(ctx context.Context, to, token string) error {
	msg, err := m.VerificationMessage(to, token)
	if err != nil {
		return err
	}
	return m.Sender.Send(ctx, msg)
}

// SendPasswordReset mails the link to the reset-password page.
func (m Mailer) SendPasswordReset(ctx context.Context, to, token string) error {
	msg, err := m.ResetMessage(to, token)
	if err != nil {
		return err
	}
	return m.Sender.Send(ctx, msg)
}

// VerificationMessage builds the registration email for token.
func (m Mailer) VerificationMessage(to, token string) (Message, error) {
	link := m.APIURL + "/api/verify-email?token=" + url.QueryEscape(token)
	html, err := render(verifyTmpl, map[string]string{"App": m.AppName, "Link": link})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: m.AppName + ": confirm your email", HTML: html}, nil
}

// ResetMessage builds the password reset email for token.
func (m Mailer) ResetMessage(to, token string) (Message, error) {
	link := m.ClientURL + "/reset-password?token=" + url.QueryEscape(token)
	html, err := render(resetTmpl, map[string]string{"App": m.AppName, "Link": link, "TTL": humanMinutes(m.ResetTTL)})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: m.AppName + ": password reset request", HTML: html}, nil
}

func humanMinutes(d time.Duration) string {
	n := int(d.Round(time.Minute) / time.Minute)
	if n == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", n)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
