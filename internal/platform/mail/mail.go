// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package mail delivers transactional email (password reset, email verification).

Two senders implement [Sender]:

  - ResendSender: delivers through the Resend HTTP API.
  - LogSender: writes the message to the structured log; used when no API key is configured.

Message bodies are rendered with html/template so user-supplied names are escaped.
*/
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a [Message].
type Sender interface {
	Send(context context.Context, message Message) error
}

// # Templates

var (
	resetTemplate = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif;">
<p>Hi {{.Name}},</p>
<p>We received a request to reset your RecipeHub password. The link below is valid for {{.Validity}} and can be used once.</p>
<p><a href="{{.Link}}">Reset password</a></p>
<p>If you did not ask for this, you can ignore this email.</p>
</body></html>`))

	verifyTemplate = template.Must(template.New("verify").Parse(`<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif;">
<p>Hi {{.Name}},</p>
<p>Welcome to RecipeHub! Please confirm your email address within {{.Validity}}.</p>
<p><a href="{{.Link}}">Verify email</a></p>
</body></html>`))
)

type templateData struct {
	Name     string
	Link     string
	Validity string
}

// PasswordReset renders the password reset email.
func PasswordReset(to, name, link, validity string) (Message, error) {
	return render(resetTemplate, to, "Reset your RecipeHub password", templateData{Name: name, Link: link, Validity: validity})
}

// EmailVerification renders the email verification email.
func EmailVerification(to, name, link, validity string) (Message, error) {
	return render(verifyTemplate, to, "Verify your RecipeHub email", templateData{Name: name, Link: link, Validity: validity})
}

func render(tmpl *template.Template, to, subject string, data templateData) (Message, error) {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("mail_render_%s: %w", tmpl.Name(), err)
	}
	return Message{To: to, Subject: subject, HTML: body.String()}, nil
}

// # Log Sender

// LogSender logs messages instead of delivering them.
//
// The body is not logged since it carries a live token.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send implements [Sender].
func (sender *LogSender) Send(context context.Context, message Message) error {
	sender.logger.InfoContext(context, "mail_not_delivered",
		slog.String("to", message.To),
		slog.String("subject", message.Subject),
	)
	return nil
}
