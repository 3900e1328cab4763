// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// ResendSender delivers messages through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	logger *slog.Logger
}

// NewResendSender creates a ResendSender. from is rendered as "Name <address>".
func NewResendSender(client *resend.Client, fromName, fromAddress string, logger *slog.Logger) (*ResendSender, error) {
	if client == nil {
		return nil, fmt.Errorf("mail: resend client is required")
	}
	if fromAddress == "" {
		return nil, fmt.Errorf("mail: from address is required")
	}

	from := fromAddress
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", fromName, fromAddress)
	}

	return &ResendSender{client: client, from: from, logger: logger}, nil
}

// Send implements [Sender].
func (sender *ResendSender) Send(context context.Context, message Message) error {
	params := &resend.SendEmailRequest{
		From:    sender.from,
		To:      []string{message.To},
		Subject: message.Subject,
		Html:    message.HTML,
	}

	sent, err := sender.client.Emails.SendWithContext(context, params)
	if err != nil {
		return fmt.Errorf("mail_resend_send: %w", err)
	}

	sender.logger.InfoContext(context, "mail_delivered",
		slog.String("subject", message.Subject),
		slog.String("provider_id", sent.Id),
	)
	return nil
}
