// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mail_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/recipehub/internal/platform/mail"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

/*
TestPasswordReset_EscapesName verifies that template data is HTML-escaped.
*/
func TestPasswordReset_EscapesName(t *testing.T) {
	message, err := mail.PasswordReset("ann@example.com", "<b>Ann</b>", "https://app.test/reset?token=abc", "1 hour")
	require.NoError(t, err)

	assert.Equal(t, "ann@example.com", message.To)
	assert.Contains(t, message.HTML, "&lt;b&gt;Ann&lt;/b&gt;")
	assert.Contains(t, message.HTML, "https://app.test/reset?token=abc")
	assert.Contains(t, message.HTML, "1 hour")
}

func TestEmailVerification(t *testing.T) {
	message, err := mail.EmailVerification("ann@example.com", "Ann", "https://app.test/verify?token=xyz", "24 hours")
	require.NoError(t, err)

	assert.Equal(t, "Verify your RecipeHub email", message.Subject)
	assert.Contains(t, message.HTML, "https://app.test/verify?token=xyz")
}

/*
TestResendSender_Send verifies the request sent to the Resend API.
*/
func TestResendSender_Send(t *testing.T) {
	var received resend.SendEmailRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer server.Close()

	client := resend.NewClient("re_test")
	client.BaseURL, _ = url.Parse(server.URL + "/")

	sender, err := mail.NewResendSender(client, "RecipeHub", "no-reply@recipehub.app", discardLogger())
	require.NoError(t, err)

	err = sender.Send(context.Background(), mail.Message{To: "ann@example.com", Subject: "Hello", HTML: "<p>hi</p>"})
	require.NoError(t, err)

	assert.Equal(t, "RecipeHub <no-reply@recipehub.app>", received.From)
	assert.Equal(t, []string{"ann@example.com"}, received.To)
	assert.Equal(t, "Hello", received.Subject)
}

func TestResendSender_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"bad from"}`))
	}))
	defer server.Close()

	client := resend.NewClient("re_test")
	client.BaseURL, _ = url.Parse(server.URL + "/")

	sender, err := mail.NewResendSender(client, "", "no-reply@recipehub.app", discardLogger())
	require.NoError(t, err)

	err = sender.Send(context.Background(), mail.Message{To: "ann@example.com"})
	assert.Error(t, err)
}

func TestNewResendSender_RequiresFromAddress(t *testing.T) {
	_, err := mail.NewResendSender(resend.NewClient("re_test"), "RecipeHub", "", discardLogger())
	assert.Error(t, err)
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, mail.NewLogSender(discardLogger()).Send(context.Background(), mail.Message{To: "ann@example.com"}))
}
