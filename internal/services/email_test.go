package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mantty/host-api/internal/config"
	"github.com/mantty/host-api/pkg/apperror"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullSMTP() config.SMTPConfig {
	return config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     "587",
		Username: "user@example.com",
		Password: "password",
		From:     "noreply@example.com",
	}
}

func TestEmailService_IsConfigured_True(t *testing.T) {
	svc := NewEmailService(config.EmailConfig{}, fullSMTP(), zerolog.Nop())

	assert.True(t, svc.IsConfigured())
	assert.Equal(t, EmailModeSMTP, svc.Mode())
}

func TestEmailService_IsConfigured_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.SMTPConfig)
	}{
		{"host", func(c *config.SMTPConfig) { c.Host = "" }},
		{"username", func(c *config.SMTPConfig) { c.Username = "" }},
		{"password", func(c *config.SMTPConfig) { c.Password = "" }},
		{"from", func(c *config.SMTPConfig) { c.From = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fullSMTP()
			tt.mutate(&cfg)
			svc := NewEmailService(config.EmailConfig{}, cfg, zerolog.Nop())

			assert.False(t, svc.IsConfigured())
		})
	}
}

func TestEmailService_Send_Simulated(t *testing.T) {
	svc := NewEmailService(config.EmailConfig{}, config.SMTPConfig{}, zerolog.Nop())

	simulated, err := svc.SendInvite(context.Background(), "vecino@example.com", "Torre A", "residente", "https://app/join?code=X")

	require.NoError(t, err)
	assert.True(t, simulated)
	assert.Equal(t, EmailModeSimulated, svc.Mode())
}

func TestEmailService_Send_HTTPProvider(t *testing.T) {
	var got emailPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1"}`))
	}))
	defer server.Close()

	svc := NewEmailService(config.EmailConfig{APIKey: "re_test", APIURL: server.URL, From: "Mantty <no-reply@mantty.app>"},
		config.SMTPConfig{}, zerolog.Nop())

	simulated, err := svc.SendInvite(context.Background(), "prov@example.com", "Torre <B>", "proveedor", "https://app/join")

	require.NoError(t, err)
	assert.False(t, simulated)
	assert.Equal(t, []string{"prov@example.com"}, got.To)
	assert.Equal(t, "Mantty <no-reply@mantty.app>", got.From)
	assert.Contains(t, got.HTML, "Torre &lt;B&gt;")
	assert.Contains(t, got.HTML, "Proveedor de servicios")
}

func TestEmailService_Send_HTTPProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from"}`))
	}))
	defer server.Close()

	svc := NewEmailService(config.EmailConfig{APIKey: "re_test", APIURL: server.URL}, config.SMTPConfig{}, zerolog.Nop())

	_, err := svc.Send(context.Background(), "a@example.com", "s", "b")

	assert.ErrorIs(t, err, apperror.ErrRemoteFailure)
}
