package mailx

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/aussiebroadwan/accounts/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func validConfig() SMTPConfig {
	return SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "user",
		Password: "pass",
		From:     "noreply@example.com",
		FromName: "Accounts",
		TLS:      true,
	}
}

func TestNewSMTPSender(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*SMTPConfig)
		wantErr string
	}{
		{"valid", func(*SMTPConfig) {}, ""},
		{"missing host", func(c *SMTPConfig) { c.Host = "" }, "SMTP host is required"},
		{"missing from", func(c *SMTPConfig) { c.From = "" }, "SMTP from address is required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)

			s, err := NewSMTPSender(cfg)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, s)
		})
	}
}

func TestSMTPSender_DefaultPort(t *testing.T) {
	cfg := validConfig()
	cfg.Port = 0

	s, err := NewSMTPSender(cfg)
	require.NoError(t, err)
	require.Equal(t, 587, s.cfg.Port)
}

func TestSMTPSender_Build(t *testing.T) {
	s, err := NewSMTPSender(validConfig())
	require.NoError(t, err)

	msg, err := s.build(Message{To: "jane@example.com", Subject: "Reset", Body: "link"})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "Subject: Reset")
	require.Contains(t, buf.String(), "<jane@example.com>")
	require.Contains(t, buf.String(), `"Accounts" <noreply@example.com>`)

	_, err = s.build(Message{To: "not an address"})
	require.Error(t, err)
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := slogx.WithContext(context.Background(), logger)

	require.NoError(t, LogSender{}.Send(ctx, Message{To: "jane@example.com", Subject: "Reset", Body: "https://x/confirm"}))
	require.Contains(t, buf.String(), "jane@example.com")
	require.Contains(t, buf.String(), "https://x/confirm")
}
