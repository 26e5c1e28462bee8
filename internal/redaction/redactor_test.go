package redaction

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSensitiveKey(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		key       string
		sensitive bool
	}{
		{"password", true},
		{"sudo_password", true},
		{"API_KEY", true},
		{"token_age_sec", true},
		{"command", false},
		{"target", false},
		{"exit_code", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.sensitive, cfg.IsSensitiveKey(tt.key))
		})
	}
}

func TestRedactText(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "key equals value",
			in:   "auth with password=hunter2 ok",
			want: "auth with password=" + Placeholder + " ok",
		},
		{
			name: "key colon value",
			in:   "token: abc123",
			want: "token: " + Placeholder,
		},
		{
			name: "no sensitive content",
			in:   "nmap -F 192.168.1.1",
			want: "nmap -F 192.168.1.1",
		},
		{
			name: "key as substring of larger word untouched",
			in:   "passwordless=true",
			want: "passwordless=true",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.RedactText(tt.in))
		})
	}
}

func TestRedactAttr(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("sensitive key redacted", func(t *testing.T) {
		attr := cfg.RedactAttr(slog.String("password", "hunter2"))
		assert.Equal(t, Placeholder, attr.Value.String())
	})

	t.Run("plain attr untouched", func(t *testing.T) {
		attr := cfg.RedactAttr(slog.String("command", "nmap"))
		assert.Equal(t, "nmap", attr.Value.String())
	})

	t.Run("group redacted recursively", func(t *testing.T) {
		attr := cfg.RedactAttr(slog.Group("details",
			slog.String("token", "abc"),
			slog.String("target", "10.0.0.1"),
		))
		group := attr.Value.Group()
		assert.Equal(t, Placeholder, group[0].Value.String())
		assert.Equal(t, "10.0.0.1", group[1].Value.String())
	})
}
