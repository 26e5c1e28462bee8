// Package redaction provides shared redaction functionality for log output.
// The credential cache depends on it to guarantee the sudo token never
// survives into a log line in clear text.
package redaction

import (
	"log/slog"
	"strings"
)

// Placeholder is the replacement text for redacted values.
const Placeholder = "[REDACTED]"

// Config controls how sensitive information is redacted.
type Config struct {
	// Placeholder replaces redacted values (e.g. "[REDACTED]").
	Placeholder string
	// SensitiveKeys are attribute keys whose values are always redacted,
	// matched case-insensitively as substrings.
	SensitiveKeys []string
	// KeyValuePatterns are keys for key=value redaction inside free text,
	// e.g. "password" redacts "password=hunter2".
	KeyValuePatterns []string
}

// DefaultConfig returns the default redaction configuration.
func DefaultConfig() *Config {
	return &Config{
		Placeholder:      Placeholder,
		SensitiveKeys:    []string{"password", "passwd", "token", "secret", "credential", "api_key", "apikey"},
		KeyValuePatterns: []string{"password", "passwd", "token", "secret"},
	}
}

// IsSensitiveKey reports whether an attribute key should have its value redacted.
func (c *Config) IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, k := range c.SensitiveKeys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// RedactText redacts key=value occurrences of sensitive keys in free text.
// The value is considered to extend to the next whitespace character.
func (c *Config) RedactText(text string) string {
	if text == "" {
		return text
	}
	result := text
	for _, key := range c.KeyValuePatterns {
		result = redactKeyValue(result, key, c.Placeholder)
	}
	return result
}

// RedactAttr redacts sensitive information from a single log attribute.
// Group values are handled recursively.
func (c *Config) RedactAttr(attr slog.Attr) slog.Attr {
	if c.IsSensitiveKey(attr.Key) {
		return slog.Attr{Key: attr.Key, Value: slog.StringValue(c.Placeholder)}
	}

	switch attr.Value.Kind() {
	case slog.KindString:
		if redacted := c.RedactText(attr.Value.String()); redacted != attr.Value.String() {
			return slog.Attr{Key: attr.Key, Value: slog.StringValue(redacted)}
		}
	case slog.KindGroup:
		groupAttrs := attr.Value.Group()
		redacted := make([]slog.Attr, 0, len(groupAttrs))
		for _, ga := range groupAttrs {
			redacted = append(redacted, c.RedactAttr(ga))
		}
		return slog.Attr{Key: attr.Key, Value: slog.GroupValue(redacted...)}
	}
	return attr
}

// redactKeyValue replaces the value part of "key=value" (and "key: value")
// occurrences with the placeholder, case-insensitive on the key.
func redactKeyValue(text, key, placeholder string) string {
	lower := strings.ToLower(text)
	lowerKey := strings.ToLower(key)

	var b strings.Builder
	pos := 0
	for {
		idx := strings.Index(lower[pos:], lowerKey)
		if idx < 0 {
			b.WriteString(text[pos:])
			break
		}
		idx += pos

		// The key must start at a word boundary.
		if idx > 0 && isWordByte(text[idx-1]) {
			b.WriteString(text[pos : idx+len(key)])
			pos = idx + len(key)
			continue
		}

		sepIdx := idx + len(lowerKey)
		if sepIdx >= len(text) || (text[sepIdx] != '=' && text[sepIdx] != ':') {
			b.WriteString(text[pos : idx+len(key)])
			pos = idx + len(key)
			continue
		}

		valStart := sepIdx + 1
		for valStart < len(text) && text[valStart] == ' ' {
			valStart++
		}
		valEnd := valStart
		for valEnd < len(text) && !isSpaceByte(text[valEnd]) {
			valEnd++
		}

		b.WriteString(text[pos:valStart])
		b.WriteString(placeholder)
		pos = valEnd
	}
	return b.String()
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
