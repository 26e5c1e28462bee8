package gate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Structural validators. Acceptance is shape-based: anything that is not
// exactly four octets with an optional prefix, or a comma list of ports
// and ranges, is rejected, which rules out shell metacharacters without a
// blacklist.
var (
	ipPattern        = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}(/\d{1,2})?$`)
	portPattern      = regexp.MustCompile(`^\d+(-\d+)?(,\d+(-\d+)?)*$`)
	bssidPattern     = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}$`)
	hostnamePattern  = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)*[a-zA-Z]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)
	ssidMetaReplacer = strings.NewReplacer(
		";", `\;`, "&", `\&`, "|", `\|`, "`", "\\`", "$", `\$`,
		"(", `\(`, ")", `\)`, "{", `\{`, "}", `\}`, "[", `\[`, "]", `\]`,
		"<", `\<`, ">", `\>`, "'", `\'`, `"`, `\"`,
	)
)

// Port bounds.
const (
	minPort = 1
	maxPort = 65535
)

// maxSSIDLength is the WPA2 maximum SSID length.
const maxSSIDLength = 32

// maxCount bounds numeric count arguments.
const maxCount = 100

// HiddenSSID is returned for empty or unprintable network names.
const HiddenSSID = "<HIDDEN>"

// IsValidIPOrCIDR reports whether value is a well-formed IPv4 address with
// an optional /0..32 prefix. Each octet must be at most 255.
func IsValidIPOrCIDR(value string) bool {
	if !ipPattern.MatchString(value) {
		return false
	}

	ip, prefix, hasPrefix := strings.Cut(value, "/")
	for _, octet := range strings.Split(ip, ".") {
		n, err := strconv.Atoi(octet)
		if err != nil || n > 255 {
			return false
		}
	}

	if hasPrefix {
		n, err := strconv.Atoi(prefix)
		if err != nil || n < 0 || n > 32 {
			return false
		}
	}

	return true
}

// IsValidPortRange reports whether value is one or more comma-separated
// ports or a-b ranges with every numeric token in [1, 65535].
func IsValidPortRange(value string) bool {
	if !portPattern.MatchString(value) {
		return false
	}

	for _, token := range strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == '-' }) {
		n, err := strconv.Atoi(token)
		if err != nil || n < minPort || n > maxPort {
			return false
		}
	}

	return true
}

// IsValidCount reports whether value is a small positive integer suitable
// for a bounded packet count.
func IsValidCount(value string) bool {
	n, err := strconv.Atoi(value)
	return err == nil && n >= 1 && n <= maxCount
}

func isValidBSSID(value string) bool {
	return bssidPattern.MatchString(value)
}

// IsValidScanTarget reports whether value is a valid scan target: an IPv4
// address (with optional CIDR prefix) or a hostname containing at least
// one letter.
func IsValidScanTarget(value string) bool {
	if value == "" {
		return false
	}
	return IsValidIPOrCIDR(value) || hostnamePattern.MatchString(value)
}

// ValidateBSSID validates a MAC address of the form XX:XX:XX:XX:XX:XX or
// XX-XX-XX-XX-XX-XX and returns it normalized to uppercase.
func ValidateBSSID(bssid string) (string, error) {
	trimmed := strings.TrimSpace(bssid)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty value", ErrInvalidBSSID)
	}
	if !bssidPattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidBSSID, bssid)
	}
	return strings.ToUpper(trimmed), nil
}

// SanitizeSSID cleans a network name for display and logging: control
// characters are dropped, the WPA2 length cap is enforced, and shell
// metacharacters are escaped. Empty or fully unprintable names come back
// as HiddenSSID.
func SanitizeSSID(ssid string) string {
	var b strings.Builder
	for _, r := range ssid {
		if unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}

	cleaned := strings.TrimSpace(b.String())
	if utf8.RuneCountInString(cleaned) > maxSSIDLength {
		runes := []rune(cleaned)
		cleaned = string(runes[:maxSSIDLength])
	}
	if cleaned == "" {
		return HiddenSSID
	}

	return ssidMetaReplacer.Replace(cleaned)
}
