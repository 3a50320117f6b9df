// Package privacy masks personal data (client IPs, lead contact details)
// before it reaches general-purpose logs.
package privacy

import (
	"net/netip"
	"strings"
)

// AnonymizeIP truncates an IP address to its network: IPv4 to /24
// ("192.168.1.47" -> "192.168.1.0"), IPv6 to /48 ("2001:db8:85a3::8a2e" -> "2001:db8:85a3::").
// Returns "unknown" for empty input and "invalid" for unparseable input.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap()

	bits := 48
	if addr.Is4() {
		bits = 24
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}

// MaskEmail keeps the first character of the local part and the domain:
// "jean.kouassi@example.ci" -> "j***@example.ci".
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	if !ok || local == "" || domain == "" {
		if email == "" {
			return ""
		}
		return "***"
	}
	return local[:1] + "***@" + domain
}

// MaskPhone keeps only the last two digits: "+225 07 08 09 10 11" -> "***11".
func MaskPhone(phone string) string {
	var digits []byte
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	if len(digits) < 4 {
		if phone == "" {
			return ""
		}
		return "***"
	}
	return "***" + string(digits[len(digits)-2:])
}
