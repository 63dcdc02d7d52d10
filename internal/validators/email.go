package validators

import (
	"net"
	"net/mail"
	"strings"
)

// IsEmailDomainValid accepts an address only when it parses as a bare
// RFC 5322 address and its domain answers DNS with either an MX record or a
// host address. A resolver outage fails closed; crews sign up from the
// office, not from a dead-zone site.
func IsEmailDomainValid(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}

	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	if domain == "" {
		return false
	}

	if mx, err := net.LookupMX(domain); err == nil && len(mx) > 0 {
		return true
	}
	// No MX: fall back to an A/AAAA record, plenty of small shops run mail
	// on the bare host.
	if ips, err := net.LookupIP(domain); err == nil && len(ips) > 0 {
		return true
	}
	return false
}
