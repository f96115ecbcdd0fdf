// Package sender parses sender addresses and matches them against domain lists.
package sender

import (
	"strings"

	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"
)

// Address is a parsed sender
type Address struct {
	Name   string
	Email  string
	Domain string
}

// Parse reads a From header value. RFC 2047 encoded names are decoded.
// Values that are not valid addresses are kept as the email with no name.
func Parse(from string) Address {
	from = strings.TrimSpace(from)
	var addr Address
	if parsed, err := mail.ParseAddress(from); err == nil {
		addr.Name = strings.Trim(strings.TrimSpace(parsed.Name), `"'`)
		addr.Email = parsed.Address
	} else {
		addr.Email = strings.Trim(from, "<>")
	}
	if at := strings.LastIndex(addr.Email, "@"); at >= 0 {
		addr.Domain = strings.ToLower(addr.Email[at+1:])
	}
	return addr
}

// DisplayName returns the sender's display name, or "" when the header has none
func DisplayName(from string) string {
	return Parse(from).Name
}

// Checker matches sender domains against a configured list
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new domain checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalizedDomains := make([]string, 0, len(domains))
	for _, domain := range domains {
		if d := strings.ToLower(strings.TrimSpace(domain)); d != "" {
			normalizedDomains = append(normalizedDomains, d)
		}
	}

	if len(normalizedDomains) > 0 && logger != nil {
		logger.Info("Initialized sender domain checker", zap.Strings("domains", normalizedDomains))
	}

	return &Checker{
		domains: normalizedDomains,
		logger:  logger,
	}
}

// Matches reports whether the sender's domain is in the list.
// Subdomains of a listed domain match as well.
func (c *Checker) Matches(from string) bool {
	if len(c.domains) == 0 {
		return false
	}

	domain := Parse(from).Domain
	if domain == "" {
		return false
	}

	for _, listed := range c.domains {
		if domain == listed || strings.HasSuffix(domain, "."+listed) {
			if c.logger != nil {
				c.logger.Debug("Sender domain matched",
					zap.String("domain", domain),
					zap.String("email", from))
			}
			return true
		}
	}

	return false
}
