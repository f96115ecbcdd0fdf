// Package mailbox fetches email from IMAP and Gmail mailboxes and sends replies.
package mailbox

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/emersion/go-message/mail"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/sender"

	// Register the charsets used by non UTF-8 messages
	_ "github.com/emersion/go-message/charset"
)

// ParseMessage reads a raw RFC 822 message. The plain text part is preferred;
// HTML-only messages are reduced to their visible text.
func ParseMessage(r io.Reader) (*core.Email, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	defer mr.Close()

	email := &core.Email{Headers: make(map[string][]string)}
	fields := mr.Header.Fields()
	for fields.Next() {
		email.Headers[fields.Key()] = append(email.Headers[fields.Key()], fields.Value())
	}

	email.ID, _ = mr.Header.MessageID()
	if subject, err := mr.Header.Subject(); err == nil {
		email.Subject = subject
	} else {
		email.Subject = mr.Header.Get("Subject")
	}
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		email.From = from[0].Address
		email.FromName = from[0].Name
	} else if raw := mr.Header.Get("From"); raw != "" {
		addr := sender.Parse(raw)
		email.From, email.FromName = addr.Email, addr.Name
	}
	if to, err := mr.Header.AddressList("To"); err == nil {
		for _, addr := range to {
			email.To = append(email.To, addr.Address)
		}
	}

	var plain, html string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if plain == "" && html == "" {
				return email, fmt.Errorf("failed to read message part: %w", err)
			}
			break
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		if ct == "" {
			ct = "text/plain"
		}
		body, err := io.ReadAll(p.Body)
		if err != nil {
			continue
		}
		switch {
		case strings.HasPrefix(ct, "text/plain") && plain == "":
			plain = string(body)
		case strings.HasPrefix(ct, "text/html") && html == "":
			html = string(body)
		}
	}

	switch {
	case strings.TrimSpace(plain) != "":
		email.Body = strings.TrimSpace(plain)
	case html != "":
		email.Body = HTMLText(html)
	}

	return email, nil
}

// HTMLText returns the visible text of an HTML document
func HTMLText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("script, style, head").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// BuildReply renders a plain text reply as a raw RFC 822 message
func BuildReply(to, subject, body string) ([]byte, error) {
	var h mail.Header
	h.SetAddressList("To", []*mail.Address{addressOf(to)})
	h.SetSubject(ReplySubject(subject))
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create reply: %w", err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		return nil, fmt.Errorf("failed to write reply body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close reply: %w", err)
	}
	return buf.Bytes(), nil
}

// ReplySubject prefixes subject with "Re: " unless it already is a reply
func ReplySubject(subject string) string {
	subject = strings.TrimSpace(subject)
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

func addressOf(to string) *mail.Address {
	addr := sender.Parse(to)
	return &mail.Address{Name: addr.Name, Address: addr.Email}
}

// Preview shortens a body for listings
func Preview(body string) string {
	return core.Preview(body, 100)
}

var headerLine = regexp.MustCompile(`^([!-9;-~]+):`)

// LooksLikeMessage reports whether data starts with an RFC 822 header block
// carrying a From or Subject field. Anything else is treated as plain text.
func LooksLikeMessage(data []byte) bool {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	seen := false
	for _, line := range lines {
		if line == "" {
			return seen
		}
		if line[0] == ' ' || line[0] == '\t' {
			continue
		}
		m := headerLine.FindStringSubmatch(line)
		if m == nil {
			return false
		}
		switch strings.ToLower(m[1]) {
		case "from", "subject":
			seen = true
		}
	}
	return seen
}
