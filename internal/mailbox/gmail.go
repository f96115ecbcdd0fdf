package mailbox

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/sender"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailMessage is an inbox message together with its reply status
type GmailMessage struct {
	Email *core.Email
	// AlreadyReplied is true when the thread holds a message the user sent
	AlreadyReplied bool
}

// Reply is an outgoing reply
type Reply struct {
	ToEmail  string `json:"to_email"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	ThreadID string `json:"thread_id,omitempty"`
}

// GmailClient talks to the Gmail API on behalf of a user access token
type GmailClient struct {
	endpoint string
	logger   *zap.Logger
}

// NewGmailClient creates a new Gmail client. An empty endpoint uses the public API.
func NewGmailClient(endpoint string, logger *zap.Logger) *GmailClient {
	return &GmailClient{endpoint: endpoint, logger: logger}
}

func (g *GmailClient) service(ctx context.Context, accessToken string) (*gmail.Service, error) {
	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})),
	}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return svc, nil
}

// FetchLatest returns the latest inbox messages, newest first
func (g *GmailClient) FetchLatest(ctx context.Context, accessToken string, maxResults int64) ([]GmailMessage, error) {
	svc, err := g.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	list, err := svc.Users.Messages.List("me").LabelIds("INBOX").MaxResults(maxResults).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	messages := make([]GmailMessage, 0, len(list.Messages))
	for _, ref := range list.Messages {
		msg, err := svc.Users.Messages.Get("me", ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to get message %s: %w", ref.Id, err)
		}

		email := emailFromGmail(msg)
		replied, err := g.alreadyReplied(ctx, svc, msg.Id, msg.ThreadId)
		if err != nil {
			g.logger.Warn("Failed to check thread for replies",
				zap.String("thread_id", msg.ThreadId),
				zap.Error(err))
		}
		messages = append(messages, GmailMessage{Email: email, AlreadyReplied: replied})
	}

	g.logger.Info("Fetched Gmail messages", zap.Int("count", len(messages)))
	return messages, nil
}

func (g *GmailClient) alreadyReplied(ctx context.Context, svc *gmail.Service, messageID, threadID string) (bool, error) {
	if threadID == "" {
		return false, nil
	}
	thread, err := svc.Users.Threads.Get("me", threadID).Format("minimal").Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("failed to get thread: %w", err)
	}
	for _, m := range thread.Messages {
		if m.Id == messageID {
			continue
		}
		for _, label := range m.LabelIds {
			if label == "SENT" {
				return true, nil
			}
		}
	}
	return false, nil
}

// SendReply sends reply as the user, threaded when ThreadID is set. It returns
// the id of the sent message.
func (g *GmailClient) SendReply(ctx context.Context, accessToken string, reply Reply) (string, error) {
	svc, err := g.service(ctx, accessToken)
	if err != nil {
		return "", err
	}

	raw, err := BuildReply(reply.ToEmail, reply.Subject, reply.Body)
	if err != nil {
		return "", err
	}

	msg := &gmail.Message{
		Raw:      base64.URLEncoding.EncodeToString(raw),
		ThreadId: reply.ThreadID,
	}
	sent, err := svc.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to send reply: %w", err)
	}

	g.logger.Info("Sent Gmail reply", zap.String("id", sent.Id), zap.String("thread_id", sent.ThreadId))
	return sent.Id, nil
}

func emailFromGmail(msg *gmail.Message) *core.Email {
	email := &core.Email{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Headers:  make(map[string][]string),
	}
	if msg.Payload == nil {
		return email
	}

	for _, h := range msg.Payload.Headers {
		email.Headers[h.Name] = append(email.Headers[h.Name], h.Value)
		switch strings.ToLower(h.Name) {
		case "subject":
			email.Subject = h.Value
		case "from":
			addr := sender.Parse(h.Value)
			email.From, email.FromName = addr.Email, addr.Name
		case "to":
			email.To = append(email.To, h.Value)
		}
	}

	var plain, html string
	collectBodies(msg.Payload, &plain, &html)
	switch {
	case strings.TrimSpace(plain) != "":
		email.Body = strings.TrimSpace(plain)
	case html != "":
		email.Body = HTMLText(html)
	}
	return email
}

func collectBodies(part *gmail.MessagePart, plain, html *string) {
	if part == nil {
		return
	}
	if part.Body != nil && part.Body.Data != "" {
		switch {
		case part.MimeType == "text/plain" && *plain == "":
			*plain = decodeBody(part.Body.Data)
		case part.MimeType == "text/html" && *html == "":
			*html = decodeBody(part.Body.Data)
		}
	}
	for _, p := range part.Parts {
		collectBodies(p, plain, html)
	}
}

func decodeBody(data string) string {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	if b, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	return ""
}
