package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sort"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/mikey/email-triage/internal/core"
	"go.uber.org/zap"
)

// IMAPConfig configures IMAP access
type IMAPConfig struct {
	DefaultServer string
	Port          int
	Folder        string
	TLS           bool
	DialTimeout   time.Duration
}

// IMAPCredentials identify a mailbox. They are used for one fetch and never stored.
type IMAPCredentials struct {
	Address  string
	Password string
	// Server overrides IMAPConfig.DefaultServer. It may include a port.
	Server string
}

// IMAPReader reads unread messages over IMAP
type IMAPReader struct {
	cfg    IMAPConfig
	logger *zap.Logger
}

// NewIMAPReader creates a new IMAP reader
func NewIMAPReader(cfg IMAPConfig, logger *zap.Logger) *IMAPReader {
	if cfg.Folder == "" {
		cfg.Folder = "INBOX"
	}
	if cfg.Port == 0 {
		cfg.Port = 993
	}
	return &IMAPReader{cfg: cfg, logger: logger}
}

// FetchUnread returns up to max unread messages, oldest first. Messages are
// read with BODY.PEEK so their \Seen flag is left untouched.
func (r *IMAPReader) FetchUnread(ctx context.Context, creds IMAPCredentials, max int) ([]*core.Email, error) {
	c, err := r.connect(creds)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := c.Logout(); err != nil {
			r.logger.Debug("IMAP logout failed", zap.Error(err))
		}
	}()

	// the IMAP client has no context support, so cancellation closes the connection
	stop := context.AfterFunc(ctx, func() { _ = c.Terminate() })
	defer stop()

	if _, err := c.Select(r.cfg.Folder, true); err != nil {
		return nil, fmt.Errorf("failed to select mailbox %s: %w", r.cfg.Folder, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search emails: %w", err)
	}

	r.logger.Info("Found unread emails", zap.String("folder", r.cfg.Folder), zap.Int("count", len(uids)))
	if len(uids) == 0 {
		return nil, nil
	}

	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	if max > 0 && len(uids) > max {
		uids = uids[:max]
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqSet, items, messages)
	}()

	var emails []*core.Email
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		email, err := ParseMessage(body)
		if err != nil {
			r.logger.Warn("Failed to parse message", zap.Uint32("uid", msg.Uid), zap.Error(err))
			continue
		}
		if email.ID == "" {
			email.ID = fmt.Sprintf("%d", msg.Uid)
		}
		emails = append(emails, email)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	return emails, nil
}

func (r *IMAPReader) connect(creds IMAPCredentials) (*client.Client, error) {
	server := creds.Server
	if server == "" {
		server = r.cfg.DefaultServer
	}
	addr := server
	if _, _, err := net.SplitHostPort(server); err != nil {
		addr = net.JoinHostPort(server, fmt.Sprintf("%d", r.cfg.Port))
	}

	r.logger.Debug("Connecting to IMAP server", zap.String("address", addr))

	dialer := &net.Dialer{Timeout: r.cfg.DialTimeout}
	var (
		c   *client.Client
		err error
	)
	if r.cfg.TLS {
		c, err = client.DialWithDialerTLS(dialer, addr, &tls.Config{ServerName: hostOf(addr)})
	} else {
		c, err = client.DialWithDialer(dialer, addr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	if err := c.Login(creds.Address, creds.Password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	return c, nil
}

func hostOf(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
