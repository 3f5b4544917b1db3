// Package digest assembles the chore digest and hands it to a transport.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/chorechart/internal/chore"
)

// Transport delivers a finished digest to one recipient.
type Transport interface {
	Configured() bool
	Send(ctx context.Context, to, subject, body string) error
}

// TransportError reports that the digest could not be delivered. The chore
// data it was built from is unaffected.
type TransportError struct {
	Recipient string
	Err       error
}

func (e *TransportError) Error() string {
	if e.Recipient == "" {
		return fmt.Sprintf("digest transport: %v", e.Err)
	}
	return fmt.Sprintf("digest transport: send to %s: %v", e.Recipient, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ErrNotConfigured is wrapped in a TransportError when no transport or no
// recipient is set up.
var ErrNotConfigured = errors.New("digest transport not configured")

// ChoreLister is the part of chore.Service the digest reads from.
type ChoreLister interface {
	List() ([]chore.View, error)
	Today() time.Time
}

// Digest is a rendered digest.
type Digest struct {
	Date    time.Time
	Subject string
	Body    string
	Count   int
}

type Service struct {
	chores     ChoreLister
	transport  Transport
	recipients []string
	link       string
	logger     *slog.Logger
}

func NewService(chores ChoreLister, transport Transport, recipients []string, logger *slog.Logger) *Service {
	return &Service{chores: chores, transport: transport, recipients: recipients, logger: logger}
}

// WithLink sets the chore chart URL appended to every digest body.
func (s *Service) WithLink(url string) *Service {
	s.link = strings.TrimRight(url, "/")
	return s
}

// NeedsAttention reports whether a chore belongs in the digest.
func NeedsAttention(v chore.View) bool {
	return v.IsPriority || v.Status == chore.StatusOverdue || v.Status == chore.StatusDueSoon
}

// Build selects the chores that need attention and renders them.
func (s *Service) Build() (*Digest, error) {
	views, err := s.chores.List()
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	var selected []chore.View
	for _, v := range views {
		if NeedsAttention(v) {
			selected = append(selected, v)
		}
	}

	today := s.chores.Today()
	body := Render(today, chore.GroupForDigest(selected))
	if s.link != "" {
		body += fmt.Sprintf("\nOpen the chore chart: %s/\n", s.link)
	}
	return &Digest{
		Date:    today,
		Subject: fmt.Sprintf("Chores for %s", today.Format("Mon Jan 2")),
		Body:    body,
		Count:   len(selected),
	}, nil
}

// Send builds the digest and delivers it to every recipient. An empty digest
// is not sent. Delivery failures come back as *TransportError after every
// recipient has been tried.
func (s *Service) Send(ctx context.Context) (*Digest, error) {
	if s.transport == nil || !s.transport.Configured() || len(s.recipients) == 0 {
		return nil, &TransportError{Err: ErrNotConfigured}
	}

	d, err := s.Build()
	if err != nil {
		return nil, err
	}
	if d.Count == 0 {
		s.logger.Info("digest empty, not sending", "date", d.Date.Format(chore.DateLayout))
		return d, nil
	}

	var errs []error
	for _, to := range s.recipients {
		if err := s.transport.Send(ctx, to, d.Subject, d.Body); err != nil {
			s.logger.Error("digest send failed", "to", to, "error", err)
			errs = append(errs, &TransportError{Recipient: to, Err: err})
			continue
		}
		s.logger.Info("digest sent", "to", to, "chores", d.Count)
	}
	return d, errors.Join(errs...)
}

const displayDate = "Jan 2, 2006"

// Render formats grouped chores as the plain-text digest body.
func Render(today time.Time, groups []chore.DigestGroup) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Chores for %s\n", today.Format("Monday, January 2, 2006"))

	if len(groups) == 0 {
		b.WriteString("\nNothing needs attention today.\n")
		return b.String()
	}

	for _, g := range groups {
		fmt.Fprintf(&b, "\n%s\n", g.Assignee)
		for _, v := range g.Chores {
			b.WriteString("  - ")
			if v.IsPriority {
				b.WriteString("[priority] ")
			}
			b.WriteString(v.Title)
			if v.Category != "" {
				fmt.Fprintf(&b, " (%s)", v.Category)
			}
			fmt.Fprintf(&b, ": %s", v.Status)
			if v.NextDue != nil {
				fmt.Fprintf(&b, ", due %s", v.NextDue.Format(displayDate))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
