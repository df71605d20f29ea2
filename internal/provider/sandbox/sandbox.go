// Package sandbox is a deterministic provider for non-production platforms
// and tests. Results come from a per-account script, or from markers in the
// post text when no script is queued:
//
//	#fail-permanent      permanent failure
//	#fail-transient      transient failure
//	#retry-after=90s     transient failure with a retry hint
//	#hang                block until the call's context ends
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/orgball2608/crosspost/internal/domain"
	"github.com/orgball2608/crosspost/internal/provider"
)

var (
	ErrRejected    = errors.New("sandbox rejected the post")
	ErrUnavailable = errors.New("sandbox temporarily unavailable")
)

var retryAfterMarker = regexp.MustCompile(`#retry-after=(\S+)`)

// Result is one scripted answer for an account.
type Result struct {
	Err        error
	ExternalID string
}

// Call records one Publish invocation.
type Call struct {
	AccountID string
	Content   domain.Content
	At        time.Time
}

type Provider struct {
	platform string

	mu     sync.Mutex
	script map[string][]Result
	calls  []Call
}

var _ provider.Provider = (*Provider)(nil)

func New(platform string) *Provider {
	return &Provider{
		platform: platform,
		script:   make(map[string][]Result),
	}
}

func (p *Provider) Platform() string { return p.platform }

// Script queues results for accountID, consumed one per Publish call.
func (p *Provider) Script(accountID string, results ...Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.script[accountID] = append(p.script[accountID], results...)
}

// Calls returns a copy of every Publish call seen so far.
func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// CallsFor counts Publish calls made for accountID.
func (p *Provider) CallsFor(accountID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		if c.AccountID == accountID {
			n++
		}
	}
	return n
}

func (p *Provider) Publish(ctx context.Context, account domain.Account, content domain.Content) (provider.Receipt, error) {
	p.mu.Lock()
	p.calls = append(p.calls, Call{AccountID: account.ID, Content: content, At: time.Now()})
	var scripted *Result
	if queue := p.script[account.ID]; len(queue) > 0 {
		scripted = &queue[0]
		p.script[account.ID] = queue[1:]
	}
	p.mu.Unlock()

	if scripted != nil {
		if scripted.Err != nil {
			return provider.Receipt{}, scripted.Err
		}
		return p.receipt(scripted.ExternalID), nil
	}

	text := content.Text
	switch {
	case strings.Contains(text, "#hang"):
		<-ctx.Done()
		return provider.Receipt{}, ctx.Err()
	case strings.Contains(text, "#fail-permanent"):
		return provider.Receipt{}, provider.Permanent(ErrRejected)
	case strings.Contains(text, "#fail-transient"):
		return provider.Receipt{}, provider.Transient(ErrUnavailable)
	}
	if m := retryAfterMarker.FindStringSubmatch(text); m != nil {
		d, err := time.ParseDuration(m[1])
		if err != nil {
			return provider.Receipt{}, provider.Permanent(fmt.Errorf("bad retry-after marker %q: %w", m[1], err))
		}
		return provider.Receipt{}, provider.RetryAfter(ErrUnavailable, d)
	}

	if err := ctx.Err(); err != nil {
		return provider.Receipt{}, err
	}
	return p.receipt(""), nil
}

func (p *Provider) receipt(id string) provider.Receipt {
	if id == "" {
		id = uuid.NewString()
	}
	return provider.Receipt{
		ExternalID: id,
		URL:        fmt.Sprintf("sandbox://%s/%s", p.platform, id),
	}
}
