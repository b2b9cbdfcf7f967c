// Package suggest serves search-box suggestions: a synchronous lookup for the
// gateway and a debouncer for interactive typing.
package suggest

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"storefront/internal/metrics"
)

const (
	DefaultDelay     = 300 * time.Millisecond
	DefaultTimeout   = 3 * time.Second
	DefaultMinLength = 2
)

// Source completes a partial query.
type Source interface {
	Autocomplete(ctx context.Context, query string) ([]string, error)
}

// Suggester applies the minimum length and timeout to a Source.
type Suggester struct {
	source    Source
	minLength int
	timeout   time.Duration
}

// Option configures a Suggester.
type Option func(*Suggester)

func WithMinLength(n int) Option {
	return func(s *Suggester) { s.minLength = n }
}

func WithTimeout(d time.Duration) Option {
	return func(s *Suggester) { s.timeout = d }
}

func New(source Source, opts ...Option) *Suggester {
	s := &Suggester{source: source, minLength: DefaultMinLength, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Accepts reports whether query is long enough to be looked up.
func (s *Suggester) Accepts(query string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(query)) >= s.minLength
}

// Lookup returns completions for query. Queries shorter than the minimum
// length return nothing without a request.
func (s *Suggester) Lookup(ctx context.Context, query string) ([]string, error) {
	q := strings.TrimSpace(query)
	if !s.Accepts(q) {
		metrics.AutocompleteRequests.WithLabelValues("short").Inc()
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	out, err := s.source.Autocomplete(ctx, q)
	if err != nil {
		metrics.AutocompleteRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.AutocompleteRequests.WithLabelValues("ok").Inc()
	return out, nil
}

// Debouncer turns keystrokes into lookups: each Type call cancels the pending
// lookup, and a lookup only starts once typing pauses for the delay. Results
// of superseded lookups are never delivered; errors deliver no suggestions.
type Debouncer struct {
	suggester *Suggester
	delay     time.Duration
	deliver   func(query string, suggestions []string)

	mu     sync.Mutex
	seq    uint64
	timer  *time.Timer
	cancel context.CancelFunc
}

// NewDebouncer calls deliver with the suggestions for the latest query.
// deliver runs on its own goroutine.
func (s *Suggester) NewDebouncer(delay time.Duration, deliver func(query string, suggestions []string)) *Debouncer {
	return &Debouncer{suggester: s, delay: delay, deliver: deliver}
}

// Type records the current contents of the search box.
func (d *Debouncer) Type(query string) {
	d.mu.Lock()
	d.seq++
	seq := d.seq
	d.stopLocked()
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < d.suggester.minLength {
		d.mu.Unlock()
		d.deliver(q, nil)
		return
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq, q) })
	d.mu.Unlock()
}

// Stop cancels any pending or in-flight lookup.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	d.stopLocked()
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Debouncer) fire(seq uint64, q string) {
	d.mu.Lock()
	if seq != d.seq {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.mu.Unlock()

	out, err := d.suggester.Lookup(ctx, q)
	cancel()

	d.mu.Lock()
	current := seq == d.seq
	d.mu.Unlock()
	if !current {
		metrics.AutocompleteRequests.WithLabelValues("superseded").Inc()
		return
	}
	if err != nil {
		out = nil
	}
	d.deliver(q, out)
}
