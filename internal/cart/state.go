// Package cart keeps the shopper's cart in memory and applies every change
// optimistically: the change is visible at once and undone exactly if the
// cart service refuses it.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/metrics"
)

var (
	ErrQuantityBelowMinimum = errors.New("cart: quantity must be at least 1")
	ErrLineNotFound         = errors.New("cart: line not found")
)

// DefaultErrorTTL is how long LastError keeps reporting a failed mutation.
const DefaultErrorTTL = 5 * time.Second

// Remote is the cart service. Every call returns the authoritative cart.
type Remote interface {
	Cart(ctx context.Context) (domain.Cart, error)
	AddItem(ctx context.Context, productID, variantID int64, quantity int32) (domain.Cart, error)
	UpdateItem(ctx context.Context, productID, variantID int64, quantity int32) (domain.Cart, error)
	RemoveItem(ctx context.Context, productID, variantID int64) (domain.Cart, error)
	ClearItems(ctx context.Context) (domain.Cart, error)
}

// State is the local copy of one cart. Mutations may run concurrently; each
// one commits or rolls back on its own.
type State struct {
	remote Remote
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	cart    domain.Cart
	version uint64
	loaded  bool
	lastErr error
	errAt   time.Time
}

// Option configures a State.
type Option func(*State)

// WithErrorTTL changes how long a mutation error stays visible.
func WithErrorTTL(d time.Duration) Option {
	return func(s *State) { s.ttl = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

func New(remote Remote, opts ...Option) *State {
	s := &State{remote: remote, ttl: DefaultErrorTTL, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the local cart with the one held by the cart service. On
// failure the local cart is left as it was.
func (s *State) Load(ctx context.Context) error {
	c, err := s.remote.Cart(ctx)
	if err != nil {
		return fmt.Errorf("cart: load failed: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = c.Clone()
	s.loaded = true
	s.version++
	return nil
}

// Loaded reports whether Load has succeeded at least once.
func (s *State) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Snapshot returns a deep copy of the cart as currently displayed.
func (s *State) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// Count is the number of units across all lines.
func (s *State) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, li := range s.cart.Items {
		n += int(li.Quantity)
	}
	return n
}

// CanDecrement reports whether the line's quantity can go down by one. Views
// disable the decrement control when it cannot.
func (s *State) CanDecrement(productID, variantID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.cart.Find(domain.LineKey{ProductID: productID, VariantID: variantID})
	return i >= 0 && s.cart.Items[i].Quantity > 1
}

// LastError returns the error of the most recent failed mutation until the
// error TTL has passed.
func (s *State) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastErr == nil || s.now().Sub(s.errAt) >= s.ttl {
		return nil
	}
	return s.lastErr
}

// DismissError clears the mutation error before it expires.
func (s *State) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
}

// Add puts quantity units of a line in the cart, merging with an existing
// line of the same product and variant.
func (s *State) Add(ctx context.Context, item domain.CartLineItem) error {
	if item.Quantity < 1 {
		return ErrQuantityBelowMinimum
	}
	return s.mutate(ctx, "add", func(c *domain.Cart) error {
		if i := c.Find(item.Key()); i >= 0 {
			c.Items[i].Quantity += item.Quantity
			return nil
		}
		c.Items = append(c.Items, item)
		return nil
	}, func(ctx context.Context) (domain.Cart, error) {
		return s.remote.AddItem(ctx, item.ProductID, item.VariantID, item.Quantity)
	})
}

// UpdateQuantity sets a line's quantity. Quantities below 1 are refused
// before anything changes; use Remove to drop a line.
func (s *State) UpdateQuantity(ctx context.Context, productID, variantID int64, quantity int32) error {
	if quantity < 1 {
		return ErrQuantityBelowMinimum
	}
	key := domain.LineKey{ProductID: productID, VariantID: variantID}
	return s.mutate(ctx, "update", func(c *domain.Cart) error {
		i := c.Find(key)
		if i < 0 {
			return ErrLineNotFound
		}
		c.Items[i].Quantity = quantity
		return nil
	}, func(ctx context.Context) (domain.Cart, error) {
		return s.remote.UpdateItem(ctx, productID, variantID, quantity)
	})
}

// Remove drops a line.
func (s *State) Remove(ctx context.Context, productID, variantID int64) error {
	key := domain.LineKey{ProductID: productID, VariantID: variantID}
	return s.mutate(ctx, "remove", func(c *domain.Cart) error {
		i := c.Find(key)
		if i < 0 {
			return ErrLineNotFound
		}
		c.Items = append(c.Items[:i:i], c.Items[i+1:]...)
		return nil
	}, func(ctx context.Context) (domain.Cart, error) {
		return s.remote.RemoveItem(ctx, productID, variantID)
	})
}

// Clear empties the cart.
func (s *State) Clear(ctx context.Context) error {
	return s.mutate(ctx, "clear", func(c *domain.Cart) error {
		c.Items = []domain.CartLineItem{}
		return nil
	}, func(ctx context.Context) (domain.Cart, error) {
		return s.remote.ClearItems(ctx)
	})
}

// mutate snapshots the cart, applies the change locally and calls the cart
// service without holding the lock. A success installs the server cart
// unless a later mutation has been applied meanwhile, which will install its
// own. A failure restores the snapshot; when other mutations landed in
// between, only the lines this change touched are restored.
func (s *State) mutate(ctx context.Context, op string, apply func(*domain.Cart) error, call func(context.Context) (domain.Cart, error)) error {
	s.mu.Lock()
	before := s.cart.Clone()
	next := s.cart.Clone()
	if err := apply(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cart = next
	s.version++
	mine := s.version
	s.mu.Unlock()

	server, err := call(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if s.version == mine {
			s.cart = before
		} else {
			s.cart = restoreLines(s.cart, before, next)
		}
		s.lastErr = fmt.Errorf("cart: %s failed: %w", op, err)
		s.errAt = s.now()
		metrics.CartRollbacks.WithLabelValues(op).Inc()
		log.Printf("WARN: cart %s rolled back: %v", op, err)
		return s.lastErr
	}
	if s.version == mine {
		s.cart = server.Clone()
		s.loaded = true
	}
	return nil
}

// restoreLines undoes on current the line changes that turned before into
// after, leaving every other line as current has it.
func restoreLines(current, before, after domain.Cart) domain.Cart {
	out := current.Clone()
	for i, li := range before.Items {
		j := after.Find(li.Key())
		if j >= 0 && after.Items[j].Quantity == li.Quantity {
			continue
		}
		if k := out.Find(li.Key()); k >= 0 {
			out.Items[k] = li
			continue
		}
		// Put a removed line back at its old position when possible.
		pos := min(i, len(out.Items))
		out.Items = slices.Insert(out.Items, pos, li)
	}
	for _, li := range after.Items {
		if before.Find(li.Key()) >= 0 {
			continue
		}
		if k := out.Find(li.Key()); k >= 0 {
			out.Items = append(out.Items[:k:k], out.Items[k+1:]...)
		}
	}
	return out
}
