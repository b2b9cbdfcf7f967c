// Package catalog holds the process-wide attribute catalog: the server-defined
// attributes (Color, Talla, Género, ...) and their values, loaded once and then
// shared read-only by every consumer.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync/atomic"

	"github.com/gosimple/slug"
	"golang.org/x/sync/singleflight"

	"storefront/internal/domain"
)

// Role is the stable part an attribute plays for variant selection and filtering.
type Role int

const (
	RoleNone      Role = iota
	RolePrimary   // color axis
	RoleSecondary // size axis
	RoleUnit      // unit of measure facet
)

func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RoleSecondary:
		return "secondary"
	case RoleUnit:
		return "unit"
	}
	return "none"
}

// Names maps roles to the attribute names the catalog service uses for them.
type Names struct {
	Primary   string
	Secondary string
	Unit      string
}

// DefaultNames are the attribute names served by the catalog backend.
var DefaultNames = Names{Primary: "Color", Secondary: "Talla", Unit: "Unidad de medida"}

// FallbackGroup is the facet group for category values no attribute claims.
const FallbackGroup = "Categoría"

var ErrNotReady = errors.New("catalog: attributes not loaded")

// Loader fetches the attribute list from the catalog service.
type Loader interface {
	Attributes(ctx context.Context) ([]domain.Attribute, error)
}

// snapshot indexes reference positions in attrs.
type snapshot struct {
	attrs  []domain.Attribute
	roles  map[Role]int
	values map[int64]domain.AttributeValue
	owner  map[int64]int
	byText map[string][]int
}

// Catalog is safe for concurrent use. It is written once by Init and read
// without locks afterwards.
type Catalog struct {
	names Names
	snap  atomic.Pointer[snapshot]
	group singleflight.Group
}

// New creates an empty, not-ready catalog.
func New(names Names) *Catalog {
	return &Catalog{names: names}
}

// FromAttributes builds a ready catalog from already fetched attributes.
func FromAttributes(names Names, attrs []domain.Attribute) *Catalog {
	c := New(names)
	c.snap.Store(buildSnapshot(names, attrs))
	return c
}

var defaultCatalog atomic.Pointer[Catalog]

func init() {
	defaultCatalog.Store(New(DefaultNames))
}

// Default returns the process-wide catalog.
func Default() *Catalog { return defaultCatalog.Load() }

// SetDefault replaces the process-wide catalog. Call it during startup only.
func SetDefault(c *Catalog) { defaultCatalog.Store(c) }

// Init loads the attributes once. Concurrent callers share a single fetch; a
// catalog that is already loaded returns immediately. A failed load leaves the
// catalog not ready, so Init may be retried.
func (c *Catalog) Init(ctx context.Context, loader Loader) error {
	if c.Ready() {
		return nil
	}
	return c.load(ctx, loader)
}

// Refresh reloads the attributes even if the catalog is already loaded.
func (c *Catalog) Refresh(ctx context.Context, loader Loader) error {
	return c.load(ctx, loader)
}

func (c *Catalog) load(ctx context.Context, loader Loader) error {
	_, err, shared := c.group.Do("attributes", func() (interface{}, error) {
		attrs, err := loader.Attributes(ctx)
		if err != nil {
			return nil, err
		}
		s := buildSnapshot(c.names, attrs)
		c.snap.Store(s)
		log.Printf("INFO: Attribute catalog loaded: %d attributes, %d values", len(s.attrs), len(s.values))
		for _, r := range []Role{RolePrimary, RoleSecondary, RoleUnit} {
			if _, ok := s.roles[r]; !ok {
				log.Printf("WARN: Attribute catalog has no %s attribute", r)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("catalog: load failed (shared=%t): %w", shared, err)
	}
	return nil
}

func buildSnapshot(names Names, attrs []domain.Attribute) *snapshot {
	s := &snapshot{
		attrs:  attrs,
		roles:  make(map[Role]int),
		values: make(map[int64]domain.AttributeValue),
		owner:  make(map[int64]int),
		byText: make(map[string][]int),
	}
	wanted := make(map[string]Role, 3)
	for r, name := range map[Role]string{RolePrimary: names.Primary, RoleSecondary: names.Secondary, RoleUnit: names.Unit} {
		if key := normalize(name); key != "" {
			wanted[key] = r
		}
	}
	for i, a := range attrs {
		if r, ok := wanted[normalize(a.Name)]; ok {
			if _, taken := s.roles[r]; !taken {
				s.roles[r] = i
			}
		}
		for _, v := range a.Values {
			s.values[v.ID] = v
			s.owner[v.ID] = i
			key := normalize(v.Value)
			if key == "" {
				continue
			}
			s.byText[key] = append(s.byText[key], i)
		}
	}
	return s
}

// normalize folds case and accents so that "Categoría", "categoria" and
// "CATEGORIA" compare equal.
func normalize(s string) string {
	return slug.Make(s)
}

// Ready reports whether attributes have been loaded.
func (c *Catalog) Ready() bool {
	return c.snap.Load() != nil
}

// Attributes returns every loaded attribute, in server order.
func (c *Catalog) Attributes() []domain.Attribute {
	s := c.snap.Load()
	if s == nil {
		return nil
	}
	return s.attrs
}

// Attribute returns the attribute playing role r.
func (c *Catalog) Attribute(r Role) (domain.Attribute, bool) {
	s := c.snap.Load()
	if s == nil {
		return domain.Attribute{}, false
	}
	i, ok := s.roles[r]
	if !ok {
		return domain.Attribute{}, false
	}
	return s.attrs[i], true
}

// ValueIDs returns the set of value ids known for role r. Empty when the
// catalog is not ready or has no such attribute.
func (c *Catalog) ValueIDs(r Role) map[int64]struct{} {
	a, ok := c.Attribute(r)
	if !ok {
		return map[int64]struct{}{}
	}
	ids := make(map[int64]struct{}, len(a.Values))
	for _, v := range a.Values {
		ids[v.ID] = struct{}{}
	}
	return ids
}

// Value looks up an attribute value by id.
func (c *Catalog) Value(id int64) (domain.AttributeValue, bool) {
	s := c.snap.Load()
	if s == nil {
		return domain.AttributeValue{}, false
	}
	v, ok := s.values[id]
	return v, ok
}

// ValueName returns the display string of value id, or "" if unknown.
func (c *Catalog) ValueName(id int64) string {
	v, _ := c.Value(id)
	return v.Value
}

// RoleOf returns the role of the attribute owning value id.
func (c *Catalog) RoleOf(id int64) Role {
	s := c.snap.Load()
	if s == nil {
		return RoleNone
	}
	i, ok := s.owner[id]
	if !ok {
		return RoleNone
	}
	for r, idx := range s.roles {
		if idx == i {
			return r
		}
	}
	return RoleNone
}

// OwnerOf returns the name of the non-role attribute whose values contain text.
// When several attributes share the display string, the first in server order wins.
func (c *Catalog) OwnerOf(text string) (string, bool) {
	s := c.snap.Load()
	if s == nil {
		return "", false
	}
	for _, i := range s.byText[normalize(text)] {
		if s.isRole(i) {
			continue
		}
		return s.attrs[i].Name, true
	}
	return "", false
}

// FacetGroups returns the attributes shown under the catch-all "category"
// filter: every attribute that is not color, size or unit and has values.
func (c *Catalog) FacetGroups() []domain.Attribute {
	s := c.snap.Load()
	if s == nil {
		return nil
	}
	var out []domain.Attribute
	for i, a := range s.attrs {
		if s.isRole(i) || len(a.Values) == 0 {
			continue
		}
		out = append(out, a)
	}
	return out
}

// SortedIDs returns the ids of a set in ascending order.
func SortedIDs(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *snapshot) isRole(i int) bool {
	for _, idx := range s.roles {
		if idx == i {
			return true
		}
	}
	return false
}
