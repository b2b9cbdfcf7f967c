package query

import (
	"storefront/internal/catalog"
)

// FacetGroup is a committed category value set shown under the attribute it
// belongs to.
type FacetGroup struct {
	Attribute string   `json:"attribute"`
	Values    []string `json:"values"`
}

// FacetSelections sorts the committed category values back under their owning
// attributes, so "Hombre" from a shared link shows under "Género". Groups
// follow catalog order; values no attribute owns go to catalog.FallbackGroup.
func (s *State) FacetSelections(c *catalog.Catalog) []FacetGroup {
	s.mu.Lock()
	values := append([]string(nil), s.filters.Category...)
	s.mu.Unlock()

	if len(values) == 0 {
		return nil
	}
	byOwner := make(map[string][]string)
	var fallback []string
	for _, v := range values {
		owner, ok := c.OwnerOf(v)
		if !ok {
			fallback = append(fallback, v)
			continue
		}
		byOwner[owner] = append(byOwner[owner], v)
	}

	var out []FacetGroup
	for _, a := range c.FacetGroups() {
		if vs, ok := byOwner[a.Name]; ok {
			out = append(out, FacetGroup{Attribute: a.Name, Values: vs})
		}
	}
	if len(fallback) == 0 {
		return out
	}
	// A server attribute may itself be called like the fallback bucket.
	for i := range out {
		if out[i].Attribute == catalog.FallbackGroup {
			out[i].Values = append(out[i].Values, fallback...)
			return out
		}
	}
	return append(out, FacetGroup{Attribute: catalog.FallbackGroup, Values: fallback})
}
