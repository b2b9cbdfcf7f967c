// Package gallery derives the image strip of a product page and keeps the
// active image in step with the color/size selection.
package gallery

import (
	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/variant"
)

// Selector computes gallery images and the active index for a product.
type Selector struct {
	catalog  *catalog.Catalog
	resolver *variant.Resolver
}

func NewSelector(c *catalog.Catalog, r *variant.Resolver) *Selector {
	return &Selector{catalog: c, resolver: r}
}

// CollectImages returns the product images in stored order followed by one
// representative image per distinct color, in variant order. URLs never repeat.
func (s *Selector) CollectImages(p domain.Product) []string {
	seen := make(map[string]struct{}, len(p.BaseImages))
	out := make([]string, 0, len(p.BaseImages))
	add := func(url string) {
		if url == "" {
			return
		}
		if _, dup := seen[url]; dup {
			return
		}
		seen[url] = struct{}{}
		out = append(out, url)
	}
	for _, img := range p.BaseImages {
		add(img)
	}
	reps := s.colorRepresentatives(p.Variants)
	for _, color := range reps.order {
		add(reps.image[color])
	}
	return out
}

type representatives struct {
	order []int64
	image map[int64]string
}

// colorRepresentatives picks, per color, the first image of the first variant
// of that color that has any image. Colors without images are skipped.
func (s *Selector) colorRepresentatives(variants []domain.Variant) representatives {
	reps := representatives{image: make(map[int64]string)}
	colors := s.catalog.ValueIDs(catalog.RolePrimary)
	if len(colors) == 0 {
		return reps
	}
	for _, v := range variants {
		if len(v.Images) == 0 {
			continue
		}
		for _, id := range v.AttributeValues {
			if _, ok := colors[id]; !ok {
				continue
			}
			if _, done := reps.image[id]; done {
				continue
			}
			reps.image[id] = v.Images[0]
			reps.order = append(reps.order, id)
		}
	}
	return reps
}

// ActiveIndex picks the image to show for sel: the resolved variant's first
// image, else the chosen color's representative, else the first image. When
// the target is not among images, previous is kept to avoid the view jumping.
func (s *Selector) ActiveIndex(images []string, sel domain.Selection, variants []domain.Variant, previous int) int {
	if sel.Empty() {
		return 0
	}
	var target string
	if v := s.resolver.Resolve(sel, variants); v != nil && len(v.Images) > 0 {
		target = v.Images[0]
	} else if sel.ColorValueID != 0 {
		target = s.colorRepresentatives(variants).image[sel.ColorValueID]
	} else {
		return 0
	}
	for i, img := range images {
		if img == target && target != "" {
			return i
		}
	}
	return previous
}
