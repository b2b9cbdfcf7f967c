package domain

// SortOrder is the single price sort toggle of the listing.
type SortOrder string

const (
	SortNone      SortOrder = ""
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
)

// Valid reports whether s is one of the known sort orders.
func (s SortOrder) Valid() bool {
	switch s {
	case SortNone, SortPriceAsc, SortPriceDesc:
		return true
	}
	return false
}

// ProductFilters is the committed, URL-backed filter state of the listing.
// A nil pointer or empty slice means "no constraint".
type ProductFilters struct {
	Search   string    `json:"search,omitempty"`
	Category []string  `json:"category,omitempty"` // every attribute that is not color, size or unit
	Color    []string  `json:"color,omitempty"`
	Size     []string  `json:"size,omitempty"`
	Unit     []string  `json:"unit,omitempty"`
	PriceMin *float64  `json:"priceMin,omitempty"`
	PriceMax *float64  `json:"priceMax,omitempty"`
	Rating   *float64  `json:"rating,omitempty"`
	InStock  *bool     `json:"inStock,omitempty"`
	SortBy   SortOrder `json:"sortBy,omitempty"`
}

// Clone returns a deep copy of f.
func (f ProductFilters) Clone() ProductFilters {
	out := f
	out.Category = cloneStrings(f.Category)
	out.Color = cloneStrings(f.Color)
	out.Size = cloneStrings(f.Size)
	out.Unit = cloneStrings(f.Unit)
	out.PriceMin = cloneFloat(f.PriceMin)
	out.PriceMax = cloneFloat(f.PriceMax)
	out.Rating = cloneFloat(f.Rating)
	if f.InStock != nil {
		b := *f.InStock
		out.InStock = &b
	}
	return out
}

// IsZero reports whether no filter at all is set (sort excluded).
func (f ProductFilters) IsZero() bool {
	return f.Search == "" && len(f.Category) == 0 && len(f.Color) == 0 && len(f.Size) == 0 &&
		len(f.Unit) == 0 && f.PriceMin == nil && f.PriceMax == nil && f.Rating == nil && f.InStock == nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneFloat(in *float64) *float64 {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}

// SearchRequest is the body of POST /api/search on the search service.
type SearchRequest struct {
	PageNumber int      `json:"pageNumber"`
	PageSize   int      `json:"pageSize"`
	OrderBy    string   `json:"orderBy,omitempty"`
	PriceMin   *float64 `json:"precioMin,omitempty"`
	PriceMax   *float64 `json:"precioMax,omitempty"`
	Categories []string `json:"categoria,omitempty"`
	Colors     []string `json:"colores,omitempty"`
	Sizes      []string `json:"tallas,omitempty"`
	SearchText string   `json:"searchText,omitempty"`
}
