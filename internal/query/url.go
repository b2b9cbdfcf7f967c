package query

import (
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"storefront/internal/domain"
)

// Shareable URL parameters.
const (
	ParamSearch   = "search"
	ParamCategory = "category"
	ParamColor    = "color"
	ParamSize     = "size"
	ParamUnit     = "unit"
	ParamPriceMin = "priceMin"
	ParamPriceMax = "priceMax"
	ParamRating   = "rating"
	ParamInStock  = "inStock"
	ParamPage     = "page"
	ParamLimit    = "limit"
	ParamSort     = "sort"
)

// Encode renders the committed filters, page and sort as query parameters.
// Multi-value facets are comma-joined, with commas inside a value escaped as
// %2C; unset filters are left out.
func (s *State) Encode() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.filters
	v := url.Values{}
	if f.Search != "" {
		v.Set(ParamSearch, f.Search)
	}
	setList(v, ParamCategory, f.Category)
	setList(v, ParamColor, f.Color)
	setList(v, ParamSize, f.Size)
	setList(v, ParamUnit, f.Unit)
	setFloat(v, ParamPriceMin, f.PriceMin)
	setFloat(v, ParamPriceMax, f.PriceMax)
	setFloat(v, ParamRating, f.Rating)
	if f.InStock != nil {
		v.Set(ParamInStock, strconv.FormatBool(*f.InStock))
	}
	if f.SortBy != domain.SortNone {
		v.Set(ParamSort, string(f.SortBy))
	}
	v.Set(ParamPage, strconv.Itoa(s.page.Page))
	v.Set(ParamLimit, strconv.Itoa(s.page.Limit))
	return v
}

var listEscaper = strings.NewReplacer("%", "%25", ",", "%2C")

func setList(v url.Values, key string, values []string) {
	if len(values) == 0 {
		return
	}
	parts := make([]string, len(values))
	for i, value := range values {
		parts[i] = listEscaper.Replace(value)
	}
	v.Set(key, strings.Join(parts, ","))
}

func setFloat(v url.Values, key string, f *float64) {
	if f != nil {
		v.Set(key, strconv.FormatFloat(*f, 'f', -1, 64))
	}
}

// Hydrate replaces the committed state with the one described by values, as
// a shopper arriving on a shared link. Absent or unparsable parameters mean
// no constraint. The price draft starts out equal to the committed range.
func (s *State) Hydrate(values url.Values) {
	f := domain.ProductFilters{
		Search:   strings.TrimSpace(values.Get(ParamSearch)),
		Category: splitList(values.Get(ParamCategory)),
		Color:    splitList(values.Get(ParamColor)),
		Size:     splitList(values.Get(ParamSize)),
		Unit:     splitList(values.Get(ParamUnit)),
		PriceMin: parsePrice(values.Get(ParamPriceMin)),
		PriceMax: parsePrice(values.Get(ParamPriceMax)),
		Rating:   parseFloat(values.Get(ParamRating)),
	}
	// An inverted range cannot have been produced by the price form.
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMax < *f.PriceMin {
		f.PriceMax = nil
	}
	if b, err := strconv.ParseBool(values.Get(ParamInStock)); err == nil {
		f.InStock = &b
	}
	if sort := domain.SortOrder(values.Get(ParamSort)); sort.Valid() {
		f.SortBy = sort
	}

	page := Pagination{Page: 1, Limit: DefaultLimit}
	if n, err := strconv.Atoi(values.Get(ParamPage)); err == nil && n > 0 {
		page.Page = n
	}
	if n, err := strconv.Atoi(values.Get(ParamLimit)); err == nil && slices.Contains(PageSizes, n) {
		page.Limit = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = f
	s.page = page
	s.draft = PriceDraft{Min: copyFloat(f.PriceMin), Max: copyFloat(f.PriceMax)}
	s.errs = FieldErrors{}
	s.phase = PhaseIdle
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if unescaped, err := url.PathUnescape(part); err == nil {
			part = unescaped
		}
		if part = strings.TrimSpace(part); part != "" && !slices.Contains(out, part) {
			out = append(out, part)
		}
	}
	return out
}

func parseFloat(raw string) *float64 {
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func parsePrice(raw string) *float64 {
	f := parseFloat(raw)
	if f == nil || *f < 0 {
		return nil
	}
	return f
}
