package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"storefront/internal/domain"
)

// Search runs a listing query on the search service.
func (c *Client) Search(ctx context.Context, req domain.SearchRequest) (domain.SearchPage, error) {
	if strings.TrimSpace(req.SearchText) == "" {
		req.SearchText = ""
	}
	var wire searchResponse
	_, err := c.do(ctx, request{
		op:     "search.Search",
		method: http.MethodPost,
		base:   c.endpoints.Search,
		path:   "/api/search",
		body:   req,
	}, &wire)
	if err != nil {
		return domain.SearchPage{}, err
	}
	return wire.toDomain(), nil
}

// Autocomplete completes a partial query. It satisfies suggest.Source.
func (c *Client) Autocomplete(ctx context.Context, q string) ([]string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	var out []string
	_, err := c.do(ctx, request{
		op:     "search.Autocomplete",
		method: http.MethodGet,
		base:   c.endpoints.Search,
		path:   "/api/search/autocomplete",
		query:  url.Values{"q": {q}},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Suggestions proposes products for a partial query.
func (c *Client) Suggestions(ctx context.Context, q string) ([]domain.ProductSuggestion, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	var wire []productoSugerido
	_, err := c.do(ctx, request{
		op:     "search.Suggestions",
		method: http.MethodGet,
		base:   c.endpoints.Search,
		path:   "/api/search/suggestions",
		query:  url.Values{"q": {q}},
	}, &wire)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ProductSuggestion, 0, len(wire))
	for _, p := range wire {
		out = append(out, domain.ProductSuggestion{ID: p.ID, Name: p.Nombre, Price: p.Precio, Image: p.Imagen})
	}
	return out, nil
}
