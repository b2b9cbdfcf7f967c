package backend

import (
	"context"
	"net/http"
	"strconv"

	"storefront/internal/domain"
)

// Attributes lists every attribute with its values. It satisfies
// catalog.Loader.
func (c *Client) Attributes(ctx context.Context) ([]domain.Attribute, error) {
	var wire []atributo
	_, err := c.do(ctx, request{
		op:     "catalog.Attributes",
		method: http.MethodGet,
		base:   c.endpoints.Catalog,
		path:   "/api/atributos",
	}, &wire)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Attribute, 0, len(wire))
	for _, a := range wire {
		out = append(out, a.toDomain())
	}
	return out, nil
}

// Product fetches one product with its variants. A missing product fails
// with ErrNotFound.
func (c *Client) Product(ctx context.Context, id int64) (*domain.Product, error) {
	const op = "catalog.Product"
	var wire producto
	ok, err := c.do(ctx, request{
		op:       op,
		method:   http.MethodGet,
		base:     c.endpoints.Catalog,
		path:     "/api/productos/" + strconv.FormatInt(id, 10),
		notFound: true,
	}, &wire)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, c.fail(op, ErrNotFound, http.StatusOK, nil)
	}
	p := wire.toDomain()
	return &p, nil
}
