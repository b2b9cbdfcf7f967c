package backend

import (
	"context"
	"net/http"

	"storefront/internal/domain"
)

// QuoteRequest asks for delivery options to a destination.
type QuoteRequest struct {
	Latitude  float64
	Longitude float64
	Address   string
	Items     []domain.CartLineItem
}

// Quotes returns the carriers that can deliver the items. No carrier is not
// an error.
func (c *Client) Quotes(ctx context.Context, q QuoteRequest) ([]domain.CarrierQuote, error) {
	body := cotizacionRequest{
		DestinoLat:       q.Latitude,
		DestinoLng:       q.Longitude,
		DestinoDireccion: q.Address,
		Productos:        make([]productoCotizacion, 0, len(q.Items)),
	}
	for _, it := range q.Items {
		body.Productos = append(body.Productos, productoCotizacion{IDProducto: it.ProductID, Cantidad: it.Quantity})
	}
	var wire cotizacionResponse
	_, err := c.do(ctx, request{
		op:     "shipping.Quotes",
		method: http.MethodPost,
		base:   c.endpoints.Shipping,
		path:   "/api/cotizaciones",
		body:   body,
	}, &wire)
	if err != nil {
		return nil, err
	}
	out := make([]domain.CarrierQuote, 0, len(wire.Domicilio.Carriers))
	for _, cr := range wire.Domicilio.Carriers {
		out = append(out, cr.toDomain())
	}
	return out, nil
}
