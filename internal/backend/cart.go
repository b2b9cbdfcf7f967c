package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"storefront/internal/domain"
)

// CartService is the cart API for one cart. It satisfies cart.Remote.
type CartService struct {
	client *Client
	cartID int64
}

// Cart binds the cart service calls to cartID.
func (c *Client) Cart(cartID int64) *CartService {
	return &CartService{client: c, cartID: cartID}
}

func (s *CartService) path(suffix string) string {
	return "/api/carritos/" + strconv.FormatInt(s.cartID, 10) + suffix
}

func (s *CartService) call(ctx context.Context, op, method, path string, query url.Values, body any) (domain.Cart, error) {
	var wire carrito
	ok, err := s.client.do(ctx, request{
		op:     op,
		method: method,
		base:   s.client.endpoints.Cart,
		path:   path,
		query:  query,
		body:   body,
	}, &wire)
	if err != nil {
		return domain.Cart{}, err
	}
	if !ok {
		// 204 after clearing.
		return domain.Cart{ID: s.cartID, Items: []domain.CartLineItem{}}, nil
	}
	return wire.toDomain(), nil
}

func (s *CartService) Cart(ctx context.Context) (domain.Cart, error) {
	return s.call(ctx, "cart.Get", http.MethodGet, s.path(""), nil, nil)
}

func (s *CartService) AddItem(ctx context.Context, productID, variantID int64, quantity int32) (domain.Cart, error) {
	return s.call(ctx, "cart.AddItem", http.MethodPost, s.path("/anonimo/items"), nil,
		agregarItem{IDProducto: productID, IDVariante: variantID, Cantidad: quantity})
}

func (s *CartService) UpdateItem(ctx context.Context, productID, variantID int64, quantity int32) (domain.Cart, error) {
	return s.call(ctx, "cart.UpdateItem", http.MethodPatch,
		s.path(fmt.Sprintf("/anonimo/items/%d/%d", productID, variantID)),
		url.Values{"nuevaCantidad": {strconv.FormatInt(int64(quantity), 10)}}, nil)
}

func (s *CartService) RemoveItem(ctx context.Context, productID, variantID int64) (domain.Cart, error) {
	return s.call(ctx, "cart.RemoveItem", http.MethodDelete,
		s.path(fmt.Sprintf("/anonimo/items/%d/%d", productID, variantID)), nil, nil)
}

func (s *CartService) ClearItems(ctx context.Context) (domain.Cart, error) {
	return s.call(ctx, "cart.ClearItems", http.MethodDelete, s.path("/anonimo/items"), nil, nil)
}
