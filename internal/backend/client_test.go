package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

func PtrTo[T any](v T) *T {
	return &v
}

func setupTestServer(t *testing.T, register func(r chi.Router)) (*Client, *httptest.Server) {
	t.Helper()
	router := chi.NewRouter()
	register(router)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	client := NewClient(Endpoints{Catalog: server.URL, Search: server.URL, Cart: server.URL, Shipping: server.URL}, server.Client())
	return client, server
}

func writeJSON(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, body)
}

func TestClient_Attributes(t *testing.T) {
	client, _ := setupTestServer(t, func(r chi.Router) {
		r.Get("/api/atributos", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `[
				{"id": 11, "nombre": "Color", "atributoValores": [{"id": 28, "atributoId": 11, "valor": "Negro"}]},
				{"id": 2, "nombre": "Género", "atributoValores": [{"id": 4, "valor": "Hombre"}]}
			]`)
		})
	})

	attrs, err := client.Attributes(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []domain.Attribute{
		{ID: 11, Name: "Color", Values: []domain.AttributeValue{{ID: 28, AttributeID: 11, Value: "Negro"}}},
		{ID: 2, Name: "Género", Values: []domain.AttributeValue{{ID: 4, AttributeID: 2, Value: "Hombre"}}},
	}, attrs)
}

func TestClient_Product(t *testing.T) {
	client, _ := setupTestServer(t, func(r chi.Router) {
		r.Get("/api/productos/{id}", func(w http.ResponseWriter, r *http.Request) {
			if chi.URLParam(r, "id") != "7" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, `{
				"id": 7, "nombre": "Polera", "descripcion": "Algodón", "idPromocion": null,
				"productoImagenes": [{"id": 1, "productoId": 7, "principal": true, "imagen": "p1.jpg"}, {"id": 2, "imagen": ""}],
				"variantes": [{
					"id": 3, "productoId": 7, "precio": 110.5, "sku": "A-M", "stock": 4,
					"varianteImagenes": [{"id": 9, "varianteId": 3, "imagen": "a1.jpg"}],
					"varianteAtributos": [{"id": 1, "varianteId": 3, "atributoValorId": 30, "atributoValor": null}, {"id": 2, "varianteId": 3, "atributoValorId": 42}]
				}]
			}`)
		})
	})

	p, err := client.Product(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, "Polera", p.Name)
	assert.Equal(t, []string{"p1.jpg"}, p.BaseImages)
	require.Len(t, p.Variants, 1)
	v := p.Variants[0]
	assert.Equal(t, "110.5", v.Price.String())
	assert.Equal(t, PtrTo(int32(4)), v.Stock)
	assert.Equal(t, []string{"a1.jpg"}, v.Images)
	assert.Equal(t, []int64{30, 42}, v.AttributeValues)

	_, err = client.Product(context.Background(), 8)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestClient_Search(t *testing.T) {
	var got map[string]any
	client, _ := setupTestServer(t, func(r chi.Router) {
		r.Post("/api/search", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			writeJSON(w, http.StatusOK, `{
				"items": [{"id": 1, "nombre": "Zapatilla Running Ñandú", "precio": 99.9, "imagen": "z.jpg", "tienePromocion": true}],
				"totalCount": 10, "currentPage": 2, "pageSize": 9, "totalPages": 2
			}`)
		})
	})

	page, err := client.Search(context.Background(), domain.SearchRequest{
		PageNumber: 2,
		PageSize:   9,
		OrderBy:    "precio-asc",
		PriceMin:   PtrTo(10.0),
		Colors:     []string{"Negro"},
		SearchText: "   ",
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"pageNumber": 2.0,
		"pageSize":   9.0,
		"orderBy":    "precio-asc",
		"precioMin":  10.0,
		"colores":    []any{"Negro"},
	}, got)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "zapatilla-running-nandu", page.Items[0].Slug)
	assert.True(t, page.Items[0].HasPromotion)
}

func TestClient_Autocomplete(t *testing.T) {
	client, _ := setupTestServer(t, func(r chi.Router) {
		r.Get("/api/search/autocomplete", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "pol", r.URL.Query().Get("q"))
			writeJSON(w, http.StatusOK, `["polera","polerón"]`)
		})
		r.Get("/api/search/suggestions", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `[{"id": 3, "nombre": "Polera", "precio": 20, "imagen": "p.jpg"}]`)
		})
	})

	words, err := client.Autocomplete(context.Background(), " pol ")
	require.NoError(t, err)
	assert.Equal(t, []string{"polera", "polerón"}, words)

	products, err := client.Suggestions(context.Background(), "pol")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Polera", products[0].Name)
}

func TestClient_NotConfigured(t *testing.T) {
	client := NewClient(Endpoints{}, nil)

	_, err := client.Attributes(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = client.Search(context.Background(), domain.SearchRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = client.Cart(7).Cart(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)

	var be *Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "cart.Get", be.Op)
}

func TestClient_HTTPFailureIsUnavailable(t *testing.T) {
	client, _ := setupTestServer(t, func(r chi.Router) {
		r.Post("/api/search", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, `{"message":"boom"}`)
		})
		r.Get("/api/atributos", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{not json`)
		})
	})

	_, err := client.Search(context.Background(), domain.SearchRequest{PageNumber: 1, PageSize: 9})
	assert.ErrorIs(t, err, ErrUnavailable)
	var be *Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, http.StatusInternalServerError, be.Status)

	_, err = client.Attributes(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_NetworkFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()
	client := NewClient(Endpoints{Catalog: base}, nil)

	_, err := client.Product(context.Background(), 1)

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCartService(t *testing.T) {
	var added map[string]any
	cartJSON := `{"id": 7, "idUsuario": null, "items": [{"idProducto": 5, "idVariante": 9, "nombre": "Polera", "precio": 100, "cantidad": 3, "imagenUrl": "p.jpg"}]}`
	client, _ := setupTestServer(t, func(r chi.Router) {
		r.Route("/api/carritos/7", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, http.StatusOK, cartJSON) })
			r.Post("/anonimo/items", func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, json.NewDecoder(r.Body).Decode(&added))
				writeJSON(w, http.StatusOK, cartJSON)
			})
			r.Patch("/anonimo/items/{p}/{v}", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "5", chi.URLParam(r, "p"))
				assert.Equal(t, "9", chi.URLParam(r, "v"))
				assert.Equal(t, "3", r.URL.Query().Get("nuevaCantidad"))
				writeJSON(w, http.StatusOK, cartJSON)
			})
			r.Delete("/anonimo/items/{p}/{v}", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, `{"id": 7, "items": []}`)
			})
			r.Delete("/anonimo/items", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
		})
	})
	carts := client.Cart(7)
	ctx := context.Background()

	c, err := carts.AddItem(ctx, 5, 9, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"idProducto": 5.0, "idVariante": 9.0, "cantidad": 1.0}, added)
	require.Len(t, c.Items, 1)
	assert.Equal(t, domain.LineKey{ProductID: 5, VariantID: 9}, c.Items[0].Key())

	c, err = carts.UpdateItem(ctx, 5, 9, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(3), c.Items[0].Quantity)

	c, err = carts.RemoveItem(ctx, 5, 9)
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	c, err = carts.ClearItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.ID)
	assert.Empty(t, c.Items)
}

func TestClient_Quotes(t *testing.T) {
	var got cotizacionRequest
	client, _ := setupTestServer(t, func(r chi.Router) {
		r.Post("/api/cotizaciones", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			writeJSON(w, http.StatusOK, `{
				"success": true, "distancia_km": 12.5,
				"domicilio": {"disponible": true, "total_opciones": 1, "carriers": [{
					"carrier_id": 2, "carrier_nombre": "Olva", "costo_envio": 15.5, "tiempo_estimado_dias": 3,
					"fecha_entrega_estimada": "2024-05-04", "distancia_km": 12.5, "cotizacion_id": "Q-1", "valida_hasta": "2024-05-01T13:00:00Z"
				}]}
			}`)
		})
	})

	quotes, err := client.Quotes(context.Background(), QuoteRequest{
		Latitude:  -12.05,
		Longitude: -77.04,
		Address:   "Av. Arequipa 123",
		Items:     []domain.CartLineItem{{ProductID: 5, VariantID: 9, Quantity: 2}},
	})

	require.NoError(t, err)
	assert.Equal(t, []productoCotizacion{{IDProducto: 5, Cantidad: 2}}, got.Productos)
	assert.Equal(t, -12.05, got.DestinoLat)
	require.Len(t, quotes, 1)
	assert.Equal(t, "Q-1", quotes[0].QuoteID)
	assert.Equal(t, "15.5", quotes[0].Cost.String())
}
