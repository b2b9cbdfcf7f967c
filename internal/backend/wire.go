package backend

import (
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// Payloads as the remote services send and expect them.

type atributoValor struct {
	ID         int64  `json:"id"`
	AtributoID int64  `json:"atributoId"`
	Valor      string `json:"valor"`
}

type atributo struct {
	ID              int64           `json:"id"`
	Nombre          string          `json:"nombre"`
	AtributoValores []atributoValor `json:"atributoValores"`
}

func (a atributo) toDomain() domain.Attribute {
	out := domain.Attribute{ID: a.ID, Name: a.Nombre, Values: make([]domain.AttributeValue, 0, len(a.AtributoValores))}
	for _, v := range a.AtributoValores {
		attrID := v.AtributoID
		if attrID == 0 {
			attrID = a.ID
		}
		out.Values = append(out.Values, domain.AttributeValue{ID: v.ID, AttributeID: attrID, Value: v.Valor})
	}
	return out
}

type productoImagen struct {
	ID         int64  `json:"id"`
	ProductoID int64  `json:"productoId"`
	Principal  bool   `json:"principal"`
	Imagen     string `json:"imagen"`
}

type varianteImagen struct {
	ID         int64  `json:"id"`
	VarianteID int64  `json:"varianteId"`
	Imagen     string `json:"imagen"`
}

type varianteAtributo struct {
	ID              int64   `json:"id"`
	VarianteID      int64   `json:"varianteId"`
	AtributoValorID int64   `json:"atributoValorId"`
	AtributoValor   *string `json:"atributoValor"`
}

type variante struct {
	ID                int64              `json:"id"`
	ProductoID        int64              `json:"productoId"`
	Precio            decimal.Decimal    `json:"precio"`
	SKU               string             `json:"sku"`
	Stock             *int32             `json:"stock"`
	VarianteImagenes  []varianteImagen   `json:"varianteImagenes"`
	VarianteAtributos []varianteAtributo `json:"varianteAtributos"`
}

type producto struct {
	ID               int64            `json:"id"`
	Nombre           string           `json:"nombre"`
	Descripcion      string           `json:"descripcion"`
	IDPromocion      *int64           `json:"idPromocion"`
	ProductoImagenes []productoImagen `json:"productoImagenes"`
	Variantes        []variante       `json:"variantes"`
}

func (p producto) toDomain() domain.Product {
	out := domain.Product{
		ID:          p.ID,
		Name:        p.Nombre,
		Description: p.Descripcion,
		PromotionID: p.IDPromocion,
		BaseImages:  make([]string, 0, len(p.ProductoImagenes)),
		Variants:    make([]domain.Variant, 0, len(p.Variantes)),
	}
	for _, img := range p.ProductoImagenes {
		if img.Imagen != "" {
			out.BaseImages = append(out.BaseImages, img.Imagen)
		}
	}
	for _, v := range p.Variantes {
		dv := domain.Variant{
			ID:        v.ID,
			ProductID: v.ProductoID,
			Price:     v.Precio,
			SKU:       v.SKU,
			Stock:     v.Stock,
		}
		if dv.ProductID == 0 {
			dv.ProductID = p.ID
		}
		for _, img := range v.VarianteImagenes {
			if img.Imagen != "" {
				dv.Images = append(dv.Images, img.Imagen)
			}
		}
		for _, a := range v.VarianteAtributos {
			dv.AttributeValues = append(dv.AttributeValues, a.AtributoValorID)
		}
		out.Variants = append(out.Variants, dv)
	}
	return out
}

type productoResumen struct {
	ID             int64           `json:"id"`
	Nombre         string          `json:"nombre"`
	Precio         decimal.Decimal `json:"precio"`
	Imagen         string          `json:"imagen"`
	TienePromocion bool            `json:"tienePromocion"`
}

func (p productoResumen) toDomain() domain.ProductSummary {
	return domain.ProductSummary{
		ID:           p.ID,
		Name:         p.Nombre,
		Slug:         slug.Make(p.Nombre),
		Price:        p.Precio,
		Image:        p.Imagen,
		HasPromotion: p.TienePromocion,
	}
}

type searchResponse struct {
	Items       []productoResumen `json:"items"`
	TotalCount  int               `json:"totalCount"`
	CurrentPage int               `json:"currentPage"`
	PageSize    int               `json:"pageSize"`
	TotalPages  int               `json:"totalPages"`
}

func (r searchResponse) toDomain() domain.SearchPage {
	out := domain.SearchPage{
		Items:       make([]domain.ProductSummary, 0, len(r.Items)),
		TotalCount:  r.TotalCount,
		CurrentPage: r.CurrentPage,
		PageSize:    r.PageSize,
		TotalPages:  r.TotalPages,
	}
	for _, it := range r.Items {
		out.Items = append(out.Items, it.toDomain())
	}
	return out
}

type productoSugerido struct {
	ID     int64           `json:"id"`
	Nombre string          `json:"nombre"`
	Precio decimal.Decimal `json:"precio"`
	Imagen string          `json:"imagen"`
}

type carritoItem struct {
	IDProducto int64           `json:"idProducto"`
	IDVariante *int64          `json:"idVariante"`
	Nombre     string          `json:"nombre"`
	Precio     decimal.Decimal `json:"precio"`
	Cantidad   int32           `json:"cantidad"`
	ImagenURL  string          `json:"imagenUrl"`
}

type carrito struct {
	ID        int64         `json:"id"`
	IDUsuario *int64        `json:"idUsuario"`
	Items     []carritoItem `json:"items"`
}

func (c carrito) toDomain() domain.Cart {
	out := domain.Cart{ID: c.ID, UserID: c.IDUsuario, Items: make([]domain.CartLineItem, 0, len(c.Items))}
	for _, it := range c.Items {
		li := domain.CartLineItem{
			ProductID: it.IDProducto,
			Name:      it.Nombre,
			UnitPrice: it.Precio,
			Quantity:  it.Cantidad,
			ImageURL:  it.ImagenURL,
		}
		if it.IDVariante != nil {
			li.VariantID = *it.IDVariante
		}
		out.Items = append(out.Items, li)
	}
	return out
}

type agregarItem struct {
	IDProducto int64 `json:"idProducto"`
	IDVariante int64 `json:"idVariante"`
	Cantidad   int32 `json:"cantidad"`
}

type productoCotizacion struct {
	IDProducto int64 `json:"id_producto"`
	Cantidad   int32 `json:"cantidad"`
}

type cotizacionRequest struct {
	DestinoLat       float64              `json:"destino_lat"`
	DestinoLng       float64              `json:"destino_lng"`
	DestinoDireccion string               `json:"destino_direccion"`
	Productos        []productoCotizacion `json:"productos"`
}

type carrier struct {
	CarrierID            int64           `json:"carrier_id"`
	CarrierNombre        string          `json:"carrier_nombre"`
	CarrierCodigo        string          `json:"carrier_codigo"`
	CostoEnvio           decimal.Decimal `json:"costo_envio"`
	TiempoEstimadoDias   int             `json:"tiempo_estimado_dias"`
	FechaEntregaEstimada string          `json:"fecha_entrega_estimada"`
	DistanciaKm          float64         `json:"distancia_km"`
	CotizacionID         string          `json:"cotizacion_id"`
	ValidaHasta          string          `json:"valida_hasta"`
}

func (c carrier) toDomain() domain.CarrierQuote {
	return domain.CarrierQuote{
		QuoteID:       c.CotizacionID,
		CarrierID:     c.CarrierID,
		CarrierName:   c.CarrierNombre,
		Cost:          c.CostoEnvio,
		EstimatedDays: c.TiempoEstimadoDias,
		EstimatedDate: c.FechaEntregaEstimada,
		DistanceKm:    c.DistanciaKm,
		ValidUntil:    c.ValidaHasta,
	}
}

type cotizacionResponse struct {
	Success     bool    `json:"success"`
	DistanciaKm float64 `json:"distancia_km"`
	Domicilio   struct {
		Disponible bool      `json:"disponible"`
		Carriers   []carrier `json:"carriers"`
	} `json:"domicilio"`
}
