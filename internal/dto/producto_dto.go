package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProductoRequest struct {
	Nombre           string           `json:"nombre"            validate:"required,min=1,max=120"`
	Categoria        string           `json:"categoria"         validate:"required,oneof=materia_prima verduras objetos produccion receta"`
	Unidad           string           `json:"unidad"            validate:"required,oneof=unidad kg l"`
	Cantidad         decimal.Decimal  `json:"cantidad"          validate:"min=0"`
	StockMinimo      decimal.Decimal  `json:"stock_minimo"      validate:"min=0"`
	AptoReceta       bool             `json:"apto_receta"`
	StockPadreID     *string          `json:"stock_padre_id"    validate:"omitempty,uuid"`
	FactorConversion *decimal.Decimal `json:"factor_conversion" validate:"omitempty,gt=0"`
	FechaProduccion  *string          `json:"fecha_produccion"  validate:"omitempty,datetime=2006-01-02"`
}

// ActualizarProductoRequest patches descriptive fields. QuitarVinculo removes
// the parent link; it wins over StockPadreID.
type ActualizarProductoRequest struct {
	Nombre           *string          `json:"nombre"            validate:"omitempty,min=1,max=120"`
	Categoria        *string          `json:"categoria"         validate:"omitempty,oneof=materia_prima verduras objetos produccion receta"`
	Unidad           *string          `json:"unidad"            validate:"omitempty,oneof=unidad kg l"`
	StockMinimo      *decimal.Decimal `json:"stock_minimo"      validate:"omitempty,min=0"`
	AptoReceta       *bool            `json:"apto_receta"`
	StockPadreID     *string          `json:"stock_padre_id"    validate:"omitempty,uuid"`
	FactorConversion *decimal.Decimal `json:"factor_conversion" validate:"omitempty,gt=0"`
	QuitarVinculo    bool             `json:"quitar_vinculo"`
	FechaProduccion  *string          `json:"fecha_produccion"  validate:"omitempty,datetime=2006-01-02"`
}

type ActualizarStockRequest struct {
	Cantidad decimal.Decimal `json:"cantidad" validate:"min=0"`
}

// SumarStockRequest is a signed step (+/-) applied to the current quantity.
type SumarStockRequest struct {
	Delta decimal.Decimal `json:"delta" validate:"required"`
}

// ─── Filter ──────────────────────────────────────────────────────────────────

type ProductoFilter struct {
	Categoria string `form:"categoria"`
	Orden     string `form:"orden" validate:"omitempty,oneof=creacion nombre prioridad"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductoResponse struct {
	ID               string           `json:"id"`
	Nombre           string           `json:"nombre"`
	Categoria        string           `json:"categoria"`
	Unidad           string           `json:"unidad"`
	Cantidad         decimal.Decimal  `json:"cantidad"`
	StockMinimo      decimal.Decimal  `json:"stock_minimo"`
	AptoReceta       bool             `json:"apto_receta"`
	StockPadreID     *string          `json:"stock_padre_id"`
	FactorConversion *decimal.Decimal `json:"factor_conversion"`
	EsDerivado       bool             `json:"es_derivado"`
	Estado           string           `json:"estado"`
	Pendiente        decimal.Decimal  `json:"pendiente"`
	FechaProduccion  *string          `json:"fecha_produccion"`
	CreatedAt        string           `json:"created_at"`
}

type StockResponse struct {
	ID       string          `json:"id"`
	Cantidad decimal.Decimal `json:"cantidad"`
	Vaciado  bool            `json:"vaciado"`
}

type AlertaStockResponse struct {
	ProductoID  string          `json:"producto_id"`
	Nombre      string          `json:"nombre"`
	Cantidad    decimal.Decimal `json:"cantidad"`
	StockMinimo decimal.Decimal `json:"stock_minimo"`
	Estado      string          `json:"estado"`
}

type MovimientoStockResponse struct {
	ID            string          `json:"id"`
	ProductoID    string          `json:"producto_id"`
	Tipo          string          `json:"tipo"`
	Cantidad      decimal.Decimal `json:"cantidad"`
	StockAnterior decimal.Decimal `json:"stock_anterior"`
	StockNuevo    decimal.Decimal `json:"stock_nuevo"`
	Motivo        string          `json:"motivo"`
	ReferenciaID  *string         `json:"referencia_id"`
	CreatedAt     string          `json:"created_at"`
}

type MovimientoStockFilter struct {
	ProductoID   string `form:"producto_id"   validate:"omitempty,uuid"`
	ReferenciaID string `form:"referencia_id" validate:"omitempty,uuid"`
	Tipo         string `form:"tipo"`
	Page         int    `form:"page,default=1"   validate:"min=1"`
	Limit        int    `form:"limit,default=50" validate:"min=1,max=500"`
}

type MovimientoStockListResponse struct {
	Data  []MovimientoStockResponse `json:"data"`
	Total int64                     `json:"total"`
	Page  int                       `json:"page"`
	Limit int                       `json:"limit"`
}
