package dto

import "github.com/shopspring/decimal"

type AgregarIngredienteRequest struct {
	InsumoID          string          `json:"insumo_id"          validate:"required,uuid"`
	CantidadNecesaria decimal.Decimal `json:"cantidad_necesaria" validate:"required,gt=0"`
}

// RegistrarProduccionRequest. VaciarID names the ingredient whose remaining
// stock is written off to zero.
type RegistrarProduccionRequest struct {
	Cantidad decimal.Decimal `json:"cantidad"  validate:"required,gt=0"`
	VaciarID *string         `json:"vaciar_id" validate:"omitempty,uuid"`
}

type IngredienteResponse struct {
	ID                string          `json:"id"`
	InsumoID          string          `json:"insumo_id"`
	Nombre            string          `json:"nombre"`
	Unidad            string          `json:"unidad"`
	CantidadNecesaria decimal.Decimal `json:"cantidad_necesaria"`
	Stock             decimal.Decimal `json:"stock"`
	Encontrado        bool            `json:"encontrado"`
}

type RecetaResponse struct {
	ProductoID   string                `json:"producto_id"`
	Ingredientes []IngredienteResponse `json:"ingredientes"`
	// Maximo is nil when the recipe has no ingredients or none constrains it.
	Maximo    *decimal.Decimal     `json:"maximo"`
	Limitante *IngredienteResponse `json:"limitante"`
}

type ConsumoResponse struct {
	ProductoID string          `json:"producto_id"`
	Nombre     string          `json:"nombre"`
	Anterior   decimal.Decimal `json:"anterior"`
	Nuevo      decimal.Decimal `json:"nuevo"`
	Vaciado    bool            `json:"vaciado"`
}

type ProduccionResponse struct {
	Producto ProductoResponse  `json:"producto"`
	Consumos []ConsumoResponse `json:"consumos"`
}
