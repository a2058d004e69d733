// Command seed loads demo products and a recipe into an empty database.
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"os"
	"time"

	"stockcocina/internal/config"
	"stockcocina/internal/infra"
	"stockcocina/internal/model"
	"stockcocina/internal/repository"
	"stockcocina/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}

	ctx := context.Background()
	ledger := service.NewLedger(repository.NewProductoRepository(db), service.LedgerOpciones{
		Movimientos: repository.NewMovimientoStockRepository(db),
	})
	if err := ledger.Cargar(ctx); err != nil {
		log.Fatal().Err(err).Msg("cargar stock")
	}
	if len(ledger.Productos()) > 0 {
		log.Info().Int("productos", len(ledger.Productos())).Msg("la base ya tiene productos, nada que hacer")
		return
	}

	crear := func(p model.Producto) model.Producto {
		creado, err := ledger.CrearProducto(ctx, &p)
		if err != nil {
			log.Fatal().Err(err).Str("nombre", p.Nombre).Msg("crear producto")
		}
		return creado
	}
	d := decimal.RequireFromString

	maple := crear(model.Producto{Nombre: "Maple de huevos", Categoria: model.CategoriaMateriaPrima, Unidad: model.UnidadUnidad, Cantidad: d("10"), StockMinimo: d("2")})
	factor := d("30")
	huevo := crear(model.Producto{Nombre: "Huevo", Categoria: model.CategoriaMateriaPrima, Unidad: model.UnidadUnidad, AptoReceta: true, StockPadreID: &maple.ID, FactorConversion: &factor})
	papa := crear(model.Producto{Nombre: "Papa", Categoria: model.CategoriaVerduras, Unidad: model.UnidadKg, Cantidad: d("5"), StockMinimo: d("3"), AptoReceta: true})
	crear(model.Producto{Nombre: "Harina", Categoria: model.CategoriaMateriaPrima, Unidad: model.UnidadKg, Cantidad: d("10"), StockMinimo: d("5"), AptoReceta: true})
	crear(model.Producto{Nombre: "Leche", Categoria: model.CategoriaMateriaPrima, Unidad: model.UnidadLitro, Cantidad: d("2"), StockMinimo: d("4"), AptoReceta: true})
	tortilla := crear(model.Producto{Nombre: "Tortilla de papas", Categoria: model.CategoriaProduccion, Unidad: model.UnidadUnidad, StockMinimo: d("2")})

	recetas := service.NewRecetaService(repository.NewRecetaRepository(db), ledger)
	if _, err := recetas.AgregarIngrediente(ctx, tortilla.ID, huevo.ID, d("3")); err != nil {
		log.Fatal().Err(err).Msg("receta")
	}
	if _, err := recetas.AgregarIngrediente(ctx, tortilla.ID, papa.ID, d("0.5")); err != nil {
		log.Fatal().Err(err).Msg("receta")
	}

	log.Info().Int("productos", len(ledger.Productos())).Msg("✅ datos de demo cargados")
}
