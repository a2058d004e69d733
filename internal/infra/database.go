package infra

import (
	"errors"
	"fmt"

	"stockcocina/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and brings the
// schema up to date with Migrate.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs AutoMigrate for every table and then applies the idempotent
// patches GORM cannot express. Every statement is valid on both PostgreSQL
// and SQLite so repository tests can use an in-memory database.
func Migrate(db *gorm.DB) error {
	// Recipe rows outlive the products they point at, so no FK constraints.
	db.Config.DisableForeignKeyConstraintWhenMigrating = true
	if err := db.AutoMigrate(
		&model.Producto{},
		&model.Receta{},
		&model.Pedido{},
		&model.DetallePedido{},
		&model.MovimientoStock{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs DDL that AutoMigrate cannot handle: partial indexes
// used by the pending-quantity aggregation and the movement history listing.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		`CREATE INDEX IF NOT EXISTS idx_detalle_pedidos_pendientes
		    ON detalle_pedidos (producto_nombre)
		    WHERE recibido = false`,
		`CREATE INDEX IF NOT EXISTS idx_movimientos_stock_producto_fecha
		    ON movimientos_stock (producto_id, created_at)`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}

// EsFalloBackend reports whether err means the store is unhealthy. A missing
// row proves the opposite, so it does not count against the breaker.
func EsFalloBackend(err error) bool {
	return err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
}
