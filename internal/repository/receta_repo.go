package repository

import (
	"context"

	"stockcocina/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RecetaRepository interface {
	Create(ctx context.Context, r *model.Receta) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByPadre returns the ingredient rows of a product with Insumo preloaded.
	ListByPadre(ctx context.Context, padreID uuid.UUID) ([]model.Receta, error)
}

type recetaRepo struct{ db *gorm.DB }

func NewRecetaRepository(db *gorm.DB) RecetaRepository { return &recetaRepo{db: db} }

func (r *recetaRepo) Create(ctx context.Context, rec *model.Receta) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *recetaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Receta{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *recetaRepo) ListByPadre(ctx context.Context, padreID uuid.UUID) ([]model.Receta, error) {
	var recetas []model.Receta
	err := r.db.WithContext(ctx).
		Preload("Insumo").
		Where("producto_padre_id = ?", padreID).
		Find(&recetas).Error
	return recetas, err
}
