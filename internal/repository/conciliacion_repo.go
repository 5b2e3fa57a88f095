package repository

import (
	"context"

	"github.com/fullfullelectronic/pos-system-macos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConciliacionRepository keeps the records of workflows left inconsistent.
type ConciliacionRepository interface {
	Create(ctx context.Context, c *model.Conciliacion) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Conciliacion, error)
	// List filters by estado; empty returns all, newest first.
	List(ctx context.Context, estado string) ([]model.Conciliacion, error)
	Update(ctx context.Context, c *model.Conciliacion) error
}

type conciliacionRepo struct{ db *gorm.DB }

func NewConciliacionRepository(db *gorm.DB) ConciliacionRepository {
	return &conciliacionRepo{db: db}
}

func (r *conciliacionRepo) Create(ctx context.Context, c *model.Conciliacion) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *conciliacionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Conciliacion, error) {
	var c model.Conciliacion
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "conciliación", id)
	}
	return &c, nil
}

func (r *conciliacionRepo) List(ctx context.Context, estado string) ([]model.Conciliacion, error) {
	var out []model.Conciliacion
	q := r.db.WithContext(ctx).Model(&model.Conciliacion{})
	if estado != "" {
		q = q.Where("estado = ?", estado)
	}
	err := q.Order("fecha DESC").Find(&out).Error
	return out, err
}

func (r *conciliacionRepo) Update(ctx context.Context, c *model.Conciliacion) error {
	return r.db.WithContext(ctx).Save(c).Error
}
