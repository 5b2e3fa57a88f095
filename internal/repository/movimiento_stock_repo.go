package repository

import (
	"context"

	"github.com/fullfullelectronic/pos-system-macos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovimientoStockFilter defines filters for listing stock movements.
type MovimientoStockFilter struct {
	ProductoID   *uuid.UUID
	ReferenciaID *uuid.UUID
	Page         int
	Limit        int
}

// MovimientoStockRepository is append-only. List returns newest first.
type MovimientoStockRepository interface {
	Create(ctx context.Context, m *model.MovimientoStock) error
	List(ctx context.Context, filter MovimientoStockFilter) ([]model.MovimientoStock, int64, error)
	// ExistsSalidaAbierta reports whether some sale reference still has a net
	// non-zero stock change on the product: taken and not yet given back.
	ExistsSalidaAbierta(ctx context.Context, productoID uuid.UUID) (bool, error)
}

type movimientoStockRepo struct{ db *gorm.DB }

func NewMovimientoStockRepository(db *gorm.DB) MovimientoStockRepository {
	return &movimientoStockRepo{db: db}
}

func (r *movimientoStockRepo) Create(ctx context.Context, m *model.MovimientoStock) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *movimientoStockRepo) List(ctx context.Context, filter MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.MovimientoStock{})
	if filter.ProductoID != nil {
		q = q.Where("producto_id = ?", *filter.ProductoID)
	}
	if filter.ReferenciaID != nil {
		q = q.Where("referencia_id = ?", *filter.ReferenciaID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var movimientos []model.MovimientoStock
	err := paginar(q.Order("created_at DESC"), filter.Page, filter.Limit).Find(&movimientos).Error
	return movimientos, total, err
}

func (r *movimientoStockRepo) ExistsSalidaAbierta(ctx context.Context, productoID uuid.UUID) (bool, error) {
	var refs []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.MovimientoStock{}).
		Where("producto_id = ? AND referencia_id IS NOT NULL", productoID).
		Group("referencia_id").
		Having("SUM(cantidad) <> 0").
		Limit(1).
		Pluck("referencia_id", &refs).Error
	return len(refs) > 0, err
}
