package repository

import (
	"context"

	"github.com/fullfullelectronic/pos-system-macos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovimientoFilter defines filters for listing financial movements.
type MovimientoFilter struct {
	CuentaID    *uuid.UUID
	Tipo        string
	EntidadTipo string
	EntidadID   *uuid.UUID
	Fechas      RangoFechas
	Page        int
	Limit       int
}

// MovimientoRepository is append-only: movements are NEVER updated or deleted.
// List returns oldest first.
type MovimientoRepository interface {
	Create(ctx context.Context, m *model.MovimientoFinanciero) error
	List(ctx context.Context, filter MovimientoFilter) ([]model.MovimientoFinanciero, int64, error)
	ExistsByCuenta(ctx context.Context, cuentaID uuid.UUID) (bool, error)
}

type movimientoRepo struct{ db *gorm.DB }

func NewMovimientoRepository(db *gorm.DB) MovimientoRepository { return &movimientoRepo{db: db} }

func (r *movimientoRepo) Create(ctx context.Context, m *model.MovimientoFinanciero) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *movimientoRepo) List(ctx context.Context, filter MovimientoFilter) ([]model.MovimientoFinanciero, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.MovimientoFinanciero{})
	if filter.CuentaID != nil {
		q = q.Where("cuenta_id = ?", *filter.CuentaID)
	}
	if filter.Tipo != "" {
		q = q.Where("tipo = ?", filter.Tipo)
	}
	if filter.EntidadTipo != "" {
		q = q.Where("entidad_tipo = ?", filter.EntidadTipo)
	}
	if filter.EntidadID != nil {
		q = q.Where("entidad_id = ?", *filter.EntidadID)
	}
	q = filtrarFechas(q, "fecha", filter.Fechas)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var movs []model.MovimientoFinanciero
	err := paginar(q.Order("fecha ASC"), filter.Page, filter.Limit).Find(&movs).Error
	return movs, total, err
}

func (r *movimientoRepo) ExistsByCuenta(ctx context.Context, cuentaID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.MovimientoFinanciero{}).
		Where("cuenta_id = ?", cuentaID).Limit(1).Count(&n).Error
	return n > 0, err
}
