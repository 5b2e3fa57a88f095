package repository

import (
	"context"

	"github.com/fullfullelectronic/pos-system-macos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GastoFilter struct {
	Categoria string
	CuentaID  *uuid.UUID // matches the posted account
	Fechas    RangoFechas
	Page      int
	Limit     int
}

type GastoRepository interface {
	Create(ctx context.Context, g *model.Gasto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Gasto, error)
	List(ctx context.Context, filter GastoFilter) ([]model.Gasto, int64, error)
	Update(ctx context.Context, g *model.Gasto) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ExistsConCuenta reports whether any expense targets or was posted to the account.
	ExistsConCuenta(ctx context.Context, cuentaID uuid.UUID) (bool, error)
	Categorias(ctx context.Context) ([]string, error)
}

type gastoRepo struct{ db *gorm.DB }

func NewGastoRepository(db *gorm.DB) GastoRepository { return &gastoRepo{db: db} }

func (r *gastoRepo) Create(ctx context.Context, g *model.Gasto) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *gastoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Gasto, error) {
	var g model.Gasto
	if err := r.db.WithContext(ctx).First(&g, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "gasto", id)
	}
	return &g, nil
}

func (r *gastoRepo) List(ctx context.Context, filter GastoFilter) ([]model.Gasto, int64, error) {
	var gastos []model.Gasto
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Gasto{})
	if filter.Categoria != "" {
		q = q.Where("categoria = ?", filter.Categoria)
	}
	if filter.CuentaID != nil {
		q = q.Where("cuenta_imputada_id = ?", *filter.CuentaID)
	}
	q = filtrarFechas(q, "fecha", filter.Fechas)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := paginar(q.Order("fecha DESC"), filter.Page, filter.Limit).Find(&gastos).Error
	return gastos, total, err
}

func (r *gastoRepo) Update(ctx context.Context, g *model.Gasto) error {
	return r.db.WithContext(ctx).Omit("CreatedAt").Save(g).Error
}

func (r *gastoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Gasto{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "gasto", id)
	}
	return nil
}

func (r *gastoRepo) ExistsConCuenta(ctx context.Context, cuentaID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Gasto{}).
		Where("cuenta_id = ? OR cuenta_imputada_id = ?", cuentaID, cuentaID).
		Count(&n).Error
	return n > 0, err
}

func (r *gastoRepo) Categorias(ctx context.Context) ([]string, error) {
	var cats []string
	err := r.db.WithContext(ctx).Model(&model.Gasto{}).
		Where("categoria <> ''").Distinct().Order("categoria").Pluck("categoria", &cats).Error
	return cats, err
}
