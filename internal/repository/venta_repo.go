package repository

import (
	"context"

	"github.com/fullfullelectronic/pos-system-macos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VentaFilter defines filters for listing sales.
type VentaFilter struct {
	Fechas    RangoFechas
	Estado    string // empty or "all" = every state
	ClienteID *uuid.UUID
	Page      int
	Limit     int
}

// VentaRepository persists committed sales. Items and payments are written
// once with the sale and never modified.
type VentaRepository interface {
	Create(ctx context.Context, v *model.Venta) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	List(ctx context.Context, filter VentaFilter) ([]model.Venta, int64, error)
	UpdateEstado(ctx context.Context, id uuid.UUID, estado, notas string) error
	NextTicketNumber(ctx context.Context) (int, error)
	// ExistsActivaConProducto reports whether a non-cancelled sale references the product.
	ExistsActivaConProducto(ctx context.Context, productoID uuid.UUID) (bool, error)
	ExistsConCliente(ctx context.Context, clienteID uuid.UUID) (bool, error)
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) Create(ctx context.Context, v *model.Venta) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).Preload("Items").Preload("Pagos").First(&v, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "venta", id)
	}
	return &v, nil
}

func (r *ventaRepo) List(ctx context.Context, filter VentaFilter) ([]model.Venta, int64, error) {
	var ventas []model.Venta
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Venta{})
	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.ClienteID != nil {
		q = q.Where("cliente_id = ?", *filter.ClienteID)
	}
	q = filtrarFechas(q, "fecha", filter.Fechas)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginar(q.Preload("Items").Preload("Pagos").Order("fecha DESC"), filter.Page, filter.Limit).
		Find(&ventas).Error
	return ventas, total, err
}

func (r *ventaRepo) UpdateEstado(ctx context.Context, id uuid.UUID, estado, notas string) error {
	res := r.db.WithContext(ctx).Model(&model.Venta{}).Where("id = ?", id).
		Updates(map[string]interface{}{"estado": estado, "notas": notas})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "venta", id)
	}
	return nil
}

func (r *ventaRepo) NextTicketNumber(ctx context.Context) (int, error) {
	// Uses a PostgreSQL sequence for atomic ticket number generation
	var num int
	err := r.db.WithContext(ctx).Raw("SELECT nextval('ventas_numero_ticket_seq')").Scan(&num).Error
	return num, err
}

func (r *ventaRepo) ExistsActivaConProducto(ctx context.Context, productoID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.VentaItem{}).
		Joins("JOIN ventas ON ventas.id = venta_items.venta_id").
		Where("venta_items.producto_id = ? AND ventas.estado <> ?", productoID, model.VentaCancelada).
		Count(&n).Error
	return n > 0, err
}

func (r *ventaRepo) ExistsConCliente(ctx context.Context, clienteID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Venta{}).Where("cliente_id = ?", clienteID).Count(&n).Error
	return n > 0, err
}
