package repository

import (
	"context"

	"github.com/fullfullelectronic/pos-system-macos/internal/apperr"
	"github.com/fullfullelectronic/pos-system-macos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductoFilter defines filters for listing products.
type ProductoFilter struct {
	Barcode   string
	Nombre    string // substring, case-insensitive
	Categoria string
	Page      int
	Limit     int
}

// ProductoRepository defines the data access contract for products.
type ProductoRepository interface {
	Create(ctx context.Context, p *model.Producto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	// FindByNombre matches the whole name case-insensitively.
	FindByNombre(ctx context.Context, nombre string) (*model.Producto, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Producto, error)
	List(ctx context.Context, filter ProductoFilter) ([]model.Producto, int64, error)
	ListStockBajo(ctx context.Context, umbral int) ([]model.Producto, error)
	// Update writes every field except Stock.
	Update(ctx context.Context, p *model.Producto) error
	// UpdateStock adds delta to the stock. It fails with apperr.ErrStockInsuficiente
	// instead of letting the stock go below zero.
	UpdateStock(ctx context.Context, id uuid.UUID, delta int) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) Create(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "producto", id)
	}
	return &p, nil
}

func (r *productoRepo) FindByNombre(ctx context.Context, nombre string) (*model.Producto, error) {
	var p model.Producto
	if err := r.db.WithContext(ctx).Where("LOWER(nombre) = LOWER(?)", nombre).First(&p).Error; err != nil {
		return nil, notFound(err, "producto", nombre)
	}
	return &p, nil
}

func (r *productoRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Producto, error) {
	var p model.Producto
	if err := r.db.WithContext(ctx).Where("codigo_barras = ?", barcode).First(&p).Error; err != nil {
		return nil, notFound(err, "producto", barcode)
	}
	return &p, nil
}

func (r *productoRepo) List(ctx context.Context, filter ProductoFilter) ([]model.Producto, int64, error) {
	var productos []model.Producto
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Producto{})
	if filter.Barcode != "" {
		q = q.Where("codigo_barras = ?", filter.Barcode)
	}
	if filter.Nombre != "" {
		q = q.Where("nombre ILIKE ?", "%"+filter.Nombre+"%")
	}
	if filter.Categoria != "" {
		q = q.Where("categoria = ?", filter.Categoria)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginar(q.Order("nombre ASC"), filter.Page, filter.Limit).Find(&productos).Error
	return productos, total, err
}

func (r *productoRepo) ListStockBajo(ctx context.Context, umbral int) ([]model.Producto, error) {
	var productos []model.Producto
	err := r.db.WithContext(ctx).Where("stock <= ?", umbral).Order("stock ASC, nombre ASC").Find(&productos).Error
	return productos, err
}

func (r *productoRepo) Update(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Omit("Stock", "CreatedAt").Save(p).Error
}

func (r *productoRepo) UpdateStock(ctx context.Context, id uuid.UUID, delta int) error {
	res := r.db.WithContext(ctx).Model(&model.Producto{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return apperr.ErrStockInsuficiente
	}
	return nil
}

func (r *productoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Producto{}, "id = ?", id).Error
}
