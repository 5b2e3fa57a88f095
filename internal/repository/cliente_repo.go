package repository

import (
	"context"

	"github.com/fullfullelectronic/pos-system-macos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClienteFilter struct {
	Nombre string
	Page   int
	Limit  int
}

type ClienteRepository interface {
	Create(ctx context.Context, c *model.Cliente) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error)
	FindByEmail(ctx context.Context, email string) (*model.Cliente, error)
	FindByCUIT(ctx context.Context, cuit string) (*model.Cliente, error)
	List(ctx context.Context, filter ClienteFilter) ([]model.Cliente, int64, error)
	Update(ctx context.Context, c *model.Cliente) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository { return &clienteRepo{db: db} }

func (r *clienteRepo) Create(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clienteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error) {
	var c model.Cliente
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "cliente", id)
	}
	return &c, nil
}

func (r *clienteRepo) FindByEmail(ctx context.Context, email string) (*model.Cliente, error) {
	var c model.Cliente
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&c).Error; err != nil {
		return nil, notFound(err, "cliente", email)
	}
	return &c, nil
}

func (r *clienteRepo) FindByCUIT(ctx context.Context, cuit string) (*model.Cliente, error) {
	var c model.Cliente
	if err := r.db.WithContext(ctx).Where("cuit = ?", cuit).First(&c).Error; err != nil {
		return nil, notFound(err, "cliente", cuit)
	}
	return &c, nil
}

func (r *clienteRepo) List(ctx context.Context, filter ClienteFilter) ([]model.Cliente, int64, error) {
	var clientes []model.Cliente
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Cliente{})
	if filter.Nombre != "" {
		q = q.Where("nombre ILIKE ?", "%"+filter.Nombre+"%")
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := paginar(q.Order("nombre ASC"), filter.Page, filter.Limit).Find(&clientes).Error
	return clientes, total, err
}

func (r *clienteRepo) Update(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Omit("CreatedAt").Save(c).Error
}

func (r *clienteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Cliente{}, "id = ?", id).Error
}
