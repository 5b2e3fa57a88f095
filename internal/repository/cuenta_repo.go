package repository

import (
	"context"

	"github.com/fullfullelectronic/pos-system-macos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CuentaRepository defines the data access contract for bank accounts.
// Services depend on this interface, not on the concrete GORM implementation.
type CuentaRepository interface {
	Create(ctx context.Context, c *model.CuentaBancaria) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CuentaBancaria, error)
	// FindByNumero matches the account number exactly and the bank name case-insensitively.
	FindByNumero(ctx context.Context, numero, banco string) (*model.CuentaBancaria, error)
	List(ctx context.Context, soloActivas bool) ([]model.CuentaBancaria, error)
	// Update writes every field except Saldo.
	Update(ctx context.Context, c *model.CuentaBancaria) error
	// UpdateSaldo is reserved to the ledger, which holds the account's lock.
	UpdateSaldo(ctx context.Context, id uuid.UUID, saldo decimal.Decimal) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type cuentaRepo struct{ db *gorm.DB }

func NewCuentaRepository(db *gorm.DB) CuentaRepository { return &cuentaRepo{db: db} }

func (r *cuentaRepo) Create(ctx context.Context, c *model.CuentaBancaria) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cuentaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CuentaBancaria, error) {
	var c model.CuentaBancaria
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "cuenta", id)
	}
	return &c, nil
}

func (r *cuentaRepo) FindByNumero(ctx context.Context, numero, banco string) (*model.CuentaBancaria, error) {
	var c model.CuentaBancaria
	err := r.db.WithContext(ctx).
		Where("numero_cuenta = ? AND LOWER(nombre_banco) = LOWER(?)", numero, banco).
		First(&c).Error
	if err != nil {
		return nil, notFound(err, "cuenta", numero)
	}
	return &c, nil
}

func (r *cuentaRepo) List(ctx context.Context, soloActivas bool) ([]model.CuentaBancaria, error) {
	var cuentas []model.CuentaBancaria
	q := r.db.WithContext(ctx).Model(&model.CuentaBancaria{})
	if soloActivas {
		q = q.Where("activa = true")
	}
	err := q.Order("nombre_banco ASC, numero_cuenta ASC").Find(&cuentas).Error
	return cuentas, err
}

func (r *cuentaRepo) Update(ctx context.Context, c *model.CuentaBancaria) error {
	return r.db.WithContext(ctx).Omit("Saldo", "CreatedAt").Save(c).Error
}

func (r *cuentaRepo) UpdateSaldo(ctx context.Context, id uuid.UUID, saldo decimal.Decimal) error {
	res := r.db.WithContext(ctx).Model(&model.CuentaBancaria{}).Where("id = ?", id).Update("saldo", saldo)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "cuenta", id)
	}
	return nil
}

func (r *cuentaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.CuentaBancaria{}, "id = ?", id).Error
}
