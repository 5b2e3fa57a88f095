package repository

import (
	"context"

	"github.com/fullfullelectronic/pos-system-macos/internal/model"

	"gorm.io/gorm"
)

// ConfiguracionRepository stores the single business configuration row.
type ConfiguracionRepository interface {
	// Get returns the stored configuration, creating it with
	// model.ConfiguracionPorDefecto on first access.
	Get(ctx context.Context) (*model.Configuracion, error)
	Save(ctx context.Context, c *model.Configuracion) error
}

type configuracionRepo struct{ db *gorm.DB }

func NewConfiguracionRepository(db *gorm.DB) ConfiguracionRepository {
	return &configuracionRepo{db: db}
}

func (r *configuracionRepo) Get(ctx context.Context) (*model.Configuracion, error) {
	c := model.ConfiguracionPorDefecto()
	err := r.db.WithContext(ctx).Where(model.Configuracion{ID: 1}).FirstOrCreate(&c).Error
	return &c, err
}

func (r *configuracionRepo) Save(ctx context.Context, c *model.Configuracion) error {
	c.ID = 1
	return r.db.WithContext(ctx).Save(c).Error
}
