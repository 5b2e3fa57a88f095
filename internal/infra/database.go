package infra

import (
	"fmt"
	"time"

	"github.com/fullfullelectronic/pos-system-macos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and brings the
// schema up to date (see RunMigrations).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates every table, then applies the guards
// GORM cannot express. Safe to run on every start.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("extension pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&model.Configuracion{},
		&model.CuentaBancaria{},
		&model.MovimientoFinanciero{},
		&model.Producto{},
		&model.MovimientoStock{},
		&model.Cliente{},
		&model.Venta{},
		&model.VentaItem{},
		&model.Pago{},
		&model.Gasto{},
		&model.Conciliacion{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL statements: the ticket sequence and
// the CHECK constraints backing the ledger invariants. Each one is guarded so
// re-running on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"ticket sequence", `CREATE SEQUENCE IF NOT EXISTS ventas_numero_ticket_seq START 1`},
		{"stock no negativo", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_productos_stock_no_negativo') THEN
    ALTER TABLE productos ADD CONSTRAINT chk_productos_stock_no_negativo CHECK (stock >= 0);
  END IF;
END $$`},
		{"monto de movimiento positivo", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_movimientos_monto_positivo') THEN
    ALTER TABLE movimientos_financieros ADD CONSTRAINT chk_movimientos_monto_positivo CHECK (monto > 0);
  END IF;
END $$`},
		{"saldo de cuentas no crédito", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_cuentas_saldo_no_credito') THEN
    ALTER TABLE cuentas_bancarias ADD CONSTRAINT chk_cuentas_saldo_no_credito
      CHECK (tipo = 'credit' OR saldo >= 0) NOT VALID;
  END IF;
END $$`},
		{"cuenta única por banco", `
CREATE UNIQUE INDEX IF NOT EXISTS idx_cuentas_numero_banco
    ON cuentas_bancarias (numero_cuenta, LOWER(nombre_banco))`},
		{"conciliaciones pendientes", `
CREATE INDEX IF NOT EXISTS idx_conciliaciones_pendientes
    ON conciliaciones (fecha) WHERE estado = 'pendiente'`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
