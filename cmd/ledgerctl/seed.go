package main

import (
	"fmt"

	"github.com/fullfullelectronic/pos-system-macos/internal/dto"
	"github.com/fullfullelectronic/pos-system-macos/internal/model"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Cargar cuentas y productos de ejemplo",
	Long: `Crea dos cuentas bancarias y un catálogo mínimo para pruebas manuales.
Los registros que ya existen se informan y se omiten.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := abrir(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		cuentas := []dto.CrearCuentaRequest{
			{NombreBanco: "Banco Nación", NumeroCuenta: "0110-0001-45", Tipo: model.CuentaCorriente, SaldoInicial: decimal.NewFromInt(50000)},
			{NombreBanco: "Banco Galicia", NumeroCuenta: "0070-9999-12", Tipo: model.CuentaAhorro, SaldoInicial: decimal.NewFromInt(10000)},
		}
		for _, req := range cuentas {
			c, err := a.Servicios.Cuentas.Crear(ctx, req)
			if err != nil {
				fmt.Fprintf(out, "cuenta %s: %v\n", req.NumeroCuenta, err)
				continue
			}
			fmt.Fprintf(out, "cuenta %s creada (%s)\n", c.NombreVisible, c.ID)
		}

		productos := []dto.CrearProductoRequest{
			{Nombre: "Yerba mate 1kg", Categoria: "Almacén", Precio: decimal.NewFromInt(3200), StockInicial: 40},
			{Nombre: "Azúcar 1kg", Categoria: "Almacén", Precio: decimal.NewFromInt(1100), StockInicial: 25},
			{Nombre: "Agua mineral 2L", Categoria: "Bebidas", Precio: decimal.NewFromInt(900), StockInicial: 8},
		}
		for _, req := range productos {
			p, err := a.Servicios.Productos.Crear(ctx, req)
			if err != nil {
				fmt.Fprintf(out, "producto %s: %v\n", req.Nombre, err)
				continue
			}
			fmt.Fprintf(out, "producto %s creado (%s)\n", p.Nombre, p.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
