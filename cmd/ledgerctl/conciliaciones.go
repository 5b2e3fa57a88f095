package main

import (
	"fmt"

	"github.com/fullfullelectronic/pos-system-macos/internal/model"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var conciliacionesCmd = &cobra.Command{
	Use:     "conciliaciones",
	Aliases: []string{"conc"},
	Short:   "Revisar y resolver inconsistencias registradas",
	Long: `Una conciliación se registra cuando una compensación falló: los pasos
pendientes siguen aplicados y deben corregirse a mano. Resolverla sólo
cierra el registro; no modifica saldos ni stock.`,
}

var conciliacionesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Listar conciliaciones",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := abrir(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		estado, _ := cmd.Flags().GetString("estado")
		if estado == "all" {
			estado = ""
		}
		lista, err := a.Servicios.Conciliaciones.Listar(cmd.Context(), estado)
		if err != nil {
			return err
		}
		return imprimirJSON(cmd, lista)
	},
}

var conciliacionesResolveCmd = &cobra.Command{
	Use:     "resolve <id>",
	Short:   "Marcar una conciliación como resuelta",
	Example: `  ledgerctl conciliaciones resolve 3f2b... --nota "saldo corregido con ajuste manual"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("id inválido: %w", err)
		}
		nota, _ := cmd.Flags().GetString("nota")

		a, err := abrir(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		resp, err := a.Servicios.Conciliaciones.Resolver(cmd.Context(), id, nota)
		if err != nil {
			return err
		}
		return imprimirJSON(cmd, resp)
	},
}

func init() {
	rootCmd.AddCommand(conciliacionesCmd)
	conciliacionesCmd.AddCommand(conciliacionesListCmd, conciliacionesResolveCmd)

	conciliacionesListCmd.Flags().String("estado", model.ConciliacionPendiente, "pendiente | resuelta | all")
	conciliacionesResolveCmd.Flags().String("nota", "", "Descripción de la corrección aplicada (requerida)")
	_ = conciliacionesResolveCmd.MarkFlagRequired("nota")
}
