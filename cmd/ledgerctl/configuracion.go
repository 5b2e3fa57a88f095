package main

import (
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Mostrar la configuración de negocio vigente",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := abrir(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		resp, err := a.Servicios.Configuracion.Obtener(cmd.Context())
		if err != nil {
			return err
		}
		return imprimirJSON(cmd, resp)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
