package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fullfullelectronic/pos-system-macos/internal/app"
	"github.com/fullfullelectronic/pos-system-macos/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Herramientas de operación del backend de gestión",
	Long: `ledgerctl opera sobre el mismo almacenamiento que el servidor
(STORE_BACKEND, DATABASE_URL, REDIS_URL se leen del entorno o de .env).

Permite emitir tokens de operador, revisar la configuración, cargar
datos de ejemplo y resolver conciliaciones pendientes.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		if v, _ := cmd.Flags().GetBool("verbose"); !v {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Mostrar logs informativos")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// abrir loads the configuration and wires the backends for one command.
func abrir(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.Nueva(ctx, cfg)
}

func imprimirJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
