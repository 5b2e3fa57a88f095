package main

import (
	"fmt"
	"time"

	"github.com/fullfullelectronic/pos-system-macos/internal/config"
	"github.com/fullfullelectronic/pos-system-macos/internal/middleware"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token <operador>",
	Short: "Emitir un token JWT para un operador",
	Example: `  ledgerctl token ana --rol admin
  ledgerctl token caja1 --horas 12`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		rol, _ := cmd.Flags().GetString("rol")
		horas, _ := cmd.Flags().GetInt("horas")
		if horas <= 0 {
			horas = cfg.JWTExpirationHours
		}

		tok, err := middleware.EmitirToken(cfg.JWTSecret, args[0], rol, time.Duration(horas)*time.Hour)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().String("rol", middleware.RolOperador, "Rol del token (admin | operador)")
	tokenCmd.Flags().Int("horas", 0, "Vigencia en horas (default: JWT_EXPIRATION_HOURS)")
}
