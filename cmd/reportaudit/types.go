package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"reportaudit/internal/config"
	"reportaudit/internal/registry"
)

func typesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the configured report types",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings := config.FromViper(viper.GetViper())

			reg, err := registry.LoadDir(settings.TypesDir)
			if err != nil {
				return fmt.Errorf("failed to load report type definitions: %w", err)
			}

			for _, def := range reg.All() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", def.ID, def.Name)
				if def.Description != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%-20s   %s\n", "", def.Description)
				}
			}
			return nil
		},
	}
}
