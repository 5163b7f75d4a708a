package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"reportaudit/internal/config"
	"reportaudit/internal/storage"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the analysis result cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all cached analysis results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings := config.FromViper(viper.GetViper())

			store, err := storage.NewSQLiteStore(settings.DatabasePath)
			if err != nil {
				return fmt.Errorf("failed to open result store: %w", err)
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
			return nil
		},
	})

	return cmd
}
