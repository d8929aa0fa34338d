package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nyra-health/nyra-coach/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply or inspect database migrations",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE: func(cmd *cobra.Command, args []string) error {
		command := "up"
		if len(args) == 1 {
			command = args[0]
		}

		pool, err := store.NewPool(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer pool.Close()

		return store.Migrate(cmd.Context(), pool, command)
	},
}
