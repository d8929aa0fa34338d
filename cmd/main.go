// @title NYRA Coach API
// @version 1.0
// @description Persona-aware health coaching chat backend
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@nyra.health

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nyra-health/nyra-coach/internal/config"
)

// version is set during build time via ldflags
var version = "dev"

var (
	logLevel   string
	configFile string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "nyra",
	Short:         "NYRA health coaching backend",
	Long:          "NYRA serves the persona-aware coaching chat API and manages its database schema.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
		level := cfg.Log.Level
		if cmd.Flags().Changed("log-level") {
			level = logLevel
		}
		configureLogger(level, cfg.Log.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Set log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Optional config file (yaml, json or env)")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command execution failed")
		os.Exit(1)
	}
}
