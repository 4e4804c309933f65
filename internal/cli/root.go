// Package cli provides the command-line interface for MarketMind.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"marketmind/internal/api"
	"marketmind/internal/behavior"
	"marketmind/internal/config"
	"marketmind/internal/logging"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-08-29"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// BehaviorConfig maps the configured thresholds onto the pattern engine.
func (a *App) BehaviorConfig() behavior.Config {
	b := a.Config.Behavior
	return behavior.Config{
		LossStreakMin:        b.LossStreakMin,
		LossStreakHigh:       b.LossStreakHigh,
		RevengeWindow:        b.RevengeWindow,
		RapidReentryWindow:   b.RapidReentryWindow,
		OversizeMultiple:     b.OversizeMultiple,
		OversizeHighMultiple: b.OversizeHighMultiple,
		SizingVarianceBand:   b.SizingVarianceBand,
		ImprovingWindow:      b.ImprovingWindow,
	}
}

// APIClient builds the backend client with the cached auth token.
func (a *App) APIClient() *api.Client {
	return api.NewClient(a.Config.Client.BaseURL,
		api.NewStaticToken(a.Config.Credentials.Auth.Token), a.Logger)
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "marketmind",
		Short: "MarketMind - trading psychology companion",
		Long: `MarketMind analyzes market moves and trading behavior, then turns
them into coaching insights and persona-voiced social content.

Run 'marketmind serve' to start the backend API, or use the analysis
commands against a running backend.

Use 'marketmind help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/marketmind)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newSimulateCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("MarketMind v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			output.Bold("Server")
			output.Printf("  addr:           %s\n", app.Config.Server.Addr)
			output.Printf("  db_path:        %s\n", app.Config.Server.DBPath)
			output.Printf("  default_model:  %s\n", app.Config.Server.DefaultModel)
			output.Bold("Client")
			output.Printf("  base_url:       %s\n", app.Config.Client.BaseURL)
			output.Printf("  default_symbol: %s\n", app.Config.Client.DefaultSymbol)
			output.Printf("  chart_points:   %d\n", app.Config.Client.ChartPoints)
			output.Printf("  state_path:     %s\n", app.Config.Client.StatePath)
			if app.Config.Credentials.OpenAI.APIKey == "" {
				output.Warning("OpenAI API key not configured: AI responses use canned fallbacks")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}
