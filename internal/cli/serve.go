package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"marketmind/internal/behavior"
	"marketmind/internal/config"
	"marketmind/internal/content"
	"marketmind/internal/engine"
	"marketmind/internal/market"
	"marketmind/internal/server"
	"marketmind/internal/store"
)

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MarketMind backend API",
		Long: `Start the HTTP backend serving market snapshots, behavior analysis,
coaching insights, content generation and chat.

Without an OpenAI API key the AI endpoints respond with deterministic
fallback text, which is enough for the demo flows.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			var llm engine.LLMClient
			creds := app.Config.Credentials.OpenAI
			if creds.APIKey != "" {
				model := creds.Model
				if model == "" {
					model = app.Config.Server.DefaultModel
				}
				llm = engine.NewOpenAIClient(creds.APIKey, creds.BaseURL, model)
				app.Logger.Info().Str("model", model).Msg("openai client initialized")
			} else {
				app.Logger.Warn().Msg("no OpenAI key configured, AI responses use fallbacks")
			}

			dbPath := app.Config.Server.DBPath
			if dbPath == "" {
				dbPath = filepath.Join(config.DefaultConfigDir(), "marketmind.db")
			}
			history, err := store.NewSQLiteStore(dbPath)
			if err != nil {
				return err
			}
			defer history.Close()

			aiEngine := engine.New(llm, app.Logger)
			srv := server.New(server.Config{
				Addr:          app.Config.Server.Addr,
				Token:         app.Config.Credentials.Auth.Token,
				DefaultSymbol: app.Config.Client.DefaultSymbol,
			},
				market.NewService(app.Logger),
				aiEngine,
				content.NewGenerator(llm, app.Logger),
				behavior.NewEngine(app.BehaviorConfig()),
				history,
				app.Logger)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()
			output.Info("MarketMind API listening on %s", app.Config.Server.Addr)

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-stop:
				app.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}
	return cmd
}
