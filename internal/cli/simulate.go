package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"marketmind/internal/chat"
	"marketmind/internal/ingest"
	"marketmind/internal/models"
	"marketmind/internal/session"
	"marketmind/internal/store"
	"marketmind/pkg/utils"
)

func newSimulateCmd(app *App) *cobra.Command {
	var symbol string
	var tradesPath string

	cmd := &cobra.Command{
		Use:   "simulate <drop|rise>",
		Short: "Run the full analysis pipeline against the backend",
		Long: `Simulate a market move and drive the complete pipeline: market
snapshot, behavior analysis, chart series, coaching insight, content
for every platform and persona, and chat topic suggestions.

Requires a running backend (see 'marketmind serve').`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			var direction session.Direction
			switch args[0] {
			case "drop":
				direction = session.DirectionDrop
			case "rise":
				direction = session.DirectionRise
			default:
				return fmt.Errorf("direction must be drop or rise, got %q", args[0])
			}

			var states session.Store = session.NewMemoryStore()
			if path := app.Config.Client.StatePath; path != "" {
				ss, err := store.OpenState(path, "default", app.Logger)
				if err != nil {
					output.Dim("State store unavailable (%v), session will not persist", err)
				} else {
					defer ss.Close()
					states = ss
				}
			}

			client := app.APIClient()
			transcript := chat.NewManager(client, app.Logger)
			orch := session.NewOrchestrator(client, states, transcript, app.Logger)

			switch {
			case symbol != "":
				orch.SetSymbol(symbol)
			case app.Config.Client.DefaultSymbol != "":
				var persisted string
				if !states.Get(session.KeySymbol, &persisted) {
					orch.SetSymbol(app.Config.Client.DefaultSymbol)
				}
			}

			if tradesPath != "" {
				f, err := os.Open(tradesPath)
				if err != nil {
					output.Error("Cannot open %s: %v", tradesPath, err)
					return err
				}
				trades, err := ingest.ParseTrades(f)
				f.Close()
				if err != nil {
					output.Error("Invalid trade file: %v", err)
					return err
				}
				orch.SetTrades(trades)
				output.Dim("Using %d uploaded trades for behavior analysis", len(trades))
			}

			if err := orch.Simulate(cmd.Context(), direction); err != nil {
				state := orch.Snapshot()
				if state.LastError != "" {
					output.Error("%s", state.LastError)
				}
				return err
			}

			state := orch.Snapshot()
			if output.IsJSON() {
				return output.JSON(state)
			}
			printPipelineResult(output, state, transcript)
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "instrument to simulate (default from config)")
	cmd.Flags().StringVar(&tradesPath, "trades", "", "CSV trade export to analyze instead of the server sample")
	return cmd
}

func printPipelineResult(output *Output, state session.State, transcript *chat.Manager) {
	md := state.Market.MarketData
	output.Bold("%s  %s (%s)", md.Symbol, utils.FormatPrice(md.CurrentPrice), utils.FormatPercent(md.ChangePct))
	if md.IsSpike {
		output.Warning("Spike detected (%s)", md.SpikeDirection)
	}
	output.Printf("RSI %.1f | ATR %.5f | volume %.2fx\n\n", md.Indicators.RSI, md.Indicators.ATR, md.Indicators.VolumeRatio)
	output.Println(state.Market.Explanation)

	output.Bold("\nBehavior")
	output.Printf("Risk level: %s\n", output.Risk(state.Behavior.RiskLevel))
	for _, p := range state.Behavior.Patterns {
		output.Printf("  %s  %s\n", output.Pattern(p), p.Description)
	}

	output.Bold("\nCoaching Insight")
	output.Println(state.Insight.CoachingInsight)

	output.Bold("\nContent (%s)", state.Platform)
	for _, persona := range models.AllPersonas() {
		piece, ok := state.Content[state.Platform][persona]
		if !ok {
			continue
		}
		output.Info("-- %s (%d chars)", persona, piece.CharCount)
		output.Println(piece.Content)
		output.Println()
	}

	for _, msg := range transcript.Messages() {
		if len(msg.Suggestions) == 0 {
			continue
		}
		output.Bold("Suggested topics")
		for _, s := range msg.Suggestions {
			output.Printf("  - %s\n", s)
		}
	}
}
