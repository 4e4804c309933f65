package cli

import (
	"os"

	"github.com/spf13/cobra"

	"marketmind/internal/behavior"
	"marketmind/internal/errors"
	"marketmind/internal/ingest"
	"marketmind/pkg/utils"
)

func newAnalyzeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <trades.csv>",
		Short: "Analyze a trade export for behavior patterns",
		Long: `Parse a CSV trade export and run the behavior pattern engine locally.

The file needs a header row with at least: id, symbol, side, size,
entry_price, timestamp. Optional columns: exit_price, pnl, closed_at.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			f, err := os.Open(args[0])
			if err != nil {
				output.Error("Cannot open %s: %v", args[0], err)
				return err
			}
			defer f.Close()

			trades, err := ingest.ParseTrades(f)
			if err != nil {
				var ve *errors.ValidationError
				var fe *errors.FormatError
				switch {
				case errors.As(err, &ve):
					output.Error("Invalid trade file: %s", ve.Error())
				case errors.As(err, &fe):
					output.Error("Unreadable trade file: %s", fe.Message)
				default:
					output.Error("Import failed: %v", err)
				}
				return err
			}

			result := behavior.NewEngine(app.BehaviorConfig()).Analyze(trades)

			if output.IsJSON() {
				return output.JSON(result)
			}

			var netPnL float64
			closed := 0
			for _, tr := range trades {
				if tr.PnL != nil {
					netPnL += *tr.PnL
					closed++
				}
			}

			output.Bold("Behavior Analysis (%d trades, %d closed)", len(trades), closed)
			output.Printf("Net P&L: %s\n", utils.FormatPnL(netPnL))
			output.Printf("Risk level: %s\n\n", output.Risk(result.RiskLevel))
			if len(result.Patterns) == 0 {
				output.Dim("No patterns detected.")
			}
			for _, p := range result.Patterns {
				output.Printf("  %s  %s\n", output.Pattern(p), p.Description)
			}
			output.Println()
			output.Info("%s", result.Summary)
			if result.CoachingMessage != "" {
				output.Dim("%s", result.CoachingMessage)
			}
			return nil
		},
	}
	return cmd
}
