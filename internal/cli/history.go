package cli

import (
	"github.com/spf13/cobra"
)

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse stored content and chat history",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "content",
		Short: "List generated content history",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			items, err := app.APIClient().ContentHistory(cmd.Context())
			if err != nil {
				output.Error("Failed to load content history: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(items)
			}
			if len(items) == 0 {
				output.Dim("No content history.")
				return nil
			}
			for _, item := range items {
				output.Bold("%s / %s  %s", item.Persona, item.Platform, item.CreatedAt.Format("02-Jan-2006 15:04"))
				output.Println(item.Content)
				output.Println()
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "chat",
		Short: "List chat history",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			items, err := app.APIClient().ChatHistory(cmd.Context())
			if err != nil {
				output.Error("Failed to load chat history: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(items)
			}
			if len(items) == 0 {
				output.Dim("No chat history.")
				return nil
			}
			for _, item := range items {
				output.Info("%s:", item.Role)
				output.Println(item.Content)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Clear chat history",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.APIClient().ClearChatHistory(cmd.Context()); err != nil {
				output.Error("Failed to clear chat history: %v", err)
				return err
			}
			output.Success("Chat history cleared")
			return nil
		},
	})

	return cmd
}
