// internal/commands/chat.go
package nabin

import (
	"context"

	"github.com/mwiater/nabin/cli"
	"github.com/mwiater/nabin/internal/chat"
	"github.com/spf13/cobra"
)

// newStartGUI builds the TUI entry point; tests replace it.
var newStartGUI = cli.NewStartGUI

// chatCmd represents the 'chat' command, which starts an interactive chat session.
var chatCmd = &cobra.Command{
	Use:         "chat",
	Short:       "Start a chat session",
	Long:        `The 'chat' command opens the terminal chat. Enter asks, ctrl+r reloads the catalog, ctrl+l clears the conversation.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationFileLog: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, p, err := openPipeline(context.Background(), cmd)
		if err != nil {
			return err
		}
		return chat.Run(cfg, p, newStartGUI(cfg.AssistantName(), cfg.UserName()))
	},
}

func init() {
	addPromptKeyFlag(chatCmd)
	rootCmd.AddCommand(chatCmd)
}
