package nabin

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwiater/nabin/internal/chat"
	"github.com/spf13/cobra"
)

// askCmd answers one question through the full pipeline.
var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Ask for a recommendation once and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, p, err := openPipeline(context.Background(), cmd)
		if err != nil {
			return err
		}

		session := chat.NewSession(cfg.UserName())
		reply, err := p.Ask(context.Background(), session, strings.Join(args, " "))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, reply.Answer)
		if showSources, _ := cmd.Flags().GetBool("sources"); showSources && !reply.Result.Empty() {
			fmt.Fprintln(out)
			for i, hit := range reply.Result.Hits {
				fmt.Fprintf(out, "%d. %s, %s (%s)\n", i+1, hit.Metadata.Name, hit.Metadata.Address, hit.Metadata.Map)
			}
		}
		return nil
	},
}

func init() {
	addPromptKeyFlag(askCmd)
	askCmd.Flags().Bool("sources", false, "list the venues used as context")
	rootCmd.AddCommand(askCmd)
}
