package nabin

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// showIndexCmd prints the state of the vector store.
var showIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Show index statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		ix, err := openIndex(ctx)
		if err != nil {
			return err
		}
		stats, err := ix.Stats(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Index:")
		fmt.Fprintf(out, "  Store:           %s\n", stats.Store)
		fmt.Fprintf(out, "  Collection:      %s\n", stats.Collection)
		fmt.Fprintf(out, "  Documents:       %d\n", stats.Documents)
		fmt.Fprintf(out, "  Embedder:        %s\n", stats.Embedder)
		fmt.Fprintf(out, "  ID Scheme:       %s\n", stats.IDScheme)
		return nil
	},
}

func init() {
	showCmd.AddCommand(showIndexCmd)
}
