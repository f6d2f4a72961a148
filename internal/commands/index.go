package nabin

import (
	"context"
	"errors"

	"github.com/fatih/color"
	"github.com/mwiater/nabin/internal/catalog"
	"github.com/mwiater/nabin/internal/rag"
	"github.com/spf13/cobra"
)

// indexCmd reloads the catalog sources into the vector store.
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Load the food and drink catalogs into the index",
	Long:  `The 'index' command reads every configured catalog source, embeds each venue and upserts it into the vector store.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()
		ix, err := openIndex(ctx)
		if err != nil {
			return err
		}
		n, msg := rag.ReindexResult(ctx, ix, cfg.Sources())
		out := cmd.OutOrStdout()
		if msg != catalog.SuccessMessage {
			color.New(color.FgRed).Fprintf(out, "Reindex failed: %s\n", msg)
			return errors.New(msg)
		}
		color.New(color.FgGreen).Fprintf(out, "Loaded %d places\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
