package nabin

import (
	"context"
	"strings"

	"github.com/mwiater/nabin/internal/rag"
	"github.com/spf13/cobra"
)

// searchCmd previews retrieval and context assembly for a query without calling a model.
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Preview retrieval and context assembly for a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		k, _ := cmd.Flags().GetInt("k")

		ctx := context.Background()
		ix, err := openIndex(ctx)
		if err != nil {
			return err
		}
		query := strings.Join(args, " ")
		return rag.RunPreview(ctx, cmd.OutOrStdout(), rag.NewRetriever(ix, cfg.TopKOrDefault()), query, k)
	},
}

func init() {
	searchCmd.Flags().IntP("k", "k", 0, "number of venues to retrieve (0 = topK from config)")
	rootCmd.AddCommand(searchCmd)
}
