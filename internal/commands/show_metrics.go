package nabin

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/mwiater/nabin/internal/metrics"
	"github.com/mwiater/nabin/internal/providerfactory"
	"github.com/spf13/cobra"
)

// showMetricsCmd prints the persisted generation stats.
var showMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show recorded generation performance",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		path := providerfactory.StatsPath(cfg)
		stats, err := metrics.ReadStats(path)
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(out, "No generation metrics recorded yet (%s). Run with --metrics to collect them.\n", path)
			return nil
		}
		if err != nil {
			return err
		}

		for _, m := range stats {
			s := m.OverallStats
			fmt.Fprintf(out, "%s / %s (updated %s)\n", m.Provider, m.ModelName, m.LastUpdatedUTC.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "  Requests:        %d\n", s.TotalRequests)
			fmt.Fprintf(out, "  Latency ms:      mean %.0f, stddev %.0f, min %.0f, max %.0f\n",
				s.LatencyMillis.Mean, s.LatencyMillis.StdDev(), s.LatencyMillis.Min, s.LatencyMillis.Max)
			fmt.Fprintf(out, "  Tokens/s:        mean %.1f\n", s.TokensPerSecond.Mean)
			fmt.Fprintf(out, "  Input tokens:    mean %.0f\n", s.InputTokens.Mean)
			fmt.Fprintf(out, "  Output tokens:   mean %.0f\n", s.OutputTokens.Mean)
		}
		return nil
	},
}

func init() {
	showCmd.AddCommand(showMetricsCmd)
}
