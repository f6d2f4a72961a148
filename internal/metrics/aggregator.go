// internal/metrics/aggregator.go
package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mwiater/nabin/internal/logging"
	"github.com/mwiater/nabin/internal/providers"
)

// StatsFile is the name of the persisted generation stats inside the data directory.
const StatsFile = "generation_metrics.json"

// Aggregator collects and manages performance metrics for generative models.
// Stats survive restarts through a JSON file that is rewritten every minute and on Close.
type Aggregator struct {
	mutex    sync.Mutex
	metrics  map[string]*ModelMetrics
	filePath string
	ticker   *time.Ticker
	done     chan struct{}
	closed   bool
}

var (
	instance *Aggregator
	once     sync.Once
)

// GetInstance returns the process-wide Aggregator. The path given on the first call wins.
func GetInstance(path string) *Aggregator {
	once.Do(func() {
		instance = NewAggregator(path)
	})
	return instance
}

// NewAggregator creates an Aggregator persisted at path. An empty path keeps stats in memory only.
func NewAggregator(path string) *Aggregator {
	agg := &Aggregator{
		metrics:  make(map[string]*ModelMetrics),
		filePath: path,
		done:     make(chan struct{}),
	}
	if path == "" {
		return agg
	}

	agg.load()

	agg.ticker = time.NewTicker(1 * time.Minute)
	go func() {
		for {
			select {
			case <-agg.ticker.C:
				agg.save()
			case <-agg.done:
				return
			}
		}
	}()

	return agg
}

func key(provider, model string) string {
	return provider + "/" + model
}

// load reads metrics from the JSON file into memory.
func (a *Aggregator) load() {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	stats, err := ReadStats(a.filePath)
	if err != nil {
		return
	}
	for i := range stats {
		m := stats[i]
		a.metrics[key(m.Provider, m.ModelName)] = &m
	}
}

// save writes the current metrics from memory to the JSON file.
func (a *Aggregator) save() {
	if a.filePath == "" {
		return
	}
	data, err := json.MarshalIndent(a.Snapshot(), "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(a.filePath), 0o755); err != nil {
		logging.LogError(err, "[METRICS] create stats directory")
		return
	}
	if err := os.WriteFile(a.filePath, data, 0o644); err != nil {
		logging.LogError(err, "[METRICS] write %s", a.filePath)
		return
	}
	logging.LogEvent("[METRICS] Saved generation stats to %s", a.filePath)
}

// Record folds one completed generation into the stats for provider/model.
func (a *Aggregator) Record(provider, model string, resp providers.Response) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	k := key(provider, model)
	modelMetrics, exists := a.metrics[k]
	if !exists {
		modelMetrics = &ModelMetrics{
			Provider:  provider,
			ModelName: model,
		}
		a.metrics[k] = modelMetrics
	}

	modelMetrics.LastUpdatedUTC = time.Now().UTC()

	updateStats(&modelMetrics.OverallStats, resp)

	bucket := getBucket(resp.PromptTokens)
	for i := range modelMetrics.PerformanceBuckets {
		if modelMetrics.PerformanceBuckets[i].Dimension == "input_tokens" && modelMetrics.PerformanceBuckets[i].Bucket == bucket {
			updateStats(&modelMetrics.PerformanceBuckets[i].Stats, resp)
			return
		}
	}
	newBucket := PerformanceBucket{
		Dimension: "input_tokens",
		Bucket:    bucket,
	}
	updateStats(&newBucket.Stats, resp)
	modelMetrics.PerformanceBuckets = append(modelMetrics.PerformanceBuckets, newBucket)
}

// Snapshot returns a copy of all stats ordered by provider then model.
func (a *Aggregator) Snapshot() []ModelMetrics {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	out := make([]ModelMetrics, 0, len(a.metrics))
	for _, m := range a.metrics {
		cp := *m
		cp.PerformanceBuckets = append([]PerformanceBucket(nil), m.PerformanceBuckets...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].ModelName < out[j].ModelName
	})
	return out
}

// ReadStats loads a stats file written by an Aggregator.
func ReadStats(path string) ([]ModelMetrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var stats []ModelMetrics
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return stats, nil
}

// updateStats updates the running statistics with a completed response.
func updateStats(stats *RunningAggregatedStats, resp providers.Response) {
	stats.TotalRequests++
	updateRunningStat(&stats.LatencyMillis, float64(resp.Duration.Milliseconds()))

	var tokensPerSecond float64
	if resp.Duration > 0 {
		tokensPerSecond = float64(resp.CompletionTokens) / resp.Duration.Seconds()
	}
	updateRunningStat(&stats.TokensPerSecond, tokensPerSecond)

	updateRunningStat(&stats.InputTokens, float64(resp.PromptTokens))
	updateRunningStat(&stats.OutputTokens, float64(resp.CompletionTokens))
}

// updateRunningStat updates a single running statistic using Welford's online algorithm.
func updateRunningStat(rs *RunningStat, value float64) {
	rs.Count++
	if rs.Count == 1 {
		rs.Min = value
		rs.Max = value
	} else {
		if value < rs.Min {
			rs.Min = value
		}
		if value > rs.Max {
			rs.Max = value
		}
	}

	delta := value - rs.Mean
	rs.Mean += delta / float64(rs.Count)
	delta2 := value - rs.Mean
	rs.M2 += delta * delta2
}

// getBucket determines the appropriate performance bucket for a given number of input tokens.
// Prompts here are dominated by the persona block and a handful of venues, so buckets are narrow.
func getBucket(inputTokens int) string {
	switch {
	case inputTokens <= 256:
		return "0-256"
	case inputTokens <= 1024:
		return "257-1024"
	case inputTokens <= 4096:
		return "1025-4096"
	default:
		return "4096+"
	}
}

// Close stops the ticker and saves the metrics.
func (a *Aggregator) Close() {
	a.mutex.Lock()
	if a.closed {
		a.mutex.Unlock()
		return
	}
	a.closed = true
	a.mutex.Unlock()

	if a.ticker != nil {
		a.ticker.Stop()
		close(a.done)
	}
	a.save()
}

// Close gracefully shuts down the process-wide aggregator instance.
func Close() {
	if instance != nil {
		instance.Close()
	}
}
