package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	llmCallsTotal          atomic.Uint64
	llmRetriesTotal        atomic.Uint64
	llmFailuresTotal       atomic.Uint64
	cacheHitsTotal         atomic.Uint64
	cacheMissesTotal       atomic.Uint64
	cacheStaleTotal        atomic.Uint64
	normalizeFallbackTotal atomic.Uint64
	artifactFailedTotal    atomic.Uint64

	llmCallDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncLLMCall counts one attempt against the external model.
func IncLLMCall() { llmCallsTotal.Add(1) }

// IncLLMRetry counts one backoff sleep before a further attempt.
func IncLLMRetry() { llmRetriesTotal.Add(1) }

// IncLLMFailure counts a call whose retries were exhausted.
func IncLLMFailure() { llmFailuresTotal.Add(1) }

// IncCacheHit counts a result served from the fingerprint cache.
func IncCacheHit() { cacheHitsTotal.Add(1) }

// IncCacheMiss counts a lookup with no usable entry.
func IncCacheMiss() { cacheMissesTotal.Add(1) }

// IncCacheStale counts an entry rejected for missing required fields.
func IncCacheStale() { cacheStaleTotal.Add(1) }

// IncNormalizeFallback counts model output that could not be parsed.
func IncNormalizeFallback() { normalizeFallbackTotal.Add(1) }

// IncArtifactFailed counts artifacts moved to the failed state.
func IncArtifactFailed() { artifactFailedTotal.Add(1) }

// ObserveLLMDurationMs records a model call duration in milliseconds.
func ObserveLLMDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	llmCallDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "llm_calls_total", "Total external model attempts", llmCallsTotal.Load())
	writeCounter(&buf, "llm_retries_total", "Total backoff retries", llmRetriesTotal.Load())
	writeCounter(&buf, "llm_failures_total", "Total calls that exhausted retries", llmFailuresTotal.Load())
	writeCounter(&buf, "result_cache_hits_total", "Total fingerprint cache hits", cacheHitsTotal.Load())
	writeCounter(&buf, "result_cache_misses_total", "Total fingerprint cache misses", cacheMissesTotal.Load())
	writeCounter(&buf, "result_cache_stale_total", "Total cache entries rejected as stale", cacheStaleTotal.Load())
	writeCounter(&buf, "normalize_fallback_total", "Total unparseable model responses", normalizeFallbackTotal.Load())
	writeCounter(&buf, "artifact_failed_total", "Total artifacts marked failed", artifactFailedTotal.Load())
	writeHistogram(&buf, "llm_call_duration_ms", "External model call duration in milliseconds", llmCallDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// SinceMs returns the milliseconds elapsed since start.
func SinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
