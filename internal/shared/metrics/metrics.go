package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	ingestStartedTotal   atomic.Uint64
	ingestCompletedTotal atomic.Uint64
	ingestFailedTotal    atomic.Uint64
	ingestRollbacksTotal atomic.Uint64
	indexingTriggered    atomic.Uint64
	indexingFailedTotal  atomic.Uint64
	extractionsTotal     atomic.Uint64
	extractionsDegraded  atomic.Uint64
	indexJobsReceived    atomic.Uint64
	indexJobsCompleted   atomic.Uint64
	indexJobsFailed      atomic.Uint64
	indexJobsDropped     atomic.Uint64

	ingestDuration = newHistogram([]float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncIngestStarted increments the started counter.
func IncIngestStarted() {
	ingestStartedTotal.Add(1)
}

// IncIngestCompleted increments the completed counter.
func IncIngestCompleted() {
	ingestCompletedTotal.Add(1)
}

// IncIngestFailed increments the failed counter.
func IncIngestFailed() {
	ingestFailedTotal.Add(1)
}

// IncIngestRollback counts blobs removed after a metadata write failed.
func IncIngestRollback() {
	ingestRollbacksTotal.Add(1)
}

// IncIndexingTriggered counts indexing hand-offs attempted.
func IncIndexingTriggered() {
	indexingTriggered.Add(1)
}

// IncIndexingFailed counts indexing hand-offs that did not succeed.
func IncIndexingFailed() {
	indexingFailedTotal.Add(1)
}

// IncExtraction counts vision extractions; degraded marks a fallback-to-defaults result.
func IncExtraction(degraded bool) {
	extractionsTotal.Add(1)
	if degraded {
		extractionsDegraded.Add(1)
	}
}

// IncIndexJobsReceived increments the received counter for queued indexing jobs.
func IncIndexJobsReceived() {
	indexJobsReceived.Add(1)
}

// IncIndexJobsCompleted increments the completed counter for queued indexing jobs.
func IncIndexJobsCompleted() {
	indexJobsCompleted.Add(1)
}

// IncIndexJobsFailed increments the failed counter for queued indexing jobs.
func IncIndexJobsFailed() {
	indexJobsFailed.Add(1)
}

// IncIndexJobsDropped counts queue messages deleted without processing.
func IncIndexJobsDropped() {
	indexJobsDropped.Add(1)
}

// ObserveIngestDurationMs records an ingest duration in milliseconds.
func ObserveIngestDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	ingestDuration.Observe(value)
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
	writeCounter(&buf, "document_ingest_started_total", "Total document ingests started", ingestStartedTotal.Load())
	writeCounter(&buf, "document_ingest_completed_total", "Total document ingests completed", ingestCompletedTotal.Load())
	writeCounter(&buf, "document_ingest_failed_total", "Total document ingests failed", ingestFailedTotal.Load())
	writeCounter(&buf, "document_ingest_rollbacks_total", "Blobs deleted after a failed metadata insert", ingestRollbacksTotal.Load())
	writeCounter(&buf, "document_indexing_triggered_total", "Indexing hand-offs attempted", indexingTriggered.Load())
	writeCounter(&buf, "document_indexing_failed_total", "Indexing hand-offs failed", indexingFailedTotal.Load())
	writeCounter(&buf, "vision_extractions_total", "Vision extractions performed", extractionsTotal.Load())
	writeCounter(&buf, "vision_extractions_degraded_total", "Vision extractions that fell back to defaults", extractionsDegraded.Load())
	writeCounter(&buf, "index_jobs_received_total", "Queued indexing jobs received", indexJobsReceived.Load())
	writeCounter(&buf, "index_jobs_completed_total", "Queued indexing jobs completed", indexJobsCompleted.Load())
	writeCounter(&buf, "index_jobs_failed_total", "Queued indexing jobs failed", indexJobsFailed.Load())
	writeCounter(&buf, "index_jobs_dropped_total", "Queue messages deleted as unprocessable", indexJobsDropped.Load())
	writeHistogram(&buf, "document_ingest_duration_ms", "Document ingest duration in milliseconds", ingestDuration.Snapshot())
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
			return
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
