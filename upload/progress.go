package upload

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker tracks and reports chunk upload progress. The
// orchestrator calls Ack after every positive chunk acknowledgment;
// progress is the only externally observable side effect of an upload
// session besides its terminal outcome.
type ProgressTracker struct {
	writer         io.Writer
	totalChunks    int
	ackedChunks    int
	sentBytes      int64
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgressTracker creates a new progress tracker.
// writer: where to write progress output (typically os.Stderr)
// totalChunks: total number of chunks in the session
// reportInterval: report progress every N acknowledgments
func NewProgressTracker(writer io.Writer, totalChunks, reportInterval int) *ProgressTracker {
	if reportInterval <= 0 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		totalChunks:    totalChunks,
		reportInterval: reportInterval,
	}
}

// Start begins tracking progress. Already-acknowledged chunks from a
// resumed session are counted via acked.
func (p *ProgressTracker) Start(acked int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.ackedChunks = acked
	p.lastReported = acked
	p.sentBytes = 0
}

// Ack records one acknowledged chunk of the given payload size.
func (p *ProgressTracker) Ack(payloadSize int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.ackedChunks++
	if p.ackedChunks > p.totalChunks {
		p.ackedChunks = p.totalChunks
	}
	p.sentBytes += int64(payloadSize)

	if p.ackedChunks-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.ackedChunks
	}
}

// Acked returns the number of acknowledged chunks so far.
func (p *ProgressTracker) Acked() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ackedChunks
}

// Finish prints final progress and a trailing newline.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.report()
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time elapsed since Start was called.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}

	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	elapsed := time.Since(p.startTime)
	rate := float64(p.sentBytes) / (1024 * 1024) / elapsed.Seconds()

	percentage := 0.0
	if p.totalChunks > 0 {
		percentage = float64(p.ackedChunks) / float64(p.totalChunks) * 100.0
	}

	fmt.Fprintf(p.writer, "\rUploading: %d/%d chunks (%.1f%%) - %.1f MiB/s",
		p.ackedChunks, p.totalChunks, percentage, rate)
}
