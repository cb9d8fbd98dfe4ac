package pipeline

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/pontikos-lab/open-sight/internal/logger"
)

// Reporter surfaces throughput (items/sec) and cumulative counters after
// each batch, and a final run summary. It is purely observability: it holds
// no pipeline state beyond the run start time, and all counts are threaded
// in explicitly from the scheduler.
//
// When out is a terminal the per-batch line is rewritten in place with a
// carriage return; otherwise each report goes through the logger.
type Reporter struct {
	out    io.Writer
	log    logger.Logger
	inline bool
	start  time.Time
}

// NewReporter creates a Reporter writing inline progress to out when out is
// a TTY and logging through log otherwise.
func NewReporter(out io.Writer, log logger.Logger) *Reporter {
	inline := false
	if f, ok := out.(*os.File); ok {
		inline = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Reporter{
		out:    out,
		log:    log,
		inline: inline,
		start:  time.Now(),
	}
}

// BatchDone reports the throughput of the just-completed batch together with
// the cumulative processed count.
func (p *Reporter) BatchDone(batchSize int, elapsed time.Duration, totalProcessed int64) {
	speed := rate(int64(batchSize), elapsed)
	if p.inline {
		fmt.Fprintf(p.out, "\r>> speed: %.2f it/s, %d files processed", speed, totalProcessed)
		return
	}
	p.log.LogInfo(fmt.Sprintf("speed: %.2f it/s, %d files processed", speed, totalProcessed))
}

// Summary reports the whole-run totals and average throughput.
func (p *Reporter) Summary(stats *Stats) {
	elapsed := time.Since(p.start)
	if p.inline {
		// Terminate the inline progress line
		fmt.Fprintln(p.out)
	}
	p.log.LogInfo(fmt.Sprintf(
		"processed: %d (extracted: %d, skipped: %d, failed: %d) | elapsed: %s | avg speed: %.2f it/s",
		stats.Processed(), stats.Extracted(), stats.Skipped(), stats.Failed(),
		elapsed.Round(time.Millisecond), rate(stats.Processed(), elapsed)))
}

// rate guards against a zero or negative elapsed duration.
func rate(items int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(items) / elapsed.Seconds()
}
