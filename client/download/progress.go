package download

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progressWriter is an io.Writer, logging download progress at
// most once per second.
type progressWriter struct {
	logger      *slog.Logger
	name        string
	transferred int64
	total       int64
	startTime   time.Time
	lastLog     time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	pw.transferred += int64(len(p))

	if time.Since(pw.lastLog) >= time.Second {
		pw.lastLog = time.Now()
		pw.log("downloading")
	}

	return len(p), nil
}

// done logs the final record once the body has been fully copied.
func (pw *progressWriter) done() {
	pw.log("download complete")
}

func (pw *progressWriter) log(msg string) {
	elapsed := time.Since(pw.startTime)
	attrs := []any{
		"file", pw.name,
		"elapsed", elapsed.Round(time.Millisecond),
		"transferred", pw.transferred,
		"total", pw.total,
	}
	if pw.total > 0 {
		attrs = append(attrs, "progress", fmt.Sprintf("%.1f%%", float64(pw.transferred)/float64(pw.total)*100))
	}
	if secs := elapsed.Seconds(); secs > 0 {
		attrs = append(attrs, "mbps", fmt.Sprintf("%.2f", float64(pw.transferred)/secs/(1024*1024)))
	}
	pw.logger.Info(msg, attrs...)
}

// newBar builds the terminal progress line. An unknown total renders
// as a spinner with a running byte count.
func newBar(cfg *barConfig, total int64) *progressbar.ProgressBar {
	if total <= 0 {
		total = -1
	}

	return progressbar.NewOptions64(
		total,
		progressbar.OptionSetWriter(cfg.w),
		progressbar.OptionSetDescription(cfg.description),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(80*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(cfg.w)
		}),
	)
}

// sinks returns the writers progress reporting needs, plus a func to
// call once the copy succeeded.
func (o *options) sinks(logger *slog.Logger, name string, total int64) ([]io.Writer, func()) {
	var (
		ws    []io.Writer
		final []func()
	)

	if o.bar != nil {
		bar := newBar(o.bar, total)
		ws = append(ws, bar)
		final = append(final, func() { _ = bar.Finish() })
	}

	if o.progressLog {
		pw := &progressWriter{logger: logger, name: name, total: total, startTime: time.Now()}
		ws = append(ws, pw)
		final = append(final, pw.done)
	}

	return ws, func() {
		for _, fn := range final {
			fn()
		}
	}
}
