// pkg/progress/progress.go - progress reporting for long downloads.

package progress

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/windowsadmins/setup-sqlserver/pkg/logging"
)

// DefaultInterval throttles how often a Reader reports.
const DefaultInterval = 5 * time.Second

// Reader wraps an io.Reader and periodically reports how much has been read.
type Reader struct {
	reader     io.Reader
	total      int64
	read       int64
	name       string
	interval   time.Duration
	lastUpdate time.Time
	now        func() time.Time
	report     func(msg string)
}

// NewReader tracks reads of name. total may be unknown (<= 0).
func NewReader(reader io.Reader, total int64, name string) *Reader {
	return &Reader{
		reader:     reader,
		total:      total,
		name:       name,
		interval:   DefaultInterval,
		lastUpdate: time.Now(),
		now:        time.Now,
		report:     func(msg string) { logging.Debug(msg) },
	}
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		atomic.AddInt64(&r.read, int64(n))
		r.update(err == io.EOF)
	}
	return n, err
}

// BytesRead returns the number of bytes read so far.
func (r *Reader) BytesRead() int64 {
	return atomic.LoadInt64(&r.read)
}

func (r *Reader) update(final bool) {
	now := r.now()
	done := r.total > 0 && r.BytesRead() >= r.total
	if !final && !done && now.Sub(r.lastUpdate) < r.interval {
		return
	}
	r.lastUpdate = now
	r.report(r.Message())
}

// Message describes the current progress.
func (r *Reader) Message() string {
	read := r.BytesRead()
	if r.total <= 0 {
		return fmt.Sprintf("Downloading %s: %s", r.name, FormatBytes(read))
	}
	return fmt.Sprintf("Downloading %s: %s / %s (%d%%)",
		r.name, FormatBytes(read), FormatBytes(r.total), read*100/r.total)
}

// FormatBytes formats byte counts in human readable format
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
