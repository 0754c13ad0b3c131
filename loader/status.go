package loader

import (
	"fmt"
	"io"
)

// Status messages passed to Options.OnStatus. An empty status means loading
// has finished.
const (
	StatusFetching     = "Downloading engine..."
	StatusInitializing = "Model downloaded. Initializing recognizer..."
	StatusDone         = ""
)

// FormatProgress renders download progress with two decimals, for example
// "Downloading data... 45.00% (450/1000)". A zero total reports 0%.
func FormatProgress(done, total int64) string {
	pct := 0.0
	if total > 0 {
		// truncated to basis points
		pct = float64(done*10000/total) / 100
	}
	return fmt.Sprintf("Downloading data... %.2f%% (%d/%d)", pct, done, total)
}

// progressReader reports through fn after every read.
type progressReader struct {
	r     io.Reader
	fn    func(string)
	done  int64
	total int64
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.done += int64(n)
		p.fn(FormatProgress(p.done, p.total))
	}
	return n, err
}
