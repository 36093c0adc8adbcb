// Package progress renders reindex progress on a terminal.
package progress

import (
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/custodia-labs/kbquery/internal/core/ports/driven"
)

var (
	_ driven.ProgressReporter = (*Bar)(nil)
	_ driven.ProgressReporter = Nop{}
)

// Bar draws an embedding progress bar.
type Bar struct {
	w    io.Writer
	desc string

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

// NewBar creates a bar writing to w.
func NewBar(w io.Writer, desc string) *Bar {
	if desc == "" {
		desc = "embedding"
	}
	return &Bar{w: w, desc: desc}
}

// ForTerminal returns a bar on stderr when it is a terminal, otherwise Nop.
func ForTerminal() driven.ProgressReporter {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return Nop{}
	}
	return NewBar(os.Stderr, "")
}

// Start sizes the bar. A non-positive total draws nothing.
func (b *Bar) Start(total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if total <= 0 {
		b.bar = nil
		return
	}
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetDescription(b.desc),
		progressbar.OptionSetWidth(32),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// Add advances the bar.
func (b *Bar) Add(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar == nil {
		return
	}
	_ = b.bar.Add(n)
}

// Finish clears the bar.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar == nil {
		return
	}
	_ = b.bar.Finish()
	b.bar = nil
}

// Nop discards progress.
type Nop struct{}

func (Nop) Start(int) {}
func (Nop) Add(int)   {}
func (Nop) Finish()   {}
