package fetcher

import (
	"context"
	"io"
	"os"
	"path"

	"github.com/hedzr/progressbar"
	"github.com/mattn/go-isatty"

	"github.com/oshokin/kde-manifest-updater/internal/logger"
)

// progressLogStep is how many bytes pass between debug records when no
// progress bar is drawn.
const progressLogStep = 1 << 20

// progress tracks received bytes for one download. It is an io.Writer so
// it can sit next to the buffer and the hasher. On a terminal it feeds a
// progress bar, otherwise it logs at debug level.
type progress struct {
	ctx      context.Context //nolint:containedctx // Used for logging from Write only.
	name     string
	total    int64
	received int64
	logged   int64

	bars progressbar.MultiPB
	bar  progressbar.PB
}

// newProgress draws a bar only when interactive and the size is known.
func newProgress(ctx context.Context, interactive bool, rawURL string, total int64) *progress {
	p := &progress{
		ctx:   ctx,
		name:  path.Base(rawURL),
		total: total,
	}

	if interactive && total > 0 {
		p.bars = progressbar.New()
		p.bar = p.bars.Bar(p.bars.Add(total, p.name))
		p.bar.UpdateRange(0, total)
	}

	return p
}

func (p *progress) Write(chunk []byte) (int, error) {
	p.received += int64(len(chunk))

	if p.bar != nil {
		return p.bar.Write(chunk)
	}

	if p.received-p.logged >= progressLogStep {
		p.logged = p.received
		logger.DebugKV(p.ctx, "Download progress", "file", p.name, "received", p.received, "total", p.total)
	}

	return len(chunk), nil
}

// finish stops the bar, if any.
func (p *progress) finish() {
	if p.bars != nil {
		p.bars.Close()
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
