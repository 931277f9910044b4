package assets

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"anypose/internal/scenegraph"

	"github.com/rs/zerolog"
)

// eventBuffer is the number of load events that can wait for the main goroutine.
const eventBuffer = 64

// Progress is the number of bytes read so far out of Total. Total is 0 when unknown.
type Progress struct {
	Loaded int64
	Total  int64
}

// Percent returns progress as 0-100, or 0 when the total is unknown.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	pct := int(p.Loaded * 100 / p.Total)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Event reports progress or completion of one load. Done events carry either Model or Err.
type Event struct {
	Generation uint64
	Path       string
	Progress   Progress
	Done       bool
	Model      *scenegraph.Node
	Err        error
}

// Loader parses model files in background goroutines and reports back through Events.
// Every Load gets a new generation number so the receiver can tell superseded loads apart.
type Loader struct {
	log    zerolog.Logger
	gen    atomic.Uint64
	events chan Event
	open   func(path string) (io.ReadCloser, int64, error)
}

// NewLoader returns a loader reading from the local filesystem.
func NewLoader(log zerolog.Logger) *Loader {
	return &Loader{
		log:    log.With().Str("component", "assets").Logger(),
		events: make(chan Event, eventBuffer),
		open:   openFile,
	}
}

func openFile(path string) (io.ReadCloser, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	var size int64
	if st, err := f.Stat(); err == nil {
		size = st.Size()
	}
	return f, size, nil
}

// Events delivers progress and completion events. Drain it from the main goroutine.
func (l *Loader) Events() <-chan Event {
	return l.events
}

// Latest returns the generation of the most recent Load call.
func (l *Loader) Latest() uint64 {
	return l.gen.Load()
}

// Load starts parsing path in a new goroutine and returns its generation. Cancelling ctx
// stops the load; a cancelled load still reports a Done event with the context error.
func (l *Loader) Load(ctx context.Context, path string) uint64 {
	gen := l.gen.Add(1)
	go l.run(ctx, gen, path)
	return gen
}

func (l *Loader) run(ctx context.Context, gen uint64, path string) {
	model, err := l.decode(ctx, gen, path)
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = fmt.Errorf("assets: load %s: %w", path, ctxErr)
	}
	if err != nil {
		model = nil
	}
	ev := Event{Generation: gen, Path: path, Done: true, Model: model, Err: err}
	if err != nil {
		l.log.Debug().Err(err).Str("path", path).Uint64("generation", gen).Msg("load failed")
	}
	// Done events are never dropped; the receiver drains every frame.
	l.events <- ev
}

func (l *Loader) decode(ctx context.Context, gen uint64, path string) (*scenegraph.Node, error) {
	rc, size, err := l.open(path)
	if err != nil {
		return nil, fmt.Errorf("assets: %w", err)
	}
	defer rc.Close()
	pr := &progressReader{
		ctx:   ctx,
		r:     rc,
		total: size,
		report: func(p Progress) {
			select {
			case l.events <- Event{Generation: gen, Path: path, Progress: p}:
			default:
			}
		},
	}
	return Decode(pr, filepath.Dir(path), filepath.Base(path))
}

// progressReader reports every whole percent step and stops reading once ctx is done.
type progressReader struct {
	ctx     context.Context
	r       io.Reader
	loaded  int64
	total   int64
	lastPct int
	report  func(Progress)
}

func (p *progressReader) Read(b []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.r.Read(b)
	p.loaded += int64(n)
	prog := Progress{Loaded: p.loaded, Total: p.total}
	if pct := prog.Percent(); n > 0 && pct > p.lastPct {
		p.lastPct = pct
		p.report(prog)
	}
	return n, err
}
