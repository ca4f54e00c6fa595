package reader

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// TapFunc handles one raw card read. Errors are logged, never fatal:
// a rejected tap must not stop the loop.
type TapFunc func(ctx context.Context, rawUID, site string) error

// Loop polls one reader and feeds every read into the handler under
// the reader's site name.
type Loop struct {
	reader   Reader
	site     string
	handle   TapFunc
	errDelay time.Duration

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewLoop(r Reader, site string, handle TapFunc) *Loop {
	return &Loop{reader: r, site: site, handle: handle, errDelay: time.Second}
}

// Start launches the polling goroutine.
func (l *Loop) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)
	l.wg.Add(1)
	go l.run(ctx)
	slog.Info("Reader loop started", "reader", l.reader.Name(), "site", l.site)
}

// Stop cancels the loop and waits for the in-flight read to return.
func (l *Loop) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	l.wg.Wait()
}

func (l *Loop) run(ctx context.Context) {
	defer l.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		uid, err := l.reader.ReadOne(ctx)
		switch {
		case err == nil:
		case errors.Is(err, ErrNoCard):
			continue
		case errors.Is(err, ErrClosed), errors.Is(err, context.Canceled):
			return
		default:
			slog.Error("Reader error", "reader", l.reader.Name(), "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(l.errDelay):
			}
			continue
		}

		if err := l.handle(ctx, uid, l.site); err != nil {
			slog.Warn("Tap rejected", "site", l.site, "error", err)
		}
	}
}
