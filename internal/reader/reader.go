// Package reader abstracts the card readers attached to the terminal
// and runs the polling loop that feeds taps into the attendance engine.
package reader

import (
	"context"
	"errors"
)

// Reader is one physical (or simulated) card reader. ReadOne blocks
// until a card is presented, the poll interval elapses or ctx is
// cancelled, and returns the raw uid as reported by the device.
type Reader interface {
	Name() string
	ReadOne(ctx context.Context) (string, error)
	Close() error
}

// ErrNoCard is returned by ReadOne when the poll window elapsed with
// no card presented. The loop treats it as silence, not a failure.
var ErrNoCard = errors.New("no card presented")

// ErrClosed is returned by ReadOne after Close.
var ErrClosed = errors.New("reader closed")
