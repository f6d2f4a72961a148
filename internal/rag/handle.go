package rag

import (
	"context"
	"errors"
	"sync"

	"github.com/mwiater/nabin/internal/appconfig"
)

// ErrIndexClosed is returned by Handle.Index after Close.
var ErrIndexClosed = errors.New("index handle closed")

// Handle opens the index on first use and hands the same *Index to every
// caller for the rest of the process. Concurrent access is left to the store.
type Handle struct {
	open      func(context.Context) (*Index, error)
	once      sync.Once
	closeOnce sync.Once
	ix        *Index
	err       error
}

// NewHandle returns a Handle that opens the index described by cfg.
func NewHandle(cfg *appconfig.Config) *Handle {
	return NewHandleFunc(func(ctx context.Context) (*Index, error) {
		return OpenIndex(ctx, cfg)
	})
}

// NewHandleFunc returns a Handle around a custom opener.
func NewHandleFunc(open func(context.Context) (*Index, error)) *Handle {
	return &Handle{open: open}
}

// Index opens the index on the first call and returns the same result on every later call.
func (h *Handle) Index(ctx context.Context) (*Index, error) {
	h.once.Do(func() {
		h.ix, h.err = h.open(ctx)
	})
	return h.ix, h.err
}

// Close releases the index if it was opened. Later Index calls return ErrIndexClosed.
func (h *Handle) Close() error {
	var err error
	h.closeOnce.Do(func() {
		h.once.Do(func() {})
		if h.ix != nil {
			err = h.ix.Close()
		}
		h.ix, h.err = nil, ErrIndexClosed
	})
	return err
}
