package audio

import (
	"context"
	"fmt"

	"github.com/desertthunder/kiyi/internal/shared"
)

// Loader produces a media handle for a reference. Load blocks until the media is usable.
type Loader interface {
	Load(ctx context.Context, ref string) (Media, error)
}

// LoaderFunc adapts a function to [Loader].
type LoaderFunc func(ctx context.Context, ref string) (Media, error)

func (f LoaderFunc) Load(ctx context.Context, ref string) (Media, error) {
	return f(ctx, ref)
}

// Fetcher resolves a reference to raw bytes.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Decoder turns raw bytes into a media handle. ref is only used to pick the format.
type Decoder interface {
	Decode(ref string, data []byte) (Media, error)
}

// FetchLoader downloads a recording into memory and decodes it.
type FetchLoader struct {
	fetcher Fetcher
	decoder Decoder
}

// NewFetchLoader combines a fetcher and a decoder into a [Loader].
func NewFetchLoader(f Fetcher, d Decoder) *FetchLoader {
	return &FetchLoader{fetcher: f, decoder: d}
}

func (l *FetchLoader) Load(ctx context.Context, ref string) (Media, error) {
	data, err := l.fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrMediaLoad, ref, err)
	}

	m, err := l.decoder.Decode(ref, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrMediaLoad, ref, err)
	}
	return m, nil
}

// Loading is an in-flight load started by [Begin].
type Loading struct {
	ref    string
	done   chan struct{}
	media  Media
	err    error
	handle *pendingMedia
}

// Begin starts loading ref in a new goroutine.
func Begin(ctx context.Context, l Loader, ref string) *Loading {
	ld := &Loading{ref: ref, done: make(chan struct{}), handle: newPending()}

	go func() {
		m, err := l.Load(ctx, ref)
		if err == nil && m == nil {
			err = fmt.Errorf("%w: %s: loader returned no media", shared.ErrMediaLoad, ref)
		}
		ld.media, ld.err = m, err
		ld.handle.resolve(m, err)
		close(ld.done)
	}()

	return ld
}

// Ref returns the reference being loaded.
func (l *Loading) Ref() string {
	return l.ref
}

// Done is closed when the load finishes, successfully or not.
func (l *Loading) Done() <-chan struct{} {
	return l.done
}

// Result returns the loaded media or the load error. It must only be called after Done is closed.
func (l *Loading) Result() (Media, error) {
	return l.media, l.err
}

// Handle returns a media that forwards to the loaded one once it is available.
// Play on the handle fails with [shared.ErrMediaNotReady] until then.
func (l *Loading) Handle() Media {
	return l.handle
}
