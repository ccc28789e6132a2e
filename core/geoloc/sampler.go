package geoloc

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoCapability is returned when the device exposes no positioning capability.
	ErrNoCapability = errors.New("positioning is not supported on this device")

	// ErrAcquisitionTimedOut is returned when the overall budget elapses
	// before a single reading was obtained. If at least one reading arrived,
	// the acquisition resolves with the best sample instead.
	ErrAcquisitionTimedOut = errors.New("no position fix within the time budget")
)

// Sample is a single device position reading. It is ephemeral: samples are
// classified and discarded, never persisted.
type Sample struct {
	// no "required": 0 is a valid latitude and longitude (the equator crosses Indonesia)
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
	Accuracy  float64 `json:"accuracy" validate:"min=0"` // radius in meters; lower is better
}

// ErrorKind categorizes watch failures so callers never deal with raw platform errors.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindPermissionDenied
	KindPositionUnavailable
	KindReadTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindPermissionDenied:
		return "permission denied"
	case KindPositionUnavailable:
		return "position unavailable"
	case KindReadTimeout:
		return "read timed out"
	}
	return "unknown"
}

// WatchError is a categorized position stream failure.
type WatchError struct {
	Kind ErrorKind
	Err  error
}

func (e *WatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("position watch failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("position watch failed (%s)", e.Kind)
}

func (e *WatchError) Unwrap() error { return e.Err }

// Reading is one emission of a position stream. A non-nil Err terminates the stream.
type Reading struct {
	Sample Sample
	Err    error
}

// Watcher opens a continuous position stream, the platform equivalent of a
// geolocation watch. Implementations must close the returned channel when ctx
// is cancelled and should emit *WatchError for failures; anything else gets
// categorized as KindUnknown. Watch returns ErrNoCapability when the platform
// has no positioning support at all.
type Watcher interface {
	Watch(ctx context.Context) (<-chan Reading, error)
}

// Options bounds a position acquisition.
type Options struct {
	AccuracyGoal float64       // stop early once a reading is at least this accurate (meters)
	MaxAttempts  int           // stop after this many readings
	Timeout      time.Duration // overall budget; resolves with the best sample seen so far
}

const (
	DefaultAccuracyGoal = 100.0
	DefaultMaxAttempts  = 10
	DefaultTimeout      = 45 * time.Second
)

func (o Options) withDefaults() Options {
	if o.AccuracyGoal <= 0 {
		o.AccuracyGoal = DefaultAccuracyGoal
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// AcquireBestPosition races a position stream against a timer and resolves
// with the most accurate sample seen. Exactly one resolution path wins:
// a reading meets the accuracy goal, MaxAttempts readings were consumed, or
// the overall timeout fires. The watch is cancelled on every exit path.
//
// The first fix is frequently inaccurate and accuracy typically improves over
// consecutive readings, hence a stream rather than a single read.
func AcquireBestPosition(ctx context.Context, w Watcher, opts Options) (Sample, error) {
	opts = opts.withDefaults()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel() // always release the sensor subscription

	readings, err := w.Watch(ctx)
	if err != nil {
		return Sample{}, err
	}

	timer := time.NewTimer(opts.Timeout)
	defer timer.Stop()

	var (
		best     Sample
		seen     bool
		attempts int
	)
	for {
		select {
		case r, ok := <-readings:
			if !ok {
				// stream ended on its own; best effort
				if seen {
					return best, nil
				}
				return Sample{}, &WatchError{Kind: KindPositionUnavailable, Err: errors.New("stream closed without a fix")}
			}
			if r.Err != nil {
				if seen {
					return best, nil
				}
				return Sample{}, categorize(r.Err)
			}
			if r.Sample.Accuracy < 0 {
				continue // invalid reading
			}
			attempts++
			if !seen || r.Sample.Accuracy < best.Accuracy {
				best = r.Sample
				seen = true
			}
			if r.Sample.Accuracy <= opts.AccuracyGoal || attempts >= opts.MaxAttempts {
				return best, nil
			}

		case <-timer.C:
			if seen {
				return best, nil
			}
			return Sample{}, ErrAcquisitionTimedOut

		case <-ctx.Done():
			return Sample{}, ctx.Err()
		}
	}
}

// categorize guarantees callers only ever see *WatchError failures.
func categorize(err error) error {
	var werr *WatchError
	if errors.As(err, &werr) {
		return werr
	}
	return &WatchError{Kind: KindUnknown, Err: err}
}
