package geoloc

import (
	"context"
	"errors"
	"testing"
	"time"
)

// scriptedWatcher replays a fixed sequence of readings.
type scriptedWatcher struct {
	readings []Reading
	interval time.Duration // delay between emissions
	hang     bool          // emit nothing until cancelled
}

func (w *scriptedWatcher) Watch(ctx context.Context) (<-chan Reading, error) {
	out := make(chan Reading)
	go func() {
		defer close(out)
		if w.hang {
			<-ctx.Done()
			return
		}
		for _, r := range w.readings {
			if w.interval > 0 {
				select {
				case <-time.After(w.interval):
				case <-ctx.Done():
					return
				}
			}
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return out, nil
}

type noCapabilityWatcher struct{}

func (noCapabilityWatcher) Watch(ctx context.Context) (<-chan Reading, error) {
	return nil, ErrNoCapability
}

func sampleWithAccuracy(acc float64) Sample {
	return Sample{Latitude: -6.2, Longitude: 106.816666, Accuracy: acc}
}

func readingsFromAccuracies(accs ...float64) []Reading {
	readings := make([]Reading, 0, len(accs))
	for _, acc := range accs {
		readings = append(readings, Reading{Sample: sampleWithAccuracy(acc)})
	}
	return readings
}

func TestAcquireBestPosition_stopsAtGoal(t *testing.T) {
	// readings [500, 220, 80] with goal 100 -> stops at the third, returns 80m
	w := &scriptedWatcher{readings: readingsFromAccuracies(500, 220, 80)}

	got, err := AcquireBestPosition(context.Background(), w, Options{AccuracyGoal: 100})
	if err != nil {
		t.Fatalf("AcquireBestPosition() error = %v", err)
	}
	if got.Accuracy != 80 {
		t.Errorf("Accuracy = %v, want 80", got.Accuracy)
	}
}

func TestAcquireBestPosition_returnsMinimumSeen(t *testing.T) {
	// best sample wins even when a later reading triggers the stop
	w := &scriptedWatcher{readings: readingsFromAccuracies(300, 90, 95)}

	got, err := AcquireBestPosition(context.Background(), w, Options{AccuracyGoal: 100})
	if err != nil {
		t.Fatalf("AcquireBestPosition() error = %v", err)
	}
	if got.Accuracy != 90 {
		t.Errorf("Accuracy = %v, want 90", got.Accuracy)
	}
}

func TestAcquireBestPosition_exhaustsAttempts(t *testing.T) {
	w := &scriptedWatcher{readings: readingsFromAccuracies(500, 300, 400, 250, 320)}

	got, err := AcquireBestPosition(context.Background(), w, Options{AccuracyGoal: 100, MaxAttempts: 4})
	if err != nil {
		t.Fatalf("AcquireBestPosition() error = %v", err)
	}
	if got.Accuracy != 250 {
		t.Errorf("Accuracy = %v, want 250 (best of the first 4 readings)", got.Accuracy)
	}
}

func TestAcquireBestPosition_timeoutWithBestEffortSample(t *testing.T) {
	// readings [500, 300] then silence -> timeout resolves with the 300m sample
	w := &scriptedWatcher{readings: readingsFromAccuracies(500, 300)}

	got, err := AcquireBestPosition(context.Background(), w, Options{
		AccuracyGoal: 100,
		MaxAttempts:  10,
		Timeout:      50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("AcquireBestPosition() error = %v", err)
	}
	if got.Accuracy != 300 {
		t.Errorf("Accuracy = %v, want 300", got.Accuracy)
	}
}

func TestAcquireBestPosition_timeoutWithNoSample(t *testing.T) {
	w := &scriptedWatcher{hang: true}

	_, err := AcquireBestPosition(context.Background(), w, Options{Timeout: 50 * time.Millisecond})
	if err != ErrAcquisitionTimedOut {
		t.Errorf("error = %v, want ErrAcquisitionTimedOut", err)
	}
}

func TestAcquireBestPosition_noCapability(t *testing.T) {
	_, err := AcquireBestPosition(context.Background(), noCapabilityWatcher{}, Options{})
	if err != ErrNoCapability {
		t.Errorf("error = %v, want ErrNoCapability", err)
	}
}

func TestAcquireBestPosition_categorizedWatchErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind ErrorKind
	}{
		{name: "permission denied", err: &WatchError{Kind: KindPermissionDenied}, wantKind: KindPermissionDenied},
		{name: "position unavailable", err: &WatchError{Kind: KindPositionUnavailable}, wantKind: KindPositionUnavailable},
		{name: "read timeout", err: &WatchError{Kind: KindReadTimeout}, wantKind: KindReadTimeout},
		{name: "raw platform error is wrapped", err: errors.New("EGPS boom"), wantKind: KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &scriptedWatcher{readings: []Reading{{Err: tt.err}}}
			_, err := AcquireBestPosition(context.Background(), w, Options{})

			var werr *WatchError
			if !errors.As(err, &werr) {
				t.Fatalf("error = %v, want *WatchError", err)
			}
			if werr.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", werr.Kind, tt.wantKind)
			}
		})
	}
}

func TestAcquireBestPosition_errorAfterSampleResolvesBestEffort(t *testing.T) {
	readings := readingsFromAccuracies(400)
	readings = append(readings, Reading{Err: &WatchError{Kind: KindReadTimeout}})
	w := &scriptedWatcher{readings: readings}

	got, err := AcquireBestPosition(context.Background(), w, Options{})
	if err != nil {
		t.Fatalf("AcquireBestPosition() error = %v", err)
	}
	if got.Accuracy != 400 {
		t.Errorf("Accuracy = %v, want 400", got.Accuracy)
	}
}

func TestAcquireBestPosition_skipsInvalidAccuracy(t *testing.T) {
	w := &scriptedWatcher{readings: []Reading{
		{Sample: sampleWithAccuracy(-1)},
		{Sample: sampleWithAccuracy(90)},
	}}

	got, err := AcquireBestPosition(context.Background(), w, Options{AccuracyGoal: 100})
	if err != nil {
		t.Fatalf("AcquireBestPosition() error = %v", err)
	}
	if got.Accuracy != 90 {
		t.Errorf("Accuracy = %v, want 90", got.Accuracy)
	}
}

func TestAcquireBestPosition_cancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := &scriptedWatcher{hang: true}
	_, err := AcquireBestPosition(ctx, w, Options{})
	if err != context.Canceled {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
