package attendance

import (
	"strings"
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/chekinout/core/geoloc"
)

var testFence = Geofence{
	Latitude:            -6.2,
	Longitude:           106.816666,
	RadiusM:             200,
	AcceptableAccuracyM: 500,
}

func TestGeofence_Classify(t *testing.T) {
	// ~0.0018 deg latitude ≈ 200m
	tests := []struct {
		name       string
		sample     geoloc.Sample
		wantStatus Status
		wantInMsg  string
	}{
		{
			name:       "inside fence, very good accuracy",
			sample:     geoloc.Sample{Latitude: testFence.Latitude, Longitude: testFence.Longitude, Accuracy: 20},
			wantStatus: StatusHadirPenuh,
			wantInMsg:  "Akurasi sangat baik",
		},
		{
			name:       "inside fence, good accuracy",
			sample:     geoloc.Sample{Latitude: testFence.Latitude, Longitude: testFence.Longitude, Accuracy: 80},
			wantStatus: StatusHadirPenuh,
			wantInMsg:  "Akurasi baik",
		},
		{
			name:       "inside fence, fair accuracy still acceptable",
			sample:     geoloc.Sample{Latitude: testFence.Latitude, Longitude: testFence.Longitude, Accuracy: 300},
			wantStatus: StatusHadirPenuh,
			wantInMsg:  "Akurasi cukup",
		},
		{
			name:       "accuracy beyond acceptable threshold flags verification",
			sample:     geoloc.Sample{Latitude: testFence.Latitude, Longitude: testFence.Longitude, Accuracy: 800},
			wantStatus: StatusPerluVerifikasi,
			wantInMsg:  "Akurasi rendah",
		},
		{
			name:       "outside fence flags verification, not rejection",
			sample:     geoloc.Sample{Latitude: testFence.Latitude + 0.05, Longitude: testFence.Longitude, Accuracy: 30},
			wantStatus: StatusPerluVerifikasi,
			wantInMsg:  "dari area sekolah",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := testFence.Classify(tt.sample)
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v", got.Status, tt.wantStatus)
			}
			if !strings.Contains(got.Message, tt.wantInMsg) {
				t.Errorf("Message = %q, want it to contain %q", got.Message, tt.wantInMsg)
			}
		})
	}
}

func TestCombineStatus(t *testing.T) {
	penuh := null.StringFrom(string(StatusHadirPenuh))
	verif := null.StringFrom(string(StatusPerluVerifikasi))
	absent := null.String{}

	tests := []struct {
		name             string
		checkIn, checkOut null.String
		want             null.String
	}{
		{name: "both absent", checkIn: absent, checkOut: absent, want: absent},
		{name: "both acceptable", checkIn: penuh, checkOut: penuh, want: penuh},
		{name: "only check-in acceptable", checkIn: penuh, checkOut: absent, want: null.StringFrom(string(StatusHadirParsial))},
		{name: "only check-out acceptable", checkIn: absent, checkOut: penuh, want: null.StringFrom(string(StatusHadirParsial))},
		{name: "low-confidence check-in", checkIn: verif, checkOut: absent, want: verif},
		{name: "low-confidence check-out", checkIn: penuh, checkOut: verif, want: verif},
		{name: "both low-confidence", checkIn: verif, checkOut: verif, want: verif},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CombineStatus(tt.checkIn, tt.checkOut); got != tt.want {
				t.Errorf("CombineStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDistance(t *testing.T) {
	// Monas to Istiqlal Mosque, Jakarta: ~700m
	d := Distance(-6.1754, 106.8272, -6.1702, 106.8316)
	if d < 600 || d > 900 {
		t.Errorf("Distance() = %.0fm, want ~700m", d)
	}

	if d := Distance(-6.2, 106.8, -6.2, 106.8); d != 0 {
		t.Errorf("Distance() same point = %v, want 0", d)
	}
}
