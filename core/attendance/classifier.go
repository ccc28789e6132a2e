package attendance

import (
	"fmt"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/chekinout/core/geoloc"
)

// Verdict is the classifier's outcome for a single check-in/check-out leg.
type Verdict struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// Geofence is the school area plus the accuracy bar a sample must clear to
// count as trustworthy evidence of presence.
type Geofence struct {
	Latitude            float64
	Longitude           float64
	RadiusM             float64
	AcceptableAccuracyM float64
}

// accuracy tiers, mirrored in the client (meters)
const (
	accuracyVeryGoodM = 50
	accuracyGoodM     = 100
	accuracyFairM     = 500
)

func accuracyTier(accuracyM float64) string {
	switch {
	case accuracyM < accuracyVeryGoodM:
		return "Akurasi sangat baik"
	case accuracyM < accuracyGoodM:
		return "Akurasi baik"
	case accuracyM < accuracyFairM:
		return "Akurasi cukup"
	}
	return "Akurasi rendah"
}

// Classify turns one position sample into a per-leg verdict. A sample inside
// the geofence with acceptable accuracy counts as present; anything ambiguous
// (outside the fence, or too noisy to trust) is flagged for teacher
// verification rather than rejected — GPS noise is expected and a human is
// the fallback arbiter.
func (g Geofence) Classify(sample geoloc.Sample) Verdict {
	distM := Distance(sample.Latitude, sample.Longitude, g.Latitude, g.Longitude)
	tier := accuracyTier(sample.Accuracy)

	if sample.Accuracy > g.AcceptableAccuracyM {
		return Verdict{
			Status: StatusPerluVerifikasi,
			Message: fmt.Sprintf(
				"%s (%.0fm). Sinyal GPS terlalu lemah untuk verifikasi otomatis, menunggu validasi guru.",
				tier, sample.Accuracy),
		}
	}
	if distM > g.RadiusM {
		return Verdict{
			Status: StatusPerluVerifikasi,
			Message: fmt.Sprintf(
				"%s (%.0fm). Lokasi terdeteksi %.0fm dari area sekolah, menunggu validasi guru.",
				tier, sample.Accuracy, distM),
		}
	}
	return Verdict{
		Status: StatusHadirPenuh,
		Message: fmt.Sprintf(
			"%s (%.0fm). Lokasi terverifikasi di area sekolah.",
			tier, sample.Accuracy),
	}
}

// CombineStatus derives the day's final status from the two legs. It is pure:
// both legs acceptable => HADIR_PENUH; exactly one acceptable leg =>
// HADIR_PARSIAL; any low-confidence leg => PERLU_VERIFIKASI. Re-run on every
// state change until a teacher overrides.
func CombineStatus(checkIn, checkOut null.String) null.String {
	if !checkIn.Valid && !checkOut.Valid {
		return null.String{}
	}
	if checkIn.String == string(StatusPerluVerifikasi) || checkOut.String == string(StatusPerluVerifikasi) {
		return null.StringFrom(string(StatusPerluVerifikasi))
	}
	if checkIn.String == string(StatusHadirPenuh) && checkOut.String == string(StatusHadirPenuh) {
		return null.StringFrom(string(StatusHadirPenuh))
	}
	return null.StringFrom(string(StatusHadirParsial))
}
