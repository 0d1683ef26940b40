package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// TourInstance is an immutable, dated duty occurrence inside a weekly
// forecast. Start and End are absolute timestamps; End may fall on the next
// calendar day for tours crossing midnight.
type TourInstance struct {
	ID    string    `json:"id"`
	Day   int       `json:"day"` // 1..7 within the forecast week
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Depot string    `json:"depot,omitempty"`
	Skill string    `json:"skill,omitempty"`

	// Fingerprint is the content-derived identity used to detect changes
	// across forecast versions. Computed on import when empty.
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Validate checks that the tour describes a positive time range on a valid day.
func (t TourInstance) Validate() error {
	if t.Day < 1 || t.Day > 7 {
		return fmt.Errorf("tour %s: day %d out of range 1..7", t.ID, t.Day)
	}
	if !t.End.After(t.Start) {
		return fmt.Errorf("tour %s: end must be after start", t.ID)
	}
	return nil
}

// Duration returns the working time of the tour.
func (t TourInstance) Duration() time.Duration { return t.End.Sub(t.Start) }

// Overlaps reports whether the two tours intersect in time.
func (t TourInstance) Overlaps(o TourInstance) bool {
	return t.Start.Before(o.End) && o.Start.Before(t.End)
}

// ComputeFingerprint derives the stable content hash of the tour over
// day|start|end|depot|skill.
func (t TourInstance) ComputeFingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|%d|%s|%s", t.Day, t.Start.Unix(), t.End.Unix(), t.Depot, t.Skill)
	return hex.EncodeToString(h.Sum(nil))
}

// WithFingerprint returns a copy with Fingerprint populated. The ID falls back
// to the fingerprint when the import did not provide one.
func (t TourInstance) WithFingerprint() TourInstance {
	t.Fingerprint = t.ComputeFingerprint()
	if t.ID == "" {
		t.ID = t.Fingerprint[:16]
	}
	return t
}

// Forecast is a week of tour instances under a stable reference.
type Forecast struct {
	Ref   string         `json:"ref"`
	Tours []TourInstance `json:"tours"`
}

// Normalize fingerprints every tour and validates the forecast content.
func (f Forecast) Normalize() (Forecast, error) {
	if f.Ref == "" {
		return f, fmt.Errorf("forecast ref is required")
	}
	out := Forecast{Ref: f.Ref, Tours: make([]TourInstance, len(f.Tours))}
	seen := make(map[string]struct{}, len(f.Tours))
	for i, t := range f.Tours {
		if err := t.Validate(); err != nil {
			return f, err
		}
		t = t.WithFingerprint()
		if _, dup := seen[t.ID]; dup {
			return f, fmt.Errorf("duplicate tour id %s", t.ID)
		}
		seen[t.ID] = struct{}{}
		out.Tours[i] = t
	}
	return out, nil
}
