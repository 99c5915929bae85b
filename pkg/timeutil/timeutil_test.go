package timeutil

import (
	"testing"
	"time"
)

func TestCombine(t *testing.T) {
	got, ok := Combine("2025-03-10", "7:30")
	if !ok {
		t.Fatal("expected date + clock to combine")
	}
	want := time.Date(2025, 3, 10, 7, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestCombine_MinutesDefaultToZero(t *testing.T) {
	got, ok := Combine("2025-03-10", "9")
	if !ok {
		t.Fatal("expected hour-only clock to combine")
	}
	if got.Hour() != 9 || got.Minute() != 0 {
		t.Errorf("expected 09:00, got %02d:%02d", got.Hour(), got.Minute())
	}
}

func TestCombine_FullTimestampWins(t *testing.T) {
	got, ok := Combine("1999-01-01", "2025-03-10T22:00:00Z")
	if !ok {
		t.Fatal("expected full timestamp to parse")
	}
	if got.Year() != 2025 {
		t.Errorf("expected the timestamp to be used verbatim, got %v", got)
	}
}

func TestCombine_Unparsable(t *testing.T) {
	if _, ok := Combine("not a date", "not a time"); ok {
		t.Error("expected combine to fail on garbage input")
	}
	if _, ok := Combine("2025-03-10", ""); ok {
		t.Error("expected combine to fail with an empty clock")
	}
}

func TestNormalizeRange_Overnight(t *testing.T) {
	start := time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)

	s, e, ok := NormalizeRange(start, end)
	if !ok {
		t.Fatal("expected range to normalize")
	}
	if !s.Equal(start) {
		t.Errorf("start moved: %v", s)
	}
	if !e.Equal(end.Add(24 * time.Hour)) {
		t.Errorf("expected end pushed to next day, got %v", e)
	}
	if h := HoursBetween(start, end); h != 8 {
		t.Errorf("expected 8 hour overnight shift, got %f", h)
	}
}

func TestNormalizeRange_Invalid(t *testing.T) {
	if _, _, ok := NormalizeRange(time.Time{}, time.Now()); ok {
		t.Error("expected zero start to fail")
	}
	if h := HoursBetween(time.Now(), time.Time{}); h != 0 {
		t.Errorf("expected 0 hours for invalid range, got %f", h)
	}
}

func TestOverlaps(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	blocks := []Block{{Start: day.Add(9 * time.Hour), End: day.Add(17 * time.Hour)}}

	if !Overlaps(blocks, day.Add(16*time.Hour), day.Add(20*time.Hour)) {
		t.Error("expected intersecting candidate to overlap")
	}
	// Half-open: touching endpoints do not intersect.
	if Overlaps(blocks, day.Add(17*time.Hour), day.Add(20*time.Hour)) {
		t.Error("expected back-to-back intervals not to overlap")
	}
}

func TestOverlaps_MalformedBlockNeverMatches(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	blocks := []Block{{Start: day.Add(17 * time.Hour), End: day.Add(9 * time.Hour)}}

	if Overlaps(blocks, day.Add(10*time.Hour), day.Add(12*time.Hour)) {
		t.Error("expected malformed block to be treated as a non-match")
	}
}
