package timeutil

import (
	"testing"
	"time"
)

func TestAlign(t *testing.T) {
	instant := time.Date(2024, 1, 1, 6, 55, 12, 345, time.UTC)
	lower, upper, err := Align(instant, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantLower := time.Date(2024, 1, 1, 6, 50, 0, 0, time.UTC)
	wantUpper := time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC)
	if !lower.Equal(wantLower) {
		t.Errorf("lower = %v, want %v", lower, wantLower)
	}
	if !upper.Equal(wantUpper) {
		t.Errorf("upper = %v, want %v", upper, wantUpper)
	}
	if !(lower.Before(instant) || lower.Equal(instant)) || !instant.Before(upper) {
		t.Errorf("post-condition lower <= instant < upper violated")
	}
}

func TestAlignZeroModuloFails(t *testing.T) {
	_, _, err := Align(time.Now(), 0)
	if err == nil {
		t.Fatal("expected error for modulo_minutes == 0")
	}
}

func TestAlignBoundaryExact(t *testing.T) {
	instant := time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC)
	lower, upper, err := Align(instant, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !lower.Equal(instant) {
		t.Errorf("lower = %v, want %v", lower, instant)
	}
	want := time.Date(2024, 1, 1, 7, 10, 0, 0, time.UTC)
	if !upper.Equal(want) {
		t.Errorf("upper = %v, want %v", upper, want)
	}
}

func TestFormat(t *testing.T) {
	got := Format(time.Date(2024, 1, 1, 6, 50, 0, 0, time.UTC))
	want := "2024-01-01-06-50"
	if got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}
}
