package backoff

import (
	"math"
	"testing"
	"time"
)

func TestScheduleDoublesEachRetry(t *testing.T) {
	s := NewSchedule(100*time.Millisecond, DefaultMultiplier, 0)

	expected := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
	}
	for i, want := range expected {
		if got := s.Next(); got != want {
			t.Errorf("Next() #%d = %v, want %v", i, got, want)
		}
	}
	if s.Attempt() != len(expected) {
		t.Errorf("Attempt() = %d, want %d", s.Attempt(), len(expected))
	}
}

func TestScheduleEachDelayIsDoubleThePrevious(t *testing.T) {
	s := NewSchedule(37*time.Millisecond, DefaultMultiplier, 0)
	prev := s.Next()
	for i := 0; i < 10; i++ {
		next := s.Next()
		if next != 2*prev {
			t.Fatalf("delay %d = %v, want %v", i+1, next, 2*prev)
		}
		prev = next
	}
}

func TestScheduleZeroInitialDelay(t *testing.T) {
	s := NewSchedule(0, DefaultMultiplier, 0)
	for i := 0; i < 3; i++ {
		if got := s.Next(); got != 0 {
			t.Errorf("Next() = %v, want 0", got)
		}
	}
}

func TestScheduleNegativeInitialClampsToZero(t *testing.T) {
	s := NewSchedule(-time.Second, DefaultMultiplier, 0)
	if got := s.Peek(); got != 0 {
		t.Errorf("Peek() = %v, want 0", got)
	}
}

func TestScheduleRespectsMax(t *testing.T) {
	s := NewSchedule(time.Second, DefaultMultiplier, 3*time.Second)

	expected := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}
	for i, want := range expected {
		if got := s.Next(); got != want {
			t.Errorf("Next() #%d = %v, want %v", i, got, want)
		}
	}
}

func TestScheduleInvalidMultiplierFallsBack(t *testing.T) {
	s := NewSchedule(time.Second, 0.5, 0)
	s.Next()
	if got := s.Peek(); got != 2*time.Second {
		t.Errorf("Peek() = %v, want 2s", got)
	}
}

func TestScheduleSaturates(t *testing.T) {
	s := NewSchedule(time.Hour, DefaultMultiplier, 0)
	for i := 0; i < 80; i++ {
		if d := s.Next(); d < 0 {
			t.Fatalf("Next() overflowed to %v at %d", d, i)
		}
	}
	if s.Peek() != time.Duration(math.MaxInt64) {
		t.Errorf("Peek() = %v, want saturated max", s.Peek())
	}
}

func TestDelay(t *testing.T) {
	tests := []struct {
		name     string
		attempt  int
		initial  time.Duration
		expected time.Duration
	}{
		{"attempt 0", 0, 100 * time.Millisecond, 100 * time.Millisecond},
		{"attempt 1", 1, 100 * time.Millisecond, 200 * time.Millisecond},
		{"attempt 3", 3, 100 * time.Millisecond, 800 * time.Millisecond},
		{"negative attempt", -1, 100 * time.Millisecond, 100 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Delay(tt.attempt, tt.initial, DefaultMultiplier); got != tt.expected {
				t.Errorf("Delay(%d, %v) = %v, want %v", tt.attempt, tt.initial, got, tt.expected)
			}
		})
	}
}

func TestPow(t *testing.T) {
	tests := []struct {
		base     float64
		exponent int
		expected float64
	}{
		{2.0, 0, 1.0},
		{2.0, 1, 2.0},
		{2.0, 3, 8.0},
		{3.0, 2, 9.0},
	}

	for _, tt := range tests {
		result := Pow(tt.base, tt.exponent)
		if result != tt.expected {
			t.Errorf("Pow(%f, %d) = %f, want %f", tt.base, tt.exponent, result, tt.expected)
		}
	}
}

func BenchmarkScheduleNext(b *testing.B) {
	s := NewSchedule(100*time.Millisecond, DefaultMultiplier, 5*time.Second)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Next()
	}
}
