package backoff

import (
	"math"
	"time"
)

// DefaultMultiplier doubles the delay after every retry.
const DefaultMultiplier = 2.0

// Schedule is the delay state of a single in-flight call. It yields
// initial, initial*m, initial*m^2, ... and is not safe for concurrent use;
// every call owns its own Schedule.
type Schedule struct {
	delay      time.Duration
	multiplier float64
	max        time.Duration
	attempt    int
}

// NewSchedule creates a schedule starting at initial. A multiplier below 1
// falls back to DefaultMultiplier. A zero max means the delay is uncapped.
func NewSchedule(initial time.Duration, multiplier float64, max time.Duration) *Schedule {
	if initial < 0 {
		initial = 0
	}
	if multiplier < 1 {
		multiplier = DefaultMultiplier
	}
	return &Schedule{
		delay:      clamp(initial, max),
		multiplier: multiplier,
		max:        max,
	}
}

// Next returns the delay for the upcoming retry and advances the schedule.
func (s *Schedule) Next() time.Duration {
	d := s.delay
	s.attempt++
	s.delay = clamp(grow(s.delay, s.multiplier), s.max)
	return d
}

// Peek returns the delay Next would return without advancing.
func (s *Schedule) Peek() time.Duration {
	return s.delay
}

// Attempt reports how many delays have been handed out.
func (s *Schedule) Attempt() int {
	return s.attempt
}

// Delay computes the delay before retry number attempt (0-based) without
// keeping state.
func Delay(attempt int, initial time.Duration, multiplier float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// Prevent overflow by limiting attempt
	if attempt > 62 {
		attempt = 62
	}
	return saturate(float64(initial) * Pow(multiplier, attempt))
}

func grow(d time.Duration, multiplier float64) time.Duration {
	return saturate(float64(d) * multiplier)
}

func saturate(f float64) time.Duration {
	if f >= math.MaxInt64 || f < 0 || math.IsNaN(f) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(f)
}

func clamp(d, max time.Duration) time.Duration {
	if max > 0 && d > max {
		return max
	}
	return d
}

// Pow calculates base^exponent using integer exponentiation.
func Pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}
