package emu

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseRate parses a steps-per-second rate typed by a user. Empty,
// non-numeric, non-finite and non-positive input yields 0, which disables
// auto-run.
func ParseRate(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	rate, err := strconv.ParseFloat(text, 64)
	if err != nil || !validRate(rate) {
		return 0
	}
	return rate
}

// RateInterval returns the wait between auto-run steps, 1000/rate ms. The
// result is clamped to [1ns, math.MaxInt64ns].
func RateInterval(rate float64) time.Duration {
	d := float64(time.Second) / rate
	if d >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	if d < 1 {
		return time.Nanosecond
	}
	return time.Duration(d)
}

func validRate(rate float64) bool {
	return rate > 0 && !math.IsInf(rate, 0) && !math.IsNaN(rate)
}
