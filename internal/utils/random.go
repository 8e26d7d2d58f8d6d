package utils

import (
	"math/rand"
	"time"

	"zerofarm/internal/config"
)

// RandomIntInRange returns a random integer within the range [min, max].
func RandomIntInRange(min, max int) int {
	if min > max {
		min, max = max, min
	}
	if min == max {
		return min
	}
	return rand.Intn(max-min+1) + min
}

// RandomFloatInRange returns a random float within the range [min, max].
func RandomFloatInRange(min, max float64) float64 {
	if min > max {
		min, max = max, min
	}
	if min == max {
		return min
	}
	return min + rand.Float64()*(max-min)
}

// RandomDurationSeconds returns a random duration in seconds drawn from the config range.
func RandomDurationSeconds(r config.MinMax) time.Duration {
	return time.Duration(RandomIntInRange(r.Min, r.Max)) * time.Second
}
