package main

import (
	"crypto/rand"
	"encoding/hex"
	"math"
)

// GenerateID produces byteLen random bytes as lowercase hex
func GenerateID(byteLen int) string {
	b := make([]byte, byteLen)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Clamp pins v into [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// finite reports whether every value is a real number (no NaN, no ±Inf)
func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
