package sticks

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		expected float64
	}{
		{"Inside range", 10, 10},
		{"Below min", -600, -500},
		{"Above max", 700, 500},
		{"At min", -500, -500},
		{"At max", 500, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.value, -500, 500); got != tt.expected {
				t.Errorf("Clamp(%v) = %v, expected %v", tt.value, got, tt.expected)
			}
		})
	}
}

func TestScale(t *testing.T) {
	tests := []struct {
		name                            string
		value, inMin, inMax, oMin, oMax float64
		expected                        float64
	}{
		{"Midpoint", 0, -500, 500, -100, 100, 0},
		{"Throttle mid", 1500, 1000, 2000, -500, 500, 0},
		{"Throttle low", 1000, 1000, 2000, -500, 500, -500},
		{"EdgeTX max", 1024, -1024, 1024, -500, 500, 500},
		{"Inverted output", 250, 0, 500, 10, 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Scale(tt.value, tt.inMin, tt.inMax, tt.oMin, tt.oMax)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Scale() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestScaleRoundTrip(t *testing.T) {
	values := []float64{-500, -123.25, 0, 17, 499.9}
	for _, v := range values {
		there := Scale(v, -500, 500, 1000, 2000)
		back := Scale(there, 1000, 2000, -500, 500)
		if math.Abs(back-v) > 1e-9 {
			t.Errorf("round trip of %v returned %v", v, back)
		}
	}
}

func TestNearestOnGrid(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		expected float64
	}{
		{"Exact grid point", 250, 250},
		{"Grid min", -500, -500},
		{"Grid max", 500, 500},
		{"Closer to lower", 100, 0},
		{"Closer to upper", 150, 250},
		{"Tie resolves lower", 125, 0},
		{"Negative tie resolves lower", -375, -500},
		{"Below grid is clamped", -900, -500},
		{"Above grid is clamped", 900, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NearestOnGrid(tt.value, -500, 500, 250); got != tt.expected {
				t.Errorf("NearestOnGrid(%v) = %v, expected %v", tt.value, got, tt.expected)
			}
		})
	}
}

func TestNearestOnGridTieBreakLaw(t *testing.T) {
	grids := []struct {
		min, max, inc float64
	}{
		{-500, 500, 250},
		{0, 10, 1},
		{-1, 1, 0.5},
		{-500, 500, 100},
		{0, 1, 0.1},
		{-1, 1, 0.1},
		{-5, 5, 0.3},
		{0, 100, 0.7},
		{-500, 500, 33.3},
		{0, 3, 0.01},
	}

	for _, g := range grids {
		for _, point := range GridPoints(g.min, g.max, g.inc) {
			if point+g.inc > g.max {
				continue
			}
			if got := NearestOnGrid(point+g.inc/2, g.min, g.max, g.inc); got != point {
				t.Errorf("grid %+v: tie at %v returned %v, expected %v", g, point+g.inc/2, got, point)
			}
		}
	}
}

func TestNearestOnGridNearTie(t *testing.T) {
	// Just off the midpoint the nearer point still wins
	tests := []struct {
		value    float64
		expected float64
	}{
		{0.35 - 1e-6, 0.30000000000000004},
		{0.35 + 1e-6, 0.4},
		{0.65 + 1e-6, 0.7000000000000001},
	}
	for _, tt := range tests {
		if got := NearestOnGrid(tt.value, 0, 1, 0.1); got != tt.expected {
			t.Errorf("NearestOnGrid(%v) = %v, expected %v", tt.value, got, tt.expected)
		}
	}
}

func TestNearestOnGridReturnsGridPoints(t *testing.T) {
	min, max, inc := -500.0, 500.0, 125.0
	for v := min; v <= max; v += 7.3 {
		got := NearestOnGrid(v, min, max, inc)
		k := (got - min) / inc
		if k < 0 || math.Abs(k-math.Round(k)) > 1e-9 {
			t.Fatalf("NearestOnGrid(%v) = %v is not on the grid", v, got)
		}
	}
}

func TestNearestOnGridUnevenTop(t *testing.T) {
	// 0, 4, 8 are the only points; 11 is nearer to 12, which has no sprite
	if got := NearestOnGrid(11, 0, 11, 4); got != 8 {
		t.Errorf("expected top partial interval to clamp to 8, got %v", got)
	}
	if got := NearestOnGrid(9.9, 0, 11, 4); got != 8 {
		t.Errorf("expected 8, got %v", got)
	}
}

func TestGridPoints(t *testing.T) {
	points := GridPoints(-500, 500, 250)
	expected := []float64{-500, -250, 0, 250, 500}
	if len(points) != len(expected) {
		t.Fatalf("expected %d points, got %d", len(expected), len(points))
	}
	for i := range expected {
		if points[i] != expected[i] {
			t.Errorf("point %d: expected %v, got %v", i, expected[i], points[i])
		}
	}

	if GridPoints(0, 10, 0) != nil {
		t.Error("expected nil for zero increment")
	}
}
