package sticks

import "math"

// Clamp forces value into [min, max]
func Clamp(value, min, max float64) float64 {
	return math.Min(math.Max(min, value), max)
}

// Scale maps value linearly from [inMin, inMax] onto [outMin, outMax].
// inMin and inMax must differ.
func Scale(value, inMin, inMax, outMin, outMax float64) float64 {
	fraction := (value - inMin) / (inMax - inMin)
	return fraction*(outMax-outMin) + outMin
}

// tieSlack is the fraction of an increment within which a value counts as halfway
const tieSlack = 1e-9

// NearestOnGrid snaps value onto the grid gridMin, gridMin+increment, ... <= gridMax.
//
// The grid is walked from gridMin and the first interval [point, point+increment]
// containing value decides the result. A value halfway between two points resolves
// to the lower one. Grid points at increments like 0.1 are not exact in binary, so
// the halfway comparison allows a slack of tieSlack*increment; without it rounding
// sends some midpoints up and others down.
//
// When (gridMax-gridMin) is not a multiple of increment the top interval reaches past
// gridMax; results that would land there are clamped to the last grid point so every
// returned value names an existing sprite. Values outside [gridMin, gridMax] are clamped
// onto the grid before the walk.
func NearestOnGrid(value, gridMin, gridMax, increment float64) float64 {
	if increment <= 0 || gridMax < gridMin {
		return gridMin
	}

	value = Clamp(value, gridMin, gridMax)
	steps := int(math.Floor((gridMax-gridMin)/increment + 1e-9))
	last := gridMin + float64(steps)*increment

	for k := 0; k <= steps; k++ {
		point := gridMin + float64(k)*increment
		next := gridMin + float64(k+1)*increment
		if point <= value && value <= next {
			if value-point <= next-value+tieSlack*increment {
				return point
			}
			if next > last {
				return last
			}
			return next
		}
	}

	return last
}

// GridPoints lists every point of the grid in ascending order
func GridPoints(gridMin, gridMax, increment float64) []float64 {
	if increment <= 0 || gridMax < gridMin {
		return nil
	}
	steps := int(math.Floor((gridMax-gridMin)/increment + 1e-9))
	points := make([]float64, 0, steps+1)
	for k := 0; k <= steps; k++ {
		points = append(points, gridMin+float64(k)*increment)
	}
	return points
}
