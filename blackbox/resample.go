package blackbox

import "github.com/gimbal-ghost/gimbal-ghost/sticks"

// resampler turns irregular telemetry rows into one sample per output frame.
//
// The first row becomes frame 0 as is. Every later row emits one sample for each
// frame time it reaches or passes, interpolated between the previous row and itself.
// Rows between two frame times only update the previous row. Input has to be sorted
// by time; unsorted rows produce poor output but never fail.
type resampler struct {
	microSecPerFrame int64
	started          bool
	start            int64
	frameIndex       int64
	previous         sticks.StickSample
}

func newResampler(microSecPerFrame int64) *resampler {
	if microSecPerFrame < 1 {
		microSecPerFrame = 1
	}
	return &resampler{microSecPerFrame: microSecPerFrame}
}

// Step consumes one row and hands every frame sample it completes to emit, in
// order, without buffering them. It returns how many frames the row produced and
// stops at the first emit error.
func (r *resampler) Step(row sticks.StickSample, emit func(sticks.StickSample) error) (int64, error) {
	if !r.started {
		r.started = true
		r.start = row.TimeMicros
		r.frameIndex = 1
		r.previous = row
		return 1, emit(row)
	}

	var n int64
	for {
		frameTime := r.FrameTime()
		if row.TimeMicros < frameTime {
			break
		}
		if err := emit(interpolate(r.previous, row, frameTime)); err != nil {
			return n, err
		}
		r.frameIndex++
		n++
	}
	r.previous = row
	return n, nil
}

// FrameTime is the timestamp of the next frame to emit
func (r *resampler) FrameTime() int64 {
	return r.start + r.frameIndex*r.microSecPerFrame
}

// Frames returns how many frames have been emitted
func (r *resampler) Frames() int64 {
	if !r.started {
		return 0
	}
	return r.frameIndex
}

// interpolate blends two rows linearly at frameTime. Equal timestamps and a frame
// time on the current row both yield the current row's values.
func interpolate(previous, current sticks.StickSample, frameTime int64) sticks.StickSample {
	span := current.TimeMicros - previous.TimeMicros
	if span <= 0 || frameTime >= current.TimeMicros {
		current.TimeMicros = frameTime
		return current
	}
	if frameTime <= previous.TimeMicros {
		previous.TimeMicros = frameTime
		return previous
	}

	factor := float64(frameTime-previous.TimeMicros) / float64(span)
	lerp := func(a, b float64) float64 { return a + (b-a)*factor }

	return sticks.StickSample{
		TimeMicros: frameTime,
		Roll:       lerp(previous.Roll, current.Roll),
		Pitch:      lerp(previous.Pitch, current.Pitch),
		Yaw:        lerp(previous.Yaw, current.Yaw),
		Throttle:   lerp(previous.Throttle, current.Throttle),
	}
}
