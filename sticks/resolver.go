package sticks

import (
	"math"
	"strconv"
	"strings"

	"github.com/gimbal-ghost/gimbal-ghost/types"
)

// Source identifies the firmware family that recorded a blackbox log
type Source string

const (
	SourceBetaflight  Source = "betaflight"
	SourceEmuflight   Source = "emuflight"
	SourceRotorflight Source = "rotorflight"
	SourceEdgeTX      Source = "edgetx"
)

// TransmitterMode selects which axes are drawn on the left and right stick
type TransmitterMode int

const (
	Mode1 TransmitterMode = iota + 1
	Mode2
	Mode3
	Mode4
)

// DefaultFPS is the output frame rate when none is configured
const DefaultFPS = 30

// StickSample is one reading of the four control axes
type StickSample struct {
	TimeMicros int64
	Roll       float64
	Pitch      float64
	Yaw        float64
	Throttle   float64
}

// FramePathPair holds the sprite paths for one output frame
type FramePathPair struct {
	Left  string
	Right string
}

// InputRange is the raw telemetry range of an axis
type InputRange struct {
	Min float64
	Max float64
}

// InputRanges holds the raw telemetry range for every axis
type InputRanges struct {
	Roll     InputRange
	Pitch    InputRange
	Yaw      InputRange
	Throttle InputRange
}

// ResolverOptions configures a Resolver
type ResolverOptions struct {
	ManifestPath string
	Source       Source
	Mode         TransmitterMode
	FPS          float64
}

// Resolver converts stick samples into sprite paths. It is immutable once built and
// safe for concurrent use.
type Resolver struct {
	manifest         *StickManifest
	source           Source
	mode             TransmitterMode
	fps              float64
	microSecPerFrame int64
}

// NewResolver loads the stick manifest and prepares the frame clock
func NewResolver(opts ResolverOptions) (*Resolver, error) {
	manifest, err := LoadManifest(opts.ManifestPath)
	if err != nil {
		return nil, err
	}
	return NewResolverFromManifest(manifest, opts)
}

// NewResolverFromManifest builds a resolver around an already loaded manifest
func NewResolverFromManifest(manifest *StickManifest, opts ResolverOptions) (*Resolver, error) {
	fps := opts.FPS
	if fps == 0 {
		fps = DefaultFPS
	}
	if fps < 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return nil, &types.ConfigurationError{Reason: "output fps must be a positive number, got " + strconv.FormatFloat(fps, 'f', -1, 64)}
	}
	microSecPerFrame := int64(math.Floor(1_000_000 / fps))
	if microSecPerFrame < 1 {
		return nil, &types.ConfigurationError{Reason: "output fps is too high"}
	}

	source := Source(strings.ToLower(string(opts.Source)))
	if source == "" {
		source = SourceBetaflight
	}
	switch source {
	case SourceBetaflight, SourceEmuflight, SourceRotorflight, SourceEdgeTX:
	default:
		return nil, &types.ConfigurationError{Reason: "unknown blackbox source " + string(opts.Source)}
	}

	mode := opts.Mode
	if mode == 0 {
		mode = Mode2
	}

	return &Resolver{
		manifest:         manifest,
		source:           source,
		mode:             mode,
		fps:              fps,
		microSecPerFrame: microSecPerFrame,
	}, nil
}

// Manifest returns the loaded stick manifest
func (r *Resolver) Manifest() *StickManifest { return r.manifest }

// Source returns the telemetry source family
func (r *Resolver) Source() Source { return r.source }

// Mode returns the transmitter layout mode
func (r *Resolver) Mode() TransmitterMode { return r.mode }

// FPS returns the output frame rate
func (r *Resolver) FPS() float64 { return r.fps }

// MicroSecPerFrame returns floor(1e6 / fps)
func (r *Resolver) MicroSecPerFrame() int64 { return r.microSecPerFrame }

// FrameDuration returns the duration of one output frame in seconds
func (r *Resolver) FrameDuration() float64 { return 1 / r.fps }

// SourceInputRanges returns the raw telemetry range of every axis for the source family
func (r *Resolver) SourceInputRanges() InputRanges {
	switch r.source {
	case SourceRotorflight:
		// Rotorflight rewrites rcCommand[3] into the same range as the other axes
		return InputRanges{
			Roll:     InputRange{-500, 500},
			Pitch:    InputRange{-500, 500},
			Yaw:      InputRange{-500, 500},
			Throttle: InputRange{-500, 500},
		}
	case SourceEdgeTX:
		return InputRanges{
			Roll:     InputRange{-1024, 1024},
			Pitch:    InputRange{-1024, 1024},
			Yaw:      InputRange{-1024, 1024},
			Throttle: InputRange{-1024, 1024},
		}
	default:
		return InputRanges{
			Roll:     InputRange{-500, 500},
			Pitch:    InputRange{-500, 500},
			Yaw:      InputRange{-500, 500},
			Throttle: InputRange{1000, 2000},
		}
	}
}

// Normalize applies the source specific sign conventions
func (r *Resolver) Normalize(sample StickSample) StickSample {
	if r.source == SourceBetaflight || r.source == SourceEmuflight {
		sample.Yaw = -sample.Yaw
	}
	return sample
}

// GridPosition converts a raw sample into sprite grid coordinates per axis
func (r *Resolver) GridPosition(sample StickSample) StickSample {
	ranges := r.SourceInputRanges()
	values := r.Normalize(sample)
	x := r.manifest.Frames.X
	y := r.manifest.Frames.Y

	return StickSample{
		TimeMicros: sample.TimeMicros,
		Roll:       framePosition(values.Roll, ranges.Roll, x),
		Pitch:      framePosition(values.Pitch, ranges.Pitch, y),
		Yaw:        framePosition(values.Yaw, ranges.Yaw, x),
		Throttle:   framePosition(values.Throttle, ranges.Throttle, y),
	}
}

// Resolve returns the left and right sprite paths for a sample
func (r *Resolver) Resolve(sample StickSample) FramePathPair {
	pos := r.GridPosition(sample)
	m := r.manifest

	switch r.mode {
	case Mode1:
		return FramePathPair{
			Left:  m.FramePath(pos.Yaw, pos.Pitch),
			Right: m.FramePath(pos.Roll, pos.Throttle),
		}
	case Mode2:
		return FramePathPair{
			Left:  m.FramePath(pos.Yaw, pos.Throttle),
			Right: m.FramePath(pos.Roll, pos.Pitch),
		}
	case Mode3:
		return FramePathPair{
			Left:  m.FramePath(pos.Roll, pos.Pitch),
			Right: m.FramePath(pos.Yaw, pos.Throttle),
		}
	default:
		return FramePathPair{
			Left:  m.FramePath(pos.Roll, pos.Throttle),
			Right: m.FramePath(pos.Yaw, pos.Pitch),
		}
	}
}

// framePosition converts a raw axis value into the nearest sprite coordinate
func framePosition(value float64, in InputRange, out AxisRange) float64 {
	clamped := Clamp(value, in.Min, in.Max)
	scaled := Scale(clamped, in.Min, in.Max, out.Min, out.Max)
	return NearestOnGrid(scaled, out.Min, out.Max, out.Increment)
}

// formatCoordinate renders a grid coordinate the way sprite files are named: integers
// without a decimal point, fractions in their shortest form.
func formatCoordinate(v float64) string {
	v = math.Round(v*1e6) / 1e6
	if v == 0 {
		// avoid "-0"
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
