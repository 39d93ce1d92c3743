package events

import "go.uber.org/zap"

// LogSink writes events to a zap logger. Progress updates are logged at debug,
// lifecycle changes at info and failures at error.
type LogSink struct {
	Logger *zap.SugaredLogger
}

func (s LogSink) Publish(e Event) {
	if s.Logger == nil {
		return
	}

	fields := []interface{}{
		"status", e.Status,
		"log", e.LogPath,
		"flight", e.FlightNumber,
		"output", e.OutputFileName,
		"progress", e.Progress,
	}
	if e.RunID != "" {
		fields = append(fields, "run", e.RunID)
	}

	switch e.Status {
	case StatusError:
		s.Logger.Errorw("flight failed", append(fields, "error", e.Message)...)
	case StatusRendering:
		s.Logger.Debugw("flight rendering", fields...)
	default:
		if e.Message != "" {
			fields = append(fields, "message", e.Message)
		}
		s.Logger.Infow("flight "+string(e.Status), fields...)
	}
}
