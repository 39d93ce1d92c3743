package types

import "fmt"

// ConfigurationError reports invalid input detected before any work starts:
// unsupported file extensions, malformed stick manifests, bad render settings.
type ConfigurationError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error"
	if e.Path != "" {
		msg += " for " + e.Path
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// DecodeProcessError reports a blackbox decoder that could not be started or
// exited with a non-zero status. ExitCode is -1 when the process never ran.
type DecodeProcessError struct {
	LogFile  string
	ExitCode int
	Err      error
}

func (e *DecodeProcessError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("decode process for %s exited with non zero exit code: %d", e.LogFile, e.ExitCode)
	}
	return fmt.Sprintf("decode process for %s failed: %v", e.LogFile, e.Err)
}

func (e *DecodeProcessError) Unwrap() error { return e.Err }

// RenderProcessError reports a compositor run that could not be started or
// exited with a non-zero status. ExitCode is -1 when the process never ran.
type RenderProcessError struct {
	Flight   string
	ExitCode int
	Err      error
}

func (e *RenderProcessError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("render process for %s exited with non zero exit code: %d", e.Flight, e.ExitCode)
	}
	return fmt.Sprintf("render process for %s failed: %v", e.Flight, e.Err)
}

func (e *RenderProcessError) Unwrap() error { return e.Err }

// StreamError reports an I/O failure while reading telemetry CSVs or writing
// demux manifests and scratch files.
type StreamError struct {
	Path string
	Op   string
	Err  error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }
