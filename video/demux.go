package video

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gimbal-ghost/gimbal-ghost/types"
	"go.uber.org/multierr"
)

// DemuxWriter appends entries to an ffmpeg concat demuxer manifest.
// Each entry is a quoted file line followed by a duration line.
type DemuxWriter struct {
	path     string
	file     *os.File
	w        *bufio.Writer
	duration string
	last     string
	entries  int
	closed   bool
}

// CreateDemux truncates or creates the manifest at path. frameDuration is the
// duration in seconds written after every file line.
func CreateDemux(path string, frameDuration float64) (*DemuxWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &types.StreamError{Path: path, Op: "create demux manifest", Err: err}
	}

	return &DemuxWriter{
		path:     path,
		file:     f,
		w:        bufio.NewWriter(f),
		duration: strconv.FormatFloat(frameDuration, 'f', -1, 64),
	}, nil
}

// Path returns the manifest location
func (d *DemuxWriter) Path() string { return d.path }

// Entries returns the number of frame entries appended so far
func (d *DemuxWriter) Entries() int { return d.entries }

// Append writes one frame entry
func (d *DemuxWriter) Append(framePath string) error {
	if d.closed {
		return &types.StreamError{Path: d.path, Op: "write demux manifest", Err: os.ErrClosed}
	}

	if _, err := fmt.Fprintf(d.w, "file %s\nduration %s\n", quoteConcatPath(framePath), d.duration); err != nil {
		return &types.StreamError{Path: d.path, Op: "write demux manifest", Err: err}
	}
	d.last = framePath
	d.entries++
	return nil
}

// Close flushes and closes the manifest. The concat demuxer ignores the duration of the
// final entry, so the last file is repeated once without one. Close is idempotent.
func (d *DemuxWriter) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	var err error
	if d.entries > 0 {
		if _, werr := fmt.Fprintf(d.w, "file %s\n", quoteConcatPath(d.last)); werr != nil {
			err = multierr.Append(err, werr)
		}
	}
	err = multierr.Append(err, d.w.Flush())
	err = multierr.Append(err, d.file.Close())
	if err != nil {
		return &types.StreamError{Path: d.path, Op: "close demux manifest", Err: err}
	}
	return nil
}

// quoteConcatPath wraps a path in single quotes, escaping embedded quotes the way the
// concat demuxer expects
func quoteConcatPath(path string) string {
	return "'" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}

// DemuxPair is the left and right manifest of one flight
type DemuxPair struct {
	Left  *DemuxWriter
	Right *DemuxWriter
}

// CreateDemuxPair creates both manifests. If the right one cannot be created the left
// one is closed again.
func CreateDemuxPair(leftPath, rightPath string, frameDuration float64) (*DemuxPair, error) {
	left, err := CreateDemux(leftPath, frameDuration)
	if err != nil {
		return nil, err
	}
	right, err := CreateDemux(rightPath, frameDuration)
	if err != nil {
		_ = left.Close()
		return nil, err
	}
	return &DemuxPair{Left: left, Right: right}, nil
}

// Append writes one frame entry to each side
func (p *DemuxPair) Append(leftFrame, rightFrame string) error {
	if err := p.Left.Append(leftFrame); err != nil {
		return err
	}
	return p.Right.Append(rightFrame)
}

// Entries returns the number of frames written. Both sides always hold the same count.
func (p *DemuxPair) Entries() int { return p.Left.Entries() }

// Close closes both manifests and combines their errors
func (p *DemuxPair) Close() error {
	return multierr.Combine(p.Left.Close(), p.Right.Close())
}
