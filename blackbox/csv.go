package blackbox

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gimbal-ghost/gimbal-ghost/sticks"
)

// Column headers written by blackbox_decode
const (
	ColumnTime     = "time (us)"
	ColumnRoll     = "rcCommand[0]"
	ColumnPitch    = "rcCommand[1]"
	ColumnYaw      = "rcCommand[2]"
	ColumnThrottle = "rcCommand[3]"
)

var requiredColumns = []string{ColumnTime, ColumnRoll, ColumnPitch, ColumnYaw, ColumnThrottle}

// rowReader streams stick samples out of a decoded flight CSV. Columns are looked
// up by header name and any other columns are ignored.
type rowReader struct {
	r       *csv.Reader
	index   map[string]int
	line    int
	skipped int
}

func newRowReader(r io.Reader) (*rowReader, error) {
	cr := csv.NewReader(r)
	// blackbox_decode pads values with a leading space
	cr.TrimLeadingSpace = true
	// The last row of an interrupted log is often truncated
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv has no header row")
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("csv is missing column %q", col)
		}
	}

	return &rowReader{r: cr, index: index, line: 1}, nil
}

// Next returns the next sample or io.EOF. Rows that are too short to hold every
// required column are skipped and counted.
func (rr *rowReader) Next() (sticks.StickSample, error) {
	for {
		record, err := rr.r.Read()
		if err != nil {
			return sticks.StickSample{}, err
		}
		rr.line++

		if !rr.complete(record) {
			rr.skipped++
			continue
		}

		return rr.sample(record)
	}
}

// Skipped returns the number of incomplete rows seen so far
func (rr *rowReader) Skipped() int { return rr.skipped }

func (rr *rowReader) complete(record []string) bool {
	for _, col := range requiredColumns {
		i := rr.index[col]
		if i >= len(record) || strings.TrimSpace(record[i]) == "" {
			return false
		}
	}
	return true
}

func (rr *rowReader) sample(record []string) (sticks.StickSample, error) {
	var s sticks.StickSample

	t, err := rr.number(record, ColumnTime)
	if err != nil {
		return s, err
	}
	s.TimeMicros = int64(t)

	if s.Roll, err = rr.number(record, ColumnRoll); err != nil {
		return s, err
	}
	if s.Pitch, err = rr.number(record, ColumnPitch); err != nil {
		return s, err
	}
	if s.Yaw, err = rr.number(record, ColumnYaw); err != nil {
		return s, err
	}
	if s.Throttle, err = rr.number(record, ColumnThrottle); err != nil {
		return s, err
	}
	return s, nil
}

func (rr *rowReader) number(record []string, col string) (float64, error) {
	raw := strings.TrimSpace(record[rr.index[col]])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid %s value %q", rr.line, col, raw)
	}
	return v, nil
}
