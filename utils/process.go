package utils

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"
)

// processWaitDelay bounds how long Wait keeps copying output after the process exits,
// for children that leave the pipes open in a grandchild
const processWaitDelay = 5 * time.Second

// LineHandler receives one line of subprocess output without its terminator
type LineHandler func(line string)

// RunProcess starts name with args and waits for it to exit while draining stdout and
// stderr line by line. Carriage returns also end a line so ffmpeg style progress updates
// arrive as they are printed.
//
// A process that ran and exited non-zero returns its exit code and a nil error. A process
// that could not be started, or was killed because ctx ended, returns -1 and an error.
func RunProcess(ctx context.Context, name string, args []string, onStdout, onStderr LineHandler) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = processWaitDelay

	stdoutReader, stdoutWriter := io.Pipe()
	stderrReader, stderrWriter := io.Pipe()
	cmd.Stdout = stdoutWriter
	cmd.Stderr = stderrWriter

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		drainLines(stdoutReader, onStdout)
	}()
	go func() {
		defer wg.Done()
		drainLines(stderrReader, onStderr)
	}()

	// Readers are joined after Wait so they see every line the process wrote
	closeStreams := func() {
		_ = stdoutWriter.Close()
		_ = stderrWriter.Close()
		wg.Wait()
	}

	if err := cmd.Start(); err != nil {
		closeStreams()
		return -1, fmt.Errorf("failed to start %s: %w", name, err)
	}

	waitErr := cmd.Wait()
	closeStreams()

	if ctx.Err() != nil {
		return -1, fmt.Errorf("%s interrupted: %w", name, ctx.Err())
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, fmt.Errorf("failed to wait for %s: %w", name, waitErr)
	}

	return 0, nil
}

func drainLines(r io.Reader, handle LineHandler) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(ScanLinesCR)
	for scanner.Scan() {
		if handle != nil {
			handle(scanner.Text())
		}
	}
	// Keep reading after a scanner error so the child never blocks on a full pipe
	_, _ = io.Copy(io.Discard, r)
}

// ScanLinesCR is a bufio.SplitFunc that ends a line at \n, \r or \r\n.
// Empty lines are skipped.
func ScanLinesCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) && (data[start] == '\n' || data[start] == '\r') {
		start++
	}
	if atEOF && start == len(data) {
		return len(data), nil, nil
	}

	if i := bytes.IndexAny(data[start:], "\r\n"); i >= 0 {
		return start + i + 1, data[start : start+i], nil
	}

	if atEOF {
		return len(data), data[start:], nil
	}

	// Request more data, dropping the separators already seen
	return start, nil, nil
}
