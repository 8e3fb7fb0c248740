package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Options controls a single Tail call.
type Options struct {
	// Offset is the byte position to read from. Negative means return the
	// last MaxLines lines of the file.
	Offset int64
	// MaxLines bounds the result when Offset is negative.
	MaxLines int
	// Wait keeps the call polling for new lines up to this duration when the
	// read produced nothing. Zero returns immediately.
	Wait time.Duration
}

// Result carries the lines read and the offset to resume from.
type Result struct {
	Lines  []string
	Offset int64
}

// Tail reads from the log file at path according to opts. A missing file is
// not an error; the result is empty with offset zero so callers can keep
// polling until the daemon creates it.
func Tail(ctx context.Context, path string, opts Options) (Result, error) {
	if opts.Wait < 0 {
		opts.Wait = 0
	}

	var res Result
	var err error
	if opts.Offset < 0 {
		res, err = lastLines(path, opts.MaxLines)
	} else {
		res, err = readForward(path, opts.Offset)
	}
	if err != nil || len(res.Lines) > 0 || opts.Wait == 0 {
		return res, err
	}
	return pollForLines(ctx, path, res.Offset, opts.Wait)
}

// lastLines returns up to limit trailing lines plus the end-of-file offset.
func lastLines(path string, limit int) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	scanner := newLineScanner(file)
	if limit <= 0 {
		for scanner.Scan() {
		}
		if err := scanner.Err(); err != nil {
			return Result{}, fmt.Errorf("read log file: %w", err)
		}
		end, err := fileEnd(file)
		if err != nil {
			return Result{}, err
		}
		return Result{Offset: end}, nil
	}

	ring := make([]string, limit)
	count := 0
	next := 0
	for scanner.Scan() {
		ring[next] = scanner.Text()
		next = (next + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return Result{}, fmt.Errorf("read log file: %w", err)
	}

	end, err := fileEnd(file)
	if err != nil {
		return Result{}, err
	}

	lines := make([]string, count)
	if count == limit {
		for i := range lines {
			lines[i] = ring[(next+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return Result{Lines: lines, Offset: end}, nil
}

func readForward(path string, offset int64) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Result{}, fmt.Errorf("stat log file: %w", err)
	}
	// Truncated or rotated file: start over from the top.
	if offset > info.Size() {
		offset = 0
	}

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return Result{}, fmt.Errorf("seek log file: %w", err)
	}

	var lines []string
	scanner := newLineScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return Result{}, fmt.Errorf("read log file: %w", err)
	}

	end, err := fileEnd(file)
	if err != nil {
		return Result{}, err
	}
	return Result{Lines: lines, Offset: end}, nil
}

func pollForLines(ctx context.Context, path string, offset int64, wait time.Duration) (Result, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		res, err := readForward(path, offset)
		if err != nil || len(res.Lines) > 0 {
			return res, err
		}
		if res.Offset > offset {
			offset = res.Offset
		}
		if time.Now().After(deadline) {
			return Result{Offset: offset}, nil
		}
		select {
		case <-ctx.Done():
			return Result{Offset: offset}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}

func fileEnd(file *os.File) (int64, error) {
	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("determine log offset: %w", err)
	}
	return end, nil
}
