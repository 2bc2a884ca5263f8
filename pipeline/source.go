package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// maxLineSize bounds a single decoded line.
const maxLineSize = 1 << 20

// FromReader returns an Iterator over the lines of r, without line
// terminators. Closing the iterator closes r when it is an io.Closer.
func FromReader(r io.Reader) Iterator[string] {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &lineIter{scanner: sc, src: r}
}

type lineIter struct {
	scanner *bufio.Scanner
	src     io.Reader
}

func (it *lineIter) Next(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if it.scanner.Scan() {
		return it.scanner.Text(), true, nil
	}
	if err := it.scanner.Err(); err != nil {
		return "", false, fmt.Errorf("reading lines: %w", err)
	}
	return "", false, nil
}

func (it *lineIter) Close() error {
	if c, ok := it.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Follow returns an Iterator over the lines of the file at path that keeps
// waiting for new lines once the current end of file is reached, like
// `tail -f`. It never reports exhaustion on its own: iteration ends when ctx
// is cancelled, the file is removed or renamed, or the watcher fails.
// A trailing line without a newline is held back until it is completed.
func Follow(path string) (Iterator[string], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		f.Close()
		return nil, fmt.Errorf("watching %s: %w", path, err)
	}
	return &followIter{file: f, reader: bufio.NewReader(f), watcher: w}, nil
}

// ErrFollowStopped is returned by a Follow iterator once the followed file
// disappears.
var ErrFollowStopped = errors.New("followed file was removed or renamed")

type followIter struct {
	file    *os.File
	reader  *bufio.Reader
	watcher *fsnotify.Watcher
	pending strings.Builder
}

func (it *followIter) Next(ctx context.Context) (string, bool, error) {
	for {
		chunk, err := it.reader.ReadString('\n')
		it.pending.WriteString(chunk)
		if err == nil {
			line := strings.TrimRight(it.pending.String(), "\r\n")
			it.pending.Reset()
			return line, true, nil
		}
		if !errors.Is(err, io.EOF) {
			return "", false, fmt.Errorf("reading %s: %w", it.file.Name(), err)
		}
		if err := it.wait(ctx); err != nil {
			return "", false, err
		}
	}
}

// wait blocks until the file is written to again.
func (it *followIter) wait(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, open := <-it.watcher.Events:
			if !open {
				return ErrFollowStopped
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				return ErrFollowStopped
			}
			if ev.Op&fsnotify.Write != 0 {
				return nil
			}
		case err, open := <-it.watcher.Errors:
			if !open {
				return ErrFollowStopped
			}
			return fmt.Errorf("watching %s: %w", it.file.Name(), err)
		}
	}
}

func (it *followIter) Close() error {
	werr := it.watcher.Close()
	ferr := it.file.Close()
	if werr != nil {
		return werr
	}
	return ferr
}
