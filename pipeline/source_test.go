package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestFromReader_Lines(t *testing.T) {
	r := strings.NewReader("a\nb\r\n\nc")
	got, err := Collect(context.Background(), From(FromReader(r)))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []string{"a", "b", "", "c"}) {
		t.Errorf("got %q", got)
	}
}

func TestFromReader_ClosesSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	if err := os.WriteFile(path, []byte("1\n2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	it := FromReader(f)
	if _, _, err := it.Next(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := it.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Read(make([]byte, 1)); err == nil {
		t.Error("expected file to be closed")
	}
}

func TestFollow_ReadsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.log")
	if err := os.WriteFile(path, []byte("first\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	it, err := Follow(path)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	line, ok, err := it.Next(ctx)
	if err != nil || !ok || line != "first" {
		t.Fatalf("expected first line, got %q ok=%v err=%v", line, ok, err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return
		}
		defer f.Close()
		_, _ = f.WriteString("sec")
		_ = f.Sync()
		time.Sleep(20 * time.Millisecond)
		_, _ = f.WriteString("ond\n")
	}()

	line, ok, err = it.Next(ctx)
	if err != nil || !ok || line != "second" {
		t.Fatalf("expected appended line, got %q ok=%v err=%v", line, ok, err)
	}
}

func TestFollow_StopsOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idle.log")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	it, err := Follow(path)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, _, err := it.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestFollow_MissingFile(t *testing.T) {
	if _, err := Follow(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
