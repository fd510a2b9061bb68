package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nodo1014/indexer/internal/logs"
)

func writeLog(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "indexer.log")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestLastLinesBoundedTail(t *testing.T) {
	path := writeLog(t, "one\ntwo\nthree\nfour\n")

	lines, offset, err := logs.LastLines(path, 2)
	if err != nil {
		t.Fatalf("LastLines: %v", err)
	}
	if len(lines) != 2 || lines[0] != "three" || lines[1] != "four" {
		t.Fatalf("lines = %v", lines)
	}
	if offset == 0 {
		t.Fatal("offset should point past the read content")
	}
}

func TestLastLinesMissingFile(t *testing.T) {
	lines, offset, err := logs.LastLines(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil {
		t.Fatalf("LastLines: %v", err)
	}
	if len(lines) != 0 || offset != 0 {
		t.Fatalf("lines = %v offset = %d", lines, offset)
	}
}

func TestReadFromPicksUpAppendedLines(t *testing.T) {
	path := writeLog(t, "first\n")
	_, offset, err := logs.LastLines(path, 10)
	if err != nil {
		t.Fatalf("LastLines: %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("second\nthird\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()

	lines, newOffset, err := logs.ReadFrom(path, offset)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if len(lines) != 2 || lines[0] != "second" || lines[1] != "third" {
		t.Fatalf("lines = %v", lines)
	}
	if newOffset <= offset {
		t.Fatalf("offset did not advance: %d -> %d", offset, newOffset)
	}
}

func TestReadFromRestartsAfterTruncation(t *testing.T) {
	path := writeLog(t, "aaaa\nbbbb\ncccc\n")
	_, offset, err := logs.LastLines(path, 10)
	if err != nil {
		t.Fatalf("LastLines: %v", err)
	}

	if err := os.WriteFile(path, []byte("new\n"), 0o644); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	lines, _, err := logs.ReadFrom(path, offset)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if len(lines) != 1 || lines[0] != "new" {
		t.Fatalf("lines = %v", lines)
	}
}

func TestFollowStopsOnCancel(t *testing.T) {
	path := writeLog(t, "only\n")
	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()

	var got []string
	err := logs.Follow(ctx, path, 5, func(line string) { got = append(got, line) })
	if err != context.DeadlineExceeded {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
	if len(got) != 1 || got[0] != "only" {
		t.Fatalf("got = %v", got)
	}
}
