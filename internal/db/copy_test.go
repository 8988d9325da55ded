package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type intRow int

func (r intRow) CopyValues() []any { return []any{int(r)} }

func TestChannelSourceDrains(t *testing.T) {
	ch := make(chan intRow, 3)
	ch <- 1
	ch <- 2
	ch <- 3
	close(ch)

	src := NewChannelSource(context.Background(), ch)
	var got [][]any
	for src.Next() {
		v, err := src.Values()
		if err != nil {
			t.Fatalf("values: %v", err)
		}
		got = append(got, v)
	}
	if src.Err() != nil {
		t.Fatalf("unexpected err: %v", src.Err())
	}
	if diff := cmp.Diff([][]any{{1}, {2}, {3}}, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if src.Rows() != 3 {
		t.Errorf("expected 3 rows, got %d", src.Rows())
	}
}

func TestChannelSourceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan intRow)
	src := NewChannelSource(ctx, ch)
	cancel()

	if src.Next() {
		t.Fatal("expected Next to stop after cancel")
	}
	if !errors.Is(src.Err(), context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", src.Err())
	}
	if src.Next() {
		t.Error("Next must keep returning false after an error")
	}
}
