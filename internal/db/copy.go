package db

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// CopyRow is a value that can be streamed through COPY FROM.
type CopyRow interface {
	CopyValues() []any
}

// ChannelSource implements pgx.CopyFromSource by reading rows from a channel.
// The producer closes the channel when done. If ctx ends first the source
// stops and Err reports it, so a truncated feed never commits as complete.
type ChannelSource[T CopyRow] struct {
	ctx     context.Context
	ch      <-chan T
	current T
	rows    int64
	err     error
}

// NewChannelSource creates a CopyFromSource backed by a channel.
func NewChannelSource[T CopyRow](ctx context.Context, ch <-chan T) *ChannelSource[T] {
	return &ChannelSource[T]{ctx: ctx, ch: ch}
}

// Next advances to the next row. Returns false when the channel is closed or
// ctx is done.
func (s *ChannelSource[T]) Next() bool {
	if s.err != nil {
		return false
	}
	select {
	case row, ok := <-s.ch:
		if !ok {
			return false
		}
		s.current = row
		s.rows++
		return true
	case <-s.ctx.Done():
		s.err = s.ctx.Err()
		return false
	}
}

// Values returns the current row's values in COPY column order.
func (s *ChannelSource[T]) Values() ([]any, error) {
	return s.current.CopyValues(), nil
}

// Err returns the context error that stopped iteration, if any.
func (s *ChannelSource[T]) Err() error {
	return s.err
}

// Rows is the number of rows handed out so far.
func (s *ChannelSource[T]) Rows() int64 {
	return s.rows
}

var _ pgx.CopyFromSource = (*ChannelSource[CopyRow])(nil)
