// Package store is the read-mostly gateway over the two legacy databases:
// the primary inquiry store and the archive store. All point lookups are
// chunked to at most MaxChunkSize ids per round trip, and empty id lists
// never touch the database.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MaxChunkSize bounds ids per round trip to respect driver limits.
const MaxChunkSize = 1000

var (
	// ErrUnavailable means a connection could not be established. Fatal to
	// task start; retried only on the next manual start.
	ErrUnavailable = errors.New("store unavailable")

	// ErrQuery means a query failed or timed out. Aborts the current batch;
	// the caller retries the whole batch on the next poll.
	ErrQuery = errors.New("query failed")

	// ErrNotFound means a point lookup matched no row.
	ErrNotFound = errors.New("not found")
)

// Store provides typed access to both legacy databases.
type Store struct {
	primary *pgxpool.Pool
	archive *pgxpool.Pool
}

// New connects to both databases and verifies connectivity.
func New(ctx context.Context, primaryURL, archiveURL string) (*Store, error) {
	primary, err := connect(ctx, primaryURL)
	if err != nil {
		return nil, fmt.Errorf("primary: %w", err)
	}
	archive, err := connect(ctx, archiveURL)
	if err != nil {
		primary.Close()
		return nil, fmt.Errorf("archive: %w", err)
	}
	return &Store{primary: primary, archive: archive}, nil
}

func connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: create pool: %v", ErrUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}
	return pool, nil
}

// Ping probes liveness of both databases.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.primary.Ping(ctx); err != nil {
		return fmt.Errorf("%w: primary: %v", ErrUnavailable, err)
	}
	if err := s.archive.Ping(ctx); err != nil {
		return fmt.Errorf("%w: archive: %v", ErrUnavailable, err)
	}
	return nil
}

// PingPrimary probes only the primary database.
func (s *Store) PingPrimary(ctx context.Context) error {
	if err := s.primary.Ping(ctx); err != nil {
		return fmt.Errorf("%w: primary: %v", ErrUnavailable, err)
	}
	return nil
}

// PingArchive probes only the archive database.
func (s *Store) PingArchive(ctx context.Context) error {
	if err := s.archive.Ping(ctx); err != nil {
		return fmt.Errorf("%w: archive: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Close() {
	s.primary.Close()
	s.archive.Close()
}

func queryError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrQuery, op, err)
}

// chunkInt64 splits ids into slices of at most size elements.
func chunkInt64(ids []int64, size int) [][]int64 {
	if len(ids) == 0 {
		return nil
	}
	var out [][]int64
	for size < len(ids) {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	return append(out, ids)
}
