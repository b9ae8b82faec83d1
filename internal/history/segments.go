package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RecordSegment inserts or replaces a prerendered segment entry keyed by path.
func (s *Store) RecordSegment(ctx context.Context, seg Segment) error {
	if seg.RenderedAt.IsZero() {
		seg.RenderedAt = time.Now()
	}
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO segments (path, fingerprint, size_bytes, clip_count, duration, rendered_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(path) DO UPDATE SET
             fingerprint = excluded.fingerprint,
             size_bytes = excluded.size_bytes,
             clip_count = excluded.clip_count,
             duration = excluded.duration,
             rendered_at = excluded.rendered_at`,
		seg.Path,
		seg.Fingerprint,
		seg.SizeBytes,
		seg.ClipCount,
		seg.Duration,
		seg.RenderedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record segment: %w", err)
	}
	return nil
}

// FindSegment returns the newest segment rendered for the fingerprint, or nil.
func (s *Store) FindSegment(ctx context.Context, fingerprint string) (*Segment, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT path, fingerprint, size_bytes, clip_count, duration, rendered_at
         FROM segments WHERE fingerprint = ? ORDER BY rendered_at DESC LIMIT 1`,
		fingerprint,
	)
	seg, err := scanSegment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find segment: %w", err)
	}
	return seg, nil
}

// ListSegments returns every cached segment, newest first.
func (s *Store) ListSegments(ctx context.Context) ([]*Segment, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT path, fingerprint, size_bytes, clip_count, duration, rendered_at
         FROM segments ORDER BY rendered_at DESC, path`,
	)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	var segments []*Segment
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		segments = append(segments, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate segments: %w", err)
	}
	return segments, nil
}

// RemoveSegment deletes a segment entry by path.
func (s *Store) RemoveSegment(ctx context.Context, path string) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM segments WHERE path = ?`, path); err != nil {
		return fmt.Errorf("remove segment: %w", err)
	}
	return nil
}

// ClearSegments removes every segment entry and returns how many were deleted.
func (s *Store) ClearSegments(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM segments`)
	if err != nil {
		return 0, fmt.Errorf("clear segments: %w", err)
	}
	return res.RowsAffected()
}

func scanSegment(scanner interface{ Scan(dest ...any) error }) (*Segment, error) {
	var (
		seg         Segment
		renderedRaw string
	)
	if err := scanner.Scan(
		&seg.Path,
		&seg.Fingerprint,
		&seg.SizeBytes,
		&seg.ClipCount,
		&seg.Duration,
		&renderedRaw,
	); err != nil {
		return nil, err
	}
	if rendered, err := parseTimeString(renderedRaw); err == nil {
		seg.RenderedAt = rendered
	}
	return &seg, nil
}
