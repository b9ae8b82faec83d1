package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const exportColumns = "id, mode, output_path, status, phase, percent, message, error_message, clip_count, expected_duration, output_duration, output_bytes, created_at, updated_at"

// CreateExport records a new running export.
func (s *Store) CreateExport(ctx context.Context, rec Export) (*Export, error) {
	if strings.TrimSpace(rec.ID) == "" {
		return nil, errors.New("export id is required")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	if rec.Status == "" {
		rec.Status = StatusRunning
	}
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO exports (
            id, mode, output_path, status, phase, percent, message,
            clip_count, expected_duration, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Mode,
		rec.OutputPath,
		rec.Status,
		nullableString(rec.Phase),
		rec.Percent,
		nullableString(rec.Message),
		rec.ClipCount,
		rec.ExpectedDuration,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert export: %w", err)
	}
	return s.GetExport(ctx, rec.ID)
}

// UpdateProgress stores the latest phase, percent and message of a running export.
func (s *Store) UpdateProgress(ctx context.Context, id, phase string, percent float64, message string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE exports SET phase = ?, percent = ?, message = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		nullableString(phase),
		percent,
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("update export progress: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update export progress %s: %w", id, ErrNotFound)
	}
	return nil
}

// Finish records the terminal outcome of an export.
func (s *Store) Finish(ctx context.Context, id string, outcome Outcome) error {
	if !outcome.Status.IsTerminal() {
		return fmt.Errorf("finish export %s: status %q is not terminal", id, outcome.Status)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE exports
         SET status = ?, phase = ?, percent = ?, message = ?, error_message = ?,
             output_duration = ?, output_bytes = ?, updated_at = ?
         WHERE id = ?`,
		outcome.Status,
		nullableString(outcome.Phase),
		outcome.Percent,
		nullableString(outcome.Message),
		nullableString(outcome.ErrorMessage),
		outcome.OutputDuration,
		outcome.OutputBytes,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish export: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("finish export %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetExport fetches an export by identifier. It returns ErrNotFound when absent.
func (s *Store) GetExport(ctx context.Context, id string) (*Export, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+exportColumns+` FROM exports WHERE id = ?`, id)
	rec, err := scanExport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get export %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get export: %w", err)
	}
	return rec, nil
}

// ListExports returns the most recent exports, newest first. A non-positive
// limit returns every record.
func (s *Store) ListExports(ctx context.Context, limit int) ([]*Export, error) {
	query := `SELECT ` + exportColumns + ` FROM exports ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	var exports []*Export
	for rows.Next() {
		rec, err := scanExport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		exports = append(exports, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exports: %w", err)
	}
	return exports, nil
}

// MarkInterrupted fails every export still marked running. It is called at
// startup, when no export from a previous process can still be alive.
func (s *Store) MarkInterrupted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE exports SET status = ?, error_message = ?, updated_at = ? WHERE status = ?`,
		StatusFailed,
		InterruptedReason,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted exports: %w", err)
	}
	return res.RowsAffected()
}

// PruneExports removes finished exports last updated before the cutoff.
func (s *Store) PruneExports(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM exports WHERE status != ? AND updated_at < ?`,
		StatusRunning,
		before.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("prune exports: %w", err)
	}
	return res.RowsAffected()
}

func scanExport(scanner interface{ Scan(dest ...any) error }) (*Export, error) {
	var (
		rec            Export
		statusStr      string
		phase          sql.NullString
		message        sql.NullString
		errorMessage   sql.NullString
		outputDuration sql.NullFloat64
		outputBytes    sql.NullInt64
		createdRaw     string
		updatedRaw     string
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.Mode,
		&rec.OutputPath,
		&statusStr,
		&phase,
		&rec.Percent,
		&message,
		&errorMessage,
		&rec.ClipCount,
		&rec.ExpectedDuration,
		&outputDuration,
		&outputBytes,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	rec.Status = Status(statusStr)
	rec.Phase = phase.String
	rec.Message = message.String
	rec.ErrorMessage = errorMessage.String
	rec.OutputDuration = outputDuration.Float64
	rec.OutputBytes = outputBytes.Int64
	if created, err := parseTimeString(createdRaw); err == nil {
		rec.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		rec.UpdatedAt = updated
	}
	return &rec, nil
}
