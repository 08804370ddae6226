package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/themepilot/themepilot/internal/core"
)

// Record is one persisted deployment.
type Record struct {
	ID          string        `json:"id"`
	Environment string        `json:"environment"`
	ThemeID     int64         `json:"theme_id"`
	ThemeName   string        `json:"theme_name"`
	Version     string        `json:"version,omitempty"`
	BackupID    int64         `json:"backup_id,omitempty"`
	BackupName  string        `json:"backup_name,omitempty"`
	Succeeded   bool          `json:"succeeded"`
	FailedStage string        `json:"failed_stage,omitempty"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`
	StartedAt   time.Time     `json:"started_at"`
}

// SaveDeployment persists a deployment result.
func (d *DB) SaveDeployment(result *core.Result) error {
	id := fmt.Sprintf("deploy-%s-%d", result.StartedAt.UTC().Format("20060102-150405"), result.TargetID)

	_, err := d.db.Exec(
		`INSERT INTO deployments
			(id, environment, theme_id, theme_name, version, backup_id, backup_name,
			 succeeded, failed_stage, error, duration_ms, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			succeeded = excluded.succeeded,
			failed_stage = excluded.failed_stage,
			error = excluded.error,
			duration_ms = excluded.duration_ms`,
		id, result.Environment, result.TargetID, result.TargetName, result.Version,
		result.BackupID, result.BackupName,
		boolToInt(result.Succeeded), result.FailedStage, result.ErrorMessage(),
		result.Duration.Milliseconds(), result.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save deployment %s: %w", id, err)
	}
	return nil
}

// ListDeployments returns the most recent deployments, newest first.
// limit <= 0 means no limit.
func (d *DB) ListDeployments(limit int) ([]Record, error) {
	query := `SELECT id, environment, theme_id, theme_name, version, backup_id, backup_name,
			succeeded, failed_stage, error, duration_ms, started_at
		FROM deployments ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list deployments: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetDeployment retrieves a deployment by id. Returns nil when absent.
func (d *DB) GetDeployment(id string) (*Record, error) {
	row := d.db.QueryRow(
		`SELECT id, environment, theme_id, theme_name, version, backup_id, backup_name,
			succeeded, failed_stage, error, duration_ms, started_at
		FROM deployments WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get deployment %s: %w", id, err)
	}
	return &rec, nil
}

// PruneDeployments deletes records older than the cutoff and returns
// how many were removed.
func (d *DB) PruneDeployments(olderThan time.Time) (int64, error) {
	res, err := d.db.Exec("DELETE FROM deployments WHERE started_at < ?", olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune deployments: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var succeeded int
	var durationMS int64
	err := row.Scan(
		&rec.ID, &rec.Environment, &rec.ThemeID, &rec.ThemeName, &rec.Version,
		&rec.BackupID, &rec.BackupName, &succeeded, &rec.FailedStage, &rec.Error,
		&durationMS, &rec.StartedAt,
	)
	if err != nil {
		return Record{}, err
	}
	rec.Succeeded = succeeded != 0
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	return rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ core.HistoryStore = (*DB)(nil)
