package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aegiswhistle/aegis/internal/store"
	"github.com/aegiswhistle/aegis/pkg/models"
	"github.com/jackc/pgx/v5"
)

const reportColumns = `id, title, summary, full_transcript, categories, tags, status, priority,
  reported_by, assigned_to, audio_url, vapi_call_id, date_reported, created_at, updated_at`

// LoadAll returns every report, newest first, with its audit trail in recorded order.
func (s *Store) LoadAll(ctx context.Context) ([]models.Report, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+reportColumns+` FROM reports ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []store.ReportRow
	index := map[string]int{}
	for rows.Next() {
		var row store.ReportRow
		var createdAt, updatedAt int64
		if err := rows.Scan(&row.ID, &row.Title, &row.Summary, &row.FullTranscript, &row.Categories, &row.Tags,
			&row.Status, &row.Priority, &row.ReportedBy, &row.AssignedTo, &row.AudioURL, &row.VapiCallID,
			&row.DateReported, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		row.CreatedAt = time.Unix(createdAt, 0).UTC()
		row.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		index[row.ID] = len(list)
		list = append(list, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	arows, err := s.Pool.Query(ctx, `
SELECT report_id, action_type, description, performed_by, metadata::text, timestamp
FROM report_actions ORDER BY report_id, position ASC`)
	if err != nil {
		return nil, err
	}
	defer arows.Close()
	for arows.Next() {
		var reportID string
		var a store.ActionRow
		var meta *string
		if err := arows.Scan(&reportID, &a.ActionType, &a.Description, &a.PerformedBy, &meta, &a.Timestamp); err != nil {
			return nil, err
		}
		if meta != nil {
			if err := json.Unmarshal([]byte(*meta), &a.Metadata); err != nil {
				return nil, fmt.Errorf("report %s: action metadata: %w", reportID, err)
			}
		}
		if i, ok := index[reportID]; ok {
			list[i].Actions = append(list[i].Actions, a)
		}
	}
	if err := arows.Err(); err != nil {
		return nil, err
	}

	out := make([]models.Report, 0, len(list))
	for _, row := range list {
		out = append(out, store.FromRow(row))
	}
	return out, nil
}

// SaveAll upserts every report and rewrites its audit trail in one transaction.
// Rows absent from c are left in place.
func (s *Store) SaveAll(ctx context.Context, c []models.Report) error {
	now := s.now().UTC().Unix()
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	for _, r := range c {
		row := store.ToRow(r)
		if _, err := tx.Exec(ctx, `
INSERT INTO reports(`+reportColumns+`)
VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
ON CONFLICT (id) DO UPDATE SET
  title = excluded.title, summary = excluded.summary, full_transcript = excluded.full_transcript,
  categories = excluded.categories, tags = excluded.tags, status = excluded.status,
  priority = excluded.priority, reported_by = excluded.reported_by, assigned_to = excluded.assigned_to,
  audio_url = excluded.audio_url, date_reported = excluded.date_reported, updated_at = excluded.updated_at`,
			row.ID, row.Title, row.Summary, row.FullTranscript, row.Categories, row.Tags, row.Status, row.Priority,
			row.ReportedBy, row.AssignedTo, row.AudioURL, row.VapiCallID, row.DateReported, now); err != nil {
			return fmt.Errorf("save report %s: %w", row.ID, err)
		}
		if err := writeActions(ctx, tx, row.ID, row.Actions); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// InsertOne inserts r with the Medium priority default. An empty id is assigned by the database sequence.
func (s *Store) InsertOne(ctx context.Context, r models.Report) (string, error) {
	row := store.NewRow(r, s.now())
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	if row.ID == "" {
		err = tx.QueryRow(ctx, `
INSERT INTO reports(title, summary, full_transcript, categories, tags, status, priority,
  reported_by, assigned_to, audio_url, vapi_call_id, date_reported, created_at, updated_at)
VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING id`,
			row.Title, row.Summary, row.FullTranscript, row.Categories, row.Tags, row.Status, row.Priority,
			row.ReportedBy, row.AssignedTo, row.AudioURL, row.VapiCallID, row.DateReported,
			row.CreatedAt.Unix(), row.UpdatedAt.Unix()).Scan(&id)
	} else {
		err = tx.QueryRow(ctx, `
INSERT INTO reports(`+reportColumns+`)
VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING id`,
			row.ID, row.Title, row.Summary, row.FullTranscript, row.Categories, row.Tags, row.Status, row.Priority,
			row.ReportedBy, row.AssignedTo, row.AudioURL, row.VapiCallID, row.DateReported,
			row.CreatedAt.Unix(), row.UpdatedAt.Unix()).Scan(&id)
	}
	if err != nil {
		return "", err
	}
	if err := writeActions(ctx, tx, id, row.Actions); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// ListProfiles returns the rows of the profiles table.
func (s *Store) ListProfiles(ctx context.Context) ([]store.ProfileRow, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, email, full_name, role FROM profiles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.ProfileRow
	for rows.Next() {
		var p store.ProfileRow
		if err := rows.Scan(&p.ID, &p.Email, &p.FullName, &p.Role); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertProfile writes a directory user into profiles.
func (s *Store) UpsertProfile(ctx context.Context, u models.User) error {
	_, err := s.Pool.Exec(ctx, `
INSERT INTO profiles(id, email, full_name, role) VALUES($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET email = excluded.email, full_name = excluded.full_name, role = excluded.role`,
		u.ID, u.Email, u.Name, string(u.Role))
	return err
}

func writeActions(ctx context.Context, tx pgx.Tx, reportID string, actions []store.ActionRow) error {
	if _, err := tx.Exec(ctx, `DELETE FROM report_actions WHERE report_id = $1`, reportID); err != nil {
		return err
	}
	for i, a := range actions {
		var meta *string
		if a.Metadata != nil {
			b, err := json.Marshal(a.Metadata)
			if err != nil {
				return err
			}
			m := string(b)
			meta = &m
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO report_actions(report_id, position, action_type, description, performed_by, metadata, timestamp)
VALUES($1, $2, $3, $4, $5, $6::jsonb, $7)`,
			reportID, i, a.ActionType, a.Description, a.PerformedBy, meta, a.Timestamp); err != nil {
			return fmt.Errorf("save action %d of %s: %w", i, reportID, err)
		}
	}
	return nil
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
