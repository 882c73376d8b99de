// Package store persists conversation sessions and the processed-message
// idempotency log in a local SQLite file.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"wedding-guestbot/internal/engine"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	subject_id      TEXT PRIMARY KEY,
	state           TEXT NOT NULL DEFAULT 'NEW',
	phone_candidates TEXT,
	selected_phone  TEXT,
	guest_name      TEXT,
	selected_person TEXT,
	selected_type   TEXT,
	selected_family TEXT,
	num_guests      INTEGER,
	likely_arrive   INTEGER,
	updated_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS processed_messages (
	message_id   TEXT PRIMARY KEY,
	processed_at INTEGER NOT NULL
);
`

// SQLStore is an engine.SessionStore backed by SQLite via sqlx. It also
// carries the processed-message table the transport uses for deduplication.
type SQLStore struct {
	db *sqlx.DB
}

// Open opens (or creates) the SQLite database at path and applies the schema.
func Open(path string) (*SQLStore, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent subjects and keeps :memory: databases
	// on one connection in tests.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply session schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type sessionRow struct {
	SubjectID       string         `db:"subject_id"`
	State           string         `db:"state"`
	PhoneCandidates sql.NullString `db:"phone_candidates"`
	SelectedPhone   sql.NullString `db:"selected_phone"`
	GuestName       sql.NullString `db:"guest_name"`
	SelectedPerson  sql.NullString `db:"selected_person"`
	SelectedType    sql.NullString `db:"selected_type"`
	SelectedFamily  sql.NullString `db:"selected_family"`
	NumGuests       sql.NullInt64  `db:"num_guests"`
	LikelyArrive    sql.NullBool   `db:"likely_arrive"`
	UpdatedAt       int64          `db:"updated_at"`
}

// Get loads the subject's session, or returns (nil, nil) when absent.
func (s *SQLStore) Get(ctx context.Context, subjectID string) (*engine.Session, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM sessions WHERE subject_id = ?`, subjectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	return row.toSession()
}

// Put upserts the session.
func (s *SQLStore) Put(ctx context.Context, sess *engine.Session) error {
	row, err := toRow(sess)
	if err != nil {
		return err
	}
	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO sessions (
			subject_id, state, phone_candidates, selected_phone, guest_name,
			selected_person, selected_type, selected_family, num_guests,
			likely_arrive, updated_at
		) VALUES (
			:subject_id, :state, :phone_candidates, :selected_phone, :guest_name,
			:selected_person, :selected_type, :selected_family, :num_guests,
			:likely_arrive, :updated_at
		)
		ON CONFLICT(subject_id) DO UPDATE SET
			state = excluded.state,
			phone_candidates = excluded.phone_candidates,
			selected_phone = excluded.selected_phone,
			guest_name = excluded.guest_name,
			selected_person = excluded.selected_person,
			selected_type = excluded.selected_type,
			selected_family = excluded.selected_family,
			num_guests = excluded.num_guests,
			likely_arrive = excluded.likely_arrive,
			updated_at = excluded.updated_at`, row)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// Delete removes the subject's session.
func (s *SQLStore) Delete(ctx context.Context, subjectID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE subject_id = ?`, subjectID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Count reports how many sessions exist. Used by the operator CLI.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM sessions`); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

// MarkProcessed records a transport message id and reports whether it was
// seen for the first time. Redelivered messages return false and must be
// dropped by the caller.
func (s *SQLStore) MarkProcessed(ctx context.Context, messageID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO processed_messages (message_id, processed_at) VALUES (?, ?)`,
		messageID, time.Now().UnixMilli())
	if err != nil {
		return false, fmt.Errorf("mark message processed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark message processed: %w", err)
	}
	return n > 0, nil
}

// CleanupProcessedBefore drops idempotency entries older than the cutoff so
// the table does not grow forever. Returns the number of removed rows.
func (s *SQLStore) CleanupProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM processed_messages WHERE processed_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("cleanup processed messages: %w", err)
	}
	return res.RowsAffected()
}

func toRow(sess *engine.Session) (*sessionRow, error) {
	row := &sessionRow{
		SubjectID: sess.SubjectID,
		State:     string(sess.State),
		UpdatedAt: sess.UpdatedAt.UnixMilli(),
	}
	if len(sess.PhoneCandidates) > 0 {
		data, err := json.Marshal(sess.PhoneCandidates)
		if err != nil {
			return nil, fmt.Errorf("encode phone candidates: %w", err)
		}
		row.PhoneCandidates = sql.NullString{String: string(data), Valid: true}
	}
	row.SelectedPhone = nullString(sess.SelectedPhone)
	row.GuestName = nullString(sess.GuestName)
	row.SelectedPerson = nullString(sess.SelectedPerson)
	row.SelectedType = nullString(sess.SelectedType)
	row.SelectedFamily = nullString(sess.SelectedFamily)
	if sess.NumGuests > 0 {
		row.NumGuests = sql.NullInt64{Int64: int64(sess.NumGuests), Valid: true}
	}
	if sess.Likely != nil {
		row.LikelyArrive = sql.NullBool{Bool: *sess.Likely, Valid: true}
	}
	return row, nil
}

func (r *sessionRow) toSession() (*engine.Session, error) {
	sess := &engine.Session{
		SubjectID:      r.SubjectID,
		State:          engine.State(r.State),
		SelectedPhone:  r.SelectedPhone.String,
		GuestName:      r.GuestName.String,
		SelectedPerson: r.SelectedPerson.String,
		SelectedType:   r.SelectedType.String,
		SelectedFamily: r.SelectedFamily.String,
		NumGuests:      int(r.NumGuests.Int64),
		UpdatedAt:      time.UnixMilli(r.UpdatedAt),
	}
	if r.PhoneCandidates.Valid && r.PhoneCandidates.String != "" {
		if err := json.Unmarshal([]byte(r.PhoneCandidates.String), &sess.PhoneCandidates); err != nil {
			return nil, fmt.Errorf("decode phone candidates: %w", err)
		}
	}
	if r.LikelyArrive.Valid {
		v := r.LikelyArrive.Bool
		sess.Likely = &v
	}
	return sess, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
