package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/flemzord/voxscribe/internal/security"
	"github.com/flemzord/voxscribe/internal/voice"
)

const (
	defaultRecentLimit = 100
	maxRecentLimit     = 5000
)

// Store persists voice records in SQLite.
type Store struct {
	db        *sql.DB
	storeText bool
	redactor  *security.Redactor
}

var (
	_ voice.Recorder = (*Store)(nil)
	_ voice.History  = (*Store)(nil)
)

// Record inserts r. Transcript text is dropped unless the store keeps it,
// and error strings pass through the redactor.
func (s *Store) Record(ctx context.Context, r voice.Record) error {
	text := ""
	if s.storeText {
		text = r.Text
	}
	at := r.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (at, channel, chat_id, message_id, sender_id, outcome,
		                    audio_ns, elapsed_ns, text_length, text,
		                    error_kind, error, reply_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		at.UnixNano(), r.Channel, r.ChatID, r.MessageID, r.SenderID, string(r.Outcome),
		int64(r.AudioDuration), int64(r.Elapsed), r.TextLength, text,
		r.ErrorKind, s.redact(r.Error), s.redact(r.ReplyError),
	)
	if err != nil {
		return fmt.Errorf("sqlite: record event: %w", err)
	}
	return nil
}

func (s *Store) redact(v string) string {
	if s.redactor == nil || v == "" {
		return v
	}
	return s.redactor.Redact(v)
}

// Recent returns records matching q, newest first.
func (s *Store) Recent(ctx context.Context, q voice.Query) ([]voice.Record, error) {
	var (
		where []string
		args  []any
	)
	if q.Channel != "" {
		where = append(where, "channel = ?")
		args = append(args, q.Channel)
	}
	if q.ChatID != "" {
		where = append(where, "chat_id = ?")
		args = append(args, q.ChatID)
	}
	if q.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, string(q.Outcome))
	}
	if !q.Since.IsZero() {
		where = append(where, "at >= ?")
		args = append(args, q.Since.UnixNano())
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	limit = min(limit, maxRecentLimit)

	var b strings.Builder
	b.WriteString(`SELECT at, channel, chat_id, message_id, sender_id, outcome,
		audio_ns, elapsed_ns, text_length, text, error_kind, error, reply_error
		FROM events`)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY at DESC, id DESC LIMIT ?")
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []voice.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: query events rows: %w", err)
	}
	return out, nil
}

// Prune deletes records older than before and reports how many went.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE at < ?", before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("sqlite: prune events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: prune events: %w", err)
	}
	return n, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (voice.Record, error) {
	var (
		rec              voice.Record
		at, audio, spent int64
		outcome          string
	)
	err := sc.Scan(&at, &rec.Channel, &rec.ChatID, &rec.MessageID, &rec.SenderID, &outcome,
		&audio, &spent, &rec.TextLength, &rec.Text, &rec.ErrorKind, &rec.Error, &rec.ReplyError)
	if err != nil {
		return voice.Record{}, fmt.Errorf("sqlite: scan event: %w", err)
	}
	rec.At = time.Unix(0, at)
	rec.Outcome = voice.Outcome(outcome)
	rec.AudioDuration = time.Duration(audio)
	rec.Elapsed = time.Duration(spent)
	return rec, nil
}
