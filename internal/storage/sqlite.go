package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a DocumentStore over a single documents table. Bodies
// are stored as JSON blobs, so collections stay schemaless like the
// upstream document database this stands in for.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			owner_id TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			body BLOB NOT NULL,
			PRIMARY KEY (collection, id)
		);

		CREATE INDEX IF NOT EXISTS idx_documents_owner
			ON documents(collection, owner_id, created_at);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRecord(ctx context.Context, collection, ownerID string, body any) (string, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("error marshaling body: %w", err)
	}

	id := uuid.NewString()
	now := s.now().UnixNano()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, owner_id, created_at, updated_at, body)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		collection, id, ownerID, now, now, raw)
	if err != nil {
		return "", fmt.Errorf("error inserting record: %w", err)
	}

	return id, nil
}

func (s *SQLiteStore) PutRecord(ctx context.Context, collection, id, ownerID string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error marshaling body: %w", err)
	}

	now := s.now().UnixNano()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, owner_id, created_at, updated_at, body)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (collection, id) DO UPDATE SET
			owner_id = excluded.owner_id,
			updated_at = excluded.updated_at,
			body = excluded.body`,
		collection, id, ownerID, now, now, raw)
	if err != nil {
		return fmt.Errorf("error upserting record: %w", err)
	}

	return nil
}

func (s *SQLiteStore) GetRecord(ctx context.Context, collection, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, created_at, updated_at, body
		 FROM documents WHERE collection = ? AND id = ?`,
		collection, id)

	return scanDocument(row)
}

func (s *SQLiteStore) UpdateRecord(ctx context.Context, collection, id string, partial map[string]any) error {
	doc, err := s.GetRecord(ctx, collection, id)
	if err != nil {
		return err
	}

	var body map[string]any
	if err := json.Unmarshal(doc.Body, &body); err != nil {
		return fmt.Errorf("error decoding stored body: %w", err)
	}
	for k, v := range partial {
		body[k] = v
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error marshaling merged body: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE documents SET body = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		raw, s.now().UnixNano(), collection, id)
	if err != nil {
		return fmt.Errorf("error updating record: %w", err)
	}

	return nil
}

func (s *SQLiteStore) BatchUpdate(ctx context.Context, collection string, updates []Update) error {
	for _, u := range updates {
		if err := s.UpdateRecord(ctx, collection, u.ID, u.Data); err != nil {
			return fmt.Errorf("error updating record %s: %w", u.ID, err)
		}
	}
	return nil
}

func (s *SQLiteStore) QueryByOwner(ctx context.Context, collection string, q Query) (*Page, error) {
	if q.PageSize <= 0 {
		q.PageSize = 20
	}

	query := `SELECT id, owner_id, created_at, updated_at, body
		 FROM documents WHERE collection = ? AND owner_id = ?`
	args := []any{collection, q.OwnerID}

	if q.Cursor != "" {
		createdAt, id, err := decodeCursor(q.Cursor)
		if err != nil {
			return nil, err
		}
		query += ` AND (created_at < ? OR (created_at = ? AND id < ?))`
		args = append(args, createdAt, createdAt, id)
	}

	// One extra row decides HasMore without a second query.
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, q.PageSize+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying records: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var created, updated int64
		if err := rows.Scan(&d.ID, &d.OwnerID, &created, &updated, &d.Body); err != nil {
			return nil, fmt.Errorf("error scanning record: %w", err)
		}
		d.CreatedAt = time.Unix(0, created)
		d.UpdatedAt = time.Unix(0, updated)
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	page := &Page{Items: docs}
	if len(docs) > q.PageSize {
		page.Items = docs[:q.PageSize]
		last := page.Items[len(page.Items)-1]
		page.Cursor = encodeCursor(last.CreatedAt.UnixNano(), last.ID)
		page.HasMore = true
	}

	return page, nil
}

func scanDocument(row *sql.Row) (*Document, error) {
	var d Document
	var created, updated int64
	err := row.Scan(&d.ID, &d.OwnerID, &created, &updated, &d.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error scanning record: %w", err)
	}
	d.CreatedAt = time.Unix(0, created)
	d.UpdatedAt = time.Unix(0, updated)
	return &d, nil
}

func encodeCursor(createdAt int64, id string) string {
	return strconv.FormatInt(createdAt, 10) + ":" + id
}

func decodeCursor(cursor string) (int64, string, error) {
	i := strings.IndexByte(cursor, ':')
	if i < 0 {
		return 0, "", fmt.Errorf("malformed cursor: %q", cursor)
	}
	createdAt, err := strconv.ParseInt(cursor[:i], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("malformed cursor: %q", cursor)
	}
	return createdAt, cursor[i+1:], nil
}
