package db

import (
	"context"
	"database/sql"

	"github.com/memorio/memorio/internal/errors"
	"github.com/memorio/memorio/internal/memory"
)

const memoryColumns = "id, date, kind, title, content, data, created_at, updated_at"

// Insert stores a new memory in the database.
func Insert(ctx context.Context, db *sql.DB, m *memory.Memory) error {
	query := `
		INSERT INTO memories (` + memoryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		m.ID, m.Date, int(m.Kind), toNullString(m.Title), toNullString(m.Content),
		m.Data, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	return nil
}

// GetByID retrieves a memory by its ULID.
func GetByID(ctx context.Context, db *sql.DB, id string) (*memory.Memory, error) {
	query := `
		SELECT ` + memoryColumns + `
		FROM memories
		WHERE id = ?
	`

	row := db.QueryRowContext(ctx, query, id)
	m, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return m, nil
}

// DeleteByID removes a memory. Deletion is hard; the journal layer is
// responsible for cleaning up any media files the memory references.
func DeleteByID(ctx context.Context, db *sql.DB, id string) error {
	result, err := db.ExecContext(ctx, "DELETE FROM memories WHERE id = ?", id)
	if err != nil {
		return errors.NewInternal(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if affected == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

// ListBetween returns memories with date in [from, to), newest first.
func ListBetween(ctx context.Context, db *sql.DB, from, to int64, limit, offset int) ([]*memory.Memory, error) {
	query := `
		SELECT ` + memoryColumns + `
		FROM memories
		WHERE date >= ? AND date < ?
		ORDER BY date DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := db.QueryContext(ctx, query, from, to, limit, offset)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	return collectMemories(rows)
}

// ListAll returns all memories, newest first.
func ListAll(ctx context.Context, db *sql.DB, limit, offset int) ([]*memory.Memory, error) {
	query := `
		SELECT ` + memoryColumns + `
		FROM memories
		ORDER BY date DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	return collectMemories(rows)
}

// CountAll returns the total number of memories.
func CountAll(ctx context.Context, db *sql.DB) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM memories").Scan(&count); err != nil {
		return 0, errors.NewInternal(err)
	}
	return count, nil
}

// CountBetween returns the number of memories with date in [from, to).
func CountBetween(ctx context.Context, db *sql.DB, from, to int64) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM memories WHERE date >= ? AND date < ?"
	if err := db.QueryRowContext(ctx, query, from, to).Scan(&count); err != nil {
		return 0, errors.NewInternal(err)
	}
	return count, nil
}

// scanner abstracts sql.Row and sql.Rows for scanMemory.
type scanner interface {
	Scan(dest ...any) error
}

// scanMemory scans a single memory row.
func scanMemory(row scanner) (*memory.Memory, error) {
	var m memory.Memory
	var kind int
	var title, content sql.NullString
	var data []byte

	err := row.Scan(&m.ID, &m.Date, &kind, &title, &content, &data, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}

	m.Kind = memory.Kind(kind)
	m.Title = fromNullString(title)
	m.Content = fromNullString(content)
	if len(data) > 0 {
		m.Data = data
	}

	return &m, nil
}

// collectMemories drains rows into a slice.
func collectMemories(rows *sql.Rows) ([]*memory.Memory, error) {
	memories := make([]*memory.Memory, 0)
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return memories, nil
}

// toNullString converts *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
