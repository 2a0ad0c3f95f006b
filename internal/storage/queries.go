package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the statements run against the entries table.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Entry is the persisted row. Date is the UTC text form.
type Entry struct {
	ID   int64
	Date string
	Name string
	Cost float64
}

const insertEntry = `INSERT INTO entries (date, name, cost) VALUES (?, ?, ?)`

type InsertEntryParams struct {
	Date string
	Name string
	Cost float64
}

func (q *Queries) InsertEntry(ctx context.Context, arg InsertEntryParams) (sql.Result, error) {
	return q.db.ExecContext(ctx, insertEntry, arg.Date, arg.Name, arg.Cost)
}

const listEntries = `SELECT id, date, name, cost FROM entries ORDER BY id LIMIT ?`

func (q *Queries) ListEntries(ctx context.Context, limit int64) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, listEntries, limit)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

const listEntriesBetween = `SELECT id, date, name, cost FROM entries
WHERE date BETWEEN ? AND ?
ORDER BY id LIMIT ?`

type ListEntriesBetweenParams struct {
	From  string
	To    string
	Limit int64
}

func (q *Queries) ListEntriesBetween(ctx context.Context, arg ListEntriesBetweenParams) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, listEntriesBetween, arg.From, arg.To, arg.Limit)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

const searchEntries = `SELECT id, date, name, cost FROM entries
WHERE instr(name, ?) > 0
ORDER BY id LIMIT ?`

func (q *Queries) SearchEntries(ctx context.Context, text string, limit int64) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, searchEntries, text, limit)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

const searchEntriesBetween = `SELECT id, date, name, cost FROM entries
WHERE instr(name, ?) > 0 AND date BETWEEN ? AND ?
ORDER BY id LIMIT ?`

type SearchEntriesBetweenParams struct {
	Text  string
	From  string
	To    string
	Limit int64
}

func (q *Queries) SearchEntriesBetween(ctx context.Context, arg SearchEntriesBetweenParams) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, searchEntriesBetween, arg.Text, arg.From, arg.To, arg.Limit)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

const getLatestEntry = `SELECT id, date, name, cost FROM entries ORDER BY id DESC LIMIT 1`

func (q *Queries) GetLatestEntry(ctx context.Context) (Entry, error) {
	row := q.db.QueryRowContext(ctx, getLatestEntry)
	var e Entry
	err := row.Scan(&e.ID, &e.Date, &e.Name, &e.Cost)
	return e, err
}

const deleteEntry = `DELETE FROM entries WHERE id = ?`

func (q *Queries) DeleteEntry(ctx context.Context, id int64) (sql.Result, error) {
	return q.db.ExecContext(ctx, deleteEntry, id)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()
	var items []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Date, &e.Name, &e.Cost); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
