package datarecording

import (
	"context"
	"database/sql"
	"fmt"
)

// Reader reads recorded data back from a SQLite file.
type Reader struct {
	db     *sql.DB
	ownsDB bool
}

// NewReader opens a recording file in read-only mode.
func NewReader(filename string) (*Reader, error) {
	db, err := sql.Open("sqlite3", "file:"+filename+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("datarecording: open %s: %w", filename, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("datarecording: open %s: %w", filename, err)
	}

	return &Reader{db: db, ownsDB: true}, nil
}

// NewReaderWithDB creates a Reader on an already opened database.
func NewReaderWithDB(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// ListTables returns the tables present in the file, sorted by name.
func (r *Reader) ListTables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}

		tables = append(tables, name)
	}

	return tables, rows.Err()
}

// Runs returns the run ids in the order they were first recorded.
func (r *Reader) Runs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT RunID FROM "+FiredEventsTable+
			" GROUP BY RunID ORDER BY MIN(rowid)")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []string

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}

		runs = append(runs, id)
	}

	return runs, rows.Err()
}

// ReadFiredEvents returns every fired event in the file, run by run and in
// sequence order within a run.
func (r *Reader) ReadFiredEvents(ctx context.Context) ([]EventRow, error) {
	return r.queryEvents(ctx,
		"SELECT * FROM "+FiredEventsTable+" ORDER BY rowid")
}

// ReadRun returns the fired events of one run in sequence order.
func (r *Reader) ReadRun(ctx context.Context, runID string) ([]EventRow, error) {
	return r.queryEvents(ctx,
		"SELECT * FROM "+FiredEventsTable+" WHERE RunID = ? ORDER BY Seq",
		runID)
}

func (r *Reader) queryEvents(
	ctx context.Context,
	query string,
	args ...any,
) ([]EventRow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRow

	for rows.Next() {
		var row EventRow

		err := rows.Scan(&row.RunID, &row.Seq, &row.EventID, &row.Class,
			&row.Target, &row.TimeRaw, &row.Seconds)
		if err != nil {
			return nil, err
		}

		out = append(out, row)
	}

	return out, rows.Err()
}

// Close releases the database if the reader opened it.
func (r *Reader) Close() error {
	if !r.ownsDB {
		return nil
	}

	return r.db.Close()
}
