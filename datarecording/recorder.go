// Package datarecording persists simulation data into SQLite files and reads
// it back for replay.
package datarecording

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/tempo/idgen"
)

// ErrInvalidEntry is returned when an entry cannot be mapped to a table row.
var ErrInvalidEntry = errors.New("datarecording: entry must be a flat struct")

// ErrUnknownTable is returned when inserting into a table that has not been
// created.
var ErrUnknownTable = errors.New("datarecording: unknown table")

// ErrFileExists is returned when the recording file is already present.
var ErrFileExists = errors.New("datarecording: file already exists")

const defaultBatchSize = 100000

// DataRecorder is a backend that can record and store data
type DataRecorder interface {
	// CreateTable creates a new table whose columns follow the fields of
	// sampleEntry.
	CreateTable(tableName string, sampleEntry any) error

	// InsertData buffers an entry for a table that already exists.
	InsertData(tableName string, entry any) error

	// ListTables returns the names of all created tables, sorted.
	ListTables() []string

	// Flush writes all buffered entries into the database.
	Flush() error

	// Close flushes and releases the database.
	Close() error
}

// New creates a DataRecorder that writes into path. A ".sqlite3" suffix is
// added when missing. An empty path picks a unique name.
func New(path string) (DataRecorder, error) {
	if path == "" {
		path = idgen.NewSessionName("tempo_recording")
	}

	filename := path
	if !strings.HasSuffix(filename, ".sqlite3") {
		filename += ".sqlite3"
	}

	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrFileExists, filename)
	}

	db, err := Open(filename)
	if err != nil {
		return nil, err
	}

	w := newWriter(db)
	w.dbName = filename
	w.ownsDB = true

	return w, nil
}

// NewWithDB creates a DataRecorder on an already opened database. The caller
// keeps ownership of db.
func NewWithDB(db *sql.DB) DataRecorder {
	return newWriter(db)
}

// Open opens a SQLite file with the pragmas the recorder expects.
func Open(filename string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("datarecording: open %s: %w", filename, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("datarecording: ping %s: %w", filename, err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("datarecording: %s: %w", p, err)
		}
	}

	return db, nil
}

type table struct {
	structType reflect.Type
	entries    []any
}

// sqliteWriter is the writer that writes data into SQLite database
type sqliteWriter struct {
	mu sync.Mutex
	db *sql.DB

	dbName     string
	ownsDB     bool
	closed     bool
	tables     map[string]*table
	batchSize  int
	entryCount int
	atExit     atexit.HandlerID
}

// newWriter registers a flush at exit that lives until Close.
func newWriter(db *sql.DB) *sqliteWriter {
	w := &sqliteWriter{
		db:        db,
		batchSize: defaultBatchSize,
		tables:    make(map[string]*table),
	}
	w.atExit = atexit.Register(func() { _ = w.Flush() })

	return w
}

func sqlType(kind reflect.Kind) (string, bool) {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return "INTEGER", true
	case reflect.Float32, reflect.Float64:
		return "REAL", true
	case reflect.String:
		return "TEXT", true
	default:
		return "", false
	}
}

func columns(sampleEntry any) ([]string, error) {
	if sampleEntry == nil || !structs.IsStruct(sampleEntry) {
		return nil, ErrInvalidEntry
	}

	st := reflect.TypeOf(sampleEntry)
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}

	names := structs.Names(sampleEntry)
	cols := make([]string, 0, len(names))

	for _, name := range names {
		field, _ := st.FieldByName(name)

		typ, ok := sqlType(field.Type.Kind())
		if !ok {
			return nil, fmt.Errorf("%w: field %s has kind %s",
				ErrInvalidEntry, name, field.Type.Kind())
		}

		cols = append(cols, name+" "+typ)
	}

	return cols, nil
}

func (t *sqliteWriter) CreateTable(tableName string, sampleEntry any) error {
	cols, err := columns(sampleEntry)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	createTableSQL := `CREATE TABLE IF NOT EXISTS ` + tableName +
		` (` + "\n\t" + strings.Join(cols, ", \n\t") + "\n" + `);`
	if _, err := t.db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("datarecording: create table %s: %w", tableName, err)
	}

	t.tables[tableName] = &table{
		structType: reflect.TypeOf(sampleEntry),
	}

	return nil
}

func (t *sqliteWriter) InsertData(tableName string, entry any) error {
	t.mu.Lock()

	tbl, exists := t.tables[tableName]
	if !exists {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownTable, tableName)
	}

	if reflect.TypeOf(entry) != tbl.structType {
		t.mu.Unlock()
		return fmt.Errorf("%w: %T does not match table %s",
			ErrInvalidEntry, entry, tableName)
	}

	tbl.entries = append(tbl.entries, entry)
	t.entryCount++
	full := t.entryCount >= t.batchSize

	t.mu.Unlock()

	if full {
		return t.Flush()
	}

	return nil
}

func (t *sqliteWriter) ListTables() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	tables := make([]string, 0, len(t.tables))
	for name := range t.tables {
		tables = append(tables, name)
	}

	slices.Sort(tables)

	return tables
}

func (t *sqliteWriter) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.entryCount == 0 || t.closed {
		return nil
	}

	tx, err := t.db.Begin()
	if err != nil {
		return fmt.Errorf("datarecording: begin: %w", err)
	}

	for _, name := range t.sortedTableNames() {
		tbl := t.tables[name]
		if len(tbl.entries) == 0 {
			continue
		}

		if err := insertAll(tx, name, tbl.entries); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("datarecording: commit: %w", err)
	}

	// Buffers survive a failed transaction so a later Flush can retry.
	for _, tbl := range t.tables {
		tbl.entries = nil
	}
	t.entryCount = 0

	return nil
}

func (t *sqliteWriter) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}

	t.closed = true
	_ = t.atExit.Cancel()

	if !t.ownsDB {
		return nil
	}

	return t.db.Close()
}

func (t *sqliteWriter) sortedTableNames() []string {
	names := make([]string, 0, len(t.tables))
	for name := range t.tables {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

func insertAll(tx *sql.Tx, tableName string, entries []any) error {
	placeholders := make([]string, len(structs.Names(entries[0])))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	sqlStr := "INSERT INTO " + tableName +
		" VALUES (" + strings.Join(placeholders, ", ") + ")"

	stmt, err := tx.Prepare(sqlStr)
	if err != nil {
		return fmt.Errorf("datarecording: prepare %s: %w", tableName, err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		if _, err := stmt.Exec(structs.Values(entry)...); err != nil {
			return fmt.Errorf("datarecording: insert into %s: %w",
				tableName, err)
		}
	}

	return nil
}
