// Copyright 2026 The runchart Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package db provides the high-level database interface for storing
// capture runs.
package db

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/runchart/runchart/runfmt"
)

// DB stores uploaded capture runs. It's safe for concurrent use by
// multiple goroutines.
type DB struct {
	sql *sql.DB // underlying database connection
	// prepared statements
	insertRun   *sql.Stmt
	insertLabel *sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a
// connection to driverName. This is used by the sqlite3 package to
// configure the connection pool. It must be called from an init
// function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Runs (
	RunID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	SessionID VARCHAR(255),
	Name VARCHAR(255),
	UploadTime VARCHAR(40),
	Content BLOB
);
CREATE TABLE IF NOT EXISTS RunLabels (
	RunID BIGINT UNSIGNED,
	Name VARCHAR(255),
	Value VARCHAR(8192),
{{if not .sqlite3}}
	Index (Name(100), Value(100)),
{{end}}
	FOREIGN KEY (RunID) REFERENCES Runs(RunID) ON UPDATE CASCADE ON DELETE CASCADE
);
{{if .sqlite3}}
CREATE INDEX IF NOT EXISTS RunLabelsNameValue ON RunLabels(Name, Value);
{{end}}
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements() error {
	var err error
	db.insertRun, err = db.sql.Prepare("INSERT INTO Runs(SessionID, Name, UploadTime, Content) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	db.insertLabel, err = db.sql.Prepare("INSERT INTO RunLabels(RunID, Name, Value) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	return nil
}

// RunInfo describes one stored run without its sample content.
type RunInfo struct {
	ID         string `json:"id"`
	SessionID  string `json:"session"`
	Name       string `json:"name"`
	UploadTime string `json:"uploadTime"`
}

// InsertRun stores run and returns its assigned ID. The run's
// samples, catalog and events are serialized as capture CSV; the
// session and name are additionally stored as queryable labels.
func (db *DB) InsertRun(ctx context.Context, run *runfmt.Run) (id string, err error) {
	var buf bytes.Buffer
	if err := runfmt.WriteRun(&buf, run); err != nil {
		return "", fmt.Errorf("serialize run: %v", err)
	}

	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := tx.StmtContext(ctx, db.insertRun).ExecContext(ctx, run.SessionID, run.Name, now, buf.Bytes())
	if err != nil {
		return "", err
	}
	i, err := res.LastInsertId()
	if err != nil {
		return "", err
	}
	for _, label := range [][2]string{{"session", run.SessionID}, {"name", run.Name}} {
		if label[1] == "" {
			continue
		}
		if _, err := tx.StmtContext(ctx, db.insertLabel).ExecContext(ctx, i, label[0], label[1]); err != nil {
			return "", err
		}
	}
	return fmt.Sprint(i), nil
}

// ListRuns lists stored runs, newest first. A non-empty sessionID
// restricts the listing to one session.
func (db *DB) ListRuns(ctx context.Context, sessionID string) ([]RunInfo, error) {
	q := "SELECT RunID, SessionID, Name, UploadTime FROM Runs"
	var args []interface{}
	if sessionID != "" {
		q += " WHERE SessionID = ?"
		args = append(args, sessionID)
	}
	q += " ORDER BY RunID DESC"

	rows, err := db.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []RunInfo
	for rows.Next() {
		var (
			id   int64
			info RunInfo
		)
		if err := rows.Scan(&id, &info.SessionID, &info.Name, &info.UploadTime); err != nil {
			return nil, err
		}
		info.ID = fmt.Sprint(id)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// LoadRun reads one stored run back, parsing its capture CSV. The
// returned run's ID is "r" followed by the storage ID, which keeps
// namespaced metric keys unique across the runs of one merge.
func (db *DB) LoadRun(ctx context.Context, id string) (*runfmt.Run, error) {
	var (
		session, name string
		content       []byte
	)
	err := db.sql.QueryRowContext(ctx,
		"SELECT SessionID, Name, Content FROM Runs WHERE RunID = ?", id).
		Scan(&session, &name, &content)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no run with id %q", id)
	}
	if err != nil {
		return nil, err
	}
	run, err := runfmt.ReadRun(bytes.NewReader(content), name)
	if err != nil {
		return nil, fmt.Errorf("stored run %q is malformed: %v", id, err)
	}
	run.ID = "r" + id
	run.SessionID = session
	return run, nil
}

// Close closes the database connections, releasing any open
// resources.
func (db *DB) Close() error {
	if err := db.insertRun.Close(); err != nil {
		return err
	}
	if err := db.insertLabel.Close(); err != nil {
		return err
	}
	return db.sql.Close()
}
