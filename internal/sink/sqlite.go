package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/georss/internal/vector"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLite stores features in a single table of a SQLite database using
// modernc.org/sqlite. Attributes are kept as a JSON object.
type SQLite struct {
	db    *sql.DB
	table string
}

// NewSQLite opens a SQLite database at dsn and configures WAL mode.
func NewSQLite(dsn, table string) (*SQLite, error) {
	if !tableName.MatchString(table) {
		return nil, eris.Errorf("sink: invalid sqlite table name %q", table)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sink: sqlite open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sink: sqlite exec %s", pragma)
		}
	}
	return &SQLite{db: db, table: table}, nil
}

// Migrate creates the feature table.
func (s *SQLite) Migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	layer     TEXT NOT NULL,
	fid       INTEGER NOT NULL,
	props     TEXT NOT NULL,
	wkb       BLOB,
	geojson   TEXT,
	loaded_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (layer, fid)
);`, s.table)
	_, err := s.db.ExecContext(ctx, ddl)
	return eris.Wrap(err, "sink: sqlite migrate")
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// Load writes every feature of layer in one transaction. Features already
// present for the same layer and FID are replaced.
func (s *SQLite) Load(ctx context.Context, layer vector.Layer) (int64, error) {
	if err := s.Migrate(ctx); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sink: sqlite begin")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (layer, fid, props, wkb, geojson) VALUES (?, ?, ?, ?, ?)", s.table))
	if err != nil {
		return 0, eris.Wrap(err, "sink: sqlite prepare")
	}
	defer func() { _ = stmt.Close() }()

	var n int64
	for _, f := range drain(layer) {
		props, err := json.Marshal(f.Fields)
		if err != nil {
			return 0, eris.Wrapf(err, "sink: marshal feature %d", f.FID)
		}

		var wkbVal, jsonVal any
		if f.Geometry != nil {
			b, err := wkb.Marshal(f.Geometry, wkb.NDR)
			if err != nil {
				return 0, eris.Wrapf(err, "sink: encode feature %d", f.FID)
			}
			gj, err := geojson.Marshal(f.Geometry)
			if err != nil {
				return 0, eris.Wrapf(err, "sink: geojson feature %d", f.FID)
			}
			wkbVal, jsonVal = b, string(gj)
		}

		if _, err := stmt.ExecContext(ctx, layer.Name(), f.FID, string(props), wkbVal, jsonVal); err != nil {
			return 0, eris.Wrapf(err, "sink: insert feature %d", f.FID)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sink: sqlite commit")
	}

	zap.L().Info("sink: layer loaded",
		zap.String("component", "sink.sqlite"),
		zap.String("table", s.table),
		zap.Int64("rows", n),
	)
	return n, nil
}
