package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/sells-group/georss/internal/db"
	"github.com/sells-group/georss/internal/vector"
)

// Postgres loads layers into a PostGIS table with COPY.
type Postgres struct {
	pool      db.Pool
	schema    string
	table     string
	batchSize int
}

// NewPostgres returns a sink writing to schema.table. An empty schema uses
// the connection's search_path. A batchSize of 0 loads each layer in a
// single COPY.
func NewPostgres(pool db.Pool, schema, table string, batchSize int) *Postgres {
	return &Postgres{pool: pool, schema: schema, table: table, batchSize: batchSize}
}

func (p *Postgres) ident() pgx.Identifier {
	if p.schema == "" {
		return pgx.Identifier{p.table}
	}
	return pgx.Identifier{p.schema, p.table}
}

// Columns returns the COPY column list for layer: fid, one text column per
// field, then geom.
func (p *Postgres) Columns(layer vector.Layer) []string {
	fieldCols := fieldColumns(layer.Fields())
	cols := make([]string, 0, len(fieldCols)+2)
	cols = append(cols, "fid")
	cols = append(cols, fieldCols...)
	return append(cols, "geom")
}

// fieldColumns maps field names to column names. A field named like one of
// the reserved fid and geom columns gets a numeric suffix (fid_1, geom_1).
func fieldColumns(fields []vector.FieldDefn) []string {
	used := map[string]bool{"fid": true, "geom": true}
	for _, f := range fields {
		used[strings.ToLower(f.Name)] = true
	}

	cols := make([]string, len(fields))
	for i, f := range fields {
		name := f.Name
		switch strings.ToLower(name) {
		case "fid", "geom":
			for n := 1; ; n++ {
				candidate := fmt.Sprintf("%s_%d", name, n)
				if !used[strings.ToLower(candidate)] {
					name = candidate
					used[strings.ToLower(candidate)] = true
					break
				}
			}
		}
		cols[i] = name
	}
	return cols
}

// EnsureTable creates the target table when it does not exist yet.
func (p *Postgres) EnsureTable(ctx context.Context, layer vector.Layer) error {
	defs := []string{"fid bigint"}
	for _, col := range fieldColumns(layer.Fields()) {
		defs = append(defs, pgx.Identifier{col}.Sanitize()+" text")
	}
	defs = append(defs, fmt.Sprintf("geom geometry(Geometry,%d)", SRID))

	sql := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", p.ident().Sanitize(), strings.Join(defs, ", "))
	if _, err := p.pool.Exec(ctx, sql); err != nil {
		return eris.Wrapf(err, "sink: create table %s", p.ident().Sanitize())
	}
	return nil
}

// Load creates the table if needed and COPYs every feature of layer.
func (p *Postgres) Load(ctx context.Context, layer vector.Layer) (int64, error) {
	if err := p.EnsureTable(ctx, layer); err != nil {
		return 0, err
	}

	rows, empty, err := p.rows(layer)
	if err != nil {
		return 0, err
	}
	if empty > 0 {
		zap.L().Debug("sink: features without encodable geometry",
			zap.String("component", "sink.postgres"),
			zap.String("layer", layer.Name()),
			zap.Int("count", empty),
		)
	}

	n, err := p.copy(ctx, p.Columns(layer), rows)
	if err != nil {
		return n, eris.Wrapf(err, "sink: load layer %s", layer.Name())
	}

	zap.L().Info("sink: layer loaded",
		zap.String("component", "sink.postgres"),
		zap.String("table", p.ident().Sanitize()),
		zap.Int64("rows", n),
	)
	return n, nil
}

// copy sends rows in one COPY when no batch size is set, in batches otherwise.
func (p *Postgres) copy(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	switch {
	case p.batchSize > 0:
		return db.CopyBatches(ctx, p.pool, p.ident(), columns, rows, p.batchSize)
	case p.schema == "":
		return db.CopyFrom(ctx, p.pool, p.table, columns, rows)
	default:
		return db.CopyFromSchema(ctx, p.pool, p.schema, p.table, columns, rows)
	}
}

// rows builds one COPY row per feature. Geometry is EWKB (NDR) or NULL.
func (p *Postgres) rows(layer vector.Layer) ([][]any, int, error) {
	fields := layer.Fields()
	features := drain(layer)
	rows := make([][]any, 0, len(features))
	var empty int

	for _, f := range features {
		row := make([]any, 0, len(fields)+2)
		row = append(row, f.FID)
		for _, fd := range fields {
			if v, ok := f.Fields[fd.Name]; ok {
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}

		var geomVal any
		if g := withSRID(f.Geometry); g != nil {
			b, err := ewkb.Marshal(g, ewkb.NDR)
			if err != nil {
				return nil, 0, eris.Wrapf(err, "sink: encode feature %d", f.FID)
			}
			geomVal = b
		} else {
			empty++
		}
		rows = append(rows, append(row, geomVal))
	}
	return rows, empty, nil
}
