package sink

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/sells-group/georss/internal/vector"
)

func testLayer() vector.Layer {
	fields := []vector.FieldDefn{
		{Name: "title", Type: vector.FieldString},
		{Name: "pubDate", Type: vector.FieldDateTime},
	}
	features := []*vector.Feature{
		{
			FID:      1,
			Geometry: geom.NewPointFlat(geom.XY, []float64{-77.03, 38.89}),
			Fields:   map[string]string{"title": "dc", "pubDate": "Tue, 01 Oct 2024 10:00:00 +0000"},
		},
		{
			FID:    2,
			Fields: map[string]string{"title": "no geometry"},
		},
	}
	return vector.NewMemLayer("georss", vector.GeomPoint, fields, features)
}

const createSQL = `CREATE TABLE IF NOT EXISTS "feeds"."quakes" (fid bigint, "title" text, "pubDate" text, geom geometry(Geometry,4326))`

func TestPostgres_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta(createSQL)).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"feeds", "quakes"}, []string{"fid", "title", "pubDate", "geom"}).
		WillReturnResult(2)

	n, err := NewPostgres(mock, "feeds", "quakes", 0).Load(context.Background(), testLayer())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_EnsureTableError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta(createSQL)).WillReturnError(fmt.Errorf("permission denied"))

	_, err = NewPostgres(mock, "feeds", "quakes", 0).Load(context.Background(), testLayer())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create table")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Rows(t *testing.T) {
	p := NewPostgres(nil, "", "quakes", 0)
	rows, empty, err := p.rows(testLayer())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, empty)

	assert.Equal(t, []any{int64(2), "no geometry", nil, nil}, rows[1])

	b, ok := rows[0][3].([]byte)
	require.True(t, ok)
	g, err := ewkb.Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, SRID, g.SRID())
	assert.Equal(t, []float64{-77.03, 38.89}, g.FlatCoords())

	assert.Equal(t, []string{"fid", "title", "pubDate", "geom"}, p.Columns(testLayer()))
	assert.Equal(t, pgx.Identifier{"quakes"}, p.ident())
}

func TestSQLite_Load(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "features.db"), "features")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck

	ctx := context.Background()
	n, err := s.Load(ctx, testLayer())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// Reloading replaces rows keyed by layer and fid.
	_, err = s.Load(ctx, testLayer())
	require.NoError(t, err)

	var count int
	require.NoError(t, s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM features").Scan(&count))
	assert.Equal(t, 2, count)

	var props, gj string
	require.NoError(t, s.db.QueryRowContext(ctx,
		"SELECT props, geojson FROM features WHERE fid = 1").Scan(&props, &gj))
	assert.JSONEq(t, `{"title":"dc","pubDate":"Tue, 01 Oct 2024 10:00:00 +0000"}`, props)
	assert.JSONEq(t, `{"type":"Point","coordinates":[-77.03,38.89]}`, gj)

	var wkbVal []byte
	require.NoError(t, s.db.QueryRowContext(ctx, "SELECT wkb FROM features WHERE fid = 2").Scan(&wkbVal))
	assert.Nil(t, wkbVal)
}

func TestNewSQLite_InvalidTable(t *testing.T) {
	_, err := NewSQLite(filepath.Join(t.TempDir(), "x.db"), "drop table;")
	require.Error(t, err)
}

func TestPostgres_ReservedFieldNames(t *testing.T) {
	fields := []vector.FieldDefn{{Name: "fid"}, {Name: "geom"}, {Name: "title"}, {Name: "fid_1"}}
	layer := vector.NewMemLayer("georss", vector.GeomPoint, fields, []*vector.Feature{
		{FID: 7, Fields: map[string]string{"fid": "a", "geom": "b", "title": "c", "fid_1": "d"}},
	})

	p := NewPostgres(nil, "", "items", 0)
	assert.Equal(t, []string{"fid", "fid_2", "geom_1", "title", "fid_1", "geom"}, p.Columns(layer))

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	create := `CREATE TABLE IF NOT EXISTS "items" (fid bigint, "fid_2" text, "geom_1" text, "title" text, "fid_1" text, geom geometry(Geometry,4326))`
	mock.ExpectExec(regexp.QuoteMeta(create)).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"items"}, []string{"fid", "fid_2", "geom_1", "title", "fid_1", "geom"}).
		WillReturnResult(1)

	n, err := NewPostgres(mock, "", "items", 0).Load(context.Background(), layer)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LoadInBatches(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta(createSQL)).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	cols := []string{"fid", "title", "pubDate", "geom"}
	mock.ExpectCopyFrom(pgx.Identifier{"feeds", "quakes"}, cols).WillReturnResult(1)
	mock.ExpectCopyFrom(pgx.Identifier{"feeds", "quakes"}, cols).WillReturnResult(1)

	n, err := NewPostgres(mock, "feeds", "quakes", 1).Load(context.Background(), testLayer())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithSRID_LeavesFeatureGeometryUntouched(t *testing.T) {
	pt := geom.NewPointFlat(geom.XY, []float64{1, 2})

	tagged := withSRID(pt)
	assert.Equal(t, SRID, tagged.SRID())
	assert.Equal(t, 0, pt.SRID())

	already := geom.NewPointFlat(geom.XY, []float64{1, 2}).SetSRID(3857)
	assert.Same(t, already, withSRID(already))
	assert.Nil(t, withSRID(nil))
}
