package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luc0-0/Samarth/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedProduction(t *testing.T, st *SQLiteStore) {
	t.Helper()
	columns := []string{"state", "district", "crop", "year", "production_tonnes", "area_hectares"}
	rows := [][]any{
		{"maharashtra", "nagpur", "rice", 2010, 120.0, 40.0},
		{"maharashtra", "pune", "rice", 2010, 80.0, 30.0},
		{"maharashtra", "pune", "rice", 2011, 150.0, 35.0},
		{"punjab", "amritsar", "rice", 2010, 300.0, 60.0},
		{"punjab", "ludhiana", "rice", 2011, 340.0, 70.0},
		{"punjab", "ludhiana", "wheat", 2010, 500.0, 90.0},
		{"kerala", "idukki", "tea", 2010, nil, 10.0}, // null production
	}
	n, err := st.InsertRows(context.Background(), "agri_production", columns, rows)
	require.NoError(t, err)
	require.EqualValues(t, len(rows), n)
}

func TestSQLiteGroupedAverage(t *testing.T) {
	st := newTestStore(t)
	seedProduction(t, st)

	res, err := st.Execute(context.Background(), &model.QueryPlan{
		Table:   model.TableRef{Name: "agri_production", ValueColumn: "production_tonnes"},
		GroupBy: []string{"state"},
		Agg:     model.Aggregate{Column: "production_tonnes", Func: model.AggAvg, Alias: "avg_production"},
		Filters: []model.Filter{
			{Column: "state", Op: model.OpIn, Values: []any{"maharashtra", "punjab"}},
			{Column: "crop", Op: model.OpEq, Values: []any{"rice"}},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.NotEmpty(t, res.Query)

	byState := map[string]float64{}
	for _, row := range res.Rows {
		v, ok := row["avg_production"].(float64)
		require.True(t, ok)
		byState[row["state"].(string)] = v
	}
	assert.InDelta(t, (120.0+80.0+150.0)/3, byState["maharashtra"], 0.001)
	assert.InDelta(t, (300.0+340.0)/2, byState["punjab"], 0.001)
}

func TestSQLiteAverageSkipsNulls(t *testing.T) {
	st := newTestStore(t)
	seedProduction(t, st)

	// Kerala's only production value is NULL: no row, never a zero.
	res, err := st.Execute(context.Background(), &model.QueryPlan{
		Table:   model.TableRef{Name: "agri_production", ValueColumn: "production_tonnes"},
		GroupBy: []string{"state"},
		Agg:     model.Aggregate{Column: "production_tonnes", Func: model.AggAvg, Alias: "avg_production"},
		Filters: []model.Filter{
			{Column: "state", Op: model.OpEq, Values: []any{"kerala"}},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
}

func TestSQLiteYearBetweenInclusive(t *testing.T) {
	st := newTestStore(t)
	seedProduction(t, st)

	res, err := st.Execute(context.Background(), &model.QueryPlan{
		Table:   model.TableRef{Name: "agri_production", ValueColumn: "production_tonnes"},
		GroupBy: []string{"year"},
		Agg:     model.Aggregate{Column: "production_tonnes", Func: model.AggAvg, Alias: "avg_production"},
		Filters: []model.Filter{
			{Column: "year", Op: model.OpBetween, Values: []any{2010, 2011}},
		},
		Order: &model.OrderBy{Column: "year"},
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.EqualValues(t, 2010, res.Rows[0]["year"])
	assert.EqualValues(t, 2011, res.Rows[1]["year"])
}

func TestSQLiteRankingLimit(t *testing.T) {
	st := newTestStore(t)
	seedProduction(t, st)

	res, err := st.Execute(context.Background(), &model.QueryPlan{
		Table:   model.TableRef{Name: "agri_production", ValueColumn: "production_tonnes"},
		GroupBy: []string{"state"},
		Agg:     model.Aggregate{Column: "production_tonnes", Func: model.AggSum, Alias: "sum_production"},
		Order:   &model.OrderBy{Column: "sum_production", Desc: true},
		Limit:   1,
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "punjab", res.Rows[0]["state"])
}

func TestSQLitePing(t *testing.T) {
	st := newTestStore(t)
	assert.NoError(t, st.Ping(context.Background()))
}

func TestSQLiteInsertEmptyBatch(t *testing.T) {
	st := newTestStore(t)
	n, err := st.InsertRows(context.Background(), "climate_obs", []string{"state", "district", "year", "rainfall_mm"}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
