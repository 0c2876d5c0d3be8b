package store

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/rotisserie/eris"

	"github.com/Luc0-0/Samarth/internal/model"
)

// BuildSQL renders a query plan into parameterized SQL. The placeholder
// format is driver-specific: Question for SQLite, Dollar for Postgres.
func BuildSQL(plan *model.QueryPlan, format sq.PlaceholderFormat) (string, []any, error) {
	if plan.Agg.Column == "" {
		return "", nil, eris.New("store: plan has no aggregate column")
	}

	alias := plan.Agg.Alias
	if alias == "" {
		alias = "value"
	}

	columns := make([]string, 0, len(plan.GroupBy)+2)
	columns = append(columns, plan.GroupBy...)
	columns = append(columns,
		fmt.Sprintf("%s(%s) AS %s", plan.Agg.Func, plan.Agg.Column, alias),
		"COUNT(*) AS record_count",
	)

	b := sq.Select(columns...).From(plan.Table.Name).PlaceholderFormat(format)

	// Aggregates skip nulls by definition; the explicit predicate keeps
	// empty groups from surfacing as zero-value rows.
	b = b.Where(fmt.Sprintf("%s IS NOT NULL", plan.Agg.Column))

	for _, f := range plan.Filters {
		switch f.Op {
		case model.OpIn:
			b = b.Where(sq.Eq{f.Column: f.Values})
		case model.OpEq:
			if len(f.Values) != 1 {
				return "", nil, eris.Errorf("store: eq filter on %s needs exactly one value", f.Column)
			}
			b = b.Where(sq.Eq{f.Column: f.Values[0]})
		case model.OpBetween:
			if len(f.Values) != 2 {
				return "", nil, eris.Errorf("store: between filter on %s needs two values", f.Column)
			}
			b = b.Where(fmt.Sprintf("%s BETWEEN ? AND ?", f.Column), f.Values[0], f.Values[1])
		default:
			return "", nil, eris.Errorf("store: unknown filter op %q", f.Op)
		}
	}

	if len(plan.GroupBy) > 0 {
		b = b.GroupBy(plan.GroupBy...)
	}
	if plan.Order != nil {
		dir := "ASC"
		if plan.Order.Desc {
			dir = "DESC"
		}
		b = b.OrderBy(plan.Order.Column + " " + dir)
	}
	if plan.Limit > 0 {
		b = b.Limit(uint64(plan.Limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return "", nil, eris.Wrap(err, "store: build sql")
	}
	return query, args, nil
}
