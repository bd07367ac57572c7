package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/hyperengineering/hydro/internal/filter"
)

// columns maps filter fields to qualified SQL columns for one table.
// Fields missing from the map cannot be filtered or ordered on.
type columns map[filter.Field]string

var systemColumns = columns{
	filter.FieldName:      "s.name",
	filter.FieldCreatedAt: "s.created_at",
	filter.FieldUpdatedAt: "s.updated_at",
}

var measurementColumns = columns{
	filter.FieldSystem:           "m.system_id",
	filter.FieldPH:               "m.ph",
	filter.FieldTDS:              "m.tds",
	filter.FieldWaterTemperature: "m.water_temperature",
	filter.FieldCreatedAt:        "m.created_at",
}

var comparators = map[filter.Comparator]string{
	filter.Eq:  "=",
	filter.Lt:  "<",
	filter.Lte: "<=",
	filter.Gt:  ">",
	filter.Gte: ">=",
}

// predicate is a WHERE clause under construction: every clause is ANDed.
type predicate struct {
	clauses []string
	args    []any
}

func (p *predicate) add(clause string, args ...any) {
	p.clauses = append(p.clauses, clause)
	p.args = append(p.args, args...)
}

func (p *predicate) sql() string {
	if len(p.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(p.clauses, " AND ")
}

// addConditions compiles every condition into the predicate.
func (p *predicate) addConditions(conds []filter.Condition, cols columns) error {
	for _, c := range conds {
		col, ok := cols[c.Field]
		if !ok {
			return fmt.Errorf("filter on unsupported field %q", c.Field)
		}
		op, ok := comparators[c.Cmp]
		if !ok {
			return fmt.Errorf("unsupported comparator %q", c.Cmp)
		}
		p.add(col+" "+op+" ?", sqlValue(c.Value))
	}
	return nil
}

// addSearch matches term as a case-insensitive substring of any column.
func (p *predicate) addSearch(term string, cols ...string) {
	if term == "" {
		return
	}
	pattern := "%" + escapeLike(term) + "%"
	parts := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		parts[i] = col + ` LIKE ? ESCAPE '\'`
		args[i] = pattern
	}
	p.add("("+strings.Join(parts, " OR ")+")", args...)
}

// orderBy renders the ORDER BY clause. The id column always comes last,
// ascending, so that ties are deterministic.
func orderBy(order []filter.Ordering, cols columns, idCol string) (string, error) {
	terms := make([]string, 0, len(order)+1)
	for _, o := range order {
		col, ok := cols[o.Field]
		if !ok {
			return "", fmt.Errorf("order by unsupported field %q", o.Field)
		}
		dir := "ASC"
		if o.Descending {
			dir = "DESC"
		}
		terms = append(terms, col+" "+dir)
	}
	terms = append(terms, idCol+" ASC")
	return "ORDER BY " + strings.Join(terms, ", "), nil
}

func sqlValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return formatTime(t)
	}
	return v
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
