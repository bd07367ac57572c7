// Package filter turns list query parameters into a typed, store-agnostic
// query: a list of (field, comparator, value) conditions combined with AND,
// plus an ordering. Parsing failures are reported as *InvalidFilterError and
// never silently dropped.
package filter

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Field names a filterable or orderable attribute.
type Field string

const (
	FieldCreatedAt        Field = "created_at"
	FieldUpdatedAt        Field = "updated_at"
	FieldName             Field = "name"
	FieldSystem           Field = "system"
	FieldPH               Field = "ph"
	FieldTDS              Field = "tds"
	FieldWaterTemperature Field = "water_temperature"
)

// Comparator is the fixed comparison a condition applies.
type Comparator string

const (
	Eq  Comparator = "="
	Lt  Comparator = "<"
	Lte Comparator = "<="
	Gt  Comparator = ">"
	Gte Comparator = ">="
)

// Condition is a single predicate. Value holds a float64, time.Time or
// string depending on the field. Numeric bounds are float64 for integer
// columns too, so tds_max=500.0 compares numerically.
type Condition struct {
	Field Field
	Cmp   Comparator
	Value any
}

// Ordering is one sort key.
type Ordering struct {
	Field      Field
	Descending bool
}

// Query is the parsed form of a list request. An empty Conditions slice
// means no constraint at all.
type Query struct {
	Conditions []Condition
	// Search is a case-insensitive substring match over name and description.
	// Only used for systems.
	Search string
	Order  []Ordering
}

// InvalidFilterError reports a query parameter whose value could not be parsed.
type InvalidFilterError struct {
	Param  string
	Value  string
	Reason string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid filter %s=%q: %s", e.Param, e.Value, e.Reason)
}

type kind int

const (
	kindFloat kind = iota
	kindTime
	kindString
)

type param struct {
	name  string
	field Field
	cmp   Comparator
	kind  kind
}

// measurementParams is ordered so the resulting condition list is deterministic.
var measurementParams = []param{
	{"created_at_after", FieldCreatedAt, Gte, kindTime},
	{"created_at_before", FieldCreatedAt, Lte, kindTime},
	{"ph_min", FieldPH, Gte, kindFloat},
	{"ph_max", FieldPH, Lte, kindFloat},
	{"tds_min", FieldTDS, Gte, kindFloat},
	{"tds_max", FieldTDS, Lte, kindFloat},
	{"temperature_min", FieldWaterTemperature, Gte, kindFloat},
	{"temperature_max", FieldWaterTemperature, Lte, kindFloat},
	{"system", FieldSystem, Eq, kindString},
	{"ph", FieldPH, Eq, kindFloat},
	{"ph__lt", FieldPH, Lt, kindFloat},
	{"ph__gt", FieldPH, Gt, kindFloat},
	{"tds", FieldTDS, Eq, kindFloat},
	{"tds__lt", FieldTDS, Lt, kindFloat},
	{"tds__gt", FieldTDS, Gt, kindFloat},
	{"water_temperature", FieldWaterTemperature, Eq, kindFloat},
	{"water_temperature__lt", FieldWaterTemperature, Lt, kindFloat},
	{"water_temperature__gt", FieldWaterTemperature, Gt, kindFloat},
}

var systemParams = []param{
	{"name", FieldName, Eq, kindString},
	{"created_at", FieldCreatedAt, Eq, kindTime},
}

var (
	measurementOrderFields = []Field{FieldCreatedAt, FieldPH, FieldTDS, FieldWaterTemperature}
	systemOrderFields      = []Field{FieldName, FieldCreatedAt, FieldUpdatedAt}
	defaultOrder           = []Ordering{{Field: FieldCreatedAt, Descending: true}}
)

// ParseMeasurements builds a Query from measurement list parameters.
// Unknown parameters are ignored; empty values count as absent.
func ParseMeasurements(values url.Values) (Query, error) {
	conds, err := parseConditions(values, measurementParams)
	if err != nil {
		return Query{}, err
	}
	order, err := parseOrdering(values.Get("ordering"), measurementOrderFields)
	if err != nil {
		return Query{}, err
	}
	return Query{Conditions: conds, Order: order}, nil
}

// ParseSystems builds a Query from system list parameters.
func ParseSystems(values url.Values) (Query, error) {
	conds, err := parseConditions(values, systemParams)
	if err != nil {
		return Query{}, err
	}
	order, err := parseOrdering(values.Get("ordering"), systemOrderFields)
	if err != nil {
		return Query{}, err
	}
	return Query{
		Conditions: conds,
		Search:     strings.TrimSpace(values.Get("search")),
		Order:      order,
	}, nil
}

func parseConditions(values url.Values, params []param) ([]Condition, error) {
	var conds []Condition
	for _, p := range params {
		raw := strings.TrimSpace(values.Get(p.name))
		if raw == "" {
			continue
		}
		v, err := parseValue(p, raw)
		if err != nil {
			return nil, err
		}
		conds = append(conds, Condition{Field: p.field, Cmp: p.cmp, Value: v})
	}
	return conds, nil
}

func parseValue(p param, raw string) (any, error) {
	switch p.kind {
	case kindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &InvalidFilterError{Param: p.name, Value: raw, Reason: "must be a number"}
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, &InvalidFilterError{Param: p.name, Value: raw, Reason: "must be a finite number"}
		}
		return f, nil
	case kindTime:
		t, err := ParseTime(raw)
		if err != nil {
			return nil, &InvalidFilterError{Param: p.name, Value: raw, Reason: "must be an ISO 8601 date or date-time"}
		}
		return t, nil
	default:
		return raw, nil
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime accepts RFC 3339 timestamps, naive date-times (taken as UTC)
// and plain dates (midnight UTC).
func ParseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", raw)
}

func parseOrdering(raw string, allowed []Field) ([]Ordering, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultOrder, nil
	}

	var order []Ordering
	for _, term := range strings.Split(raw, ",") {
		term = strings.TrimSpace(term)
		desc := strings.HasPrefix(term, "-")
		name := Field(strings.TrimPrefix(term, "-"))
		if !contains(allowed, name) {
			return nil, &InvalidFilterError{
				Param:  "ordering",
				Value:  raw,
				Reason: "must be one of " + joinFields(allowed) + " (optionally prefixed with -)",
			}
		}
		order = append(order, Ordering{Field: name, Descending: desc})
	}
	return order, nil
}

func contains(fields []Field, f Field) bool {
	for _, a := range fields {
		if a == f {
			return true
		}
	}
	return false
}

func joinFields(fields []Field) string {
	s := make([]string, len(fields))
	for i, f := range fields {
		s[i] = string(f)
	}
	return strings.Join(s, ", ")
}
