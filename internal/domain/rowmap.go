package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the format of the dataset's "Week Ending Date" column.
const DateLayout = "2006-01-02"

// ErrMissingColumn is returned when a required column is absent from the header.
var ErrMissingColumn = errors.New("missing column")

// Header maps a normalized column name to its index in each row.
type Header map[string]int

// ParseHeader normalizes column names by removing byte-order marks and
// surrounding whitespace. Matching is otherwise case-sensitive.
func ParseHeader(cells []string) Header {
	h := make(Header, len(cells))
	for i, c := range cells {
		h[normalizeColumnName(c)] = i
	}
	return h
}

func normalizeColumnName(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\uFEFF", ""))
}

// Column declares how one logical field of T is decoded from a named column.
type Column[T any] struct {
	Field    string
	Name     string
	Optional bool
	Parse    func(rec *T, cell string) error
}

// StringColumn copies the cell verbatim.
func StringColumn[T any](field, name string, set func(*T, string)) Column[T] {
	return Column[T]{Field: field, Name: name, Parse: func(rec *T, cell string) error {
		set(rec, cell)
		return nil
	}}
}

// IntColumn decodes the cell with ParseCount.
func IntColumn[T any](field, name string, set func(*T, int)) Column[T] {
	return Column[T]{Field: field, Name: name, Parse: func(rec *T, cell string) error {
		n, err := ParseCount(cell)
		if err != nil {
			return err
		}
		set(rec, n)
		return nil
	}}
}

// DateColumn decodes the cell with ParseDate.
func DateColumn[T any](field, name string, set func(*T, time.Time)) Column[T] {
	return Column[T]{Field: field, Name: name, Parse: func(rec *T, cell string) error {
		d, err := ParseDate(cell)
		if err != nil {
			return err
		}
		set(rec, d)
		return nil
	}}
}

// Optional marks a column that may be absent from the header. Absent
// optional columns leave the field at its zero value.
func Optional[T any](c Column[T]) Column[T] {
	c.Optional = true
	return c
}

// ParseCount parses an integer cell. An empty cell is 0 rather than an error:
// the upstream dataset leaves suppressed counts blank.
func ParseCount(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse integer %q: %w", s, err)
	}
	return n, nil
}

// ParseDate parses an ISO calendar date into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}

// RowMapper decodes rows into records of type T using a declared column table.
type RowMapper[T any] struct {
	columns []Column[T]
	index   []int // -1 marks an absent optional column
}

// NewRowMapper resolves each declared column against the header.
func NewRowMapper[T any](header []string, columns []Column[T]) (*RowMapper[T], error) {
	h := ParseHeader(header)
	index := make([]int, len(columns))
	for i, c := range columns {
		j, ok := h[c.Name]
		switch {
		case ok:
			index[i] = j
		case c.Optional:
			index[i] = -1
		default:
			return nil, fmt.Errorf("%w %q (field %s)", ErrMissingColumn, c.Name, c.Field)
		}
	}
	return &RowMapper[T]{columns: columns, index: index}, nil
}

// Map decodes one row.
func (m *RowMapper[T]) Map(row []string) (T, error) {
	var rec T
	for i, c := range m.columns {
		j := m.index[i]
		if j < 0 {
			continue
		}
		if j >= len(row) {
			return rec, fmt.Errorf("column %q: row has only %d cells", c.Name, len(row))
		}
		if err := c.Parse(&rec, strings.TrimSpace(row[j])); err != nil {
			return rec, fmt.Errorf("column %q: %w", c.Name, err)
		}
	}
	return rec, nil
}

// MapAll decodes every row. The first malformed row fails the whole batch;
// the error carries its 1-based line number, counting the header as line 1.
func (m *RowMapper[T]) MapAll(rows [][]string) ([]T, error) {
	out := make([]T, 0, len(rows))
	for i, row := range rows {
		rec, err := m.Map(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// ObservationColumns is the column table of the weekly mortality dataset.
func ObservationColumns() []Column[ObservationRecord] {
	return []Column[ObservationRecord]{
		StringColumn("region", "State", func(r *ObservationRecord, v string) { r.Region = v }),
		StringColumn("kind", "Type", func(r *ObservationRecord, v string) { r.Kind = RowKind(v) }),
		IntColumn("count", "Observed Number", func(r *ObservationRecord, v int) { r.Count = v }),
		DateColumn("weekEndingDate", "Week Ending Date", func(r *ObservationRecord, v time.Time) { r.WeekEnding = v }),
		Optional(IntColumn("averageExpectedCount", "Average Expected Count", func(r *ObservationRecord, v int) { r.AverageExpectedCount = v })),
		Optional(IntColumn("excessEstimate", "Excess Estimate", func(r *ObservationRecord, v int) { r.ExcessEstimate = v })),
		Optional(StringColumn("outcome", "Outcome", func(r *ObservationRecord, v string) { r.Outcome = v })),
	}
}

// CensusColumns is the column table of the census file.
func CensusColumns() []Column[CensusEntry] {
	return []Column[CensusEntry]{
		StringColumn("region", "Region", func(e *CensusEntry, v string) { e.Region = v }),
		{Field: "population", Name: "Population", Parse: func(e *CensusEntry, cell string) error {
			n, err := strconv.Atoi(cell)
			if err != nil {
				return fmt.Errorf("parse population %q: %w", cell, err)
			}
			if n <= 0 {
				return fmt.Errorf("population %d is not positive", n)
			}
			e.Population = n
			return nil
		}},
	}
}

// DecodeObservations maps the dataset's header and rows into records.
func DecodeObservations(header []string, rows [][]string) ([]ObservationRecord, error) {
	m, err := NewRowMapper(header, ObservationColumns())
	if err != nil {
		return nil, fmt.Errorf("decode observations: %w", err)
	}
	recs, err := m.MapAll(rows)
	if err != nil {
		return nil, fmt.Errorf("decode observations: %w", err)
	}
	return recs, nil
}

// DecodeCensus maps the census header and rows into a Census.
func DecodeCensus(header []string, rows [][]string) (Census, error) {
	m, err := NewRowMapper(header, CensusColumns())
	if err != nil {
		return nil, fmt.Errorf("decode census: %w", err)
	}
	entries, err := m.MapAll(rows)
	if err != nil {
		return nil, fmt.Errorf("decode census: %w", err)
	}
	return NewCensus(entries), nil
}
