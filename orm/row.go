package orm

import (
	"database/sql"
	"reflect"

	"github.com/spf13/cast"
)

// Row is a dynamically typed result row. Columns preserves select order.
type Row struct {
	Columns []string
	Values  map[string]any
}

// NewRow returns an empty Row.
func NewRow() Row {
	return Row{Values: make(map[string]any)}
}

// Get returns the value stored under column, or nil.
func (r Row) Get(column string) any {
	return r.Values[column]
}

// Has reports whether the row carries column.
func (r Row) Has(column string) bool {
	_, ok := r.Values[column]
	return ok
}

// Set stores v under column, appending the column when it is new.
func (r *Row) Set(column string, v any) {
	if r.Values == nil {
		r.Values = make(map[string]any)
	}
	if _, ok := r.Values[column]; !ok {
		r.Columns = append(r.Columns, column)
	}
	r.Values[column] = v
}

// Delete removes column from the row.
func (r *Row) Delete(column string) {
	if _, ok := r.Values[column]; !ok {
		return
	}
	delete(r.Values, column)
	for i, c := range r.Columns {
		if c == column {
			r.Columns = append(r.Columns[:i:i], r.Columns[i+1:]...)
			break
		}
	}
}

// ScanRow scans the current row of rows into a Row. Byte slices become
// strings, and integer columns reported as text are converted to int64.
func ScanRow(rows *sql.Rows) (Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return Row{}, err //nolint:wrapcheck // pass through
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return Row{}, err //nolint:wrapcheck // pass through
	}

	dest := make([]any, len(cols))
	for i := range dest {
		dest[i] = new(any)
	}
	if err := rows.Scan(dest...); err != nil {
		return Row{}, err //nolint:wrapcheck // pass through
	}

	r := Row{Columns: make([]string, 0, len(cols)), Values: make(map[string]any, len(cols))}
	for i, col := range cols {
		v := NormalizeValue(*(dest[i].(*any)))
		if i < len(types) && isIntegerColumn(types[i]) {
			if s, ok := v.(string); ok {
				if n, err := cast.ToInt64E(s); err == nil {
					v = n
				}
			}
		}
		r.Set(col, v)
	}
	return r, nil
}

// NormalizeValue folds driver-specific representations into the forms
// used for key comparison: []byte → string, every integer width → int64.
func NormalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int, int8, int16, int32, uint, uint8, uint16, uint32, uint64:
		return cast.ToInt64(x)
	}
	return v
}

var nullInt64Type = reflect.TypeOf(sql.NullInt64{})

func isIntegerColumn(ct *sql.ColumnType) bool {
	if ct == nil {
		return false
	}
	st := ct.ScanType()
	if st == nil {
		return false
	}
	if st == nullInt64Type {
		return true
	}
	switch st.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

// RowColumnValues returns a ColumnValueFunc for Row values whose primary key
// column is pk. Columns are emitted in row order.
func RowColumnValues(pk string) ColumnValueFunc[Row] {
	return func(r *Row, includesPK bool) ([]string, []any) {
		columns := make([]string, 0, len(r.Columns))
		values := make([]any, 0, len(r.Columns))
		for _, col := range r.Columns {
			if col == pk && !includesPK {
				continue
			}
			columns = append(columns, col)
			values = append(values, r.Values[col])
		}
		return columns, values
	}
}

// SetRowPK returns a SetPKFunc storing the generated key under pk.
func SetRowPK(pk string) SetPKFunc[Row] {
	return func(r *Row, id int64) {
		r.Set(pk, id)
	}
}

// NewRowQuery builds a Query[Row] selecting every column of table.
// When autoPK is false the primary key is written as supplied on INSERT.
func NewRowQuery(db Querier, table, pk string, autoPK bool) *Query[Row] {
	var setPK SetPKFunc[Row]
	if autoPK {
		setPK = SetRowPK(pk)
	}
	return NewQuery[Row](db, table, nil, pk, ScanRow, RowColumnValues(pk), setPK)
}
