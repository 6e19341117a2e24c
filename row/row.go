package row

import "fmt"

// Row is one record value: a fixed number of typed, possibly nil, columns.
// A Row remembers the schema it was created for.
type Row struct {
	schema Schema
	values []any
}

// New returns a row for schema with every column nil.
func New(schema Schema) *Row {
	return &Row{schema: schema, values: make([]any, len(schema))}
}

// FromValues builds a row from one value per column.
func FromValues(schema Schema, values []any) (*Row, error) {
	if len(values) != len(schema) {
		return nil, fmt.Errorf("%w: got %d values for %d columns", ErrColumnIndex, len(values), len(schema))
	}
	r := New(schema)
	for i, v := range values {
		if err := r.SetColumnAt(i, v); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Row) Schema() Schema {
	return r.schema
}

func (r *Row) Len() int {
	return len(r.values)
}

func (r *Row) checkIndex(i int) error {
	if i < 0 || i >= len(r.values) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrColumnIndex, i, len(r.values))
	}
	return nil
}

// SetColumnAt stores v in column i. v must be nil or exactly the Go type of
// the column.
func (r *Row) SetColumnAt(i int, v any) error {
	if err := r.checkIndex(i); err != nil {
		return err
	}
	if v != nil && !r.schema[i].Accepts(v) {
		return fmt.Errorf("%w: column %d is %s, got %T", ErrTypeMismatch, i, r.schema[i], v)
	}
	r.values[i] = v
	return nil
}

func (r *Row) ColumnAt(i int) (any, error) {
	if err := r.checkIndex(i); err != nil {
		return nil, err
	}
	return r.values[i], nil
}

// Values returns a copy of the column values.
func (r *Row) Values() []any {
	out := make([]any, len(r.values))
	copy(out, r.values)
	return out
}

// Clone copies the row; column values are immutable scalars.
func (r *Row) Clone() *Row {
	if r == nil {
		return nil
	}
	return &Row{schema: r.schema, values: r.Values()}
}

func (r *Row) String() string {
	s, err := XMLCodec{}.Serialize(r.schema, r)
	if err != nil {
		return fmt.Sprintf("%v", r.values)
	}
	return s
}

func typedAt[T any](r *Row, i int, want ColumnType) (T, error) {
	var zero T
	if err := r.checkIndex(i); err != nil {
		return zero, err
	}
	if r.schema[i] != want {
		return zero, fmt.Errorf("%w: column %d is %s, not %s", ErrTypeMismatch, i, r.schema[i], want)
	}
	if r.values[i] == nil {
		return zero, nil
	}
	return r.values[i].(T), nil
}

func (r *Row) IntAt(i int) (int32, error)      { return typedAt[int32](r, i, Int) }
func (r *Row) LongAt(i int) (int64, error)     { return typedAt[int64](r, i, Long) }
func (r *Row) ByteAt(i int) (int8, error)      { return typedAt[int8](r, i, Byte) }
func (r *Row) FloatAt(i int) (float32, error)  { return typedAt[float32](r, i, Float) }
func (r *Row) DoubleAt(i int) (float64, error) { return typedAt[float64](r, i, Double) }
func (r *Row) BooleanAt(i int) (bool, error)   { return typedAt[bool](r, i, Boolean) }
func (r *Row) StringAt(i int) (string, error)  { return typedAt[string](r, i, String) }

// Validate checks that r was built for a schema identical to schema and that
// every non-nil value has its column's type.
func Validate(schema Schema, r *Row) error {
	if r == nil {
		return fmt.Errorf("%w: nil row", ErrTypeMismatch)
	}
	if len(r.values) != len(schema) {
		return fmt.Errorf("%w: row has %d columns, table has %d", ErrTypeMismatch, len(r.values), len(schema))
	}
	for i, c := range schema {
		if r.schema[i] != c {
			return fmt.Errorf("%w: column %d is %s, table expects %s", ErrTypeMismatch, i, r.schema[i], c)
		}
		if v := r.values[i]; v != nil && !c.Accepts(v) {
			return fmt.Errorf("%w: column %d expects %s, got %T", ErrTypeMismatch, i, c, v)
		}
	}
	return nil
}
