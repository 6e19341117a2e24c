// Package row holds the column types, table schemas and row values stored in
// tables, together with their validation rules and textual encoding.
package row

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrTypeMismatch = errors.New("column type mismatch")
	ErrColumnIndex  = errors.New("column index out of range")
	ErrUnknownType  = errors.New("unknown column type")
	ErrParse        = errors.New("malformed row text")
)

// ColumnType is the declared type of one table column.
type ColumnType uint8

const (
	Int     ColumnType = iota // int32
	Long                      // int64
	Byte                      // int8
	Float                     // float32
	Double                    // float64
	Boolean                   // bool
	String                    // string
)

var typeNames = [...]string{
	Int:     "int",
	Long:    "long",
	Byte:    "byte",
	Float:   "float",
	Double:  "double",
	Boolean: "boolean",
	String:  "String",
}

func (c ColumnType) String() string {
	if int(c) < len(typeNames) {
		return typeNames[c]
	}
	return fmt.Sprintf("ColumnType(%d)", uint8(c))
}

// ParseColumnType maps a signature name such as "int" or "String" to its type.
func ParseColumnType(name string) (ColumnType, error) {
	for i, n := range typeNames {
		if n == name {
			return ColumnType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// Accepts reports whether v has exactly the Go type backing c.
func (c ColumnType) Accepts(v any) bool {
	switch v.(type) {
	case int32:
		return c == Int
	case int64:
		return c == Long
	case int8:
		return c == Byte
	case float32:
		return c == Float
	case float64:
		return c == Double
	case bool:
		return c == Boolean
	case string:
		return c == String
	}
	return false
}

func (c ColumnType) format(v any) string {
	switch x := v.(type) {
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	}
	return fmt.Sprint(v)
}

func (c ColumnType) parse(text string) (any, error) {
	switch c {
	case Int:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 32)
		return int32(n), err
	case Long:
		return strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	case Byte:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 8)
		return int8(n), err
	case Float:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 32)
		if err == nil && math.IsInf(f, 0) {
			return nil, fmt.Errorf("float %q out of range", text)
		}
		return float32(f), err
	case Double:
		return strconv.ParseFloat(strings.TrimSpace(text), 64)
	case Boolean:
		switch strings.ToLower(strings.TrimSpace(text)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("invalid boolean %q", text)
	case String:
		return text, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownType, c)
}

// Schema is the ordered list of column types of a table.
type Schema []ColumnType

// ParseSchema parses signature names, one per column.
func ParseSchema(names []string) (Schema, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: empty schema", ErrUnknownType)
	}
	s := make(Schema, 0, len(names))
	for _, n := range names {
		c, err := ParseColumnType(n)
		if err != nil {
			return nil, err
		}
		s = append(s, c)
	}
	return s, nil
}

// String renders the schema as space separated signature names.
func (s Schema) String() string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.String()
	}
	return strings.Join(names, " ")
}

func (s Schema) Equal(o Schema) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}
