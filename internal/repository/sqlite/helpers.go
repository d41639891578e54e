package sqlite

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"physioeval/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// ============================================================================
// NULL-tolerant Scan Targets
// ============================================================================
//
// The detail query LEFT JOINs every section table, so a missing section row
// yields NULL in all its columns. These scanners write the zero value for
// NULL instead of failing the whole row.

// textScanner scans a nullable TEXT column into a string
type textScanner struct{ dst *string }

func text(dst *string) textScanner { return textScanner{dst: dst} }

func (s textScanner) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s.dst = ""
	case string:
		*s.dst = v
	case []byte:
		*s.dst = string(v)
	case int64:
		*s.dst = strconv.FormatInt(v, 10)
	case float64:
		*s.dst = strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		*s.dst = v.UTC().Format(time.DateTime)
	default:
		return fmt.Errorf("cannot scan %T into text", src)
	}
	return nil
}

// intScanner scans a nullable INTEGER column into an int
type intScanner struct{ dst *int }

func integer(dst *int) intScanner { return intScanner{dst: dst} }

func (s intScanner) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s.dst = 0
	case int64:
		*s.dst = int(v)
	case float64:
		*s.dst = int(v)
	case string, []byte:
		str := strings.TrimSpace(fmt.Sprintf("%s", v))
		if str == "" {
			*s.dst = 0
			return nil
		}
		n, err := strconv.Atoi(str)
		if err != nil {
			return fmt.Errorf("cannot scan %q into integer: %w", str, err)
		}
		*s.dst = n
	default:
		return fmt.Errorf("cannot scan %T into integer", src)
	}
	return nil
}

// int64Scanner scans a nullable INTEGER id column
type int64Scanner struct{ dst *int64 }

func integer64(dst *int64) int64Scanner { return int64Scanner{dst: dst} }

func (s int64Scanner) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s.dst = 0
	case int64:
		*s.dst = v
	default:
		return fmt.Errorf("cannot scan %T into id", src)
	}
	return nil
}

// gradesScanner decodes the JSON grade list. Damaged text degrades to an
// empty list instead of an error.
type gradesScanner struct{ dst *[]string }

func grades(dst *[]string) gradesScanner { return gradesScanner{dst: dst} }

func (s gradesScanner) Scan(src any) error {
	var raw string
	if err := text(&raw).Scan(src); err != nil {
		*s.dst = []string{}
		return nil
	}
	*s.dst = domain.DecodeGrades(raw)
	return nil
}

// ============================================================================
// Argument Helpers
// ============================================================================

// withLeading prepends id to args, for statements keyed by evaluation_id
func withLeading(id int64, args []any) []any {
	out := make([]any, 0, len(args)+1)
	out = append(out, id)
	return append(out, args...)
}

// withTrailing appends id to args, for UPDATE ... WHERE x = ? statements
func withTrailing(args []any, id int64) []any {
	out := make([]any, 0, len(args)+1)
	out = append(out, args...)
	return append(out, id)
}

// likePattern escapes LIKE wildcards in a user filter and wraps it for a
// substring match. Use with ESCAPE '\'.
func likePattern(filter string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(filter) + "%"
}
