package sqlite

import (
	"database/sql/driver"
	"fmt"
	"strings"

	msqlite "modernc.org/sqlite"
)

// foldFunc is the SQL name of the Unicode case-folding function. SQLite's
// own lower() and LIKE only fold ASCII letters, so "Á" never matches "á".
const foldFunc = "casefold"

func init() {
	msqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, casefold)
}

func casefold(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument type %T", foldFunc, v)
	}
}
