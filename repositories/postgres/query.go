package postgres

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// filter accumulates positional WHERE conditions
type filter struct {
	conds []string
	args  []interface{}
}

func (f *filter) add(cond string, value interface{}) {
	f.args = append(f.args, value)
	f.conds = append(f.conds, fmt.Sprintf(cond, len(f.args)))
}

// eq adds "column = $n" when value is non-empty
func (f *filter) eq(column, value string) {
	if value != "" {
		f.add(column+" = $%d", value)
	}
}

func (f *filter) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

// limit returns a LIMIT clause bound as the next argument, or "" when n <= 0
func (f *filter) limit(n int) string {
	if n <= 0 {
		return ""
	}
	f.args = append(f.args, n)
	return fmt.Sprintf(" LIMIT $%d", len(f.args))
}

// jsonColumn marshals v for a JSONB column
func jsonColumn(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode json column: %w", err)
	}
	return data, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// textArray binds a TEXT[] value, sending an empty array rather than NULL
func textArray(v []string) interface{} {
	if v == nil {
		v = []string{}
	}
	return pq.Array(v)
}
