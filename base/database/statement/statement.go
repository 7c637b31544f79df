package statement

import (
	"fmt"
	"strings"
)

// Statement is a SQL statement with its bound arguments.
type Statement struct {
	SQL  string
	Args []any
}

// String returns the statement text followed by its arguments.
func (s Statement) String() string {
	if len(s.Args) == 0 {
		return s.SQL
	}

	args := make([]string, 0, len(s.Args))
	for _, arg := range s.Args {
		args = append(args, fmt.Sprintf("%#v", arg))
	}
	return fmt.Sprintf("%s -- args: [%s]", s.SQL, strings.Join(args, ", "))
}
