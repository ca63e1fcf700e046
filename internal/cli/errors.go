package cli

import (
	"fmt"
	"strconv"
	"strings"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

// parsePosition converts a 1-based position argument into a 0-based index.
func parsePosition(arg string, count int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, fmt.Errorf("invalid position %q: want a number from 1 to %d", arg, count)
	}
	if n < 1 || n > count {
		return 0, errNotFound("slide", arg)
	}
	return n - 1, nil
}
