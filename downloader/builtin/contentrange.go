package builtin

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidContentRange = errors.New("invalid Content-Range")

// ContentRange is a parsed "bytes" Content-Range header. First and Last are -1 for an unsatisfied range
// ("bytes */N"), Total is -1 when the complete length is unknown ("bytes A-B/*").
type ContentRange struct {
	First int64
	Last  int64
	Total int64
}

func ParseContentRange(value string) (ContentRange, error) {
	cr := ContentRange{First: -1, Last: -1, Total: -1}
	spec, ok := strings.CutPrefix(strings.TrimSpace(value), "bytes ")
	if !ok {
		return cr, fmt.Errorf("%w: %q", ErrInvalidContentRange, value)
	}
	rng, total, ok := strings.Cut(spec, "/")
	if !ok {
		return cr, fmt.Errorf("%w: %q", ErrInvalidContentRange, value)
	}
	if total != "*" {
		n, err := strconv.ParseInt(total, 10, 64)
		if err != nil || n < 0 {
			return cr, fmt.Errorf("%w: %q", ErrInvalidContentRange, value)
		}
		cr.Total = n
	}
	if rng == "*" {
		if cr.Total < 0 {
			return cr, fmt.Errorf("%w: %q", ErrInvalidContentRange, value)
		}
		return cr, nil
	}
	first, last, ok := strings.Cut(rng, "-")
	if !ok {
		return cr, fmt.Errorf("%w: %q", ErrInvalidContentRange, value)
	}
	f, err := strconv.ParseInt(first, 10, 64)
	if err != nil {
		return cr, fmt.Errorf("%w: %q", ErrInvalidContentRange, value)
	}
	l, err := strconv.ParseInt(last, 10, 64)
	if err != nil || f < 0 || l < f || (cr.Total >= 0 && l >= cr.Total) {
		return cr, fmt.Errorf("%w: %q", ErrInvalidContentRange, value)
	}
	cr.First, cr.Last = f, l
	return cr, nil
}
