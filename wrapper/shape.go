package wrapper

import (
	"fmt"
	"strings"
)

// Shape selects how the driver invokes the submitted code.
type Shape int

const (
	// ShapeFunction calls a free function named after the problem.
	ShapeFunction Shape = iota
	// ShapeClass instantiates Solution and calls its method.
	ShapeClass
)

func (s Shape) String() string {
	switch s {
	case ShapeFunction:
		return "function"
	case ShapeClass:
		return "class"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// ParseShape accepts "function" or "class". The empty string means function.
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "function", "func", "fn":
		return ShapeFunction, nil
	case "class", "solution":
		return ShapeClass, nil
	default:
		return ShapeFunction, fmt.Errorf("unknown shape %q (want function or class)", s)
	}
}

func (s Shape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Shape) UnmarshalText(text []byte) error {
	v, err := ParseShape(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
