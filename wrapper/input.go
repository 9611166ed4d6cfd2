package wrapper

import (
	"fmt"
	"strings"
)

// InputFormat describes the layout of stdin: one entry per line, each listing
// the field names carried on that line in order.
type InputFormat struct {
	Lines [][]string
}

// ParseInputFormat parses a layout description. Lines are separated by
// newlines or semicolons, fields by spaces or commas. Blank lines are ignored.
func ParseInputFormat(desc string) (InputFormat, error) {
	var f InputFormat
	desc = strings.ReplaceAll(desc, ";", "\n")
	for _, raw := range strings.Split(desc, "\n") {
		fields := strings.FieldsFunc(raw, func(r rune) bool {
			return r == ' ' || r == '\t' || r == ',' || r == '\r'
		})
		if len(fields) == 0 {
			continue
		}
		f.Lines = append(f.Lines, fields)
	}
	if len(f.Lines) == 0 {
		return InputFormat{}, fmt.Errorf("%w: no lines", ErrInvalidInputFormat)
	}
	return f, nil
}

// DefaultInputFormat puts each parameter on its own line.
func DefaultInputFormat(sig Signature) InputFormat {
	f := InputFormat{Lines: make([][]string, len(sig.Params))}
	for i, p := range sig.Params {
		f.Lines[i] = []string{p.Name}
	}
	return f
}

// IsZero reports whether no layout was given.
func (f InputFormat) IsZero() bool {
	return len(f.Lines) == 0
}

// Validate checks the layout against sig. Every parameter must appear exactly
// once, a list must be the last field on its line, and every other name must
// be a valid counter identifier.
func (f InputFormat) Validate(sig Signature) error {
	seen := make(map[string]bool)
	for i, line := range f.Lines {
		if len(line) == 0 {
			return fmt.Errorf("%w: line %d is empty", ErrInvalidInputFormat, i+1)
		}
		for j, name := range line {
			if !IsIdentifier(name) {
				return fmt.Errorf("%w: line %d: invalid field %q", ErrInvalidInputFormat, i+1, name)
			}
			p, ok := sig.Param(name)
			if !ok {
				continue
			}
			if seen[name] {
				return fmt.Errorf("%w: parameter %q appears twice", ErrInvalidInputFormat, name)
			}
			seen[name] = true
			if p.Type.IsList() && j != len(line)-1 {
				return fmt.Errorf("%w: line %d: list %q must be the last field", ErrInvalidInputFormat, i+1, name)
			}
		}
	}
	for _, p := range sig.Params {
		if !seen[p.Name] {
			return fmt.Errorf("%w: parameter %q is never read", ErrInvalidInputFormat, p.Name)
		}
	}
	return nil
}

func (f InputFormat) String() string {
	lines := make([]string, len(f.Lines))
	for i, l := range f.Lines {
		lines[i] = strings.Join(l, " ")
	}
	return strings.Join(lines, "\n")
}
