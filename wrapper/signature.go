package wrapper

import (
	"fmt"
	"strings"
)

// Param is one named, typed argument of the submitted function.
type Param struct {
	Name string
	Type Type
}

// Signature describes the arguments and return type of the submitted function.
type Signature struct {
	Params  []Param
	Returns Type
}

// ParseSignature parses a hint of the form
//
//	nums: int[], target: int -> int[]
//
// Surrounding parentheses around the parameter list are optional.
func ParseSignature(hint string) (Signature, error) {
	idx := strings.LastIndex(hint, "->")
	if idx < 0 {
		return Signature{}, fmt.Errorf("%w: missing return type in %q", ErrInvalidSignature, hint)
	}

	ret, err := ParseType(hint[idx+2:])
	if err != nil {
		return Signature{}, fmt.Errorf("%w: return: %v", ErrInvalidSignature, err)
	}

	params := strings.TrimSpace(hint[:idx])
	if strings.HasPrefix(params, "(") && strings.HasSuffix(params, ")") {
		params = strings.TrimSpace(params[1 : len(params)-1])
	}

	sig := Signature{Returns: ret}
	if params == "" {
		return sig, nil
	}

	seen := make(map[string]bool)
	for _, part := range strings.Split(params, ",") {
		name, typ, ok := strings.Cut(part, ":")
		if !ok {
			return Signature{}, fmt.Errorf("%w: parameter %q needs name: type", ErrInvalidSignature, strings.TrimSpace(part))
		}
		name = strings.TrimSpace(name)
		if !IsIdentifier(name) {
			return Signature{}, fmt.Errorf("%w: invalid parameter name %q", ErrInvalidSignature, name)
		}
		if seen[name] {
			return Signature{}, fmt.Errorf("%w: duplicate parameter %q", ErrInvalidSignature, name)
		}
		seen[name] = true

		t, err := ParseType(typ)
		if err != nil {
			return Signature{}, fmt.Errorf("%w: parameter %s: %v", ErrInvalidSignature, name, err)
		}
		sig.Params = append(sig.Params, Param{Name: name, Type: t})
	}
	return sig, nil
}

// Param returns the parameter with the given name.
func (s Signature) Param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

func (s Signature) String() string {
	if len(s.Params) == 0 {
		return "() -> " + s.Returns.String()
	}
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.Name + ": " + p.Type.String()
	}
	return strings.Join(parts, ", ") + " -> " + s.Returns.String()
}
