package wrapper

import (
	"fmt"
	"strings"
)

// Type is a parameter or return type understood by every driver.
type Type int

const (
	Invalid Type = iota
	Int
	Long
	Float
	Bool
	String
	IntList
	LongList
	FloatList
	StringList
)

var typeNames = [...]string{
	Invalid:    "invalid",
	Int:        "int",
	Long:       "long",
	Float:      "float",
	Bool:       "bool",
	String:     "string",
	IntList:    "int[]",
	LongList:   "long[]",
	FloatList:  "float[]",
	StringList: "string[]",
}

var scalarAliases = map[string]Type{
	"int":     Int,
	"integer": Int,
	"i32":     Int,
	"long":    Long,
	"int64":   Long,
	"i64":     Long,
	"float":   Float,
	"double":  Float,
	"number":  Float,
	"f64":     Float,
	"bool":    Bool,
	"boolean": Bool,
	"string":  String,
	"str":     String,
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// IsList reports whether t is one of the list types.
func (t Type) IsList() bool {
	return t >= IntList && t <= StringList
}

// Elem returns the element type of a list, or t itself for scalars.
func (t Type) Elem() Type {
	switch t {
	case IntList:
		return Int
	case LongList:
		return Long
	case FloatList:
		return Float
	case StringList:
		return String
	default:
		return t
	}
}

func listOf(t Type) (Type, bool) {
	switch t {
	case Int:
		return IntList, true
	case Long:
		return LongList, true
	case Float:
		return FloatList, true
	case String:
		return StringList, true
	default:
		return Invalid, false
	}
}

// ParseType parses a type name such as "int", "string[]", "List[int]" or
// "vector<long>". Matching is case-insensitive.
func ParseType(s string) (Type, error) {
	name := strings.ToLower(strings.Join(strings.Fields(s), ""))
	if name == "" {
		return Invalid, fmt.Errorf("empty type")
	}

	elem, isList := listElem(name)
	if !isList {
		if t, ok := scalarAliases[name]; ok {
			return t, nil
		}
		return Invalid, fmt.Errorf("unknown type %q", s)
	}

	inner, ok := scalarAliases[elem]
	if !ok {
		return Invalid, fmt.Errorf("unknown element type in %q", s)
	}
	t, ok := listOf(inner)
	if !ok {
		return Invalid, fmt.Errorf("unsupported list type %q", s)
	}
	return t, nil
}

func listElem(name string) (string, bool) {
	if elem, ok := strings.CutSuffix(name, "[]"); ok {
		return elem, true
	}
	for _, prefix := range []string{"list", "vector", "array"} {
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok || len(rest) < 2 {
			continue
		}
		switch {
		case rest[0] == '<' && rest[len(rest)-1] == '>':
			return rest[1 : len(rest)-1], true
		case rest[0] == '[' && rest[len(rest)-1] == ']':
			return rest[1 : len(rest)-1], true
		}
	}
	return "", false
}
