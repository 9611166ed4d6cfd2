// Package cpp provides the C++ wrapper for skillupx. Generated programs
// target GNU C++14 or later.
package cpp

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/skillupx/skillupx/wrapper"
)

//go:embed driver.cpp.tmpl
var driverSource string

var driver = template.Must(template.New("main.cpp").Funcs(template.FuncMap{
	"parse": parse,
	"typ":   typ,
	"join":  strings.Join,
}).Parse(driverSource))

var keywords = map[string]bool{
	"alignas": true, "alignof": true, "and": true, "and_eq": true, "asm": true,
	"auto": true, "bitand": true, "bitor": true, "bool": true, "break": true,
	"case": true, "catch": true, "char": true, "char16_t": true,
	"char32_t": true, "class": true, "compl": true, "const": true,
	"constexpr": true, "const_cast": true, "continue": true, "decltype": true,
	"default": true, "delete": true, "do": true, "double": true,
	"dynamic_cast": true, "else": true, "enum": true, "explicit": true,
	"export": true, "extern": true, "false": true, "float": true, "for": true,
	"friend": true, "goto": true, "if": true, "inline": true, "int": true,
	"long": true, "mutable": true, "namespace": true, "new": true,
	"noexcept": true, "not": true, "not_eq": true, "nullptr": true,
	"operator": true, "or": true, "or_eq": true, "private": true,
	"protected": true, "public": true, "register": true,
	"reinterpret_cast": true, "return": true, "short": true, "signed": true,
	"sizeof": true, "static": true, "static_assert": true,
	"static_cast": true, "struct": true, "switch": true, "template": true,
	"this": true, "thread_local": true, "throw": true, "true": true,
	"try": true, "typedef": true, "typeid": true, "typename": true,
	"union": true, "unsigned": true, "using": true, "virtual": true,
	"void": true, "volatile": true, "wchar_t": true, "while": true,
	"xor": true, "xor_eq": true,
	"main": true, "std": true, "skillupx": true, "Solution": true,
	"min": true, "string": true, "vector": true, "size_t": true,
	"cout": true, "cin": true, "ios": true, "getline": true,
}

// Cpp implements the wrapper.Language interface for C++.
type Cpp struct{}

// New returns a C++ language wrapper.
func New() *Cpp {
	return &Cpp{}
}

// Name returns "cpp".
func (c *Cpp) Name() string {
	return "cpp"
}

func (c *Cpp) Aliases() []string {
	return []string{"c++", "cxx", "cc"}
}

func (c *Cpp) Extension() string {
	return ".cpp"
}

func (c *Cpp) Keyword(name string) bool {
	return keywords[name]
}

// Wrap renders a complete translation unit with main.
func (c *Cpp) Wrap(ctx wrapper.Context) (string, error) {
	var b strings.Builder
	if err := driver.Execute(&b, ctx); err != nil {
		return "", fmt.Errorf("render cpp driver: %w", err)
	}
	return b.String(), nil
}

func typ(t wrapper.Type) (string, error) {
	switch t {
	case wrapper.Int:
		return "int", nil
	case wrapper.Long:
		return "long long", nil
	case wrapper.Float:
		return "double", nil
	case wrapper.Bool:
		return "bool", nil
	case wrapper.String:
		return "string", nil
	case wrapper.IntList:
		return "vector<int>", nil
	case wrapper.LongList:
		return "vector<long long>", nil
	case wrapper.FloatList:
		return "vector<double>", nil
	case wrapper.StringList:
		return "vector<string>", nil
	default:
		return "", fmt.Errorf("unsupported type %s", t)
	}
}

func parse(f wrapper.Field) (string, error) {
	tokens := fmt.Sprintf("_t%d", f.Line)
	tok := fmt.Sprintf("skillupx::at(%s, %d)", tokens, f.Index)

	switch f.Type {
	case wrapper.Int:
		return "skillupx::to_int(" + tok + ")", nil
	case wrapper.Long:
		return "skillupx::to_long(" + tok + ")", nil
	case wrapper.Float:
		return "skillupx::to_double(" + tok + ")", nil
	case wrapper.Bool:
		return "skillupx::to_bool(" + tok + ")", nil
	case wrapper.String:
		if f.Whole {
			return fmt.Sprintf("skillupx::line(%d)", f.Line), nil
		}
		return tok, nil
	case wrapper.IntList:
		return fmt.Sprintf("skillupx::parse_list<int>(%s, %d, skillupx::to_int)", tokens, f.Index), nil
	case wrapper.LongList:
		return fmt.Sprintf("skillupx::parse_list<long long>(%s, %d, skillupx::to_long)", tokens, f.Index), nil
	case wrapper.FloatList:
		return fmt.Sprintf("skillupx::parse_list<double>(%s, %d, skillupx::to_double)", tokens, f.Index), nil
	case wrapper.StringList:
		return fmt.Sprintf("vector<string>(%s.begin() + min<size_t>(%d, %s.size()), %s.end())", tokens, f.Index, tokens, tokens), nil
	default:
		return "", fmt.Errorf("unsupported parameter type %s", f.Type)
	}
}
