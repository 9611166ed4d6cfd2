// Package javascript provides the JavaScript wrapper for skillupx. Generated
// programs read stdin through Node's fs module or, under QuickJS, through std.
//
// long and long[] parameters are plain Numbers, exact only up to 2^53.
// Problems needing larger values should use another language or take the
// value as a string.
package javascript

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/skillupx/skillupx/wrapper"
)

//go:embed driver.js.tmpl
var driverSource string

var driver = template.Must(template.New("driver.js").Funcs(template.FuncMap{
	"parse":  parse,
	"format": format,
	"join":   strings.Join,
}).Parse(driverSource))

var keywords = map[string]bool{
	"await": true, "break": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "debugger": true, "default": true,
	"delete": true, "do": true, "else": true, "enum": true, "export": true,
	"extends": true, "false": true, "finally": true, "for": true,
	"function": true, "if": true, "implements": true, "import": true,
	"in": true, "instanceof": true, "interface": true, "let": true, "new": true,
	"null": true, "package": true, "private": true, "protected": true,
	"public": true, "return": true, "static": true, "super": true,
	"switch": true, "this": true, "throw": true, "true": true, "try": true,
	"typeof": true, "var": true, "void": true, "while": true, "with": true,
	"yield": true, "arguments": true, "eval": true, "undefined": true,
	"require": true, "std": true, "console": true, "String": true,
	"Number": true, "Array": true, "parseInt": true, "parseFloat": true,
	"Solution": true,
}

// JavaScript implements the wrapper.Language interface.
type JavaScript struct{}

// New returns a JavaScript language wrapper.
func New() *JavaScript {
	return &JavaScript{}
}

// Name returns "javascript".
func (j *JavaScript) Name() string {
	return "javascript"
}

func (j *JavaScript) Aliases() []string {
	return []string{"js", "node", "nodejs"}
}

func (j *JavaScript) Extension() string {
	return ".js"
}

func (j *JavaScript) Keyword(name string) bool {
	return keywords[name]
}

// Wrap renders the stdin helpers, the user code and a driver.
func (j *JavaScript) Wrap(ctx wrapper.Context) (string, error) {
	var b strings.Builder
	if err := driver.Execute(&b, ctx); err != nil {
		return "", fmt.Errorf("render javascript driver: %w", err)
	}
	return b.String(), nil
}

func parse(f wrapper.Field) (string, error) {
	tok := fmt.Sprintf("_t%d[%d]", f.Line, f.Index)
	rest := fmt.Sprintf("_t%d.slice(%d)", f.Line, f.Index)

	switch f.Type {
	case wrapper.Int:
		return "parseInt(" + tok + ", 10)", nil
	case wrapper.Long:
		// Lossy above Number.MAX_SAFE_INTEGER.
		return "Number(" + tok + ")", nil
	case wrapper.Float:
		return "parseFloat(" + tok + ")", nil
	case wrapper.Bool:
		return `["true", "1"].includes(String(` + tok + `).toLowerCase())`, nil
	case wrapper.String:
		if f.Whole {
			return fmt.Sprintf("_skillupxLine(_lines, %d)", f.Line), nil
		}
		return tok, nil
	case wrapper.IntList:
		return rest + ".map((x) => parseInt(x, 10))", nil
	case wrapper.LongList:
		return rest + ".map((x) => Number(x))", nil
	case wrapper.FloatList:
		return rest + ".map((x) => parseFloat(x))", nil
	case wrapper.StringList:
		return rest, nil
	default:
		return "", fmt.Errorf("unsupported parameter type %s", f.Type)
	}
}

func format(t wrapper.Type, expr string) (string, error) {
	switch t {
	case wrapper.Int, wrapper.Long, wrapper.String:
		return "String(" + expr + ")", nil
	case wrapper.Float:
		return "_skillupxFixed(" + expr + ")", nil
	case wrapper.Bool:
		return expr + ` ? "true" : "false"`, nil
	case wrapper.IntList, wrapper.LongList, wrapper.StringList:
		return "Array.from(" + expr + `).map((x) => String(x)).join(" ")`, nil
	case wrapper.FloatList:
		return "Array.from(" + expr + `).map((x) => _skillupxFixed(x)).join(" ")`, nil
	default:
		return "", fmt.Errorf("unsupported return type %s", t)
	}
}
