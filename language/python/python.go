// Package python provides the Python 3 wrapper for skillupx.
package python

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/skillupx/skillupx/wrapper"
)

//go:embed driver.py.tmpl
var driverSource string

var driver = template.Must(template.New("driver.py").Funcs(template.FuncMap{
	"parse":  parse,
	"format": format,
	"join":   strings.Join,
}).Parse(driverSource))

var keywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
	"print": true, "sys": true, "str": true, "int": true, "float": true,
	"list": true, "Solution": true,
}

// Python implements the wrapper.Language interface for Python 3.
type Python struct{}

// New returns a Python language wrapper.
func New() *Python {
	return &Python{}
}

// Name returns "python".
func (p *Python) Name() string {
	return "python"
}

func (p *Python) Aliases() []string {
	return []string{"py", "python3"}
}

func (p *Python) Extension() string {
	return ".py"
}

// Keyword reports reserved words plus the names the driver relies on.
func (p *Python) Keyword(name string) bool {
	return keywords[name]
}

// Wrap renders the imports, the user code and a stdin driver.
func (p *Python) Wrap(ctx wrapper.Context) (string, error) {
	var b strings.Builder
	if err := driver.Execute(&b, ctx); err != nil {
		return "", fmt.Errorf("render python driver: %w", err)
	}
	return b.String(), nil
}

func parse(f wrapper.Field) (string, error) {
	tok := fmt.Sprintf("_t%d[%d]", f.Line, f.Index)
	rest := fmt.Sprintf("_t%d[%d:]", f.Line, f.Index)

	switch f.Type {
	case wrapper.Int, wrapper.Long:
		return "int(" + tok + ")", nil
	case wrapper.Float:
		return "float(" + tok + ")", nil
	case wrapper.Bool:
		return tok + `.lower() in ("true", "1")`, nil
	case wrapper.String:
		if f.Whole {
			return fmt.Sprintf("_skillupx_line(_lines, %d)", f.Line), nil
		}
		return tok, nil
	case wrapper.IntList, wrapper.LongList:
		return "[int(_x) for _x in " + rest + "]", nil
	case wrapper.FloatList:
		return "[float(_x) for _x in " + rest + "]", nil
	case wrapper.StringList:
		return "list(" + rest + ")", nil
	default:
		return "", fmt.Errorf("unsupported parameter type %s", f.Type)
	}
}

func format(t wrapper.Type, expr string) (string, error) {
	switch t {
	case wrapper.Int, wrapper.Long, wrapper.String:
		return "str(" + expr + ")", nil
	case wrapper.Float:
		return `"%.5f" % ` + expr, nil
	case wrapper.Bool:
		return `"true" if ` + expr + ` else "false"`, nil
	case wrapper.IntList, wrapper.LongList, wrapper.StringList:
		return `" ".join(str(_x) for _x in ` + expr + ")", nil
	case wrapper.FloatList:
		return `" ".join("%.5f" % _x for _x in ` + expr + ")", nil
	default:
		return "", fmt.Errorf("unsupported return type %s", t)
	}
}
