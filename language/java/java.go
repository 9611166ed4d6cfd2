// Package java provides the Java wrapper for skillupx.
//
// Generated programs declare public class Main. In the function shape the
// submitted methods become members of Main; in the class shape the submitted
// Solution class precedes Main in the same file.
package java

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/skillupx/skillupx/wrapper"
)

//go:embed driver.java.tmpl
var driverSource string

var driver = template.Must(template.New("Main.java").Funcs(template.FuncMap{
	"parse": parse,
	"typ":   typ,
	"join":  strings.Join,
}).Parse(driverSource))

var keywords = map[string]bool{
	"abstract": true, "assert": true, "boolean": true, "break": true,
	"byte": true, "case": true, "catch": true, "char": true, "class": true,
	"const": true, "continue": true, "default": true, "do": true,
	"double": true, "else": true, "enum": true, "extends": true, "final": true,
	"finally": true, "float": true, "for": true, "goto": true, "if": true,
	"implements": true, "import": true, "instanceof": true, "int": true,
	"interface": true, "long": true, "native": true, "new": true,
	"package": true, "private": true, "protected": true, "public": true,
	"return": true, "short": true, "static": true, "strictfp": true,
	"super": true, "switch": true, "synchronized": true, "this": true,
	"throw": true, "throws": true, "transient": true, "try": true,
	"void": true, "volatile": true, "while": true, "true": true,
	"false": true, "null": true, "var": true, "record": true, "yield": true,
	"Main": true, "Solution": true, "String": true, "System": true,
	"Integer": true, "Long": true, "Double": true, "Float": true,
	"Boolean": true, "Number": true, "Object": true, "Arrays": true,
	"Math": true, "Locale": true, "Collectors": true, "StringJoiner": true,
}

// Java implements the wrapper.Language interface.
type Java struct{}

// New returns a Java language wrapper.
func New() *Java {
	return &Java{}
}

// Name returns "java".
func (j *Java) Name() string {
	return "java"
}

func (j *Java) Aliases() []string {
	return nil
}

func (j *Java) Extension() string {
	return ".java"
}

func (j *Java) Keyword(name string) bool {
	return keywords[name]
}

// Wrap renders a complete Main.java.
func (j *Java) Wrap(ctx wrapper.Context) (string, error) {
	var b strings.Builder
	if err := driver.Execute(&b, ctx); err != nil {
		return "", fmt.Errorf("render java driver: %w", err)
	}
	return b.String(), nil
}

func typ(t wrapper.Type) (string, error) {
	switch t {
	case wrapper.Int:
		return "int", nil
	case wrapper.Long:
		return "long", nil
	case wrapper.Float:
		return "double", nil
	case wrapper.Bool:
		return "boolean", nil
	case wrapper.String:
		return "String", nil
	case wrapper.IntList:
		return "int[]", nil
	case wrapper.LongList:
		return "long[]", nil
	case wrapper.FloatList:
		return "double[]", nil
	case wrapper.StringList:
		return "String[]", nil
	default:
		return "", fmt.Errorf("unsupported type %s", t)
	}
}

func parse(f wrapper.Field) (string, error) {
	tokens := fmt.Sprintf("_t%d", f.Line)
	tok := fmt.Sprintf("%s[%d]", tokens, f.Index)

	switch f.Type {
	case wrapper.Int:
		return "Integer.parseInt(" + tok + ")", nil
	case wrapper.Long:
		return "Long.parseLong(" + tok + ")", nil
	case wrapper.Float:
		return "Double.parseDouble(" + tok + ")", nil
	case wrapper.Bool:
		return "_bool(" + tok + ")", nil
	case wrapper.String:
		if f.Whole {
			return fmt.Sprintf("_line(%d)", f.Line), nil
		}
		return tok, nil
	case wrapper.IntList:
		return fmt.Sprintf("_ints(%s, %d)", tokens, f.Index), nil
	case wrapper.LongList:
		return fmt.Sprintf("_longs(%s, %d)", tokens, f.Index), nil
	case wrapper.FloatList:
		return fmt.Sprintf("_doubles(%s, %d)", tokens, f.Index), nil
	case wrapper.StringList:
		return fmt.Sprintf("_strings(%s, %d)", tokens, f.Index), nil
	default:
		return "", fmt.Errorf("unsupported parameter type %s", f.Type)
	}
}
