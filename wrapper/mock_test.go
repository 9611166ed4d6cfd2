package wrapper

import (
	"fmt"
	"strings"
)

// mockLanguage implements Language for testing orchestration
// without depending on the real templates.
type mockLanguage struct {
	name     string
	keywords map[string]bool
	fail     bool
}

func (m *mockLanguage) Name() string {
	return m.name
}

func (m *mockLanguage) Aliases() []string {
	return []string{m.name + "-alias"}
}

func (m *mockLanguage) Extension() string {
	return "." + m.name
}

func (m *mockLanguage) Keyword(name string) bool {
	return m.keywords[name]
}

func (m *mockLanguage) Wrap(ctx Context) (string, error) {
	if m.fail {
		return "", fmt.Errorf("render failed")
	}
	var lines []string
	for _, l := range ctx.Lines() {
		for _, f := range l.Fields {
			lines = append(lines, fmt.Sprintf("%s %s %d:%d whole=%v", f.Name, f.Type, f.Line, f.Index, f.Whole))
		}
	}
	return fmt.Sprintf("PRELUDE\n%s\nCALL %s(%s) shape=%s\n%s",
		ctx.Code, ctx.FunctionName, strings.Join(ctx.Args(), ","), ctx.Shape, strings.Join(lines, "\n")), nil
}

func newMockLanguage(name string, keywords ...string) *mockLanguage {
	m := &mockLanguage{name: name, keywords: make(map[string]bool)}
	for _, k := range keywords {
		m.keywords[k] = true
	}
	return m
}

type mapResolver map[string]ProblemSpec

func (r mapResolver) Resolve(name string) (ProblemSpec, bool) {
	p, ok := r[name]
	return p, ok
}
