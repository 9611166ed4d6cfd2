package wrapper

// Context is the value every language template is rendered with.
type Context struct {
	Code         string
	FunctionName string
	Shape        Shape
	Signature    Signature
	Input        InputFormat
}

// Field is a parameter bound to its position on stdin.
type Field struct {
	Name string
	Type Type
	// Line is the zero-based stdin line the field is read from.
	Line int
	// Index is the token position on that line. Lists take every token from
	// Index onwards.
	Index int
	// Whole is set for a string that is alone on its line; it takes the line
	// verbatim instead of a single token.
	Whole bool
}

// Line groups the parameters read from one stdin line.
type Line struct {
	Index  int
	Fields []Field
}

// NeedsTokens reports whether the driver has to split this line into tokens.
func (l Line) NeedsTokens() bool {
	for _, f := range l.Fields {
		if !f.Whole {
			return true
		}
	}
	return false
}

// Lines returns the stdin lines that carry at least one parameter.
// Counter fields are dropped but keep their token positions.
func (c Context) Lines() []Line {
	var out []Line
	for i, names := range c.Input.Lines {
		line := Line{Index: i}
		for j, name := range names {
			p, ok := c.Signature.Param(name)
			if !ok {
				continue
			}
			line.Fields = append(line.Fields, Field{
				Name:  p.Name,
				Type:  p.Type,
				Line:  i,
				Index: j,
				Whole: p.Type == String && len(names) == 1,
			})
		}
		if len(line.Fields) > 0 {
			out = append(out, line)
		}
	}
	return out
}

// Args returns the parameter names in call order.
func (c Context) Args() []string {
	args := make([]string, len(c.Signature.Params))
	for i, p := range c.Signature.Params {
		args[i] = p.Name
	}
	return args
}

func (c Context) IsClass() bool {
	return c.Shape == ShapeClass
}

// Returns is the declared return type.
func (c Context) Returns() Type {
	return c.Signature.Returns
}
