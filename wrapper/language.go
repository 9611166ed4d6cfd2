package wrapper

// Language renders a runnable program for one target language.
type Language interface {
	// Name returns the canonical language name (e.g. "python").
	Name() string

	// Aliases returns alternative names accepted for this language.
	Aliases() []string

	// Extension returns the source file extension including the dot.
	Extension() string

	// Keyword reports whether name is reserved and cannot be used as a
	// function or parameter name.
	Keyword(name string) bool

	// Wrap renders the prelude, the user code and the stdin driver.
	Wrap(ctx Context) (string, error)
}

// Resolver looks up problem details by function name.
type Resolver interface {
	Resolve(functionName string) (ProblemSpec, bool)
}
