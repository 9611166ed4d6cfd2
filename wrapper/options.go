package wrapper

type config struct {
	languages []Language
	resolver  Resolver
}

// Option configures a [Wrapper].
type Option func(*config)

// WithLanguages registers target languages. A later language replaces an
// earlier one with the same name or alias.
func WithLanguages(langs ...Language) Option {
	return func(c *config) {
		c.languages = append(c.languages, langs...)
	}
}

// WithResolver supplies signatures for requests that carry none.
func WithResolver(r Resolver) Option {
	return func(c *config) {
		c.resolver = r
	}
}
