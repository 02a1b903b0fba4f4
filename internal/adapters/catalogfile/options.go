package catalogfile

// Option configures catalog reading.
type Option func(*config)

type config struct {
	skipNames map[string]struct{}
}

func newConfig(opts []Option) config {
	cfg := config{}
	WithSkipNames(DefaultSkipNames...)(&cfg)
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c config) skip(name string) bool {
	_, ok := c.skipNames[name]
	return ok
}

// WithSkipNames replaces the CSV act names treated as section headers.
// Calling it with no names disables skipping.
func WithSkipNames(names ...string) Option {
	return func(c *config) {
		c.skipNames = make(map[string]struct{}, len(names))
		for _, n := range names {
			c.skipNames[n] = struct{}{}
		}
	}
}
