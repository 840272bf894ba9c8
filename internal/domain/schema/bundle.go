package schema

// Bundle holds validated, coerced arguments for a single invocation.
// Accessors return the zero value for absent fields.
type Bundle map[string]any

func (b Bundle) String(name string) string {
	s, _ := b[name].(string)
	return s
}

func (b Bundle) Int(name string) int64 {
	n, _ := b[name].(int64)
	return n
}

func (b Bundle) Float(name string) float64 {
	f, _ := b[name].(float64)
	return f
}

func (b Bundle) Object(name string) map[string]any {
	m, _ := b[name].(map[string]any)
	return m
}

// Has reports whether name is set.
func (b Bundle) Has(name string) bool {
	_, ok := b[name]
	return ok
}
