// Package mapping turns declarative per-template rules into the named string
// variables a provider template consumes. Rules read from a request-scoped
// Context of serialized domain objects; a closed method registry covers the
// few rules that need computed text instead of a stored field.
package mapping

// ContextObject is implemented by domain types that can expose themselves to
// the mapping engine as a plain key-value tree.
type ContextObject interface {
	ContextMap() map[string]interface{}
}

// Context is the request-scoped registry of domain objects available to
// mapping rules. Never persisted, never shared across requests.
type Context struct {
	objects map[string]map[string]interface{}
	special map[string]interface{}
}

// NewContext returns an empty mapping context.
func NewContext() *Context {
	return &Context{
		objects: make(map[string]map[string]interface{}),
		special: make(map[string]interface{}),
	}
}

// Register snapshots a domain object under the given source-model name.
func (c *Context) Register(name string, obj ContextObject) {
	c.objects[name] = obj.ContextMap()
}

// RegisterMap registers an already-built key-value tree. Used for the empty
// cohort-comparison placeholder when no comparison could be computed.
func (c *Context) RegisterMap(name string, m map[string]interface{}) {
	c.objects[name] = m
}

// RegisterSpecial registers a live object whose methods may be invoked by
// method_call rules.
func (c *Context) RegisterSpecial(name string, obj interface{}) {
	c.special[name] = obj
}

// Lookup returns the tree registered under name.
func (c *Context) Lookup(name string) (map[string]interface{}, bool) {
	m, ok := c.objects[name]
	return m, ok
}

// Special returns the live object registered under name.
func (c *Context) Special(name string) (interface{}, bool) {
	obj, ok := c.special[name]
	return obj, ok
}
