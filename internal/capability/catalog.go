package capability

import (
	"sort"

	"github.com/soyeahso/alarmhound/internal/llm"
)

// Catalog maps capability names to implementations. Build it once at startup;
// after that it is read-only and safe to share between investigations.
type Catalog struct {
	caps  map[string]Capability
	order []string
}

// NewCatalog creates a catalog holding the given capabilities.
func NewCatalog(caps ...Capability) *Catalog {
	c := &Catalog{caps: make(map[string]Capability)}
	for _, cp := range caps {
		c.Register(cp)
	}
	return c
}

// Register stores cp under its descriptor name. A later registration under the
// same name replaces the earlier one and keeps its position.
func (c *Catalog) Register(cp Capability) {
	name := cp.Descriptor().Name
	if _, exists := c.caps[name]; !exists {
		c.order = append(c.order, name)
	}
	c.caps[name] = cp
}

// Lookup returns the capability registered under name.
func (c *Catalog) Lookup(name string) (Capability, bool) {
	if c == nil {
		return nil, false
	}
	cp, ok := c.caps[name]
	return cp, ok
}

// Descriptors returns the descriptors in registration order.
func (c *Catalog) Descriptors() []Descriptor {
	if c == nil {
		return []Descriptor{}
	}
	out := make([]Descriptor, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.caps[name].Descriptor())
	}
	return out
}

// Advertisement builds the tool set handed to the reasoning service. An empty
// catalog yields an empty, non-nil slice.
func (c *Catalog) Advertisement() []llm.ToolSpec {
	descs := c.Descriptors()
	tools := make([]llm.ToolSpec, 0, len(descs))
	for _, d := range descs {
		schema := d.Schema
		if schema == nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		tools = append(tools, llm.ToolSpec{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: schema,
		})
	}
	return tools
}

// Names returns the registered names sorted alphabetically.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.order))
	copy(names, c.order)
	sort.Strings(names)
	return names
}

// Len returns the number of registered capabilities.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.caps)
}
