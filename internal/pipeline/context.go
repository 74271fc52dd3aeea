// Package pipeline contains the run orchestrator and the prompt context it
// threads through the stages.
package pipeline

import (
	"fmt"

	"github.com/promptforge/promptforge/internal/stage"
)

// Context is the ordered, append-only record of every piece of text produced
// during one run, addressable by stage name. It is owned by the Runner and
// lives exactly as long as the run.
type Context struct {
	names   []string
	entries map[string]string
}

// NewContext creates a context seeded with the operator's input prompt under
// the reserved seed name.
func NewContext(input string) *Context {
	return &Context{
		names:   []string{stage.SeedName},
		entries: map[string]string{stage.SeedName: input},
	}
}

// Append records a stage result. Overwriting an existing entry is a
// programming error, not something a stage plan can express.
func (c *Context) Append(name, text string) error {
	if _, ok := c.entries[name]; ok {
		return fmt.Errorf("context entry %q already exists", name)
	}
	c.names = append(c.names, name)
	c.entries[name] = text
	return nil
}

// Replace swaps the text of an existing entry in place, keeping its position.
// Only the interactive-stage transcript uses this: the raw questions are
// replaced by the question/answer transcript so later stages see both.
func (c *Context) Replace(name, text string) error {
	if _, ok := c.entries[name]; !ok {
		return fmt.Errorf("context entry %q does not exist", name)
	}
	c.entries[name] = text
	return nil
}

// Get returns the entry stored under name.
func (c *Context) Get(name string) (string, bool) {
	text, ok := c.entries[name]
	return text, ok
}

// Has reports whether an entry exists.
func (c *Context) Has(name string) bool {
	_, ok := c.entries[name]
	return ok
}

// Names returns the entry names in insertion order.
func (c *Context) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of entries, seed included.
func (c *Context) Len() int {
	return len(c.names)
}
