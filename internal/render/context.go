// Package render evaluates the variables of a template through the
// extension registry and produces the final expansion text.
package render

import (
	"errors"
	"fmt"

	"snipd/internal/extension"
)

// ErrAlreadySet is returned when a variable is written twice in one pass.
var ErrAlreadySet = errors.New("render: variable already set in this pass")

// Context accumulates the results of one render pass. Entries are written
// once and never changed afterwards. A Context belongs to a single pass and
// is not safe for concurrent use.
type Context struct {
	results map[string]extension.Result
	order   []string
}

// NewContext returns an empty pass context.
func NewContext() *Context {
	return &Context{results: make(map[string]extension.Result)}
}

// Lookup returns the result stored under name.
func (c *Context) Lookup(name string) (extension.Result, bool) {
	r, ok := c.results[name]
	return r, ok
}

// Each calls fn for every stored result in the order they were produced.
func (c *Context) Each(fn func(name string, r extension.Result)) {
	for _, name := range c.order {
		fn(name, c.results[name])
	}
}

// Len returns the number of stored results.
func (c *Context) Len() int { return len(c.order) }

func (c *Context) set(name string, r extension.Result) error {
	if _, ok := c.results[name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadySet, name)
	}
	c.results[name] = r
	c.order = append(c.order, name)
	return nil
}
