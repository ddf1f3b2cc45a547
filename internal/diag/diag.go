// Package diag implements the collector used by model-level validation to
// report non-fatal problems without writing to an output stream directly.
package diag

import "fmt"

// Diagnostic is a single human-readable line attributing a problem to the
// structure and field where it was found.
type Diagnostic struct {
	StructName string
	FieldName  string
	Reason     string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.StructName, d.FieldName, d.Reason)
}

// Collector accumulates Diagnostics in the order they were reported. It is
// passed by pointer through ParserDriver and the model tree; nothing below
// the CLI decides where diagnostics end up.
type Collector struct {
	items []Diagnostic
}

// Add appends a diagnostic line.
func (c *Collector) Add(structName, fieldName, reason string) {
	c.items = append(c.items, Diagnostic{StructName: structName, FieldName: fieldName, Reason: reason})
}

// Addf appends a diagnostic line with a formatted reason.
func (c *Collector) Addf(structName, fieldName, format string, args ...any) {
	c.Add(structName, fieldName, fmt.Sprintf(format, args...))
}

// All returns the collected diagnostics in report order.
func (c *Collector) All() []Diagnostic {
	return c.items
}

// Len reports how many diagnostics have been collected.
func (c *Collector) Len() int {
	return len(c.items)
}

// Lines renders every diagnostic as "<structName>: <fieldName>: <reason>".
func (c *Collector) Lines() []string {
	lines := make([]string, len(c.items))
	for i, d := range c.items {
		lines[i] = d.String()
	}
	return lines
}
