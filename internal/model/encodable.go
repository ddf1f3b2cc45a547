// Package model implements the typed tree the protocol compiler builds
// from an XML document: primitives, structures, packets, and enumerations,
// along with the symbolic length algebra threaded through them.
package model

import "github.com/nwidger/protogen/internal/lenexpr"

// Encodable is the shared contract every node in the model tree satisfies,
// regardless of whether it is a leaf (Primitive) or composite (Structure,
// Packet).
type Encodable interface {
	Name() string
	EncodedLength() Length
	IsPrimitive() bool
	IsArray() bool
	UsesBitfields() bool
	UsesDefaults() bool

	// DeclarationLines returns the struct-member declaration line(s) this
	// encodable contributes to its parent's typedef.
	DeclarationLines() []string

	// EncodeSnippet/DecodeSnippet return the C statements that belong
	// inside the parent structure's encode/decode function body.
	// isStructureMember selects "user->field" access over a bare
	// parameter. bitcount is passed through but neither read nor updated;
	// the emitted C code keeps the running bit offset in its own bitcount
	// local.
	EncodeSnippet(bigEndian bool, isStructureMember bool, bitcount *int) string
	DecodeSnippet(bigEndian bool, isStructureMember bool, bitcount *int, defaultEnabled bool) string
}

// Length holds the three parallel symbolic length expressions a node
// carries: the shortest possible encoding, the longest, and the length
// ignoring any trailing default fields.
type Length struct {
	Min         string
	Max         string
	NonDefault  string
}

// ZeroLength is the additive identity.
var ZeroLength = Length{Min: "0", Max: "0", NonDefault: "0"}

// Add combines two lengths term-by-term.
func (l Length) Add(o Length) Length {
	return Length{
		Min:        lenexpr.Add(l.Min, o.Min),
		Max:        lenexpr.Add(l.Max, o.Max),
		NonDefault: lenexpr.Add(l.NonDefault, o.NonDefault),
	}
}

// MultiplyBy scales every component by count (an expression string, e.g. a
// fixed array bound).
func (l Length) MultiplyBy(count string) Length {
	return Length{
		Min:        lenexpr.MultiplyBy(l.Min, count),
		Max:        lenexpr.MultiplyBy(l.Max, count),
		NonDefault: lenexpr.MultiplyBy(l.NonDefault, count),
	}
}

// ZeroMin returns a copy of l with Min forced to "0", used when a field's
// inclusion depends on a runtime condition (dependsOn) that cannot be
// assumed satisfied for a minimum-length calculation.
func (l Length) ZeroMin() Length {
	l.Min = "0"
	return l
}

// HasDefaultGap reports whether Min and NonDefault diverge, meaning at
// least one field contributes to NonDefault but not Min: a trailing
// default field, a variable-length array, or a dependsOn field.
func (l Length) HasDefaultGap() bool {
	return l.Min != l.NonDefault
}
