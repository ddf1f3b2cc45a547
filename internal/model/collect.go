package model

// CollectPrimitives walks children depth-first and returns every Primitive
// reachable from them, including those nested inside child Structures.
// Used by the emitter to gather the full set of support-header prototypes a
// protocol's generated code calls.
func CollectPrimitives(children []Encodable) []*Primitive {
	var out []*Primitive
	for _, c := range children {
		switch v := c.(type) {
		case *Primitive:
			out = append(out, v)
		case *Structure:
			out = append(out, CollectPrimitives(v.Children)...)
		}
	}
	return out
}

// CollectStructures walks children depth-first and returns every nested
// Structure reachable from them, innermost first, so each one's own
// encode/decode helper functions can be emitted before anything that
// calls them.
func CollectStructures(children []Encodable) []*Structure {
	var out []*Structure
	for _, c := range children {
		if v, ok := c.(*Structure); ok {
			out = append(out, CollectStructures(v.Children)...)
			out = append(out, v)
		}
	}
	return out
}
