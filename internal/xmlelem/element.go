// Package xmlelem provides a small DOM built on top of encoding/xml.
//
// The protocol grammar cares whether an attribute was given at all (an
// empty "default" is different from a missing one), a distinction
// encoding/xml's struct-tag unmarshalling collapses. Walking the token
// stream into this DOM keeps that distinction available to the model
// parsers.
package xmlelem

import (
	"encoding/xml"
	"io"

	"github.com/pkg/errors"
)

// Element is one tag in the document, with its attributes, character data,
// and child elements in document order.
type Element struct {
	Name     string
	Attr     map[string]string
	Children []*Element
	CharData string
}

// Parse reads a complete XML document from r and returns its root element.
func Parse(r io.Reader) (*Element, error) {
	dec := xml.NewDecoder(r)
	var root *Element
	var stack []*Element

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "parse xml")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name.Local, Attr: map[string]string{}}
			for _, a := range t.Attr {
				el.Attr[a.Name.Local] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			} else {
				root = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errors.Errorf("unbalanced end element %q", t.Name.Local)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].CharData += string(t)
			}
		}
	}

	if root == nil {
		return nil, errors.New("empty document")
	}
	return root, nil
}

// Has reports whether the named attribute was present at all, regardless
// of value — used where an empty value and a missing attribute mean
// different things (e.g. "default").
func (e *Element) Has(name string) bool {
	_, ok := e.Attr[name]
	return ok
}

// AttrString returns the named attribute, or def if it was not given.
func (e *Element) AttrString(name, def string) string {
	if v, ok := e.Attr[name]; ok {
		return v
	}
	return def
}

// AttrBool returns true when the named attribute is present and is not one
// of the recognized false spellings ("", "0", "false", "no").
func (e *Element) AttrBool(name string) bool {
	v, ok := e.Attr[name]
	if !ok {
		return false
	}
	switch v {
	case "", "0", "false", "no":
		return false
	default:
		return true
	}
}

// ChildrenByName returns direct children whose tag matches name.
func (e *Element) ChildrenByName(name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}
