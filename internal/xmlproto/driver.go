// Package xmlproto implements the top-level ParserDriver: it owns the
// whole XML document, resolves module naming, dispatches Enum/Structure/
// Packet declarations into the model package, and exposes the global
// enumeration symbol table used to substitute names for values in
// generated Markdown.
package xmlproto

import (
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/nwidger/protogen/internal/diag"
	"github.com/nwidger/protogen/internal/model"
	"github.com/nwidger/protogen/internal/xmlelem"
)

// Protocol is the fully parsed document: protocol-wide metadata plus every
// top-level Enum, Structure, and Packet it declares.
type Protocol struct {
	Name    string
	Prefix  string
	API     string
	Version string
	BigEndian bool

	Enums      []*model.EnumModel
	Structures []*model.Structure
	Packets    []*model.Packet

	Diagnostics diag.Collector
}

// Parse reads a complete XML document and builds a Protocol from it. Only
// the document shape is fatal (malformed XML, missing root); everything
// else becomes a Diagnostics entry and the offending piece is skipped or
// has its offending attribute cleared, per the error taxonomy.
func Parse(r io.Reader) (*Protocol, error) {
	root, err := xmlelem.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "read protocol document")
	}
	if root.Name != "Protocol" {
		return nil, errors.Errorf("root element is %q, want Protocol", root.Name)
	}

	p := &Protocol{
		Name:    root.AttrString("name", ""),
		Prefix:  root.AttrString("prefix", ""),
		API:     root.AttrString("api", ""),
		Version: root.AttrString("version", ""),
	}
	p.BigEndian = !strings.EqualFold(root.AttrString("endian", "big"), "little")

	for _, el := range root.Children {
		switch el.Name {
		case "Enum":
			em := &model.EnumModel{}
			em.Parse(el, &p.Diagnostics)
			em.ComputeNumberList()
			p.Enums = append(p.Enums, em)
		case "Structure":
			p.Structures = append(p.Structures, model.ParseStructure(el, p.Prefix, &p.Diagnostics))
		case "Packet":
			p.Packets = append(p.Packets, model.ParsePacket(el, p.Prefix, &p.Diagnostics))
		default:
			// Unknown top-level elements are ignored; the grammar only
			// defines these three kinds of top-level declarations.
		}
	}

	return p, nil
}

// PacketIDs returns a map from each packet's ID to the anchor of that
// packet's Markdown heading (the ID itself), used when an EnumModel value
// names a known packet ID.
func (p *Protocol) PacketIDs() map[string]string {
	ids := make(map[string]string, len(p.Packets))
	for _, pkt := range p.Packets {
		ids[pkt.ID] = pkt.ID
	}
	return ids
}

// ReplaceEnumerationNameWithValue scans the global enum value list and
// substitutes any enumerator name occurrence in text with its resolved
// numeric/symbolic form. Used by Markdown rendering to show a packet ID
// both symbolically and numerically.
func (p *Protocol) ReplaceEnumerationNameWithValue(text string) string {
	for _, e := range p.Enums {
		for _, v := range e.Values {
			if v.Name == "" {
				continue
			}
			if strings.Contains(text, v.Name) {
				text = strings.ReplaceAll(text, v.Name, v.NumberOrSym)
			}
		}
	}
	return text
}
