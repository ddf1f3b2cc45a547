package model

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/nwidger/protogen/internal/diag"
	"github.com/nwidger/protogen/internal/xmlelem"
)

// InterfaceMode selects which of the two generated API styles a packet
// exposes.
type InterfaceMode int

const (
	// InterfaceAuto lets ParsePacket choose based on child count.
	InterfaceAuto InterfaceMode = iota
	InterfaceStructure
	InterfaceParameter
)

// Packet specialises Structure with a packet identifier and interface
// selection.
type Packet struct {
	*Structure

	Prefix string
	ID     string
	Mode   InterfaceMode
}

// ParsePacket builds a Packet from a <Packet> element. array and
// dependsOn are rejected on packets per the invariant in §3; any XML
// author who supplies them gets a diagnostic and the attribute cleared.
func ParsePacket(el *xmlelem.Element, prefix string, d *diag.Collector) *Packet {
	s := ParseStructure(el, prefix, d)
	if s.Array != "" {
		d.Add(s.NameVal, s.NameVal, "a packet cannot be an array")
		s.Array = ""
		s.VariableArray = ""
	}
	if s.DependsOn != "" {
		d.Add(s.NameVal, s.NameVal, "a packet cannot use dependsOn")
		s.DependsOn = ""
	}
	s.computeLength()

	p := &Packet{Structure: s, Prefix: prefix}

	p.ID = el.AttrString("ID", "")
	if p.ID == "" {
		p.ID = strcase.ToScreamingSnake(s.NameVal)
	}

	structureWanted := el.AttrBool("structureInterface")
	parameterWanted := el.AttrBool("parameterInterface")

	switch {
	case structureWanted && !parameterWanted:
		p.Mode = InterfaceStructure
	case parameterWanted && !structureWanted:
		p.Mode = InterfaceParameter
	case len(s.Children) > 1:
		p.Mode = InterfaceStructure
	default:
		p.Mode = InterfaceParameter
	}

	return p
}

// PacketIDFuncName returns the function name of this packet's ID
// accessor.
func (p *Packet) PacketIDFuncName() string {
	return fmt.Sprintf("get%s%sPacketID", p.Prefix, p.NameVal)
}

func (p *Packet) MinDataLengthFuncName() string {
	return fmt.Sprintf("get%s%sMinDataLength", p.Prefix, p.NameVal)
}

// RenderUtilityFunctions emits the get<Prefix><Name>PacketID and
// get<Prefix><Name>MinDataLength accessor definitions.
func (p *Packet) RenderUtilityFunctions() string {
	var b strings.Builder
	fmt.Fprintf(&b, "uint32_t %s(void)\n{\n    return %s;\n}\n\n", p.PacketIDFuncName(), p.ID)

	minLen := p.length.Min
	if minLen == "" {
		minLen = "0"
	}
	fmt.Fprintf(&b, "int %s(void)\n{\n    return %s;\n}\n", p.MinDataLengthFuncName(), minLen)
	return b.String()
}

// RenderStructurePacketFunctions emits the structure-interface encode and
// decode bodies: encode/decode<Prefix><Name>PacketStructure(pkt, user).
func (p *Packet) RenderStructurePacketFunctions(bigEndian bool) string {
	var b strings.Builder
	hasFields := len(p.Children) > 0

	if hasFields {
		fmt.Fprintf(&b, "void encode%s%sPacketStructure(void* pkt, const %s* user)\n{\n", p.Prefix, p.NameVal, p.TypeNameVal)
	} else {
		fmt.Fprintf(&b, "void encode%s%sPacketStructure(void* pkt)\n{\n", p.Prefix, p.NameVal)
	}
	b.WriteString("    uint8_t* data = getProtocolPacketData(pkt);\n")
	b.WriteString("    int byteindex = 0;\n")
	if p.HasBitfieldsVal {
		b.WriteString("    int bitcount = 0;\n")
	}
	if p.NeedsIteratorVal {
		b.WriteString("    int i = 0;\n")
	}
	bitcount := 0
	for _, c := range p.Children {
		b.WriteString(c.EncodeSnippet(bigEndian, true, &bitcount))
	}
	fmt.Fprintf(&b, "\n    finishProtocolPacket(pkt, byteindex, %s());\n}\n\n", p.PacketIDFuncName())

	fmt.Fprintf(&b, "int decode%s%sPacketStructure(const void* pkt, %s* user)\n{\n", p.Prefix, p.NameVal, p.TypeNameVal)
	b.WriteString("    int numBytes;\n    int byteindex = 0;\n    const uint8_t* data;\n")
	if p.HasBitfieldsVal {
		b.WriteString("    int bitcount = 0;\n")
	}
	if p.NeedsIteratorVal {
		b.WriteString("    int i = 0;\n")
	}
	fmt.Fprintf(&b, "\n    if(getProtocolPacketID(pkt) != %s())\n        return 0;\n\n", p.PacketIDFuncName())
	fmt.Fprintf(&b, "    numBytes = getProtocolPacketSize(pkt);\n    if(numBytes < %s())\n        return 0;\n\n", p.MinDataLengthFuncName())
	b.WriteString("    data = getProtocolPacketDataConst(pkt);\n\n")

	if p.HasDefaultsVal {
		b.WriteString("    // this packet has default fields, make sure they are set\n")
		for _, c := range p.Children {
			if prim, ok := c.(*Primitive); ok && prim.DefaultGiven {
				fmt.Fprintf(&b, "    user->%s = %s;\n", prim.NameVal, prim.Default)
			}
		}
		b.WriteString("\n")
	}

	bitcount = 0
	i := 0
	for ; i < len(p.Children); i++ {
		if c, ok := p.Children[i].(*Primitive); ok && c.DefaultGiven {
			break
		}
		if c, ok := p.Children[i].(*Structure); ok && c.UsesDefaults() {
			break
		}
		b.WriteString(p.Children[i].DecodeSnippet(bigEndian, true, &bitcount, false))
	}

	if p.length.HasDefaultGap() && i > 0 {
		b.WriteString("\n    // used variable length arrays or dependent fields, check actual length\n")
		b.WriteString("    if(numBytes < byteindex)\n        return 0;\n")
	}

	for ; i < len(p.Children); i++ {
		b.WriteString(p.Children[i].DecodeSnippet(bigEndian, true, &bitcount, false))
	}

	b.WriteString("\n    return 1;\n}\n")
	return b.String()
}

// RenderParameterPacketFunctions emits the parameter-interface encode and
// decode bodies: one argument per field instead of a user struct pointer.
func (p *Packet) RenderParameterPacketFunctions(bigEndian bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "void encode%s%sPacket(void* pkt%s)\n{\n", p.Prefix, p.NameVal, p.parameterList(false))
	b.WriteString("    uint8_t* data = getProtocolPacketData(pkt);\n    int byteindex = 0;\n")
	if p.HasBitfieldsVal {
		b.WriteString("    int bitcount = 0;\n")
	}
	if p.NeedsIteratorVal {
		b.WriteString("    int i = 0;\n")
	}
	bitcount := 0
	for _, c := range p.Children {
		b.WriteString(c.EncodeSnippet(bigEndian, false, &bitcount))
	}
	fmt.Fprintf(&b, "\n    finishProtocolPacket(pkt, byteindex, %s());\n}\n\n", p.PacketIDFuncName())

	fmt.Fprintf(&b, "int decode%s%sPacket(const void* pkt%s)\n{\n", p.Prefix, p.NameVal, p.parameterList(true))
	b.WriteString("    int numBytes;\n    int byteindex = 0;\n    const uint8_t* data;\n")
	if p.HasBitfieldsVal {
		b.WriteString("    int bitcount = 0;\n")
	}
	if p.NeedsIteratorVal {
		b.WriteString("    int i = 0;\n")
	}
	fmt.Fprintf(&b, "\n    if(getProtocolPacketID(pkt) != %s())\n        return 0;\n\n", p.PacketIDFuncName())
	fmt.Fprintf(&b, "    numBytes = getProtocolPacketSize(pkt);\n    if(numBytes < %s())\n        return 0;\n\n", p.MinDataLengthFuncName())
	b.WriteString("    data = getProtocolPacketDataConst(pkt);\n\n")

	bitcount = 0
	for _, c := range p.Children {
		b.WriteString(c.DecodeSnippet(bigEndian, false, &bitcount, true))
	}
	b.WriteString("\n    return 1;\n}\n")
	return b.String()
}

// RenderEmptyPacketFunctions renders the zero-children special case: encode is
// a bare finishPacket call, decode is nothing but the ID check.
func (p *Packet) RenderEmptyPacketFunctions() string {
	var b strings.Builder
	fmt.Fprintf(&b, "void encode%s%sPacket(void* pkt)\n{\n    finishProtocolPacket(pkt, 0, %s());\n}\n\n", p.Prefix, p.NameVal, p.PacketIDFuncName())
	fmt.Fprintf(&b, "int decode%s%sPacket(const void* pkt)\n{\n    if(getProtocolPacketID(pkt) != %s())\n        return 0;\n    return 1;\n}\n", p.Prefix, p.NameVal, p.PacketIDFuncName())
	return b.String()
}

// RenderUtilityPrototypes declares RenderUtilityFunctions' two accessors
// for this packet's own header.
func (p *Packet) RenderUtilityPrototypes() string {
	var b strings.Builder
	fmt.Fprintf(&b, "uint32_t %s(void);\n", p.PacketIDFuncName())
	fmt.Fprintf(&b, "int %s(void);\n", p.MinDataLengthFuncName())
	return b.String()
}

// RenderStructurePacketPrototypes declares RenderStructurePacketFunctions'
// encode/decode pair for this packet's own header.
func (p *Packet) RenderStructurePacketPrototypes() string {
	var b strings.Builder
	if len(p.Children) > 0 {
		fmt.Fprintf(&b, "void encode%s%sPacketStructure(void* pkt, const %s* user);\n", p.Prefix, p.NameVal, p.TypeNameVal)
		fmt.Fprintf(&b, "int decode%s%sPacketStructure(const void* pkt, %s* user);\n", p.Prefix, p.NameVal, p.TypeNameVal)
	} else {
		fmt.Fprintf(&b, "void encode%s%sPacketStructure(void* pkt);\n", p.Prefix, p.NameVal)
		fmt.Fprintf(&b, "int decode%s%sPacketStructure(const void* pkt);\n", p.Prefix, p.NameVal)
	}
	return b.String()
}

// RenderParameterPacketPrototypes declares RenderParameterPacketFunctions'
// encode/decode pair for this packet's own header.
func (p *Packet) RenderParameterPacketPrototypes() string {
	var b strings.Builder
	fmt.Fprintf(&b, "void encode%s%sPacket(void* pkt%s);\n", p.Prefix, p.NameVal, p.parameterList(false))
	fmt.Fprintf(&b, "int decode%s%sPacket(const void* pkt%s);\n", p.Prefix, p.NameVal, p.parameterList(true))
	return b.String()
}

// RenderEmptyPacketPrototypes declares RenderEmptyPacketFunctions' pair
// for this packet's own header.
func (p *Packet) RenderEmptyPacketPrototypes() string {
	var b strings.Builder
	fmt.Fprintf(&b, "void encode%s%sPacket(void* pkt);\n", p.Prefix, p.NameVal)
	fmt.Fprintf(&b, "int decode%s%sPacket(const void* pkt);\n", p.Prefix, p.NameVal)
	return b.String()
}

// parameterList renders the per-field parameters of the parameter
// interface. Decode takes scalars by pointer, matching the (*name) access
// Primitive.DecodeSnippet emits for a non-member field.
func (p *Packet) parameterList(forDecode bool) string {
	var parts []string
	for _, c := range p.Children {
		prim, ok := c.(*Primitive)
		if !ok || prim.ConstantGiven {
			continue
		}
		ctype := cTypeFor(prim.InMemoryType)
		if forDecode && prim.Array == "" {
			ctype += "*"
		}
		if prim.Array != "" {
			parts = append(parts, fmt.Sprintf("%s %s[%s]", ctype, prim.NameVal, prim.Array))
		} else {
			parts = append(parts, fmt.Sprintf("%s %s", ctype, prim.NameVal))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return ", " + strings.Join(parts, ", ")
}
