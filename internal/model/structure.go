package model

import (
	"fmt"
	"strings"

	"github.com/nwidger/protogen/internal/diag"
	"github.com/nwidger/protogen/internal/xmlelem"
)

// Structure is a composite encodable: an ordered list of children (which
// may themselves be primitives or nested structures), plus the nested
// enumerations it declares.
type Structure struct {
	NameVal       string
	TypeNameVal   string
	Array         string
	VariableArray string
	DependsOn     string
	Comment       string
	File          string

	Children []Encodable
	Enums    []*EnumModel

	HasBitfieldsVal  bool
	NeedsIteratorVal bool
	HasDefaultsVal   bool

	length Length
}

// ParseStructure builds a Structure from a <Structure> element. prefix is
// the protocol-wide type-name prefix; typeName ends up prefix+Name+"_t"
// per the distilled grammar.
func ParseStructure(el *xmlelem.Element, prefix string, d *diag.Collector) *Structure {
	s := &Structure{
		NameVal: el.AttrString("name", ""),
		Comment: el.AttrString("comment", ""),
		File:    el.AttrString("file", ""),
	}
	s.TypeNameVal = prefix + s.NameVal + "_t"

	s.Array = el.AttrString("array", "")
	s.VariableArray = el.AttrString("variableArray", "")
	if s.Array == "" && s.VariableArray != "" {
		d.Addf(s.NameVal, s.NameVal, "variableArray given without array, ignored")
		s.VariableArray = ""
	}

	s.DependsOn = el.AttrString("dependsOn", "")
	if s.DependsOn != "" && s.VariableArray != "" {
		d.Add(s.NameVal, s.NameVal, "variable length arrays cannot also use dependsOn")
		s.DependsOn = ""
	}

	for _, enumEl := range el.ChildrenByName("Enum") {
		em := &EnumModel{}
		em.Parse(enumEl, d)
		em.ComputeNumberList()
		s.Enums = append(s.Enums, em)
	}

	s.parseChildren(el, prefix, d)
	s.computeLength()
	return s
}

// parseChildren walks <Data> and nested <Structure> children in document
// order, enforcing the sibling-reference invariants, the bitfield-run
// detector, and the default-field contiguous-suffix rule.
func (s *Structure) parseChildren(el *xmlelem.Element, prefix string, d *diag.Collector) {
	previousWasBitfield := false
	bitOffset := 0
	sawDefault := false

	for _, child := range el.Children {
		var enc Encodable
		switch child.Name {
		case "Data":
			p := NewPrimitive(child)
			enc = p

			if p.BitfieldBits > 0 {
				p.StartingBitCount = bitOffset
				bitOffset += p.BitfieldBits
				p.TerminatesBitfield = true // assume terminal until a following bitfield proves otherwise
				if previousWasBitfield && len(s.Children) > 0 {
					if prev, ok := s.Children[len(s.Children)-1].(*Primitive); ok && prev.UsesBitfields() {
						prev.TerminatesBitfield = false
					}
				}
				previousWasBitfield = true
				s.HasBitfieldsVal = true
			} else {
				previousWasBitfield = false
				bitOffset = 0
			}

			if p.DependsOn != "" && p.BitfieldBits > 0 {
				d.Add(s.NameVal, p.NameVal, "bitfields cannot use dependsOn")
				p.DependsOn = ""
			}
			if p.DependsOn != "" && p.VariableArray != "" {
				d.Add(s.NameVal, p.NameVal, "variable length arrays cannot also use dependsOn")
				p.DependsOn = ""
			}

			s.validateSiblingRef(p.NameVal, &p.VariableArray, d)
			s.validateSiblingRef(p.NameVal, &p.DependsOn, d)

			if p.IsArray() {
				s.NeedsIteratorVal = true
			}

			if p.UsesDefaults() {
				sawDefault = true
				s.HasDefaultsVal = true
			} else if sawDefault {
				d.Addf(s.NameVal, p.NameVal, "non-default field follows default field(s); earlier defaults revoked")
				s.revokeDefaults(d)
				sawDefault = false
			}

		case "Structure":
			child := ParseStructure(child, prefix, d)
			enc = child
			if child.IsArray() {
				s.NeedsIteratorVal = true
			}
			if child.UsesBitfields() {
				s.HasBitfieldsVal = true
			}
			if child.UsesDefaults() {
				sawDefault = true
				s.HasDefaultsVal = true
			} else if sawDefault {
				d.Addf(s.NameVal, child.NameVal, "non-default field follows default field(s); earlier defaults revoked")
				s.revokeDefaults(d)
				sawDefault = false
			}

		case "Enum":
			continue // already consumed above

		default:
			continue
		}

		s.Children = append(s.Children, enc)
	}
}

// validateSiblingRef enforces that *ref, if set, names a prior sibling
// that is a primitive, in memory, and encoded. Invalid references are
// cleared with a diagnostic.
func (s *Structure) validateSiblingRef(fieldName string, ref *string, d *diag.Collector) {
	if *ref == "" {
		return
	}
	for i := len(s.Children) - 1; i >= 0; i-- {
		prim, ok := s.Children[i].(*Primitive)
		if !ok {
			continue
		}
		if prim.NameVal == *ref {
			if prim.NotInMemory || prim.NotEncoded {
				d.Addf(s.NameVal, fieldName, "reference to %q is not both in-memory and encoded", *ref)
				*ref = ""
			}
			return
		}
	}
	d.Addf(s.NameVal, fieldName, "reference to %q not found among prior siblings", *ref)
	*ref = ""
}

// revokeDefaults clears DefaultGiven on every default field seen so far —
// the contiguous-suffix invariant was broken by a later non-default field.
func (s *Structure) revokeDefaults(d *diag.Collector) {
	for _, c := range s.Children {
		if p, ok := c.(*Primitive); ok && p.DefaultGiven {
			p.DefaultGiven = false
		}
	}
}

// ModuleName returns the base file name (no extension) this structure's
// generated header/source belong to: the file attribute override, or
// <prefix><name>Packet when none was given.
func (s *Structure) ModuleName(prefix string) string {
	if s.File != "" {
		return s.File
	}
	return prefix + s.NameVal + "Packet"
}

func (s *Structure) Name() string        { return s.NameVal }
func (s *Structure) IsPrimitive() bool   { return false }
func (s *Structure) IsArray() bool       { return s.Array != "" }
func (s *Structure) UsesBitfields() bool { return s.HasBitfieldsVal }
func (s *Structure) UsesDefaults() bool  { return s.HasDefaultsVal }

func (s *Structure) computeLength() {
	total := ZeroLength
	for _, c := range s.Children {
		total = total.Add(c.EncodedLength())
	}
	if s.Array != "" {
		total = total.MultiplyBy(s.Array)
		if s.VariableArray != "" {
			total.Min = "0"
		}
	}
	if s.DependsOn != "" {
		total = total.ZeroMin()
	}
	s.length = total
}

func (s *Structure) EncodedLength() Length { return s.length }

func (s *Structure) DeclarationLines() []string {
	line := fmt.Sprintf("%s %s", s.TypeNameVal, s.NameVal)
	if s.Array != "" {
		line += "[" + s.Array + "]"
	}
	line += ";"
	if s.Comment != "" {
		line += " //!< " + s.Comment
	}
	return []string{line}
}

// RenderStructDeclaration emits nested structures first, then this
// structure's own typedef. When the structure has exactly one field and
// alwaysCreate is false, no declaration is emitted — the caller inlines
// the single field instead, matching the original tool's space-saving
// convention for trivial wrapper structures.
func (s *Structure) RenderStructDeclaration(alwaysCreate bool) string {
	var b strings.Builder
	for _, c := range s.Children {
		if nested, ok := c.(*Structure); ok {
			b.WriteString(nested.RenderStructDeclaration(false))
		}
	}

	if len(s.Children) == 1 && !alwaysCreate {
		return b.String()
	}

	lines := make([][2]string, 0, len(s.Children))
	for _, c := range s.Children {
		for _, l := range c.DeclarationLines() {
			lines = append(lines, splitDeclarationLine(l))
		}
	}
	typeCol, semiCol := 0, 0
	for _, l := range lines {
		if len(l[0]) > typeCol {
			typeCol = len(l[0])
		}
	}
	for _, l := range lines {
		field := l[1]
		if len(field) > semiCol {
			semiCol = len(field)
		}
	}

	if s.Comment != "" {
		fmt.Fprintf(&b, "// %s\n", s.Comment)
	}
	fmt.Fprintf(&b, "typedef struct\n{\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "    %s %s\n", padRight(l[0], typeCol), padRight(l[1], semiCol))
	}
	fmt.Fprintf(&b, "} %s;\n", s.TypeNameVal)
	return b.String()
}

// splitDeclarationLine separates "type name[;comment]" into a type column
// and a "name;...comment" column for alignment purposes.
func splitDeclarationLine(line string) [2]string {
	decl := line
	if semi := strings.Index(line, ";"); semi >= 0 {
		decl = line[:semi]
	}
	idx := strings.LastIndex(decl, " ")
	if idx < 0 {
		return [2]string{"", line}
	}
	return [2]string{line[:idx], line[idx+1:]}
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// RenderEncode emits this structure's exported encode function, for a
// structure that owns its own module (declared in that module's header).
func (s *Structure) RenderEncode(bigEndian bool) string {
	return s.renderEncode(bigEndian, "")
}

// RenderStaticEncode emits the same encode function with static storage
// class, for a structure reached only as a nested field of another
// structure or packet: it has no header declaration of its own, so it
// must not be visible outside the source file that defines it.
func (s *Structure) RenderStaticEncode(bigEndian bool) string {
	return s.renderEncode(bigEndian, "static ")
}

func (s *Structure) renderEncode(bigEndian bool, storageClass string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%sint encode%s(uint8_t* data, int byteindex, const %s* user)\n{\n", storageClass, s.NameVal, s.TypeNameVal)
	if s.HasBitfieldsVal {
		b.WriteString("    int bitcount = 0;\n")
	}
	if s.NeedsIteratorVal {
		b.WriteString("    int i = 0;\n")
	}
	bitcount := 0
	for _, c := range s.Children {
		b.WriteString(c.EncodeSnippet(bigEndian, true, &bitcount))
	}
	b.WriteString("\n    return byteindex;\n}\n")
	return b.String()
}

// RenderDecode emits this structure's exported decode function, for a
// structure that owns its own module (declared in that module's header).
func (s *Structure) RenderDecode(bigEndian bool) string {
	return s.renderDecode(bigEndian, "")
}

// RenderStaticDecode is RenderDecode's static (translation-unit-private)
// variant, for a structure reached only as a nested field. See
// RenderStaticEncode.
func (s *Structure) RenderStaticDecode(bigEndian bool) string {
	return s.renderDecode(bigEndian, "static ")
}

func (s *Structure) renderDecode(bigEndian bool, storageClass string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%sint decode%s(const uint8_t* data, int byteindex, %s* user)\n{\n", storageClass, s.NameVal, s.TypeNameVal)
	if s.HasBitfieldsVal {
		b.WriteString("    int bitcount = 0;\n")
	}
	if s.NeedsIteratorVal {
		b.WriteString("    int i = 0;\n")
	}
	bitcount := 0
	for _, c := range s.Children {
		b.WriteString(c.DecodeSnippet(bigEndian, true, &bitcount, true))
	}
	b.WriteString("\n    return byteindex;\n}\n")
	return b.String()
}

// RenderEncodePrototype declares RenderEncode's function for this
// structure's own header.
func (s *Structure) RenderEncodePrototype() string {
	return fmt.Sprintf("int encode%s(uint8_t* data, int byteindex, const %s* user);\n", s.NameVal, s.TypeNameVal)
}

// RenderDecodePrototype declares RenderDecode's function for this
// structure's own header.
func (s *Structure) RenderDecodePrototype() string {
	return fmt.Sprintf("int decode%s(const uint8_t* data, int byteindex, %s* user);\n", s.NameVal, s.TypeNameVal)
}

// RenderStaticEncodePrototype is the static forward declaration a source
// file needs before RenderStaticEncode's definition, so a nested
// structure can be encoded before its own function body appears.
func (s *Structure) RenderStaticEncodePrototype() string {
	return fmt.Sprintf("static int encode%s(uint8_t* data, int byteindex, const %s* user);\n", s.NameVal, s.TypeNameVal)
}

// RenderStaticDecodePrototype is RenderStaticEncodePrototype's decode
// counterpart.
func (s *Structure) RenderStaticDecodePrototype() string {
	return fmt.Sprintf("static int decode%s(const uint8_t* data, int byteindex, %s* user);\n", s.NameVal, s.TypeNameVal)
}

// EncodeSnippet/DecodeSnippet let a Structure act as a child encodable of
// its own parent, mirroring getEncodeString/getDecodeString's recursive
// shape in the original tool: call the sub-structure's encode/decode
// function rather than inlining its fields.
func (s *Structure) EncodeSnippet(bigEndian bool, isStructureMember bool, bitcount *int) string {
	var b strings.Builder
	indent := "    "
	if s.Comment != "" {
		fmt.Fprintf(&b, "%s// %s\n", indent, s.Comment)
	}

	if s.DependsOn != "" {
		ref := s.DependsOn
		if isStructureMember {
			ref = "user->" + ref
		}
		fmt.Fprintf(&b, "%sif(%s)\n%s{\n", indent, ref, indent)
		indent += "    "
	}

	access := "&user->" + s.NameVal
	if !isStructureMember {
		access = s.NameVal
	}

	if s.Array != "" {
		loopBound := s.Array
		if s.VariableArray != "" {
			ref := s.VariableArray
			if isStructureMember {
				ref = "user->" + ref
			}
			loopBound = fmt.Sprintf("(int)%s && i < %s", ref, s.Array)
		}
		fmt.Fprintf(&b, "%sfor(i = 0; i < %s; i++)\n", indent, loopBound)
		elem := fmt.Sprintf("&user->%s[i]", s.NameVal)
		if !isStructureMember {
			elem = fmt.Sprintf("&%s[i]", s.NameVal)
		}
		fmt.Fprintf(&b, "%s    byteindex = encode%s(data, byteindex, %s);\n", indent, s.NameVal, elem)
	} else {
		fmt.Fprintf(&b, "%sbyteindex = encode%s(data, byteindex, %s);\n", indent, s.NameVal, access)
	}

	if s.DependsOn != "" {
		fmt.Fprintf(&b, "    }\n")
	}
	return b.String()
}

func (s *Structure) DecodeSnippet(bigEndian bool, isStructureMember bool, bitcount *int, defaultEnabled bool) string {
	var b strings.Builder
	indent := "    "
	if s.Comment != "" {
		fmt.Fprintf(&b, "%s// %s\n", indent, s.Comment)
	}

	if s.DependsOn != "" {
		ref := s.DependsOn
		if isStructureMember {
			ref = "user->" + ref
		}
		fmt.Fprintf(&b, "%sif(%s)\n%s{\n", indent, ref, indent)
		indent += "    "
	}

	access := "&user->" + s.NameVal
	if !isStructureMember {
		access = s.NameVal
	}

	if s.Array != "" {
		loopBound := s.Array
		if s.VariableArray != "" {
			ref := s.VariableArray
			if isStructureMember {
				ref = "user->" + ref
			}
			loopBound = fmt.Sprintf("(int)%s && i < %s", ref, s.Array)
		}
		fmt.Fprintf(&b, "%sfor(i = 0; i < %s; i++)\n", indent, loopBound)
		elem := fmt.Sprintf("&user->%s[i]", s.NameVal)
		if !isStructureMember {
			elem = fmt.Sprintf("&%s[i]", s.NameVal)
		}
		fmt.Fprintf(&b, "%s    byteindex = decode%s(data, byteindex, %s);\n", indent, s.NameVal, elem)
	} else {
		fmt.Fprintf(&b, "%sbyteindex = decode%s(data, byteindex, %s);\n", indent, s.NameVal, access)
	}

	if s.DependsOn != "" {
		fmt.Fprintf(&b, "    }\n")
	}
	return b.String()
}
