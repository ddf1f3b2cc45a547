package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nwidger/protogen/internal/xmlelem"
)

// Primitive is a leaf encodable: an integer, float, or bitfield field.
type Primitive struct {
	NameVal       string
	InMemoryType  string
	EncodedType   string
	Array         string
	VariableArray string
	DependsOn     string
	Comment       string

	DefaultGiven  bool
	Default       string
	ConstantGiven bool
	Constant      string

	NotEncoded  bool
	NotInMemory bool

	BitfieldBits       int
	StartingBitCount   int
	TerminatesBitfield bool
}

// typeSizes maps an encoded-type name to its on-wire byte width. Types not
// listed here fall back to a width of 1 — garbage in, garbage out, per the
// length algebra's own failure mode.
var typeSizes = map[string]int{
	"int8": 1, "uint8": 1, "bool": 1,
	"int16": 2, "uint16": 2,
	"int24": 3, "uint24": 3,
	"int32": 4, "uint32": 4, "float32": 4,
	"int64": 8, "uint64": 8, "float64": 8,
}

// NewPrimitive builds a Primitive from a <Data> element, applying the
// checks that don't require sibling context: a bits value outside 1..32
// is ignored, and variableArray without array is dropped. Sibling-
// dependent invariants (variableArray/dependsOn referencing a prior
// field) are enforced by the enclosing StructureModel.
func NewPrimitive(el *xmlelem.Element) *Primitive {
	p := &Primitive{
		NameVal:      el.AttrString("name", ""),
		InMemoryType: el.AttrString("inMemoryType", "uint8"),
		EncodedType:  el.AttrString("encodedType", ""),
		Array:        el.AttrString("array", ""),
		Comment:      el.AttrString("comment", ""),
		NotEncoded:   el.AttrBool("notEncoded"),
		NotInMemory:  el.AttrBool("notInMemory"),
	}
	// "unsignedN"/"signedN" spellings are normalized to "uintN"/"intN".
	for _, t := range []*string{&p.InMemoryType, &p.EncodedType} {
		if strings.HasPrefix(*t, "unsigned") {
			*t = "uint" + strings.TrimPrefix(*t, "unsigned")
		} else if strings.HasPrefix(*t, "signed") {
			*t = "int" + strings.TrimPrefix(*t, "signed")
		}
	}
	if p.EncodedType == "" {
		p.EncodedType = p.InMemoryType
	}
	if el.Has("default") {
		p.DefaultGiven = true
		p.Default = el.AttrString("default", "")
	}
	if el.Has("constant") {
		p.ConstantGiven = true
		p.Constant = el.AttrString("constant", "")
	}
	if bits := el.AttrString("bits", ""); bits != "" {
		if n, err := strconv.Atoi(bits); err == nil && n >= 1 && n <= 32 {
			p.BitfieldBits = n
		}
	}
	p.VariableArray = el.AttrString("variableArray", "")
	if p.Array == "" {
		p.VariableArray = "" // variableArray without array is meaningless; cleared here without a diagnostic
	}
	p.DependsOn = el.AttrString("dependsOn", "")
	return p
}

func (p *Primitive) Name() string        { return p.NameVal }
func (p *Primitive) IsPrimitive() bool   { return true }
func (p *Primitive) IsArray() bool       { return p.Array != "" }
func (p *Primitive) UsesBitfields() bool { return p.BitfieldBits > 0 }
func (p *Primitive) UsesDefaults() bool  { return p.DefaultGiven }

func (p *Primitive) elementByteWidth() string {
	if p.BitfieldBits > 0 {
		if !p.TerminatesBitfield {
			return "0"
		}
		totalBits := p.StartingBitCount + p.BitfieldBits
		return strconv.Itoa((totalBits + 7) / 8)
	}
	if n, ok := typeSizes[p.EncodedType]; ok {
		return strconv.Itoa(n)
	}
	return "1"
}

// EncodedLength returns this field's own contribution, already scaled by
// its array/variableArray attributes if any.
func (p *Primitive) EncodedLength() Length {
	width := p.elementByteWidth()
	base := Length{Min: width, Max: width, NonDefault: width}
	if p.DefaultGiven {
		base.Min = "0"
	}
	if p.Array != "" {
		base = base.MultiplyBy(p.Array)
		if p.VariableArray != "" {
			base.Min = "0"
		}
	}
	if p.DependsOn != "" {
		base = base.ZeroMin()
	}
	return base
}

// DeclarationLines renders the struct-member declaration.
func (p *Primitive) DeclarationLines() []string {
	if p.NotInMemory {
		return nil
	}
	ctype := cTypeFor(p.InMemoryType)
	line := fmt.Sprintf("%s %s", ctype, p.NameVal)
	if p.Array != "" {
		line += "[" + p.Array + "]"
	}
	line += ";"
	if p.Comment != "" {
		line += " //!< " + p.Comment
	}
	return []string{line}
}

// cTypeFor maps an inMemoryType XML token to a C type name.
func cTypeFor(inMemoryType string) string {
	switch inMemoryType {
	case "bool":
		return "uint8_t"
	case "float32":
		return "float"
	case "float64":
		return "double"
	default:
		if strings.HasPrefix(inMemoryType, "int") || strings.HasPrefix(inMemoryType, "uint") {
			return inMemoryType + "_t"
		}
		return inMemoryType
	}
}

// EncodeSnippet and DecodeSnippet produce the per-field statement(s) that
// belong inside the enclosing structure's encode/decode function body. The
// shape follows the teacher idiom of a flat if/for-wrapped call sequence
// rather than a templated body.
func (p *Primitive) EncodeSnippet(bigEndian bool, isStructureMember bool, bitcount *int) string {
	if p.NotEncoded {
		return ""
	}

	var b strings.Builder
	indent := "    "

	if p.DependsOn != "" {
		fmt.Fprintf(&b, "%sif(%s)\n%s{\n", indent, p.dependsOnExpr(isStructureMember, false), indent)
		indent += "    "
	}

	access := p.accessExpr(isStructureMember, false)
	value := access
	if p.ConstantGiven {
		value = p.Constant
	}

	if p.Array != "" {
		loopVar, bound := p.loopBound(isStructureMember, false)
		fmt.Fprintf(&b, "%sfor(i = 0; i < %s; i++)\n", indent, bound)
		elemAccess := p.elementAccess(isStructureMember)
		fmt.Fprintf(&b, "%s    byteindex = %s;\n", indent, p.encodeCall(bigEndian, elemAccess, bitcount))
		_ = loopVar
	} else if p.BitfieldBits > 0 {
		fmt.Fprintf(&b, "%sbyteindex = bitfieldEncode(data, byteindex, &bitcount, %d, %s);\n", indent, p.BitfieldBits, value)
		if p.TerminatesBitfield {
			fmt.Fprintf(&b, "%sbitcount = 0;\n", indent)
		}
	} else {
		fmt.Fprintf(&b, "%sbyteindex = %s;\n", indent, p.encodeCall(bigEndian, value, bitcount))
	}

	if p.DependsOn != "" {
		indent = indent[:len(indent)-4]
		fmt.Fprintf(&b, "%s}\n", indent)
	}
	return b.String()
}

func (p *Primitive) DecodeSnippet(bigEndian bool, isStructureMember bool, bitcount *int, defaultEnabled bool) string {
	if p.NotEncoded {
		return ""
	}

	var b strings.Builder
	indent := "    "

	if defaultEnabled && p.DefaultGiven {
		fmt.Fprintf(&b, "%s%s = %s;\n", indent, p.accessExpr(isStructureMember, true), p.Default)
	}

	if p.DependsOn != "" {
		fmt.Fprintf(&b, "%sif(%s)\n%s{\n", indent, p.dependsOnExpr(isStructureMember, true), indent)
		indent += "    "
	}

	if p.Array != "" {
		_, bound := p.loopBound(isStructureMember, true)
		fmt.Fprintf(&b, "%sfor(i = 0; i < %s; i++)\n", indent, bound)
		elemAccess := p.elementAccess(isStructureMember)
		fmt.Fprintf(&b, "%s    %s = %s;\n", indent, elemAccess, p.decodeCall(bigEndian, bitcount))
	} else if p.BitfieldBits > 0 {
		fmt.Fprintf(&b, "%s%s = bitfieldDecode(data, &byteindex, &bitcount, %d);\n", indent, p.accessExpr(isStructureMember, true), p.BitfieldBits)
		if p.TerminatesBitfield {
			fmt.Fprintf(&b, "%sbitcount = 0;\n", indent)
		}
	} else {
		fmt.Fprintf(&b, "%s%s = %s;\n", indent, p.accessExpr(isStructureMember, true), p.decodeCall(bigEndian, bitcount))
	}

	if p.DependsOn != "" {
		indent = indent[:len(indent)-4]
		fmt.Fprintf(&b, "%s}\n", indent)
	}
	return b.String()
}

func (p *Primitive) dependsOnExpr(isStructureMember bool, forDecode bool) string {
	if isStructureMember {
		return "user->" + p.DependsOn
	}
	if forDecode {
		return "(*" + p.DependsOn + ")"
	}
	return p.DependsOn
}

func (p *Primitive) accessExpr(isStructureMember bool, forDecode bool) string {
	if isStructureMember {
		return "user->" + p.NameVal
	}
	if forDecode {
		return "(*" + p.NameVal + ")"
	}
	return p.NameVal
}

func (p *Primitive) elementAccess(isStructureMember bool) string {
	if isStructureMember {
		return fmt.Sprintf("user->%s[i]", p.NameVal)
	}
	return fmt.Sprintf("%s[i]", p.NameVal)
}

func (p *Primitive) loopBound(isStructureMember bool, forDecode bool) (string, string) {
	if p.VariableArray == "" {
		return "i", p.Array
	}
	ref := p.VariableArray
	if isStructureMember {
		ref = "user->" + ref
	} else if forDecode {
		ref = "(*" + ref + ")"
	}
	return "i", fmt.Sprintf("(int)%s && i < %s", ref, p.Array)
}

// encodeCall and decodeCall name the runtime helper to invoke. Real
// bodies for these helpers are an external collaborator; the naming
// convention itself is this generator's own, and the generated support
// header declares every helper it produces.
func (p *Primitive) encodeCall(bigEndian bool, value string, bitcount *int) string {
	_ = bitcount
	endian := endianSuffix(bigEndian)
	return fmt.Sprintf("%sTo%sBytes(%s, data, byteindex)", p.EncodedType, endian, value)
}

func (p *Primitive) decodeCall(bigEndian bool, bitcount *int) string {
	_ = bitcount
	endian := endianSuffix(bigEndian)
	return fmt.Sprintf("%sBytesTo%s(data, &byteindex)", endian, capitalize(p.EncodedType))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func endianSuffix(bigEndian bool) string {
	if bigEndian {
		return "Be"
	}
	return "Le"
}

// SupportPrototype is one runtime helper function this field's generated
// encode/decode calls depend on. The generator itself never defines these
// bodies; it only declares them in the support header so the emitted
// source compiles against whatever implementation supplies them.
type SupportPrototype struct {
	Name string
	Decl string
}

// SupportPrototypes returns the prototypes this field needs, keyed by Name
// so callers can dedupe across an entire protocol before writing the
// support header once per distinct helper.
func (p *Primitive) SupportPrototypes(bigEndian bool) []SupportPrototype {
	if p.NotEncoded {
		return nil
	}
	if p.BitfieldBits > 0 {
		return []SupportPrototype{
			{Name: "bitfieldEncode", Decl: "int bitfieldEncode(uint8_t* data, int byteindex, int* bitcount, int numBits, uint32_t value);"},
			{Name: "bitfieldDecode", Decl: "uint32_t bitfieldDecode(const uint8_t* data, int* byteindex, int* bitcount, int numBits);"},
		}
	}
	endian := endianSuffix(bigEndian)
	ctype := cTypeFor(p.EncodedType)
	encName := fmt.Sprintf("%sTo%sBytes", p.EncodedType, endian)
	decName := fmt.Sprintf("%sBytesTo%s", endian, capitalize(p.EncodedType))
	return []SupportPrototype{
		{Name: encName, Decl: fmt.Sprintf("int %s(%s value, uint8_t* data, int byteindex);", encName, ctype)},
		{Name: decName, Decl: fmt.Sprintf("%s %s(const uint8_t* data, int* byteindex);", ctype, decName)},
	}
}
