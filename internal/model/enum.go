package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/nwidger/protogen/internal/diag"
	"github.com/nwidger/protogen/internal/xmlelem"
)

// EnumValue is one entry of an Enum declaration.
type EnumValue struct {
	Name        string
	RawValue    string // literal from XML, "" if not given
	NumberOrSym string // resolved numeric literal, or a symbolic expression like "BASE + 1"
	Comment     string
}

// EnumModel is the parsed and resolved form of an <Enum> element.
type EnumModel struct {
	Name         string
	Comment      string
	Values       []EnumValue
	MinBitWidth  int
}

// Parse populates an EnumModel from its XML element. It does not run the
// number resolver; call ComputeNumberList afterward.
func (e *EnumModel) Parse(el *xmlelem.Element, d *diag.Collector) {
	e.Name = el.AttrString("name", "")
	e.Comment = el.AttrString("comment", "")
	e.Values = nil
	for _, v := range el.ChildrenByName("Value") {
		ev := EnumValue{
			Name:    v.AttrString("name", ""),
			Comment: v.AttrString("comment", ""),
		}
		if v.Has("value") {
			ev.RawValue = v.AttrString("value", "")
		}
		e.Values = append(e.Values, ev)
	}
	e.validateDuplicates(d)
}

// ComputeNumberList resolves each value's NumberOrSym and derives
// MinBitWidth, per the left-to-right resolver: an empty raw value
// increments a running counter; an unresolved symbol becomes a new
// symbolic base for subsequent empties.
func (e *EnumModel) ComputeNumberList() {
	var (
		value      = -1
		baseString string
		maxValue   int
		anyNumeric bool
		anySymbol  bool
	)

	for i := range e.Values {
		raw := strings.TrimSpace(e.Values[i].RawValue)

		switch {
		case raw == "":
			value++
			if baseString == "" {
				e.Values[i].NumberOrSym = strconv.Itoa(value)
				anyNumeric = true
				if value > maxValue {
					maxValue = value
				}
			} else {
				e.Values[i].NumberOrSym = fmt.Sprintf("%s + %d", baseString, value)
				anySymbol = true
			}
		default:
			n, ok := parseEnumLiteral(raw)
			if ok {
				baseString = ""
				value = n
				e.Values[i].NumberOrSym = strconv.Itoa(n)
				anyNumeric = true
				if n > maxValue {
					maxValue = n
				}
			} else {
				baseString = raw
				value = 0
				e.Values[i].NumberOrSym = raw
				anySymbol = true
			}
		}
	}

	switch {
	case anySymbol:
		// The true maximum is unknowable once any entry depends on an
		// unresolved symbol; fall back to the conservative byte width.
		e.MinBitWidth = 8
	case anyNumeric:
		bits := int(math.Ceil(math.Log2(float64(maxValue + 1))))
		if bits < 8 {
			bits = 8
		}
		e.MinBitWidth = bits
	default:
		e.MinBitWidth = 8
	}
}

func parseEnumLiteral(s string) (int, bool) {
	var (
		n   uint64
		err error
	)
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		n, err = strconv.ParseUint(s[2:], 16, 32)
	case strings.HasPrefix(s, "0b"), strings.HasPrefix(s, "0B"):
		n, err = strconv.ParseUint(s[2:], 2, 32)
	default:
		n, err = strconv.ParseUint(s, 10, 32)
	}
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// RenderDeclaration returns a C typedef enum with inline comments aligned
// to a column padded to a multiple of four.
func (e *EnumModel) RenderDeclaration() string {
	if len(e.Values) == 0 {
		return ""
	}

	typeName := e.Name
	if !strings.HasSuffix(typeName, "_t") {
		typeName += "_t"
	}

	nameWidth := 0
	for _, v := range e.Values {
		if len(v.Name) > nameWidth {
			nameWidth = len(v.Name)
		}
	}
	nameWidth = padToMultiple(nameWidth+2, 4) // ", " separator plus padding

	var b strings.Builder
	if e.Comment != "" {
		fmt.Fprintf(&b, "// %s\n", e.Comment)
	}
	fmt.Fprintf(&b, "typedef enum\n{\n")
	for i, v := range e.Values {
		line := v.Name
		if i != len(e.Values)-1 {
			line += ","
		}
		fmt.Fprintf(&b, "    %s", spacedString(line, nameWidth))
		if v.Comment != "" {
			fmt.Fprintf(&b, "//!< %s", v.Comment)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "} %s;\n", typeName)
	return b.String()
}

// RenderMarkdown returns a three-column (Name | Value | Description) table.
// Names matching a known packet ID (a key of packetIDs) are rendered as
// links to the mapped anchor.
func (e *EnumModel) RenderMarkdown(outline string, packetIDs map[string]string) string {
	if len(e.Values) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s)%s\n\n", outline, e.Name)
	if e.Comment != "" {
		fmt.Fprintf(&b, "%s\n\n", e.Comment)
	}

	rows := make([][]string, 0, len(e.Values))
	for _, v := range e.Values {
		name := v.Name
		if anchor, ok := packetIDs[v.Name]; ok {
			name = fmt.Sprintf("[%s](#%s)", v.Name, anchor)
		}
		rows = append(rows, []string{name, v.NumberOrSym, v.Comment})
	}

	WriteMarkdownTable(&b, []string{"Name", "Value", "Description"}, rows)
	return b.String()
}

// TypeName is the generated C typedef name for this enum.
func (e *EnumModel) TypeName() string {
	if strings.HasSuffix(e.Name, "_t") {
		return e.Name
	}
	return e.Name + "_t"
}

// ScreamingName renders the enum's name in the SCREAMING_SNAKE_CASE used
// for derived macro identifiers.
func (e *EnumModel) ScreamingName() string {
	return strcase.ToScreamingSnake(e.Name)
}

// validateDuplicates is a silent toleration per the error taxonomy:
// duplicate enumerator names are left as-is, never renamed or dropped.
// It exists so the taxonomy's coverage is explicit in code rather than
// just absent.
func (e *EnumModel) validateDuplicates(d *diag.Collector) {
	seen := map[string]bool{}
	for _, v := range e.Values {
		if seen[v.Name] {
			continue // duplicate enumerator names are a silent toleration
		}
		seen[v.Name] = true
	}
	_ = d
}

func spacedString(s string, width int) string {
	if len(s) >= width {
		return s + " "
	}
	return s + strings.Repeat(" ", width-len(s))
}

func padToMultiple(n, m int) int {
	if n%m == 0 {
		return n
	}
	return n + (m - n%m)
}
