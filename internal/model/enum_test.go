package model

import (
	"strings"
	"testing"

	"github.com/nwidger/protogen/internal/diag"
	"github.com/nwidger/protogen/internal/xmlelem"
)

func parseEnumXML(t *testing.T, doc string) *EnumModel {
	t.Helper()
	el, err := xmlelem.Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("xmlelem.Parse() error = %v", err)
	}
	var e EnumModel
	var d diag.Collector
	e.Parse(el, &d)
	e.ComputeNumberList()
	return &e
}

func TestEnumSimpleSequence(t *testing.T) {
	e := parseEnumXML(t, `<Enum name="Color"><Value name="Red"/><Value name="Green"/><Value name="Blue"/></Enum>`)
	want := []string{"0", "1", "2"}
	for i, v := range e.Values {
		if v.NumberOrSym != want[i] {
			t.Errorf("Values[%d].NumberOrSym = %q, want %q", i, v.NumberOrSym, want[i])
		}
	}
	if e.MinBitWidth != 8 {
		t.Errorf("MinBitWidth = %d, want 8", e.MinBitWidth)
	}
}

func TestEnumUnresolvedBase(t *testing.T) {
	e := parseEnumXML(t, `<Enum name="X"><Value name="A"/><Value name="B" value="SOMEWHERE"/><Value name="C"/></Enum>`)
	want := []string{"0", "SOMEWHERE", "SOMEWHERE + 1"}
	for i, v := range e.Values {
		if v.NumberOrSym != want[i] {
			t.Errorf("Values[%d].NumberOrSym = %q, want %q", i, v.NumberOrSym, want[i])
		}
	}
	if e.MinBitWidth != 8 {
		t.Errorf("MinBitWidth = %d, want 8", e.MinBitWidth)
	}
}

func TestEnumHexAndBinaryLiterals(t *testing.T) {
	e := parseEnumXML(t, `<Enum name="Flags"><Value name="A" value="0x10"/><Value name="B"/><Value name="C" value="0b101"/></Enum>`)
	want := []string{"16", "17", "5"}
	for i, v := range e.Values {
		if v.NumberOrSym != want[i] {
			t.Errorf("Values[%d].NumberOrSym = %q, want %q", i, v.NumberOrSym, want[i])
		}
	}
}

func TestEnumMinBitWidthLarge(t *testing.T) {
	e := parseEnumXML(t, `<Enum name="Big"><Value name="A" value="500"/></Enum>`)
	if e.MinBitWidth != 9 {
		t.Errorf("MinBitWidth = %d, want 9", e.MinBitWidth)
	}
}

func TestEnumEmpty(t *testing.T) {
	e := parseEnumXML(t, `<Enum name="Empty"></Enum>`)
	if got := e.RenderDeclaration(); got != "" {
		t.Errorf("RenderDeclaration() = %q, want empty", got)
	}
}

func TestEnumDuplicateNamesTolerated(t *testing.T) {
	el, err := xmlelem.Parse(strings.NewReader(`<Enum name="Dup"><Value name="A"/><Value name="A"/></Enum>`))
	if err != nil {
		t.Fatalf("xmlelem.Parse() error = %v", err)
	}
	var e EnumModel
	var d diag.Collector
	e.Parse(el, &d)
	if len(e.Values) != 2 {
		t.Fatalf("len(Values) = %d, want 2 (duplicates are tolerated, not dropped)", len(e.Values))
	}
	if d.Len() != 0 {
		t.Errorf("Diagnostics.Len() = %d, want 0: %v", d.Len(), d.Lines())
	}
}

func TestEnumRenderDeclaration(t *testing.T) {
	e := parseEnumXML(t, `<Enum name="Color"><Value name="Red" comment="the color red"/><Value name="Green"/></Enum>`)
	decl := e.RenderDeclaration()
	if !strings.Contains(decl, "typedef enum") {
		t.Errorf("RenderDeclaration() missing typedef enum: %q", decl)
	}
	if !strings.Contains(decl, "Color_t;") {
		t.Errorf("RenderDeclaration() missing type name: %q", decl)
	}
	if !strings.Contains(decl, "Red,") {
		t.Errorf("RenderDeclaration() missing comma after non-final value: %q", decl)
	}
}
