package model

import (
	"strings"
	"testing"

	"github.com/nwidger/protogen/internal/diag"
	"github.com/nwidger/protogen/internal/xmlelem"
)

func parseStructureXML(t *testing.T, doc string) (*Structure, *diag.Collector) {
	t.Helper()
	el, err := xmlelem.Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("xmlelem.Parse() error = %v", err)
	}
	var d diag.Collector
	s := ParseStructure(el, "Tst", &d)
	return s, &d
}

func TestStructureBitfieldRun(t *testing.T) {
	s, d := parseStructureXML(t, `<Structure name="Flags">
		<Data name="a" bits="3"/>
		<Data name="b" bits="5"/>
		<Data name="c" bits="8"/>
	</Structure>`)
	if d.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", d.Lines())
	}
	if len(s.Children) != 3 {
		t.Fatalf("len(Children) = %d, want 3", len(s.Children))
	}
	terms := 0
	for i, c := range s.Children {
		p := c.(*Primitive)
		if p.TerminatesBitfield {
			terms++
			if i != len(s.Children)-1 {
				t.Errorf("field %d terminates bitfield but is not last", i)
			}
		}
	}
	if terms != 1 {
		t.Errorf("terminator count = %d, want 1", terms)
	}
	wantStart := []int{0, 3, 8}
	for i, c := range s.Children {
		p := c.(*Primitive)
		if p.StartingBitCount != wantStart[i] {
			t.Errorf("Children[%d].StartingBitCount = %d, want %d", i, p.StartingBitCount, wantStart[i])
		}
	}
}

func TestStructureDefaultRevocation(t *testing.T) {
	s, d := parseStructureXML(t, `<Structure name="Trio">
		<Data name="a" inMemoryType="uint32"/>
		<Data name="b" inMemoryType="uint32" default="0"/>
		<Data name="c" inMemoryType="uint32"/>
	</Structure>`)
	if d.Len() == 0 {
		t.Fatal("expected a diagnostic for the revoked default")
	}
	b := s.Children[1].(*Primitive)
	if b.DefaultGiven {
		t.Error("b.DefaultGiven should have been revoked")
	}
	if s.length.Min != s.length.NonDefault {
		t.Errorf("length min/nonDefault should be equal after revocation: %+v", s.length)
	}
}

func TestStructureTrailingDefaultsKept(t *testing.T) {
	s, _ := parseStructureXML(t, `<Structure name="Trio">
		<Data name="a" inMemoryType="uint32"/>
		<Data name="b" inMemoryType="uint32"/>
		<Data name="c" inMemoryType="uint32" default="0"/>
	</Structure>`)
	c := s.Children[2].(*Primitive)
	if !c.DefaultGiven {
		t.Error("c.DefaultGiven should remain set")
	}
	if s.length.Min == s.length.NonDefault {
		t.Error("length min should differ from nonDefault when a trailing default survives")
	}
}

func TestStructureVariableArrayValidation(t *testing.T) {
	s, d := parseStructureXML(t, `<Structure name="Blob">
		<Data name="count" inMemoryType="uint8"/>
		<Data name="payload" inMemoryType="uint8" array="16" variableArray="count"/>
	</Structure>`)
	if d.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", d.Lines())
	}
	payload := s.Children[1].(*Primitive)
	if payload.VariableArray != "count" {
		t.Errorf("VariableArray = %q, want count", payload.VariableArray)
	}
	if s.length.Min != "1" {
		t.Errorf("length.Min = %q, want 1", s.length.Min)
	}
	if s.length.Max != "17" {
		t.Errorf("length.Max = %q, want %q", s.length.Max, "17")
	}
}

func TestStructureVariableArrayUnresolvedReference(t *testing.T) {
	s, d := parseStructureXML(t, `<Structure name="Blob">
		<Data name="payload" inMemoryType="uint8" array="16" variableArray="missing"/>
	</Structure>`)
	if d.Len() != 1 {
		t.Fatalf("len(diagnostics) = %d, want 1: %v", d.Len(), d.Lines())
	}
	payload := s.Children[0].(*Primitive)
	if payload.VariableArray != "" {
		t.Error("VariableArray should have been cleared")
	}
}

func TestStructureDependsOnOnBitfieldRejected(t *testing.T) {
	s, d := parseStructureXML(t, `<Structure name="S">
		<Data name="flag" inMemoryType="uint8"/>
		<Data name="bits" bits="4" dependsOn="flag"/>
	</Structure>`)
	if d.Len() != 1 {
		t.Fatalf("len(diagnostics) = %d, want 1: %v", d.Len(), d.Lines())
	}
	bits := s.Children[1].(*Primitive)
	if bits.DependsOn != "" {
		t.Error("DependsOn should have been cleared on a bitfield")
	}
}

func TestStructureRenderDeclarationSkipsSingleField(t *testing.T) {
	s, _ := parseStructureXML(t, `<Structure name="Wrapper">
		<Data name="only" inMemoryType="uint8"/>
	</Structure>`)
	if got := s.RenderStructDeclaration(false); got != "" {
		t.Errorf("RenderStructDeclaration(false) = %q, want empty for single-field structure", got)
	}
	if got := s.RenderStructDeclaration(true); !strings.Contains(got, "typedef struct") {
		t.Errorf("RenderStructDeclaration(true) = %q, want a typedef", got)
	}
}
