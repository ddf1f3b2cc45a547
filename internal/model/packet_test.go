package model

import (
	"strings"
	"testing"

	"github.com/nwidger/protogen/internal/diag"
	"github.com/nwidger/protogen/internal/xmlelem"
)

func parsePacketXML(t *testing.T, doc string) (*Packet, *diag.Collector) {
	t.Helper()
	el, err := xmlelem.Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("xmlelem.Parse() error = %v", err)
	}
	var d diag.Collector
	p := ParsePacket(el, "Proto", &d)
	return p, &d
}

func TestPacketEmpty(t *testing.T) {
	p, d := parsePacketXML(t, `<Packet name="Ping" ID="0x01"/>`)
	if d.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", d.Lines())
	}
	if p.ID != "0x01" {
		t.Errorf("ID = %q, want 0x01", p.ID)
	}
	if len(p.Children) != 0 {
		t.Fatalf("len(Children) = %d, want 0", len(p.Children))
	}
	got := p.RenderEmptyPacketFunctions()
	if !strings.Contains(got, "finishProtocolPacket(pkt, 0,") {
		t.Errorf("RenderEmptyPacketFunctions() = %q, missing finish call", got)
	}
	if !strings.Contains(got, "return 1;") {
		t.Errorf("RenderEmptyPacketFunctions() = %q, missing success return", got)
	}
}

func TestPacketSingleParameter(t *testing.T) {
	p, d := parsePacketXML(t, `<Packet name="Echo" ID="ECHO_ID"><Data name="n" inMemoryType="uint16"/></Packet>`)
	if d.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", d.Lines())
	}
	if p.Mode != InterfaceParameter {
		t.Errorf("Mode = %v, want InterfaceParameter", p.Mode)
	}
	if p.length.Min != "2" {
		t.Errorf("MinDataLength = %q, want 2", p.length.Min)
	}
	got := p.RenderParameterPacketFunctions(true)
	if !strings.Contains(got, "encodeProtoEchoPacket(void* pkt, uint16_t n)") {
		t.Errorf("RenderParameterPacketFunctions() missing expected signature: %q", got)
	}
}

func TestPacketVariableArrayLength(t *testing.T) {
	p, d := parsePacketXML(t, `<Packet name="Blob" ID="2">
		<Data name="count" inMemoryType="uint8"/>
		<Data name="payload" inMemoryType="uint8" array="16" variableArray="count"/>
	</Packet>`)
	if d.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", d.Lines())
	}
	if p.length.Min != "1" {
		t.Errorf("Min = %q, want 1", p.length.Min)
	}
	if p.length.Max != "17" {
		t.Errorf("Max = %q, want 17", p.length.Max)
	}
	if p.Mode != InterfaceStructure {
		t.Errorf("Mode = %v, want InterfaceStructure (two children)", p.Mode)
	}
}

func TestPacketTrailingDefaultsShortPacketCheck(t *testing.T) {
	p, d := parsePacketXML(t, `<Packet name="Trio" ID="3" structureInterface="true">
		<Data name="a" inMemoryType="uint32"/>
		<Data name="b" inMemoryType="uint32"/>
		<Data name="c" inMemoryType="uint32" default="0"/>
	</Packet>`)
	if d.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", d.Lines())
	}
	got := p.RenderStructurePacketFunctions(true)
	if !strings.Contains(got, "user->c = 0;") {
		t.Errorf("missing default initialization: %q", got)
	}
	if !strings.Contains(got, "if(numBytes < byteindex)") {
		t.Errorf("missing short-packet check before default suffix: %q", got)
	}
	// the default init must appear before the short-packet check, which
	// must appear before the final decode of the default field.
	idxInit := strings.Index(got, "user->c = 0;")
	idxCheck := strings.Index(got, "if(numBytes < byteindex)")
	if idxInit > idxCheck {
		t.Errorf("default init must precede short-packet check")
	}
	idxDecode := strings.Index(got, "user->c = BeBytesToUint32(")
	if idxDecode < idxCheck {
		t.Errorf("short-packet check must precede the decode of the default field")
	}
}

func TestPacketRejectsArrayAndDependsOn(t *testing.T) {
	_, d := parsePacketXML(t, `<Packet name="Bad" ID="1" array="4" dependsOn="x"/>`)
	if d.Len() != 2 {
		t.Fatalf("len(diagnostics) = %d, want 2: %v", d.Len(), d.Lines())
	}
}

func TestPacketIDDefaultsToUppercaseName(t *testing.T) {
	p, _ := parsePacketXML(t, `<Packet name="Ping"/>`)
	if p.ID != "PING" {
		t.Errorf("ID = %q, want PING", p.ID)
	}
}
