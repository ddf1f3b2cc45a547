package emit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nwidger/protogen/internal/xmlproto"
)

const testDoc = `<Protocol name="Test" prefix="Tst" endian="big">
	<Structure name="Header">
		<Data name="seq" inMemoryType="uint16"/>
	</Structure>
	<Packet name="Echo" ID="1">
		<Data name="count" inMemoryType="uint8"/>
		<Data name="payload" inMemoryType="uint8" array="8" variableArray="count"/>
	</Packet>
	<Packet name="Ping" ID="2"/>
	<Packet name="Pong" ID="3" file="TstPingPong"/>
	<Packet name="Pang" ID="4" file="TstPingPong"/>
</Protocol>`

func parseTestDoc(t *testing.T) *xmlproto.Protocol {
	t.Helper()
	p, err := xmlproto.Parse(strings.NewReader(testDoc))
	if err != nil {
		t.Fatalf("xmlproto.Parse() error = %v", err)
	}
	if p.Diagnostics.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", p.Diagnostics.Lines())
	}
	return p
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", path, err)
	}
	return string(got)
}

func moduleResult(t *testing.T, res *Result, name string) ModuleResult {
	t.Helper()
	for _, m := range res.Modules {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("Generate() result has no module named %s", name)
	return ModuleResult{}
}

func TestGenerateWritesProtocolHeader(t *testing.T) {
	p := parseTestDoc(t)
	dir := t.TempDir()
	res, err := Generate(p, dir, Options{Doxygen: true}, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	got := readFile(t, res.ProtocolHeaderPath)
	if !strings.Contains(got, "#ifndef TEST_PROTOCOL_H") {
		t.Errorf("protocol header missing include guard: %q", got)
	}
	if filepath.Base(res.ProtocolHeaderPath) != "TestProtocol.h" {
		t.Errorf("protocol header path = %s, want TestProtocol.h", res.ProtocolHeaderPath)
	}
}

func TestGenerateWritesPerDeclarationModule(t *testing.T) {
	p := parseTestDoc(t)
	dir := t.TempDir()
	res, err := Generate(p, dir, Options{HelperFiles: true}, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	header := moduleResult(t, res, "TstHeaderPacket")
	if filepath.Base(header.HeaderPath) != "TstHeaderPacket.h" {
		t.Errorf("structure header path = %s, want TstHeaderPacket.h", header.HeaderPath)
	}
	hdr := readFile(t, header.HeaderPath)
	if !strings.Contains(hdr, "typedef struct") {
		t.Errorf("TstHeaderPacket.h missing structure typedef: %q", hdr)
	}
	src := readFile(t, header.SourcePath)
	if !strings.Contains(src, "encodeHeader(") {
		t.Errorf("TstHeaderPacket.c missing structure encode: %q", src)
	}
	if !strings.Contains(src, "#include \"TstSupport.h\"") {
		t.Errorf("TstHeaderPacket.c missing support include: %q", src)
	}

	echo := moduleResult(t, res, "TstEchoPacket")
	echoHdr := readFile(t, echo.HeaderPath)
	if !strings.Contains(echoHdr, "getTstEchoPacketID") {
		t.Errorf("TstEchoPacket.h missing packet ID accessor: %q", echoHdr)
	}

	ping := moduleResult(t, res, "TstPingPacket")
	pingSrc := readFile(t, ping.SourcePath)
	if !strings.Contains(pingSrc, "decodeTstPingPacket(") {
		t.Errorf("TstPingPacket.c missing empty-packet decode: %q", pingSrc)
	}
}

func TestGenerateMergesSharedFileOverride(t *testing.T) {
	p := parseTestDoc(t)
	dir := t.TempDir()
	res, err := Generate(p, dir, Options{}, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	merged := moduleResult(t, res, "TstPingPong")
	hdr := readFile(t, merged.HeaderPath)
	if !strings.Contains(hdr, "getTstPongPacketID") || !strings.Contains(hdr, "getTstPangPacketID") {
		t.Errorf("TstPingPong.h should declare both merged packets' accessors: %q", hdr)
	}
	if strings.Count(hdr, "#ifndef TSTPINGPONG_H") != 1 {
		t.Errorf("TstPingPong.h should open its include guard exactly once:\n%s", hdr)
	}
	if strings.Count(hdr, "#endif") != 1 {
		t.Errorf("TstPingPong.h should close its include guard exactly once:\n%s", hdr)
	}

	src := readFile(t, merged.SourcePath)
	if !strings.Contains(src, "decodeTstPongPacket(") || !strings.Contains(src, "decodeTstPangPacket(") {
		t.Errorf("TstPingPong.c should define both merged packets' decoders: %q", src)
	}

	for _, other := range res.Modules {
		if other.Name == "TstPingPong" {
			continue
		}
		if other.Name == "TstPongPacket" || other.Name == "TstPangPacket" {
			t.Errorf("Pong/Pang should not also get their own default-named module, found %s", other.Name)
		}
	}
}

func TestGenerateWritesSupportHeader(t *testing.T) {
	p := parseTestDoc(t)
	dir := t.TempDir()
	res, err := Generate(p, dir, Options{HelperFiles: true}, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.SupportPath == "" {
		t.Fatal("Generate() did not set SupportPath with HelperFiles enabled")
	}
	got := readFile(t, res.SupportPath)
	if strings.Count(got, "uint8ToBeBytes") != 1 {
		t.Errorf("support header should declare uint8ToBeBytes exactly once:\n%s", got)
	}
	if !strings.Contains(got, "uint16ToBeBytes") {
		t.Errorf("support header missing uint16 helper: %q", got)
	}
}

func TestGenerateWritesMarkdown(t *testing.T) {
	p := parseTestDoc(t)
	dir := t.TempDir()
	res, err := Generate(p, dir, Options{Markdown: true}, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	got := readFile(t, res.MarkdownPath)
	if !strings.Contains(got, "### Echo") {
		t.Errorf("markdown missing Echo section: %q", got)
	}
	if !strings.Contains(got, "Bytes") || !strings.Contains(got, "Repeat") {
		t.Errorf("markdown missing table headers: %q", got)
	}
}

func TestRenderSupportHeaderDedupesHelpers(t *testing.T) {
	p := parseTestDoc(t)
	got := renderSupportHeader(p)
	if strings.Count(got, "uint8ToBeBytes") != 1 {
		t.Errorf("renderSupportHeader() should declare uint8ToBeBytes exactly once:\n%s", got)
	}
	if !strings.Contains(got, "uint16ToBeBytes") {
		t.Errorf("renderSupportHeader() missing uint16 helper: %q", got)
	}
}

func TestRenderMarkdownIncludesPacketTable(t *testing.T) {
	p := parseTestDoc(t)
	got := RenderMarkdown(p)
	if !strings.Contains(got, "### Echo") {
		t.Errorf("RenderMarkdown() missing Echo section: %q", got)
	}
	if !strings.Contains(got, "Bytes") || !strings.Contains(got, "Repeat") {
		t.Errorf("RenderMarkdown() missing table headers: %q", got)
	}
}
