package xmlelem

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	doc := `<Protocol name="Test" prefix="TST" endian="big">
		<Enum name="Color" comment="known colors">
			<Value name="Red"/>
			<Value name="Green" value="5"/>
		</Enum>
		<Packet name="Ping" ID="0x01"/>
	</Protocol>`

	root, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if root.Name != "Protocol" {
		t.Fatalf("root.Name = %q, want Protocol", root.Name)
	}
	if got := root.AttrString("prefix", ""); got != "TST" {
		t.Errorf("prefix = %q, want TST", got)
	}

	enums := root.ChildrenByName("Enum")
	if len(enums) != 1 {
		t.Fatalf("len(enums) = %d, want 1", len(enums))
	}
	values := enums[0].ChildrenByName("Value")
	if len(values) != 2 {
		t.Fatalf("len(values) = %d, want 2", len(values))
	}
	if values[0].Has("value") {
		t.Errorf("values[0] should not have a value attribute")
	}
	if !values[1].Has("value") {
		t.Errorf("values[1] should have a value attribute")
	}
	if got := values[1].AttrString("value", ""); got != "5" {
		t.Errorf("values[1] value = %q, want 5", got)
	}

	packets := root.ChildrenByName("Packet")
	if len(packets) != 1 || packets[0].AttrString("ID", "") != "0x01" {
		t.Fatalf("packets = %+v", packets)
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse(strings.NewReader("<Protocol><Enum></Protocol>")); err == nil {
		t.Fatal("Parse() expected error on malformed document")
	}
}
