package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nwidger/protogen/internal/lenexpr"
	"github.com/nwidger/protogen/internal/model"
	"github.com/nwidger/protogen/internal/xmlproto"
)

// RenderMarkdown documents every enumeration and packet in proto: one
// section per packet, with a Bytes | Name | Enc | Repeat | Description
// table built by a depth-first walk of its fields.
func RenderMarkdown(proto *xmlproto.Protocol) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Protocol\n\n", proto.Name)
	if proto.Version != "" {
		fmt.Fprintf(&b, "Version %s\n\n", proto.Version)
	}
	if proto.API != "" {
		fmt.Fprintf(&b, "API: %s\n\n", proto.API)
	}

	packetIDs := proto.PacketIDs()

	if len(proto.Enums) > 0 {
		b.WriteString("## Enumerations\n\n")
		for _, e := range proto.Enums {
			b.WriteString(e.RenderMarkdown("##", packetIDs))
			b.WriteByte('\n')
		}
	}

	if len(proto.Packets) > 0 {
		b.WriteString("## Packets\n\n")
		for _, p := range proto.Packets {
			fmt.Fprintf(&b, "### %s {#%s}\n\n", p.NameVal, p.ID)
			if p.Comment != "" {
				fmt.Fprintf(&b, "%s\n\n", proto.ReplaceEnumerationNameWithValue(p.Comment))
			}
			fmt.Fprintf(&b, "- Packet identifier: `%s`", p.ID)
			if value := proto.ReplaceEnumerationNameWithValue(p.ID); value != p.ID {
				fmt.Fprintf(&b, " (`%s`)", value)
			}
			length := p.EncodedLength()
			fmt.Fprintf(&b, "\n- Minimum data length: %s\n- Maximum data length: %s\n\n", lenexpr.CollapseMarkdown(length.Min), lenexpr.CollapseMarkdown(length.Max))
			for _, e := range p.Enums {
				b.WriteString(e.RenderMarkdown("####", packetIDs))
				b.WriteByte('\n')
			}
			renderFieldTable(&b, p.Children)
			b.WriteByte('\n')
		}
	}

	return b.String()
}

// renderFieldTable walks children depth-first, threading a running
// byte-offset expression so nested structures inherit the offset their
// parent field started at.
func renderFieldTable(b *strings.Builder, children []model.Encodable) {
	rows := [][]string{}
	startByte := "0"
	walkFields(children, "", &startByte, &rows)
	model.WriteMarkdownTable(b, []string{"Bytes", "Name", "Enc", "Repeat", "Description"}, rows)
}

func walkFields(children []model.Encodable, outlinePrefix string, startByte *string, rows *[][]string) {
	for i, c := range children {
		outline := strconv.Itoa(i + 1)
		if outlinePrefix != "" {
			outline = outlinePrefix + "." + outline
		}

		length := c.EncodedLength()
		bytesCol := *startByte
		if length.Min != "" && length.Min != "0" {
			end := lenexpr.SubtractOne(lenexpr.Add(*startByte, length.Min))
			if end != bytesCol {
				bytesCol = fmt.Sprintf("%s-%s", bytesCol, end)
			}
		}

		switch v := c.(type) {
		case *model.Primitive:
			enc := v.EncodedType
			repeat := "1"
			if v.Array != "" {
				repeat = v.Array
				if v.VariableArray != "" {
					repeat = fmt.Sprintf("0-%s", v.Array)
				}
			}
			*rows = append(*rows, []string{bytesCol, outline + " " + v.NameVal, enc, repeat, v.Comment})
		case *model.Structure:
			repeat := "1"
			if v.Array != "" {
				repeat = v.Array
				if v.VariableArray != "" {
					repeat = fmt.Sprintf("0-%s", v.Array)
				}
			}
			*rows = append(*rows, []string{bytesCol, outline + " " + v.NameVal, v.TypeNameVal, repeat, v.Comment})
			walkFields(v.Children, outline, startByte, rows)
			continue
		}

		*startByte = lenexpr.Add(*startByte, length.Min)
	}
}
