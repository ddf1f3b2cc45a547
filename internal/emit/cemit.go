// Package emit turns a parsed protocol into per-packet/structure C source
// and header modules, a runtime-helper support header, and (optionally)
// Markdown documentation.
package emit

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/nwidger/protogen/internal/model"
	"github.com/nwidger/protogen/internal/xmlproto"
)

// Options controls which optional outputs Generate produces.
type Options struct {
	Doxygen     bool
	Markdown    bool
	HelperFiles bool
}

// ModuleResult is the header/source pair written for one generated
// module: either a single packet/structure, or several that share a
// file override.
type ModuleResult struct {
	Name       string
	HeaderPath string
	SourcePath string
}

// Result lists the files Generate wrote, for callers that want to report
// them back to the user.
type Result struct {
	ProtocolHeaderPath string
	Modules            []ModuleResult
	SupportPath        string
	MarkdownPath       string
}

// decl is one top-level structure or packet awaiting its turn to be
// appended into its module's header/source.
type decl struct {
	name      string
	structure *model.Structure
	packet    *model.Packet
}

// Generate renders every output artifact for proto into outDir and returns
// the paths written.
func Generate(proto *xmlproto.Protocol, outDir string, opts Options, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	res := &Result{}

	protoHeaderPath := filepath.Join(outDir, proto.Name+"Protocol.h")
	logger.Debug("rendering protocol header", zap.String("path", protoHeaderPath))
	pw := NewWriter(protoHeaderPath)
	pw.Write(renderProtocolHeader(proto, opts))
	if err := pw.Flush(); err != nil {
		return nil, err
	}
	res.ProtocolHeaderPath = protoHeaderPath

	var decls []decl
	for _, s := range proto.Structures {
		decls = append(decls, decl{name: s.ModuleName(proto.Prefix), structure: s})
	}
	for _, p := range proto.Packets {
		decls = append(decls, decl{name: p.ModuleName(proto.Prefix), packet: p})
	}

	total := map[string]int{}
	for _, d := range decls {
		total[d.name]++
	}

	seen := map[string]int{}
	started := map[string]bool{}
	var order []string
	results := map[string]ModuleResult{}

	// Each declaration gets its own header/source Writer, flushed
	// immediately, exactly like the original tool's ProtocolPacket::
	// parse(): a packet's or structure's module is identified by its
	// file attribute override (or <Prefix><Name>Packet by default,
	// §6), and prepareToAppend()/isAppending() (original_source/
	// protocolpacket.cpp:71-84) decide whether this declaration opens
	// the file fresh or appends onto what an earlier declaration
	// sharing the same name already wrote this run.
	for _, d := range decls {
		seen[d.name]++
		isFirst := !started[d.name]
		isLast := seen[d.name] == total[d.name]

		headerPath := filepath.Join(outDir, d.name+".h")
		sourcePath := filepath.Join(outDir, d.name+".c")
		hw := NewWriter(headerPath)
		sw := NewWriter(sourcePath)

		if isFirst {
			started[d.name] = true
			order = append(order, d.name)
			results[d.name] = ModuleResult{Name: d.name, HeaderPath: headerPath, SourcePath: sourcePath}
			guard := strings.ToUpper(d.name) + "_H"
			hw.Write(fmt.Sprintf("#ifndef %s\n#define %s\n\n", guard, guard))
		} else {
			hw.PrepareToAppend()
			sw.PrepareToAppend()
		}

		if d.structure != nil {
			writeStructureModule(hw, sw, proto, d.name, d.structure, opts)
		} else {
			writePacketModule(hw, sw, proto, d.name, d.packet, opts)
		}

		if isLast {
			hw.Write("\n#endif\n")
		}

		logger.Debug("rendering module", zap.String("header", headerPath), zap.String("source", sourcePath), zap.Bool("appending", !isFirst))
		if err := hw.Flush(); err != nil {
			return nil, err
		}
		if err := sw.Flush(); err != nil {
			return nil, err
		}
	}
	for _, name := range order {
		res.Modules = append(res.Modules, results[name])
	}

	if opts.HelperFiles {
		supportPath := filepath.Join(outDir, proto.Prefix+"Support.h")
		logger.Debug("rendering support header", zap.String("path", supportPath))
		sup := NewWriter(supportPath)
		sup.Write(renderSupportHeader(proto))
		if err := sup.Flush(); err != nil {
			return nil, err
		}
		res.SupportPath = supportPath
	}

	if opts.Markdown {
		mdPath := filepath.Join(outDir, proto.Name+".md")
		logger.Debug("rendering markdown", zap.String("path", mdPath))
		mw := NewWriter(mdPath)
		mw.Write(RenderMarkdown(proto))
		if err := mw.Flush(); err != nil {
			return nil, err
		}
		res.MarkdownPath = mdPath
	}

	return res, nil
}

// renderProtocolHeader declares the protocol-wide enumerations shared by
// every generated packet/structure module, which each one includes by
// name (original_source/protocolpacket.cpp:113's
// header.writeIncludeDirective(protoName + "Protocol.h")).
func renderProtocolHeader(proto *xmlproto.Protocol, opts Options) string {
	var b strings.Builder
	guard := strings.ToUpper(proto.Name) + "_PROTOCOL_H"
	fmt.Fprintf(&b, "#ifndef %s\n#define %s\n\n", guard, guard)
	if opts.Doxygen {
		fmt.Fprintf(&b, "/*!\n * \\file\n * \\brief Shared declarations for the %s protocol.\n */\n\n", proto.Name)
	}
	b.WriteString("#include <stdint.h>\n\n")
	for _, e := range proto.Enums {
		b.WriteString(e.RenderDeclaration())
		b.WriteByte('\n')
	}
	b.WriteString("\n#endif\n")
	return b.String()
}

// writeStructureModule appends a top-level structure's declarations and
// definitions to hw/sw, which belong to the module named name. The file
// banner is only written when hw/sw aren't already appending onto an
// earlier declaration that shares this module.
func writeStructureModule(hw, sw *Writer, proto *xmlproto.Protocol, name string, s *model.Structure, opts Options) {
	if !hw.IsAppending() {
		if opts.Doxygen {
			hw.Write(fmt.Sprintf("/*!\n * \\file\n * \\brief %s.h defines the interface for the %s structure of the %s protocol stack\n */\n\n", name, s.NameVal, proto.Name))
		}
		hw.WriteIncludeDirective(proto.Name + "Protocol.h")
		hw.Write("\n")
	} else {
		hw.Write(MakeLineSeparator())
	}
	for _, e := range s.Enums {
		hw.Write(e.RenderDeclaration())
		hw.Write("\n")
	}
	hw.Write(s.RenderStructDeclaration(true))
	hw.Write("\n")
	hw.Write(s.RenderEncodePrototype())
	hw.Write(s.RenderDecodePrototype())
	hw.Write("\n")

	if !sw.IsAppending() {
		sw.WriteIncludeDirective(name + ".h")
		if opts.HelperFiles {
			sw.WriteIncludeDirective(proto.Prefix + "Support.h")
		}
		sw.Write("\n")
	} else {
		sw.Write(MakeLineSeparator())
	}
	writeNestedStructures(sw, model.CollectStructures(s.Children), proto.BigEndian)
	sw.Write(s.RenderEncode(proto.BigEndian))
	sw.Write("\n")
	sw.Write(s.RenderDecode(proto.BigEndian))
	sw.Write("\n")
}

// writePacketModule is writeStructureModule's packet counterpart: it
// additionally declares/defines the packet ID and minimum-length
// accessors and the encode/decode entry points, structure- or
// parameter-interface according to p.Mode.
func writePacketModule(hw, sw *Writer, proto *xmlproto.Protocol, name string, p *model.Packet, opts Options) {
	if !hw.IsAppending() {
		if opts.Doxygen {
			hw.Write(fmt.Sprintf("/*!\n * \\file\n * \\brief %s.h defines the interface for the %s packet of the %s protocol stack\n */\n\n", name, p.NameVal, proto.Name))
		}
		hw.WriteIncludeDirective(proto.Name + "Protocol.h")
		hw.Write("\n")
	} else {
		hw.Write(MakeLineSeparator())
	}
	for _, e := range p.Enums {
		hw.Write(e.RenderDeclaration())
		hw.Write("\n")
	}
	if p.Mode == model.InterfaceStructure && len(p.Children) > 0 {
		hw.Write(p.RenderStructDeclaration(true))
		hw.Write("\n")
	}
	hw.Write(p.RenderUtilityPrototypes())
	switch {
	case p.Mode == model.InterfaceStructure && len(p.Children) > 0:
		hw.Write(p.RenderStructurePacketPrototypes())
	case len(p.Children) > 0:
		hw.Write(p.RenderParameterPacketPrototypes())
	default:
		hw.Write(p.RenderEmptyPacketPrototypes())
	}
	hw.Write("\n")

	if !sw.IsAppending() {
		sw.WriteIncludeDirective(name + ".h")
		if opts.HelperFiles {
			sw.WriteIncludeDirective(proto.Prefix + "Support.h")
		}
		sw.Write("\n")
	} else {
		sw.Write(MakeLineSeparator())
	}
	writeNestedStructures(sw, model.CollectStructures(p.Children), proto.BigEndian)
	sw.Write(p.RenderUtilityFunctions())
	sw.Write("\n")
	switch {
	case p.Mode == model.InterfaceStructure:
		if len(p.Children) == 0 {
			sw.Write(p.RenderEmptyPacketFunctions())
		} else {
			sw.Write(p.RenderStructurePacketFunctions(proto.BigEndian))
		}
	case p.Mode == model.InterfaceParameter:
		if len(p.Children) == 0 {
			sw.Write(p.RenderEmptyPacketFunctions())
		} else {
			sw.Write(p.RenderParameterPacketFunctions(proto.BigEndian))
		}
	}
	sw.Write("\n")
}

// writeNestedStructures emits the static prototypes for every sub-
// structure reachable from a packet or structure's children, then their
// static bodies, before the owning structure/packet's own functions —
// the "static prototypes ... then the main functions" source shape.
func writeNestedStructures(w *Writer, nested []*model.Structure, bigEndian bool) {
	if len(nested) == 0 {
		return
	}
	for _, n := range nested {
		w.Write(n.RenderStaticEncodePrototype())
		w.Write(n.RenderStaticDecodePrototype())
	}
	w.Write("\n")
	for _, n := range nested {
		w.Write(n.RenderStaticEncode(bigEndian))
		w.Write("\n")
		w.Write(n.RenderStaticDecode(bigEndian))
		w.Write("\n")
	}
}

// renderSupportHeader declares, but never defines, every runtime helper the
// generated source calls: the byte-order conversion and bitfield packing
// functions named by Primitive's encode/decode calls. Callers supply the
// implementations; this file only documents the expected signatures.
func renderSupportHeader(proto *xmlproto.Protocol) string {
	var b strings.Builder
	guard := strings.ToUpper(proto.Prefix) + "_SUPPORT_H"
	fmt.Fprintf(&b, "#ifndef %s\n#define %s\n\n", guard, guard)
	b.WriteString("#include <stdint.h>\n\n")
	b.WriteString("// Prototypes for the runtime encode/decode and bitfield helpers this\n")
	b.WriteString("// protocol's generated code calls. Provide exactly one definition for\n")
	b.WriteString("// each of these in your build.\n\n")

	seen := map[string]bool{}
	var all []*model.Primitive
	for _, s := range proto.Structures {
		all = append(all, model.CollectPrimitives(s.Children)...)
	}
	for _, p := range proto.Packets {
		all = append(all, model.CollectPrimitives(p.Children)...)
	}
	for _, prim := range all {
		for _, hp := range prim.SupportPrototypes(proto.BigEndian) {
			if seen[hp.Name] {
				continue
			}
			seen[hp.Name] = true
			fmt.Fprintf(&b, "%s\n", hp.Decl)
		}
	}

	b.WriteString("\n#endif\n")
	return b.String()
}
