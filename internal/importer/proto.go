package importer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/funvibe/phasec/internal/typesystem"
	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"google.golang.org/protobuf/types/descriptorpb"
)

// loadProto parses a .proto file and lowers its messages to structs, its
// enums to enums and its services to interfaces with inflight methods.
// Every declaration is a root type of the assembly.
func loadProto(name string, searchPaths, importPaths []string) (*Assembly, error) {
	var searched []string
	found := false
	for _, dir := range searchPaths {
		path := filepath.Join(dir, name)
		searched = append(searched, path)
		if _, err := os.Stat(path); err == nil {
			found = true
			break
		}
	}
	if !found && !filepath.IsAbs(name) {
		return nil, &NotFoundError{Name: name, Searched: searched}
	}

	parser := protoparse.Parser{
		ImportPaths:           append(append([]string{}, searchPaths...), importPaths...),
		IncludeSourceCodeInfo: true,
	}
	fds, err := parser.ParseFiles(name)
	if err != nil {
		return nil, err
	}

	l := &protoLowering{asm: &Assembly{Name: name, Source: name}}
	for _, fd := range fds {
		l.pkg = fd.GetPackage()
		for _, md := range fd.GetMessageTypes() {
			l.message(md)
		}
		for _, ed := range fd.GetEnumTypes() {
			l.enum(ed)
		}
		for _, sd := range fd.GetServices() {
			l.service(sd)
		}
	}
	if err := l.asm.validate(); err != nil {
		return nil, err
	}
	return l.asm, nil
}

type protoLowering struct {
	asm *Assembly
	pkg string
}

// localName turns "pkg.Outer.Inner" into "Outer_Inner".
func (l *protoLowering) localName(fullName string) string {
	if l.pkg != "" {
		fullName = strings.TrimPrefix(fullName, l.pkg+".")
	}
	return strings.ReplaceAll(fullName, ".", "_")
}

func (l *protoLowering) message(md *desc.MessageDescriptor) {
	if md.IsMapEntry() {
		return
	}
	decl := &TypeDecl{
		FQN:  l.localName(md.GetFullyQualifiedName()),
		Kind: KindStruct,
		Docs: protoDocs(md.GetSourceInfo()),
	}
	for _, fd := range md.GetFields() {
		decl.Properties = append(decl.Properties, &PropertyDecl{
			Name: fd.GetJSONName(),
			Type: l.fieldType(fd),
			Docs: protoDocs(fd.GetSourceInfo()),
		})
	}
	l.asm.Types = append(l.asm.Types, decl)
	for _, nested := range md.GetNestedMessageTypes() {
		l.message(nested)
	}
	for _, ed := range md.GetNestedEnumTypes() {
		l.enum(ed)
	}
}

func (l *protoLowering) enum(ed *desc.EnumDescriptor) {
	decl := &TypeDecl{
		FQN:  l.localName(ed.GetFullyQualifiedName()),
		Kind: KindEnum,
		Docs: protoDocs(ed.GetSourceInfo()),
	}
	for _, v := range ed.GetValues() {
		decl.Values = append(decl.Values, v.GetName())
	}
	l.asm.Types = append(l.asm.Types, decl)
}

func (l *protoLowering) service(sd *desc.ServiceDescriptor) {
	decl := &TypeDecl{
		FQN:        l.localName(sd.GetFullyQualifiedName()),
		Kind:       KindInterface,
		Interfaces: []string{"std.IResource"},
		Docs:       protoDocs(sd.GetSourceInfo()),
	}
	for _, m := range sd.GetMethods() {
		in := l.localName(m.GetInputType().GetFullyQualifiedName())
		out := l.localName(m.GetOutputType().GetFullyQualifiedName())
		if m.IsClientStreaming() {
			in = "Array<" + in + ">"
		}
		if m.IsServerStreaming() {
			out = "Array<" + out + ">"
		}
		decl.Methods = append(decl.Methods, &MethodDecl{
			Name:    m.GetName(),
			Phase:   "inflight",
			Params:  []ParamDecl{{Name: "request", Type: in}},
			Returns: out,
			Docs:    protoDocs(m.GetSourceInfo()),
		})
	}
	l.asm.Types = append(l.asm.Types, decl)
}

func (l *protoLowering) fieldType(fd *desc.FieldDescriptor) string {
	if fd.IsMap() {
		return "Map<" + l.scalarType(fd.GetMapValueType()) + ">"
	}
	t := l.scalarType(fd)
	if fd.IsRepeated() {
		return "Array<" + t + ">"
	}
	if fd.GetType() == descriptorpb.FieldDescriptorProto_TYPE_MESSAGE || fd.IsProto3Optional() {
		return t + "?"
	}
	return t
}

func (l *protoLowering) scalarType(fd *desc.FieldDescriptor) string {
	switch fd.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_BOOL:
		return "bool"
	case descriptorpb.FieldDescriptorProto_TYPE_STRING, descriptorpb.FieldDescriptorProto_TYPE_BYTES:
		return "str"
	case descriptorpb.FieldDescriptorProto_TYPE_ENUM:
		return l.localName(fd.GetEnumType().GetFullyQualifiedName())
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:
		switch name := fd.GetMessageType().GetFullyQualifiedName(); name {
		case "google.protobuf.Duration":
			return "duration"
		case "google.protobuf.Timestamp":
			return "str"
		case "google.protobuf.Struct", "google.protobuf.Value", "google.protobuf.ListValue":
			return "Json"
		default:
			if l.pkg != "" && !strings.HasPrefix(name, l.pkg+".") {
				return "Json"
			}
			return l.localName(name)
		}
	default:
		// every numeric wire type
		return "num"
	}
}

func protoDocs(loc *descriptorpb.SourceCodeInfo_Location) *typesystem.Docs {
	if loc == nil {
		return nil
	}
	summary := strings.TrimSpace(loc.GetLeadingComments())
	if summary == "" {
		summary = strings.TrimSpace(loc.GetTrailingComments())
	}
	if summary == "" {
		return nil
	}
	return &typesystem.Docs{Summary: summary}
}
