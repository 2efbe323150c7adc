package typesystem

import (
	"strings"

	"github.com/funvibe/phasec/internal/config"
)

// FullyQualifyStdType maps a builtin type name to the std library class that
// carries its API: "str" becomes "std.String", "Array<num>" becomes
// "std.Array". Other names are returned unchanged.
func FullyQualifyStdType(name string) string {
	if i := strings.Index(name, "<"); i >= 0 {
		name = name[:i]
	}
	switch name {
	case "str":
		name = "String"
	case "duration":
		name = "Duration"
	case "bool":
		name = "Boolean"
	case "num":
		name = "Number"
	}
	switch name {
	case "Json", "MutJson", "MutArray", "MutMap", "MutSet", "Array", "Map", "Set",
		"String", "Duration", "Boolean", "Number":
		return config.StdModule + "." + name
	}
	return name
}
