package config

const SourceFileExt = ".ph"

// ASTFileExt is the extension of serialized syntax trees consumed by the checker.
const ASTFileExt = ".ast.json"

// ProjectFileName is the optional per-project configuration file.
const ProjectFileName = "phasec.yaml"

// SDKRootEnvVar overrides the location of the SDK manifest.
const SDKRootEnvVar = "PHASEC_SDK_ROOT"

// IsTestMode indicates if the program is running in test mode.
var IsTestMode = false

// IsLSPMode is set by the language server so that diagnostics are never
// printed to stdout (which carries the protocol stream).
var IsLSPMode = false

// IsDebugMode enables environment dumps and importer tracing through the log package.
var IsDebugMode = false

// Special method and symbol names
const (
	InitName         = "init"
	InflightInitName = "$inflight_init"
	HandleMethod     = "handle"
	ThisName         = "this"
	SuperName        = "super"
	ScopeArgName     = "scope"
	IDArgName        = "id"
	UtilClassName    = "Util"
	ErrorSymbolName  = "<error>"
)

// Global functions available in every scope
const (
	LogFuncName    = "log"
	AssertFuncName = "assert"
	ThrowFuncName  = "throw"
	PanicFuncName  = "panic"
	PrintFuncName  = "print"
)

// SDK assembly and modules
const (
	SDKAssembly  = "@phasec/sdk"
	StdModule    = "std"
	CloudModule  = "cloud"
	UtilModule   = "util"
	HTTPModule   = "http"
	ResourceName = "Resource"
)

// BringableModules are the SDK submodules that may be brought by name.
var BringableModules = []string{CloudModule, UtilModule, HTTPModule}

// Fully qualified std type names
const (
	ResourceFQN  = StdModule + "." + ResourceName
	IResourceFQN = StdModule + ".IResource"
	StringFQN    = StdModule + ".String"
	NumberFQN    = StdModule + ".Number"
	BooleanFQN   = StdModule + ".Boolean"
	DurationFQN  = StdModule + ".Duration"
	JsonFQN      = StdModule + ".Json"
	MutJsonFQN   = StdModule + ".MutJson"
	ArrayFQN     = StdModule + ".Array"
	MutArrayFQN  = StdModule + ".MutArray"
	MapFQN       = StdModule + ".Map"
	MutMapFQN    = StdModule + ".MutMap"
	SetFQN       = StdModule + ".Set"
	MutSetFQN    = StdModule + ".MutSet"
)

// GenericParamName is the type parameter name used by the std collection templates.
const GenericParamName = "T1"

// IsBringable reports whether name is an SDK submodule that can be brought.
func IsBringable(name string) bool {
	for _, m := range BringableModules {
		if m == name {
			return true
		}
	}
	return false
}
