package config

const SourceFileExt = ".d"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".d", ".di"}

// Option file names searched by FindOptions, in order.
var OptionFileNames = []string{"dsema.yaml", "dsema.yml", "dsema.toml"}

// Default engine limits
const (
	DefaultRootModule   = "object"
	DefaultMaxEvalDepth = 500
)

// Well-known symbols looked up in the root module
const (
	StringAliasName  = "string"
	WStringAliasName = "wstring"
	DStringAliasName = "dstring"
	SizeTAliasName   = "size_t"
)

// Special member names
const (
	ConstructorName = "this"
	OpCallName      = "opCall"
)

// Static property names synthesized for every symbol type
const (
	InitProperty      = "init"
	SizeofProperty    = "sizeof"
	AlignofProperty   = "alignof"
	MangleofProperty  = "mangleof"
	StringofProperty  = "stringof"
	ClassinfoProperty = "classinfo"
)

// Static properties of particular kinds of types
const (
	MinProperty       = "min"
	MaxProperty       = "max"
	LengthProperty    = "length"
	PtrProperty       = "ptr"
	DupProperty       = "dup"
	IdupProperty      = "idup"
	KeysProperty      = "keys"
	ValuesProperty    = "values"
	NanProperty       = "nan"
	InfinityProperty  = "infinity"
	EpsilonProperty   = "epsilon"
	DigProperty       = "dig"
	MantDigProperty   = "mant_dig"
	MaxExpProperty    = "max_exp"
	MinExpProperty    = "min_exp"
	Max10ExpProperty  = "max_10_exp"
	Min10ExpProperty  = "min_10_exp"
	MinNormalProperty = "min_normal"
	ReProperty        = "re"
	ImProperty        = "im"
)

// CommonProperties are available on every symbol type.
var CommonProperties = []string{
	InitProperty, SizeofProperty, AlignofProperty, MangleofProperty, StringofProperty, ClassinfoProperty,
}
