package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// Options configures a resolution session.
type Options struct {
	// RootModule is the module searched last for every name, and the source
	// of the string aliases.
	RootModule string `yaml:"root_module" toml:"root_module"`

	// StringImportPaths are extra directories searched by import("file")
	// after the directory of the importing module.
	StringImportPaths []string `yaml:"string_import_paths,omitempty" toml:"string_import_paths,omitempty"`

	// ConstantOnly restricts value-mode evaluation to compile-time constants.
	ConstantOnly *bool `yaml:"constant_only,omitempty" toml:"constant_only,omitempty"`

	// MaxEvalDepth bounds nested evaluation and function invocation.
	MaxEvalDepth int `yaml:"max_eval_depth,omitempty" toml:"max_eval_depth,omitempty"`

	// LogLevel is one of silent, error, warning, verbose.
	LogLevel string `yaml:"log_level,omitempty" toml:"log_level,omitempty"`

	// Color is one of auto, always, never.
	Color string `yaml:"color,omitempty" toml:"color,omitempty"`

	// SourceExtensions overrides SourceFileExtensions.
	SourceExtensions []string `yaml:"source_extensions,omitempty" toml:"source_extensions,omitempty"`
}

var logLevels = []string{"silent", "error", "warning", "verbose"}
var colorModes = []string{"auto", "always", "never"}

// Default returns the options used when no option file exists.
func Default() *Options {
	o := &Options{}
	o.setDefaults()
	return o
}

// IsConstantOnly reports the effective constant-only setting.
func (o *Options) IsConstantOnly() bool {
	return o.ConstantOnly == nil || *o.ConstantOnly
}

// IsSourceFile reports whether path carries one of the source extensions.
func (o *Options) IsSourceFile(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range o.SourceExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// LoadOptions reads and parses an option file; the format follows the
// extension.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading options %s: %w", path, err)
	}
	return ParseOptions(data, path)
}

// ParseOptions parses option file content. The path selects YAML or TOML and
// is used in error messages.
func ParseOptions(data []byte, path string) (*Options, error) {
	var opts Options
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &opts); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, &opts); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported option file format", path)
	}
	if err := opts.validate(path); err != nil {
		return nil, err
	}
	opts.setDefaults()
	return &opts, nil
}

// FindOptions searches for an option file starting from dir and walking up
// to parent directories. It returns "" and a nil error when none exists.
func FindOptions(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range OptionFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Resolve returns the options found above dir, or the defaults.
func Resolve(dir string) (*Options, string, error) {
	path, err := FindOptions(dir)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return Default(), "", nil
	}
	opts, err := LoadOptions(path)
	return opts, path, err
}

func (o *Options) validate(path string) error {
	if o.MaxEvalDepth < 0 {
		return fmt.Errorf("%s: max_eval_depth must not be negative", path)
	}
	if o.LogLevel != "" && !contains(logLevels, o.LogLevel) {
		return fmt.Errorf("%s: log_level %q is not one of %s", path, o.LogLevel, strings.Join(logLevels, ", "))
	}
	if o.Color != "" && !contains(colorModes, o.Color) {
		return fmt.Errorf("%s: color %q is not one of %s", path, o.Color, strings.Join(colorModes, ", "))
	}
	for i, ext := range o.SourceExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("%s: source_extensions[%d]: %q must start with a dot", path, i, ext)
		}
	}
	if strings.ContainsAny(o.RootModule, " /\\") {
		return fmt.Errorf("%s: root_module %q is not a dotted module name", path, o.RootModule)
	}
	return nil
}

func (o *Options) setDefaults() {
	if o.RootModule == "" {
		o.RootModule = DefaultRootModule
	}
	if o.MaxEvalDepth == 0 {
		o.MaxEvalDepth = DefaultMaxEvalDepth
	}
	if o.LogLevel == "" {
		o.LogLevel = "warning"
	}
	if o.Color == "" {
		o.Color = "auto"
	}
	if len(o.SourceExtensions) == 0 {
		o.SourceExtensions = append([]string(nil), SourceFileExtensions...)
	}
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
