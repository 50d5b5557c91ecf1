package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/binary-install/shassemble/internal/assemble"
	"github.com/binary-install/shassemble/internal/shlib"
	"github.com/buildkite/interpolate"
	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
)

const (
	// Default manifest locations, relative to the working directory
	DefaultPathYML  = ".config/shassemble.yml"
	DefaultPathYAML = ".config/shassemble.yaml"

	// DefaultOutput is the output path used when an artifact sets none.
	DefaultOutput = "dist/${ARTIFACT}.sh"

	// Stdout is the output path that writes to standard output.
	Stdout = "-"
)

// Config is the build manifest: one function library and the artifacts
// assembled from it.
type Config struct {
	Library     string     `yaml:"library" json:"library"`
	Placeholder string     `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Boilerplate *Markers   `yaml:"boilerplate,omitempty" json:"boilerplate,omitempty"`
	ScanMode    string     `yaml:"scan_mode,omitempty" json:"scan_mode,omitempty"`
	Dialect     string     `yaml:"dialect,omitempty" json:"dialect,omitempty"`
	Artifacts   []Artifact `yaml:"artifacts" json:"artifacts"`

	// dir is the directory relative paths are resolved against.
	dir string
}

// Markers are the boilerplate delimiter lines.
type Markers struct {
	Begin string `yaml:"begin,omitempty" json:"begin,omitempty"`
	End   string `yaml:"end,omitempty" json:"end,omitempty"`
}

// Artifact is one generated script.
type Artifact struct {
	Name     string `yaml:"name" json:"name"`
	Template string `yaml:"template" json:"template"`
	Output   string `yaml:"output,omitempty" json:"output,omitempty"`
	// RequireBoilerplate fails the artifact when the library has no
	// boilerplate block.
	RequireBoilerplate bool     `yaml:"require_boilerplate,omitempty" json:"require_boilerplate,omitempty"`
	Functions          []string `yaml:"functions" json:"functions"`
}

// Parse decodes a manifest. Relative paths in it resolve against dir.
func Parse(data []byte, dir string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse manifest")
	}
	cfg.dir = dir
	cfg.SetDefaults()
	return &cfg, nil
}

// Load reads and parses a manifest from path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read manifest: %s", path)
	}

	dir, err := BaseDir(path)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(data, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load manifest: %s", path)
	}
	return cfg, nil
}

// BaseDir returns the directory relative paths in the manifest at path
// resolve against: the manifest's directory, or the project root when the
// manifest lives in a .config directory.
func BaseDir(path string) (string, error) {
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve manifest directory: %s", path)
	}
	if filepath.Base(dir) == ".config" {
		dir = filepath.Dir(dir)
	}
	return dir, nil
}

// Discover searches for a manifest in the current directory and its parents.
func Discover() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "failed to get current directory")
	}

	for {
		for _, candidate := range []string{DefaultPathYML, DefaultPathYAML} {
			configPath := filepath.Join(dir, candidate)
			if _, err := os.Stat(configPath); err == nil {
				return configPath, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.Errorf("no manifest found (%s or %s)", DefaultPathYML, DefaultPathYAML)
}

// LoadOrDiscover loads the manifest at configPath, or discovers one if
// configPath is empty
func LoadOrDiscover(configPath string) (*Config, string, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = Discover()
		if err != nil {
			return nil, "", err
		}
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Placeholder == "" {
		c.Placeholder = assemble.DefaultPlaceholder
	}
	if c.Boilerplate == nil {
		c.Boilerplate = &Markers{}
	}
	if c.Boilerplate.Begin == "" {
		c.Boilerplate.Begin = shlib.DefaultBeginMarker
	}
	if c.Boilerplate.End == "" {
		c.Boilerplate.End = shlib.DefaultEndMarker
	}
	if c.ScanMode == "" {
		c.ScanMode = string(shlib.ScanModeLegacy)
	}
	if c.Dialect == "" {
		c.Dialect = shlib.DefaultDialect
	}
	for i := range c.Artifacts {
		if c.Artifacts[i].Output == "" {
			c.Artifacts[i].Output = DefaultOutput
		}
	}
}

// Validate checks the manifest for errors that would stop every build.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Library) == "" {
		return errors.New("library is required")
	}
	if _, err := shlib.ParseScanMode(c.ScanMode); err != nil {
		return err
	}
	if _, err := shlib.ParseDialect(c.Dialect); err != nil {
		return err
	}
	if c.Boilerplate != nil && c.Boilerplate.Begin == c.Boilerplate.End && c.Boilerplate.Begin != "" {
		return errors.Errorf("boilerplate begin and end markers must differ: %q", c.Boilerplate.Begin)
	}
	if len(c.Artifacts) == 0 {
		return errors.New("at least one artifact is required")
	}

	seen := make(map[string]bool, len(c.Artifacts))
	for i, a := range c.Artifacts {
		if a.Name == "" {
			return errors.Errorf("artifacts[%d]: name is required", i)
		}
		if seen[a.Name] {
			return errors.Errorf("artifacts[%d]: duplicate artifact name %q", i, a.Name)
		}
		seen[a.Name] = true
		if a.Template == "" {
			return errors.Errorf("artifact %s: template is required", a.Name)
		}
		for _, fn := range a.Functions {
			if !shlib.ValidName(fn) {
				return errors.Errorf("artifact %s: invalid function name %q", a.Name, fn)
			}
		}
	}
	return nil
}

// Artifact returns the artifact with the given name.
func (c *Config) Artifact(name string) (Artifact, bool) {
	for _, a := range c.Artifacts {
		if a.Name == name {
			return a, true
		}
	}
	return Artifact{}, false
}

// Dir returns the directory relative paths resolve against.
func (c *Config) Dir() string {
	return c.dir
}

// ExtractOptions returns the extractor options the manifest describes.
func (c *Config) ExtractOptions() (shlib.Options, error) {
	mode, err := shlib.ParseScanMode(c.ScanMode)
	if err != nil {
		return shlib.Options{}, err
	}
	opts := shlib.Options{Mode: mode, Dialect: c.Dialect}
	if c.Boilerplate != nil {
		opts.Markers = shlib.Markers{Begin: c.Boilerplate.Begin, End: c.Boilerplate.End}
	}
	return opts, nil
}

// LibraryPath returns the resolved path of the function library.
func (c *Config) LibraryPath() (string, error) {
	return c.resolvePath(c.Library, nil)
}

// TemplatePath returns the resolved template path of an artifact.
func (c *Config) TemplatePath(a Artifact) (string, error) {
	return c.resolvePath(a.Template, artifactVars(a))
}

// OutputPath returns the resolved output path of an artifact, or Stdout.
func (c *Config) OutputPath(a Artifact) (string, error) {
	if a.Output == Stdout {
		return Stdout, nil
	}
	output := a.Output
	if output == "" {
		output = DefaultOutput
	}
	return c.resolvePath(output, artifactVars(a))
}

func artifactVars(a Artifact) map[string]string {
	return map[string]string{"ARTIFACT": a.Name}
}

// resolvePath expands ${VAR} references from the environment and vars, then
// makes the result absolute relative to the manifest directory.
func (c *Config) resolvePath(p string, vars map[string]string) (string, error) {
	envMap := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	envMap["MANIFEST_DIR"] = c.dir
	for k, v := range vars {
		envMap[k] = v
	}

	expanded, err := interpolate.Interpolate(interpolate.NewMapEnv(envMap), p)
	if err != nil {
		return "", errors.Wrapf(err, "failed to expand path %q", p)
	}
	if expanded == "" {
		return "", errors.Errorf("path %q expands to an empty string", p)
	}
	if filepath.IsAbs(expanded) || c.dir == "" {
		return filepath.Clean(expanded), nil
	}
	return filepath.Join(c.dir, expanded), nil
}
