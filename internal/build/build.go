package build

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/binary-install/shassemble/internal/assemble"
	"github.com/binary-install/shassemble/internal/shlib"
	"github.com/binary-install/shassemble/pkg/config"
	"github.com/pkg/errors"
)

// MissingBoilerplateError is returned for an artifact that requires a
// boilerplate block when the library has none.
type MissingBoilerplateError struct {
	Artifact string
}

func (e *MissingBoilerplateError) Error() string {
	return fmt.Sprintf("artifact %s requires a boilerplate block but the library has none", e.Artifact)
}

// Result describes one generated artifact.
type Result struct {
	Artifact  string
	Output    string
	Functions int
	Bytes     int
}

// Runner generates artifacts described by a manifest.
type Runner struct {
	Config *config.Config
	// ScanMode overrides the manifest's scan mode when set.
	ScanMode shlib.ScanMode
	// OutputOverride replaces the output path of the (single) artifact built.
	OutputOverride string
	// Stdout receives artifacts whose output is "-".
	Stdout io.Writer
}

// LoadLibrary reads and extracts the manifest's function library.
func (r *Runner) LoadLibrary() (*shlib.Library, error) {
	libPath, err := r.Config.LibraryPath()
	if err != nil {
		return nil, err
	}
	source, err := os.ReadFile(libPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read function library: %s", libPath)
	}

	opts, err := r.Config.ExtractOptions()
	if err != nil {
		return nil, err
	}
	if r.ScanMode != "" {
		opts.Mode = r.ScanMode
	}

	lib, err := shlib.Extract(string(source), opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to extract function library: %s", libPath)
	}
	log.WithFields(log.Fields{
		"library":     libPath,
		"functions":   len(lib.Functions),
		"boilerplate": lib.HasBoilerplate,
		"mode":        opts.Mode,
	}).Debug("extracted function library")
	return lib, nil
}

// Selected returns the artifacts named by names, in that order, or every
// artifact of the manifest when names is empty.
func (r *Runner) Selected(names []string) ([]config.Artifact, error) {
	if len(names) == 0 {
		return r.Config.Artifacts, nil
	}
	artifacts := make([]config.Artifact, 0, len(names))
	for _, name := range names {
		a, ok := r.Config.Artifact(name)
		if !ok {
			return nil, errors.Errorf("unknown artifact: %s", name)
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}

// Render assembles a single artifact in memory.
func (r *Runner) Render(lib *shlib.Library, a config.Artifact) (string, error) {
	if a.RequireBoilerplate && !lib.HasBoilerplate {
		return "", &MissingBoilerplateError{Artifact: a.Name}
	}

	tmplPath, err := r.Config.TemplatePath(a)
	if err != nil {
		return "", err
	}
	text, err := os.ReadFile(tmplPath)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read template: %s", tmplPath)
	}

	out, err := assemble.Build(lib.Boilerplate, lib.Functions, a.Functions, assemble.Template{
		Name:        tmplPath,
		Text:        string(text),
		Placeholder: r.Config.Placeholder,
	})
	if err != nil {
		return "", errors.Wrapf(err, "artifact %s", a.Name)
	}
	return out, nil
}

// Run extracts the library once and generates the selected artifacts in
// order. Artifacts written before a failure stay on disk.
func (r *Runner) Run(names []string) ([]Result, error) {
	artifacts, err := r.Selected(names)
	if err != nil {
		return nil, err
	}
	if r.OutputOverride != "" && len(artifacts) != 1 {
		return nil, errors.Errorf("an output override needs exactly one artifact, got %d", len(artifacts))
	}

	lib, err := r.LoadLibrary()
	if err != nil {
		return nil, err
	}
	for _, s := range lib.Suspects {
		log.WithFields(log.Fields{"function": s.Name, "line": s.Line}).Warnf("function may be truncated: %s", s.Reason)
	}

	results := make([]Result, 0, len(artifacts))
	for _, a := range artifacts {
		res, err := r.generate(lib, a)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) generate(lib *shlib.Library, a config.Artifact) (Result, error) {
	ctx := log.WithField("artifact", a.Name)
	ctx.Debugf("assembling %d functions", len(a.Functions))

	out, err := r.Render(lib, a)
	if err != nil {
		return Result{}, err
	}

	output := r.OutputOverride
	if output == "" {
		output, err = r.Config.OutputPath(a)
		if err != nil {
			return Result{}, err
		}
	}

	res := Result{Artifact: a.Name, Output: output, Functions: len(a.Functions), Bytes: len(out)}
	if output == config.Stdout {
		w := r.Stdout
		if w == nil {
			w = os.Stdout
		}
		if _, err := io.WriteString(w, out); err != nil {
			return Result{}, errors.Wrapf(err, "failed to write artifact %s to stdout", a.Name)
		}
		ctx.Debug("artifact written to stdout")
		return res, nil
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return Result{}, errors.Wrapf(err, "failed to create output directory for %s", output)
	}
	// Generated scripts are executable
	if err := os.WriteFile(output, []byte(out), 0755); err != nil {
		return Result{}, errors.Wrapf(err, "failed to write artifact %s", output)
	}
	ctx.WithField("output", output).Info("artifact written")
	return res, nil
}
