package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/binary-install/shassemble/internal/assemble"
	"github.com/binary-install/shassemble/internal/shlib"
	"github.com/binary-install/shassemble/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// initOptions holds the flags of the init command.
type initOptions struct {
	outputFile string
	library    string
	force      bool
	scaffold   bool
}

// promptForConfirmation prompts the user for confirmation and returns true if they confirm
func promptForConfirmation(in io.Reader, message string) bool {
	fmt.Printf("%s (y/N): ", message)
	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func newInitCommand(root *rootOptions) *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter build manifest",
		Long: `Writes a build manifest (` + config.DefaultPathYML + `) describing an install and an
uninstall artifact. With --scaffold, also creates the function library and
the two templates when they do not exist yet.`,
		Example: `  # Write the default manifest
  shassemble init

  # Write the manifest and a sample library and templates
  shassemble init --scaffold

  # Overwrite an existing manifest without confirmation
  shassemble init --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Infof("Running init command...")
			return runInit(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outputFile, "output", "o", config.DefaultPathYML, "Path of the manifest to write")
	cmd.Flags().StringVar(&opts.library, "library", "lib/functions.sh", "Function library path, relative to the manifest")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Overwrite an existing manifest without confirmation")
	cmd.Flags().BoolVar(&opts.scaffold, "scaffold", false, "Also create a sample library and templates")

	return cmd
}

// starterConfig is the manifest written by init.
func starterConfig(library string) *config.Config {
	return &config.Config{
		Library:     library,
		Placeholder: assemble.DefaultPlaceholder,
		Boilerplate: &config.Markers{Begin: shlib.DefaultBeginMarker, End: shlib.DefaultEndMarker},
		ScanMode:    string(shlib.ScanModeLegacy),
		Artifacts: []config.Artifact{
			{
				Name:      "install",
				Template:  "templates/install.sh.in",
				Functions: []string{"log_info", "log_err", "do_install"},
			},
			{
				Name:      "uninstall",
				Template:  "templates/uninstall.sh.in",
				Functions: []string{"log_info", "log_err", "do_uninstall"},
			},
		},
	}
}

func marshalConfig(cfg *config.Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func runInit(opts *initOptions) error {
	if _, err := os.Stat(opts.outputFile); err == nil && !opts.force {
		if !promptForConfirmation(stdin, fmt.Sprintf("%s already exists. Overwrite?", opts.outputFile)) {
			log.Info("Init cancelled")
			return nil
		}
	}

	cfg := starterConfig(opts.library)
	data, err := marshalConfig(cfg)
	if err != nil {
		log.WithError(err).Error("Failed to marshal manifest")
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := writeFile(opts.outputFile, data, 0644); err != nil {
		return err
	}
	log.Infof("Manifest written to %s", opts.outputFile)

	if !opts.scaffold {
		return nil
	}

	// Scaffold paths resolve the same way the manifest's own paths do
	dir, err := config.BaseDir(opts.outputFile)
	if err != nil {
		return err
	}
	files := map[string]string{
		cfg.Library:               sampleLibrary,
		cfg.Artifacts[0].Template: fmt.Sprintf(sampleTemplate, "install", assemble.DefaultPlaceholder, "do_install"),
		cfg.Artifacts[1].Template: fmt.Sprintf(sampleTemplate, "uninstall", assemble.DefaultPlaceholder, "do_uninstall"),
	}
	for _, rel := range []string{cfg.Library, cfg.Artifacts[0].Template, cfg.Artifacts[1].Template} {
		path := filepath.Join(dir, rel)
		if _, err := os.Stat(path); err == nil {
			log.Infof("Keeping existing %s", path)
			continue
		}
		if err := writeFile(path, []byte(files[rel]), 0644); err != nil {
			return err
		}
		log.Infof("Created %s", path)
	}
	return nil
}

func writeFile(path string, data []byte, perm os.FileMode) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.WithError(err).Errorf("Failed to create directory: %s", dir)
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		log.WithError(err).Errorf("Failed to write file: %s", path)
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}

const sampleLibrary = `#!/bin/sh
# BEGIN BOILERPLATE
set -e
PROG=$(basename "$0")
# END BOILERPLATE

log_info() {
  echo "$PROG: $*"
}

log_err() {
  echo "$PROG: error: $*" >&2
}

do_install() {
  log_info "installing"
}

do_uninstall() {
  log_info "uninstalling"
}
`

const sampleTemplate = `#!/bin/sh
# %s script, generated by shassemble. Do not edit.
%s

%s "$@"
`
