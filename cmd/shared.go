package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/binary-install/shassemble/pkg/config"
)

// stdin is where a manifest given as "-" is read from.
var stdin io.Reader = os.Stdin

// loadManifest reads, parses and validates the build manifest selected by
// the --config flag, discovering the default location when it is empty.
func (o *rootOptions) loadManifest() (*config.Config, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)

	if o.configFile == "-" {
		log.Debug("Reading manifest from stdin")
		data, err := io.ReadAll(stdin)
		if err != nil {
			log.WithError(err).Error("Failed to read manifest from stdin")
			return nil, fmt.Errorf("failed to read manifest from stdin: %w", err)
		}
		// Relative paths in a piped manifest resolve against the working directory
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		cfg, err = config.Parse(data, wd)
		if err != nil {
			log.WithError(err).Error("Failed to parse manifest from stdin")
			return nil, fmt.Errorf("failed to parse manifest from stdin: %w", err)
		}
		path = "-"
	} else {
		cfg, path, err = config.LoadOrDiscover(o.configFile)
		if err != nil {
			log.WithError(err).Error("Manifest detection failed")
			return nil, err
		}
		if o.configFile == "" {
			log.Infof("Using manifest: %s", path)
		}
	}
	log.Debugf("Loaded manifest %s with %d artifacts", path, len(cfg.Artifacts))

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("Manifest validation failed")
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return cfg, nil
}
