package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/apex/log"
	"github.com/binary-install/shassemble/internal/build"
	"github.com/binary-install/shassemble/internal/shlib"
	"github.com/binary-install/shassemble/pkg/config"
	"github.com/spf13/cobra"
	"mvdan.cc/sh/v3/syntax"
)

// checkOptions holds the flags of the check command.
type checkOptions struct {
	strict bool
}

// Artifact check statuses
const (
	statusOK      = "✓ OK"
	statusWarning = "! WARNING"
	statusFailed  = "✗ FAILED"
)

// artifactCheck is the outcome of checking one artifact.
type artifactCheck struct {
	Artifact string
	Status   string
	Detail   string
}

func newCheckCommand(root *rootOptions) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the manifest, the function library and the templates",
		Long: `Checks a build manifest by:
- Validating the manifest format
- Extracting the function library and flagging functions that look truncated
- Verifying that every selected function exists
- Verifying that every template contains the placeholder
- Parsing each assembled artifact as shell (warnings only)

Nothing is written to disk.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Info("Running check command...")

			cfg, err := root.loadManifest()
			if err != nil {
				return err
			}
			log.Info("✓ Manifest validation passed")

			runner := &build.Runner{Config: cfg}
			lib, err := runner.LoadLibrary()
			if err != nil {
				log.WithError(err).Error("Failed to load function library")
				return fmt.Errorf("failed to load function library: %w", err)
			}
			log.Infof("Library defines %d functions", len(lib.Functions))
			if !lib.HasBoilerplate {
				log.Warnf("Library has no boilerplate block (%s ... %s)", cfg.Boilerplate.Begin, cfg.Boilerplate.End)
			}
			for _, s := range lib.Suspects {
				log.WithFields(log.Fields{"function": s.Name, "line": s.Line}).Warnf("function may be truncated: %s", s.Reason)
			}

			checks := checkArtifacts(runner, lib)
			printChecks(cmd.OutOrStdout(), checks)

			failed, warned := 0, 0
			for _, c := range checks {
				switch c.Status {
				case statusFailed:
					failed++
				case statusWarning:
					warned++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d artifacts failed the check", failed, len(checks))
			}
			if opts.strict && (warned > 0 || len(lib.Suspects) > 0) {
				return fmt.Errorf("strict check failed: %d suspect functions, %d artifact warnings", len(lib.Suspects), warned)
			}

			log.Info("✓ Check completed successfully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Treat truncated-function and shell parse warnings as errors")

	return cmd
}

// checkArtifacts checks every artifact of the manifest against lib.
func checkArtifacts(runner *build.Runner, lib *shlib.Library) []artifactCheck {
	lang, err := shlib.ParseDialect(runner.Config.Dialect)
	if err != nil {
		lang = syntax.LangBash
	}
	parser := syntax.NewParser(syntax.Variant(lang))

	checks := make([]artifactCheck, 0, len(runner.Config.Artifacts))
	for _, a := range runner.Config.Artifacts {
		checks = append(checks, checkArtifact(runner, lib, parser, a))
	}
	return checks
}

func checkArtifact(runner *build.Runner, lib *shlib.Library, parser *syntax.Parser, a config.Artifact) artifactCheck {
	if missing := missingFunctions(lib, a.Functions); len(missing) > 0 {
		return artifactCheck{Artifact: a.Name, Status: statusFailed, Detail: "missing functions: " + strings.Join(missing, ", ")}
	}

	out, err := runner.Render(lib, a)
	if err != nil {
		return artifactCheck{Artifact: a.Name, Status: statusFailed, Detail: err.Error()}
	}

	if _, err := parser.Parse(strings.NewReader(out), a.Name); err != nil {
		return artifactCheck{Artifact: a.Name, Status: statusWarning, Detail: "assembled script does not parse: " + err.Error()}
	}
	return artifactCheck{Artifact: a.Name, Status: statusOK, Detail: fmt.Sprintf("%d functions", len(a.Functions))}
}

// missingFunctions returns the selected names that the library does not
// define, each reported once, in selection order.
func missingFunctions(lib *shlib.Library, names []string) []string {
	var missing []string
	seen := make(map[string]bool)
	for _, name := range names {
		if _, ok := lib.Functions[name]; ok || seen[name] {
			continue
		}
		seen[name] = true
		missing = append(missing, name)
	}
	return missing
}

func printChecks(out io.Writer, checks []artifactCheck) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ARTIFACT\tSTATUS\tDETAIL")
	fmt.Fprintln(w, "--------\t------\t------")
	for _, c := range checks {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.Artifact, c.Status, c.Detail)
	}
	w.Flush()
}
