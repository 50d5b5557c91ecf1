package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/apex/log"
	"github.com/binary-install/shassemble/internal/build"
	"github.com/binary-install/shassemble/internal/shlib"
	"github.com/spf13/cobra"
)

// genOptions holds the flags of the gen command.
type genOptions struct {
	artifacts  []string
	outputFile string
	scanMode   string
	dryRun     bool
}

func newGenCommand(root *rootOptions) *cobra.Command {
	opts := &genOptions{}

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate the artifacts described by the manifest",
		Long: `Reads the build manifest, extracts the function library and writes every
artifact (or only those selected with --artifact) to its output path.

Artifacts are generated in manifest order. When one fails, the artifacts
written before it are left in place.`,
		Example: `  # Generate every artifact
  shassemble gen

  # Generate only the install script to stdout
  shassemble gen --artifact install -o -

  # Use the nesting-aware scanner for this run
  shassemble gen --scan-mode syntax`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Info("Running gen command...")
			return runGen(root, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringSliceVarP(&opts.artifacts, "artifact", "a", nil, "Artifact to generate (repeatable, default: all)")
	cmd.Flags().StringVarP(&opts.outputFile, "output", "o", "", "Output path for a single artifact ('-' for stdout)")
	cmd.Flags().StringVar(&opts.scanMode, "scan-mode", "", "Override the manifest scan mode (legacy, syntax)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print what would be generated without writing files")

	return cmd
}

func runGen(root *rootOptions, opts *genOptions, out io.Writer) error {
	cfg, err := root.loadManifest()
	if err != nil {
		return err
	}

	runner := &build.Runner{Config: cfg, OutputOverride: opts.outputFile, Stdout: out}
	if opts.scanMode != "" {
		mode, err := shlib.ParseScanMode(opts.scanMode)
		if err != nil {
			log.WithError(err).Error("Invalid --scan-mode")
			return fmt.Errorf("invalid --scan-mode: %w", err)
		}
		runner.ScanMode = mode
	}

	if opts.dryRun {
		return printPlan(out, runner, opts.artifacts)
	}

	log.Info("Generating artifacts...")
	results, err := runner.Run(opts.artifacts)
	if err != nil {
		log.WithError(err).Error("Failed to generate artifacts")
		return fmt.Errorf("failed to generate artifacts: %w", err)
	}
	for _, res := range results {
		log.Debugf("%s: %d functions, %d bytes -> %s", res.Artifact, res.Functions, res.Bytes, res.Output)
	}
	log.Infof("✓ Generated %d artifacts", len(results))
	return nil
}

// printPlan shows the artifacts gen would write.
func printPlan(out io.Writer, runner *build.Runner, names []string) error {
	artifacts, err := runner.Selected(names)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ARTIFACT\tFUNCTIONS\tTEMPLATE\tOUTPUT")
	fmt.Fprintln(w, "--------\t---------\t--------\t------")
	for _, a := range artifacts {
		tmpl, err := runner.Config.TemplatePath(a)
		if err != nil {
			return err
		}
		output := runner.OutputOverride
		if output == "" {
			if output, err = runner.Config.OutputPath(a); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", a.Name, len(a.Functions), tmpl, output)
	}
	return w.Flush()
}
