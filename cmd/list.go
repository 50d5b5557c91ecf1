package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/apex/log"
	"github.com/binary-install/shassemble/internal/build"
	"github.com/binary-install/shassemble/internal/shlib"
	"github.com/spf13/cobra"
)

func newListCommand(root *rootOptions) *cobra.Command {
	var artifact string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the functions defined in the library",
		Long: `Lists every function the library defines with its starting line and
length. With --artifact, lists that artifact's selection in output order
instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadManifest()
			if err != nil {
				return err
			}
			runner := &build.Runner{Config: cfg}
			lib, err := runner.LoadLibrary()
			if err != nil {
				log.WithError(err).Error("Failed to load function library")
				return fmt.Errorf("failed to load function library: %w", err)
			}

			if artifact == "" {
				printFunctions(cmd.OutOrStdout(), lib)
				return nil
			}
			a, ok := cfg.Artifact(artifact)
			if !ok {
				return fmt.Errorf("unknown artifact: %s", artifact)
			}
			printSelection(cmd.OutOrStdout(), lib, a.Functions)
			return nil
		},
	}

	cmd.Flags().StringVarP(&artifact, "artifact", "a", "", "Show the selection of this artifact")

	return cmd
}

func printFunctions(out io.Writer, lib *shlib.Library) {
	suspects := make(map[string]bool, len(lib.Suspects))
	for _, s := range lib.Suspects {
		suspects[s.Name] = true
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FUNCTION\tLINE\tLINES\tNOTE")
	fmt.Fprintln(w, "--------\t----\t-----\t----")
	for _, name := range lib.Names() {
		fn := lib.Functions[name]
		note := ""
		if suspects[name] {
			note = "may be truncated"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", name, fn.Line, strings.Count(fn.Body, "\n")+1, note)
	}
	w.Flush()
}

func printSelection(out io.Writer, lib *shlib.Library, names []string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tFUNCTION\tSTATUS")
	fmt.Fprintln(w, "-\t--------\t------")
	for i, name := range names {
		status := "✓ DEFINED"
		if _, ok := lib.Functions[name]; !ok {
			status = "✗ MISSING"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, name, status)
	}
	w.Flush()
}
