package cmd

import (
	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/binary-install/shassemble/pkg/config"
	"github.com/spf13/cobra"
)

const (
	groupWorkflow = "workflow"
	groupUtility  = "utility"
)

// rootOptions holds the global flags shared by every command.
type rootOptions struct {
	configFile string
	verbose    bool
	quiet      bool
}

// commandEntry registers one subcommand under a help group.
type commandEntry struct {
	group string
	build func(opts *rootOptions) *cobra.Command
}

// commands is the command table, in the order shown by help.
var commands = []commandEntry{
	{groupWorkflow, newInitCommand},  // Step 1: Write a starter manifest
	{groupWorkflow, newCheckCommand}, // Step 2: Validate manifest, library and templates
	{groupWorkflow, newGenCommand},   // Step 3: Generate the artifacts
	{groupUtility, newListCommand},
	{groupUtility, newSchemaCommand},
	{groupUtility, newHelpfulCommand},
}

// NewRootCommand builds the shassemble command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(commands)
}

func newRootCommand(table []commandEntry) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "shassemble",
		Short: "Assemble shell scripts from a library of shell functions",
		Long: `shassemble builds shell-script distributables such as install.sh and
uninstall.sh from a single library of reusable shell functions.

The library holds a boilerplate block and a flat list of name() { ... }
functions. Each artifact in the manifest selects an ordered list of those
functions, which is placed after the boilerplate and substituted into the
artifact's template at a placeholder token.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetHandler(cli.Default)
			if opts.verbose {
				log.SetLevel(log.DebugLevel)
				log.Debugf("Verbose logging enabled")
			} else if opts.quiet {
				log.SetLevel(log.ErrorLevel)
			} else {
				log.SetLevel(log.InfoLevel)
			}
			log.Debugf("Manifest file: %s", opts.configFile)
		},
	}

	// Keep the semantic order of the command table
	cobra.EnableCommandSorting = false

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Path to the build manifest, '-' for stdin (default: "+config.DefaultPathYML+")")
	root.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Increase log verbosity")
	root.PersistentFlags().BoolVar(&opts.quiet, "quiet", false, "Suppress progress output")

	root.AddGroup(&cobra.Group{
		ID:    groupWorkflow,
		Title: "Workflow Commands:",
	})
	root.AddGroup(&cobra.Group{
		ID:    groupUtility,
		Title: "Utility Commands:",
	})
	root.SetHelpCommandGroupID(groupUtility)
	root.SetCompletionCommandGroupID(groupUtility)

	for _, entry := range table {
		sub := entry.build(opts)
		sub.GroupID = entry.group
		root.AddCommand(sub)
	}

	return root
}
