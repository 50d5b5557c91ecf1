package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/binary-install/shassemble/schema"
	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	profile = colorprofile.Detect(os.Stdout, os.Environ())

	headerStyle = func() lipgloss.Style {
		if profile == colorprofile.TrueColor || profile == colorprofile.ANSI256 {
			return lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212"))
		}
		return lipgloss.NewStyle().Bold(true)
	}()

	fieldStyle = func() lipgloss.Style {
		if profile == colorprofile.TrueColor || profile == colorprofile.ANSI256 {
			return lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
		}
		return lipgloss.NewStyle().Underline(true)
	}()

	separatorStyle = func() lipgloss.Style {
		if profile == colorprofile.TrueColor || profile == colorprofile.ANSI256 {
			return lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))
		}
		return lipgloss.NewStyle().Faint(true)
	}()
)

// skippedHelp are commands left out of the combined help.
var skippedHelp = map[string]bool{"completion": true, "help": true, "helpful": true}

func newHelpfulCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:    "helpful",
		Short:  "Display help for every command and the manifest format",
		Long:   `Displays the help of every shassemble command followed by a manifest field reference, in one styled output.`,
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			writeCommandHelp(w, cmd.Root(), "")
			return writeManifestReference(w)
		},
	}
}

// writeCommandHelp writes the help of cmd and, recursively, its visible
// subcommands.
func writeCommandHelp(w io.Writer, cmd *cobra.Command, prefix string) {
	if skippedHelp[cmd.Name()] {
		return
	}

	path := cmd.Name()
	if prefix != "" {
		path = prefix + " " + path
	}
	if cmd.HasParent() {
		fmt.Fprintf(w, "\n%s\n\n", headerStyle.Render("## "+path))
	}

	cmd.SetOut(w)
	_ = cmd.Help()
	writeSeparator(w)

	for _, sub := range cmd.Commands() {
		if !sub.Hidden {
			writeCommandHelp(w, sub, path)
		}
	}
}

// writeManifestReference lists the manifest fields described by the schema.
func writeManifestReference(w io.Writer) error {
	raw, err := schema.GetManifestSchema()
	if err != nil {
		return err
	}
	doc, _ := raw.(map[string]interface{})

	fmt.Fprintf(w, "\n%s\n\n", headerStyle.Render("## manifest"))
	writeProperties(w, doc, "")
	if defs, ok := doc["$defs"].(map[string]interface{}); ok {
		for _, name := range sortedKeys(defs) {
			def, _ := defs[name].(map[string]interface{})
			fmt.Fprintf(w, "\n%s\n", headerStyle.Render(name))
			writeProperties(w, def, "  ")
		}
	}
	writeSeparator(w)
	return nil
}

func writeProperties(w io.Writer, obj map[string]interface{}, indent string) {
	props, _ := obj["properties"].(map[string]interface{})
	for _, name := range sortedKeys(props) {
		prop, _ := props[name].(map[string]interface{})
		desc, _ := prop["description"].(string)
		if ref, ok := prop["$ref"].(string); ok && desc == "" {
			desc = "see " + strings.TrimPrefix(ref, "#/$defs/")
		}
		fmt.Fprintf(w, "%s%s  %s\n", indent, fieldStyle.Render(name), desc)
	}
}

func writeSeparator(w io.Writer) {
	fmt.Fprintf(w, "\n%s\n\n", separatorStyle.Render(strings.Repeat("─", 80)))
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
