package cmd

import (
	"fmt"
	"io"

	"github.com/binary-install/shassemble/schema"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

func newSchemaCommand(root *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Display the build manifest schema",
		Long: `Display the JSON schema of the shassemble build manifest, as YAML (default)
or JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunSchema(format, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format (yaml, json)")

	return cmd
}

// RunSchema writes the manifest schema to w in the given format
func RunSchema(format string, w io.Writer) error {
	if format != "yaml" && format != "json" {
		return fmt.Errorf("format %s not implemented", format)
	}

	if format == "json" {
		_, err := w.Write(schema.GetManifestSchemaRaw())
		return err
	}

	jsonSchema, err := schema.GetManifestSchema()
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}
	outputBytes, err := convertToYAML(jsonSchema)
	if err != nil {
		return err
	}
	_, err = w.Write(outputBytes)
	return err
}

// convertToYAML converts a JSON schema to YAML format
func convertToYAML(jsonSchema interface{}) ([]byte, error) {
	yamlBytes, err := yaml.Marshal(jsonSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to convert to YAML: %w", err)
	}
	return yamlBytes, nil
}
