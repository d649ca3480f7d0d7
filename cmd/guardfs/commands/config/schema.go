package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/guardfs/pkg/config"
)

const schemaDraft = "https://json-schema.org/draft/2020-12/schema"

var (
	schemaOutput string
	schemaFormat string
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the configuration JSON schema",
	Long: `Print the JSON schema describing guardfs configuration files.

Point your editor's YAML language server at the schema to get completion
and inline validation for config.yaml.

Examples:
  guardfs config schema
  guardfs config schema --format yaml
  guardfs config schema -o guardfs.schema.json`,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "Write the schema to this file instead of stdout")
	schemaCmd.Flags().StringVar(&schemaFormat, "format", "json", "Schema encoding (json|yaml)")
}

func runSchema(cmd *cobra.Command, args []string) error {
	data, err := renderSchema(schemaFormat)
	if err != nil {
		return err
	}

	if schemaOutput == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(schemaOutput, data, 0644); err != nil {
		return fmt.Errorf("failed to write schema file: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Schema written to %s\n", schemaOutput)
	return nil
}

// renderSchema encodes the configuration schema as JSON or YAML. YAML is
// produced from the JSON document through a yaml.Node so key order survives.
func renderSchema(format string) ([]byte, error) {
	schema := config.JSONSchema()
	schema.Version = schemaDraft
	schema.Description = "guardfs server configuration"

	doc, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema: %w", err)
	}

	switch format {
	case "", "json":
		return append(doc, '\n'), nil
	case "yaml", "yml":
		var node yaml.Node
		if err := yaml.Unmarshal(doc, &node); err != nil {
			return nil, fmt.Errorf("failed to convert schema: %w", err)
		}
		blockStyle(&node)
		return yaml.Marshal(&node)
	default:
		return nil, fmt.Errorf("unsupported schema format %q (use json or yaml)", format)
	}
}

// blockStyle clears the flow and quoting styles that parsing JSON leaves on
// every node.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
