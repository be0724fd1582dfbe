package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"matrixci/engine/internal/expand"
	"matrixci/engine/internal/parser"
)

var validateCmd = &cobra.Command{
	Use:   "validate <workflow.yaml>",
	Short: "Validate a workflow file",
	Long: `Validate parses the workflow file in strict mode, checks its structure,
and prints the job instances the matrix would expand to, without
executing anything.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := parser.NewYAMLParser().ParseFile(args[0])
		if err != nil {
			return err
		}

		instances := expand.Expand(spec)
		fmt.Printf("workflow %q is valid: %d jobs, %d instances\n",
			spec.Name, len(spec.Jobs), len(instances))
		for _, inst := range instances {
			fmt.Printf("  %s\n", inst.Name)
		}
		return nil
	},
}
