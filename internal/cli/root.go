package cli

import (
	"github.com/spf13/cobra"

	"github.com/kolah/oink/internal/config"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "oink",
		Short:         "oink - OpenAPI INvocation Kit 🐷",
		Long:          "oink turns the operations of an OpenAPI document into tools that can be listed, inspected and called.",
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	config.BindFlags(root)
	root.AddCommand(ToolsCommand(), SchemaCommand(), CallCommand())

	return root
}
