package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kolah/oink/internal/request"
)

func ToolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools built from the OpenAPI document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}

			for _, tool := range s.registry.Tools() {
				op := tool.Operation()
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s %s\t%s\n", tool.Name, op.Method, op.Path, tool.Description)
			}
			return nil
		},
	}
}

func SchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <tool>",
		Short: "Print the input schema of a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}

			tool, ok := s.registry.Tool(args[0])
			if !ok {
				return fmt.Errorf("unknown tool: %s", args[0])
			}

			out, err := json.MarshalIndent(tool.InputSchema, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding schema: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func CallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Invoke a tool with JSON arguments",
		Long: "Invoke a tool with a JSON object of arguments. Use --args - to read the\n" +
			"arguments from standard input. Authentication runs once before the call.",
		Args: cobra.ExactArgs(1),
		RunE: runCall,
	}

	cmd.Flags().StringP("args", "a", "{}", "Tool arguments as a JSON object, or - for stdin")

	return cmd
}

func runCall(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetString("args")
	if raw == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading arguments: %w", err)
		}
		raw = string(data)
	}

	arguments := request.NewArguments()
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), arguments); err != nil {
		return fmt.Errorf("parsing arguments: %w", err)
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if !s.auth.IsAuthenticated() {
		if err := s.auth.Authenticate(ctx); err != nil {
			return err
		}
	}

	result, err := s.registry.Call(ctx, args[0], arguments)
	if err != nil {
		return err
	}
	if result.IsError {
		return fmt.Errorf("%s", result.Content)
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Content)
	return nil
}
