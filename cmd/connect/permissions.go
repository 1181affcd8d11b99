package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/wellirecord/connect/app"
	"github.com/wellirecord/connect/config"
	"github.com/wellirecord/connect/internal/access"
	"github.com/wellirecord/connect/models"
	"gopkg.in/yaml.v3"
)

// errAccessDenied makes `permissions check` exit non-zero after printing
// the denial.
var errAccessDenied = errors.New("access denied")

func newPermissionsCmd() *cobra.Command {
	var (
		policyFile string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "permissions",
		Short: "Print the role permission table",
		Long: `Prints every role with its permitted views in order. The first view is the
role's default. Without --policy-file the built-in policy is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := loadTable(cmd, policyFile)
			if err != nil {
				return err
			}
			switch format {
			case "table":
				return printTable(cmd.OutOrStdout(), table)
			case "yaml":
				return printYAML(cmd.OutOrStdout(), table)
			default:
				return fmt.Errorf("unknown format %q (want table or yaml)", format)
			}
		},
	}
	cmd.PersistentFlags().StringVar(&policyFile, "policy-file", "", "YAML policy file (default: built-in policy)")
	cmd.Flags().StringVarP(&format, "output", "o", "table", "output format: table or yaml")

	cmd.AddCommand(&cobra.Command{
		Use:   "check <role> <view>",
		Short: "Check whether a role may open a view",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := models.ParseRole(args[0])
			if err != nil {
				return err
			}
			view, err := models.ParseView(args[1])
			if err != nil {
				return err
			}

			table, err := loadTable(cmd, policyFile)
			if err != nil {
				return err
			}

			granted, err := access.NewController(table).OnViewRequested(view, role)
			if err != nil {
				var denied *access.AccessDeniedError
				if errors.As(err, &denied) {
					fmt.Fprintf(cmd.OutOrStdout(), "denied: %s\n", denied.Message())
					return errAccessDenied
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "allowed: %s may open %s\n", role, granted)
			return nil
		},
	})

	return cmd
}

func loadTable(cmd *cobra.Command, policyFile string) (*access.PermissionTable, error) {
	return access.LoadTable(cmd.Context(), app.PolicySource(config.AccessConfig{PolicyFile: policyFile}))
}

func printTable(w io.Writer, table *access.PermissionTable) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLE\tDEFAULT\tVIEWS")
	for _, role := range table.Roles() {
		views := table.PermittedViews(role)
		names := make([]string, len(views))
		for i, v := range views {
			names[i] = string(v)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", role, table.DefaultView(role), strings.Join(names, ", "))
	}
	return tw.Flush()
}

func printYAML(w io.Writer, table *access.PermissionTable) error {
	// yaml.Node keeps roles in declaration order
	roles := &yaml.Node{Kind: yaml.MappingNode}
	for _, role := range table.Roles() {
		views := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, v := range table.PermittedViews(role) {
			views.Content = append(views.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: string(v)})
		}
		roles.Content = append(roles.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: string(role)}, views)
	}
	doc := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Value: "roles"},
		roles,
	}}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
