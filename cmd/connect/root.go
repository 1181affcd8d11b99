package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "connect",
		Short: "WelliRecord Connect operations dashboard",
		Long: `connect serves the health operations dashboard API. Every session carries
a role, and the role's permission table decides which dashboard modules the
session may open.

Configuration is read from the environment (and an optional .env file).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newPermissionsCmd())
	root.AddCommand(newDBCmd())
	return root
}
