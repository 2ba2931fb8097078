package main

import (
	"os"

	"github.com/chezmoi-app/chezmoi/cmd/do/cmd"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "do",
		Short:         "Operator tools for chezmoi",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.SessionsCmd())
	rootCmd.AddCommand(cmd.UsersCmd())
	rootCmd.AddCommand(cmd.ChefsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
