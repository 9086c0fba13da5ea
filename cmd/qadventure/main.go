package main

import (
	"os"

	"github.com/spf13/cobra"

	"qadventure/internal/interfaces/cli/migrate"
	"qadventure/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "qadventure",
		Short: "Quantum Adventure backend",
		Long:  `Backend for the Quantum Adventure learning platform: account registration, login, sessions, and OAuth sign-in.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
