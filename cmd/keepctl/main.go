package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag string
	rootCmd = &cobra.Command{
		Use:   "keepctl",
		Short: "CLI client for the keepstack REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "keepstack service base URL")

	// search subcommand
	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a relevance-ranked search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return runSearch(apiFlag, args[0], limit, os.Stdout)
		},
	}
	searchCmd.Flags().IntP("limit", "n", 10, "Maximum number of results")
	rootCmd.AddCommand(searchCmd)

	// items subcommands
	itemsCmd := &cobra.Command{Use: "items", Short: "Manage saved items"}
	itemsCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved items",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runItemsList(apiFlag, os.Stdout)
			},
		},
		&cobra.Command{
			Use:   "get <id>",
			Short: "Fetch one item",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runItemGet(apiFlag, args[0], os.Stdout)
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete an item everywhere",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runItemDelete(apiFlag, args[0], os.Stdout)
			},
		},
	)
	rootCmd.AddCommand(itemsCmd)

	// backups subcommands
	backupsCmd := &cobra.Command{Use: "backups", Short: "Manage backups"}
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			includeContent, _ := cmd.Flags().GetBool("content")
			return runBackupCreate(apiFlag, includeContent, os.Stdout)
		},
	}
	createCmd.Flags().Bool("content", false, "Include full item bodies")
	backupsCmd.AddCommand(
		createCmd,
		&cobra.Command{
			Use:   "list",
			Short: "List stored backups",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBackupList(apiFlag, os.Stdout)
			},
		},
		&cobra.Command{
			Use:   "restore <id>",
			Short: "Restore live state from a backup",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBackupRestore(apiFlag, args[0], os.Stdout)
			},
		},
	)
	rootCmd.AddCommand(backupsCmd)

	// analytics subcommand
	rootCmd.AddCommand(&cobra.Command{
		Use:   "analytics",
		Short: "Show search analytics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalytics(apiFlag, os.Stdout)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
