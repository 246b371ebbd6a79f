package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-todo-nosql/internal/config"
	"github.com/go-todo-nosql/internal/infrastructure/dynamo"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "todo-api",
	Short: "Per-user todo REST service with email OTP verification",
	// serve is the default when no subcommand is given.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), serveBootstrap)
	},
}

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create the DynamoDB tables and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBootstrap(cmd.Context())
	},
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&serveBootstrap, "bootstrap", false, "create tables before serving")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(bootstrapCmd)
}

func runBootstrap(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	client, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	return dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
}
