package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-lms-api/internal/app"
)

func newMigrateCmd(connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the grading tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := connect(cmd, app.Options{})
			if err != nil {
				return err
			}
			defer container.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}
