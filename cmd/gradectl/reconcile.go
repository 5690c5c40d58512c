package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-lms-api/internal/app"
	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/service"
)

func newReconcileCmd(connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <assignment-id>...",
		Short: "Compare embedded submissions with graded results",
		Long:  "reconcile reports students whose embedded submission and graded result disagree. Nothing is repaired; the command fails when any assignment is inconsistent.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]uint, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseUint(arg, 10, 64)
				if err != nil || id == 0 {
					return fmt.Errorf("invalid assignment id %q", arg)
				}
				ids = append(ids, uint(id))
			}

			container, err := connect(cmd, app.Options{SkipMigrate: true})
			if err != nil {
				return err
			}
			defer container.Close()

			reports := make([]dto.ReconcileResponse, 0, len(ids))
			inconsistent := 0
			for _, id := range ids {
				report, err := container.Results.Reconcile(cmd.Context(), id)
				if err != nil {
					var stateErr *service.InconsistentStateError
					if !errors.As(err, &stateErr) {
						return fmt.Errorf("reconcile assignment %d: %w", id, err)
					}
					inconsistent++
				}
				reports = append(reports, report)
			}

			if err := writeJSON(cmd.OutOrStdout(), reports); err != nil {
				return err
			}
			if inconsistent > 0 {
				return fmt.Errorf("%d of %d assignments inconsistent", inconsistent, len(ids))
			}
			return nil
		},
	}
}
