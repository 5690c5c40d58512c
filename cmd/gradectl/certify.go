package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-lms-api/internal/app"
)

func newCertifyCourseCmd(connect connectFunc) *cobra.Command {
	var studentID, courseID uint

	cmd := &cobra.Command{
		Use:   "certify-course",
		Short: "Issue a course-completion certificate for a student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if studentID == 0 || courseID == 0 {
				return errors.New("--student and --course are required")
			}

			container, err := connect(cmd, app.Options{SkipMigrate: true})
			if err != nil {
				return err
			}
			defer container.Close()

			certificate, err := container.Certification.IssueCourseCompletion(cmd.Context(), studentID, courseID)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), certificate)
		},
	}

	cmd.Flags().UintVar(&studentID, "student", 0, "Student id")
	cmd.Flags().UintVar(&courseID, "course", 0, "Course id")

	return cmd
}
