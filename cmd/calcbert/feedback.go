package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/calcbert/internal/cli"
	"github.com/Veraticus/calcbert/internal/common"
	"github.com/Veraticus/calcbert/internal/model"
)

func feedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Manage user corrections",
		Long:  `Record, inspect and clear the corrections used to retrain the TF-IDF model.`,
	}

	cmd.AddCommand(feedbackAddCmd())
	cmd.AddCommand(feedbackCountCmd())
	cmd.AddCommand(feedbackListCmd())
	cmd.AddCommand(feedbackClearCmd())

	return cmd
}

func feedbackAddCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:     "add TEXT LABEL",
		Short:   "Record the correct category for a description",
		Example: `  calcbert feedback add "ZOMATO ORDER 8812" "Food & Dining"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := loadStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var userID *string
			if user != "" {
				userID = &user
			}

			id, err := store.AppendFeedback(ctx, args[0], args[1], userID)
			if err != nil {
				return common.NewUserError("could not save feedback", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Feedback saved successfully with ID %d", id)))
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "identifier of the user giving the correction")
	return cmd
}

func feedbackCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Show the number of stored corrections",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := loadStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			n, err := store.CountFeedback(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total feedback entries: %d\n", n)
			return nil
		},
	}
}

func feedbackListCmd() *cobra.Command {
	var recent time.Duration

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored corrections, oldest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := loadStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var records []model.FeedbackRecord
			if recent > 0 {
				records, err = store.ListRecentFeedback(ctx, recent)
			} else {
				records, err = store.ListFeedback(ctx)
			}
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No feedback recorded."))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tLABEL\tTEXT\tUSER")
			fmt.Fprintln(w, "--\t-------\t-----\t----\t----")
			for _, r := range records {
				user := "-"
				if r.UserID != nil {
					user = *r.UserID
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.CorrectLabel, r.Text, user)
			}
			return w.Flush()
		},
	}

	cmd.Flags().DurationVar(&recent, "recent", 0, "only show corrections newer than this (e.g. 72h)")
	return cmd
}

func feedbackClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored correction",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return common.NewUserError("refusing to clear feedback without --yes", common.ErrValidation)
			}

			ctx := cmd.Context()
			store, err := loadStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.ClearFeedback(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("All feedback cleared"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
