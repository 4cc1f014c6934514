package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Veraticus/calcbert/internal/cli"
	"github.com/Veraticus/calcbert/internal/common"
	"github.com/Veraticus/calcbert/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage deterministic pattern rules",
		Long: `Pattern rules map description keywords or regular expressions to a
category with a fixed confidence. Rules at or above 0.9 confidence decide
the result outright.`,
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesDeleteCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active rules by priority",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := loadStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rules, err := store.GetActivePatternRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to get rules: %w", err)
			}

			if len(rules) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No active rules."))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPATTERN\tCATEGORY\tCONF\tPRIORITY\tUSES")
			fmt.Fprintln(w, "--\t----\t-------\t--------\t----\t--------\t----")
			for _, r := range rules {
				pat := r.Pattern
				if r.IsRegex {
					pat = "/" + pat + "/"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.2f\t%d\t%d\n",
					r.ID, r.Name, pat, r.Category, r.Confidence, r.Priority, r.UseCount)
			}
			return w.Flush()
		},
	}
}

func rulesAddCmd() *cobra.Command {
	var rule model.PatternRule

	cmd := &cobra.Command{
		Use:     "add NAME PATTERN CATEGORY",
		Short:   "Add a pattern rule",
		Example: `  calcbert rules add blinkit "blinkit|zepto" Groceries --regex --confidence 0.95`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rule.Name, rule.Pattern, rule.Category = args[0], args[1], args[2]
			rule.IsActive = true

			ctx := cmd.Context()
			store, err := loadStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.CreatePatternRule(ctx, &rule); err != nil {
				return common.NewUserError("could not save rule", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created rule %d (%s → %s)", rule.ID, rule.Name, rule.Category)))
			return nil
		},
	}

	cmd.Flags().StringVar(&rule.Description, "description", "", "free-form note")
	cmd.Flags().BoolVar(&rule.IsRegex, "regex", false, "treat PATTERN as a case-insensitive regular expression")
	cmd.Flags().Float64Var(&rule.Confidence, "confidence", 0.95, "confidence reported when the rule matches")
	cmd.Flags().IntVar(&rule.Priority, "priority", 50, "higher priorities are evaluated first")

	return cmd
}

func rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a pattern rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return common.NewUserError("rule ID must be a number", err)
			}

			ctx := cmd.Context()
			store, err := loadStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeletePatternRule(ctx, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted rule %d", id)))
			return nil
		},
	}
}
