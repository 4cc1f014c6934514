package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/calcbert/internal/cli"
	"github.com/Veraticus/calcbert/internal/retrain"
)

func retrainCmd() *cobra.Command {
	var req retrain.Request

	cmd := &cobra.Command{
		Use:   "retrain",
		Short: "Rebuild the TF-IDF model from the base corpus and feedback",
		Long: `Retrain fits a fresh TF-IDF classifier on the base corpus plus every
stored correction, saves and verifies it, and replaces the active model.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := req.Validate(); err != nil {
				return err
			}

			bar := cli.NewRetrainProgress(cmd.ErrOrStderr())
			a, err := newApp(cmd.Context(), retrain.WithSync(true), retrain.WithProgress(bar.Update))
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.retrainer.Run(cmd.Context(), req)
			bar.Finish()
			if err != nil {
				return err
			}

			summary := fmt.Sprintf("%s\n\nSamples used: %d, categories: %d",
				cli.FormatDetails(res.Details), res.SamplesUsed, len(res.CategoriesTrained))
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Retrain complete", summary))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Model, "model", retrain.ModelTFIDF, "model to retrain (only tfidf)")
	cmd.Flags().StringVar(&req.Mode, "mode", retrain.ModeFull, "retrain mode (full or incremental)")

	return cmd
}
