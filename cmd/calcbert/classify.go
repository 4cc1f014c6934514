package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/calcbert/internal/cli"
	"github.com/Veraticus/calcbert/internal/common"
	"github.com/Veraticus/calcbert/internal/model"
	"github.com/Veraticus/calcbert/internal/ofx"
)

func classifyCmd() *cobra.Command {
	var (
		ofxFile string
		explain bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "classify [TEXT...]",
		Short: "Categorize transaction descriptions",
		Long: `Categorize one or more transaction descriptions given as arguments,
or every transaction in an OFX/QFX statement.`,
		Example: `  calcbert classify "STARBUCKS MG ROAD BLR"
  calcbert classify --ofx statement.qfx --explain`,
		RunE: func(cmd *cobra.Command, args []string) error {
			texts, err := classifyInputs(args, ofxFile)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			results, err := a.classifier.ClassifyBatch(cmd.Context(), texts)
			if err != nil {
				return fmt.Errorf("classification failed: %w", err)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			if ofxFile != "" {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTitle(fmt.Sprintf("%s: %d transactions", ofxFile, len(texts))))
			}
			printResults(cmd.OutOrStdout(), texts, results, explain)
			return nil
		},
	}

	cmd.Flags().StringVar(&ofxFile, "ofx", "", "classify the transactions in an OFX/QFX file")
	cmd.Flags().BoolVar(&explain, "explain", false, "show the rationale for each result")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print results as JSON")

	return cmd
}

func classifyInputs(args []string, ofxFile string) ([]string, error) {
	if ofxFile == "" {
		if len(args) == 0 {
			return nil, common.NewUserError("provide at least one description or --ofx FILE", common.ErrValidation)
		}
		return args, nil
	}

	f, err := os.Open(ofxFile) //nolint:gosec // user-supplied statement path
	if err != nil {
		return nil, fmt.Errorf("failed to open statement: %w", err)
	}
	defer func() { _ = f.Close() }()

	stmt, err := ofx.ReadStatement(f)
	if err != nil {
		return nil, err
	}
	texts := append(stmt.Descriptions(), args...)
	if len(texts) == 0 {
		return nil, common.NewUserError("statement contains no transactions", common.ErrValidation)
	}
	return texts, nil
}

func printResults(w io.Writer, texts []string, results []model.FusedResult, explain bool) {
	for i, res := range results {
		fmt.Fprintln(w, cli.FormatPrediction(texts[i], res))
		if !explain {
			continue
		}
		if r := cli.FormatRationale(res.Rationale); r != "" {
			fmt.Fprintln(w, indent(r, "    "))
		}
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
