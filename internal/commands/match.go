package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finimport/internal/model"
	"github.com/cleared-dev/finimport/internal/product"
)

func newMatchCommand(a *app) *cobra.Command {
	var codeA, codeB string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "match <nameA> <nameB>",
		Short: "Decide whether two item descriptions are the same product",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := product.NewMatcher(a.cfg.Matching.Threshold)
			itemA := model.ParsedInvoiceItem{Description: args[0], ProductCode: codeA}
			itemB := model.ParsedInvoiceItem{Description: args[1], ProductCode: codeB}
			return runMatch(cmd.OutOrStdout(), m, itemA, itemB, asJSON)
		},
	}

	cmd.Flags().StringVar(&codeA, "code-a", "", "product code (GTIN) of the first item")
	cmd.Flags().StringVar(&codeB, "code-b", "", "product code (GTIN) of the second item")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

type matchOutput struct {
	A      model.NormalizedProduct `json:"a"`
	B      model.NormalizedProduct `json:"b"`
	Result model.MatchResult       `json:"result"`
}

func runMatch(w io.Writer, m *product.Matcher, a, b model.ParsedInvoiceItem, asJSON bool) error {
	out := matchOutput{
		A:      product.Normalize(a),
		B:      product.Normalize(b),
		Result: m.Match(a, b),
	}
	if asJSON {
		return writeJSON(w, out)
	}
	if out.Result.IsMatch {
		success(w, "match (confidence %.2f): %q ~ %q", out.Result.Confidence, out.A.NormalizedName, out.B.NormalizedName)
	} else {
		failure(w, "no match (confidence %.2f): %q vs %q", out.Result.Confidence, out.A.NormalizedName, out.B.NormalizedName)
	}
	return nil
}
