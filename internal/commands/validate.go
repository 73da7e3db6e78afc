package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finimport/internal/invoice"
)

func newValidateCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate <identifier>",
		Short: "Check an invoice consultation URL or access key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), args[0], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

type validateOutput struct {
	invoice.Validation
	Key      *invoice.AccessKeyInfo `json:"key,omitempty"`
	KeyError string                 `json:"keyError,omitempty"`
}

func runValidate(w io.Writer, identifier string, asJSON bool) error {
	out := validateOutput{Validation: invoice.ValidateIdentifier(identifier)}
	if out.AccessKey != "" {
		info, err := invoice.DescribeAccessKey(out.AccessKey)
		if err != nil {
			out.KeyError = err.Error()
		} else {
			out.Key = &info
		}
	}

	if asJSON {
		return writeJSON(w, out)
	}

	if !out.Valid {
		failure(w, "invalid %s: %s", out.Kind, out.Reason)
		return nil
	}
	success(w, "valid %s", out.Kind)
	if out.AccessKey != "" {
		fmt.Fprintf(w, "  access key %s\n", out.AccessKey)
	}
	if out.Key != nil {
		fmt.Fprintf(w, "  state %s  period %s  cnpj %s  model %s  series %s  number %s\n",
			out.Key.StateCode, out.Key.YearMonth, out.Key.CNPJ, out.Key.Model, out.Key.Series, out.Key.Number)
	}
	if out.KeyError != "" {
		warning(w, "%s", out.KeyError)
	}
	return nil
}
