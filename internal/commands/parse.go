package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finimport/internal/importer"
	"github.com/cleared-dev/finimport/internal/logging"
)

func newParseCommand(a *app) *cobra.Command {
	var format string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a bank statement and print its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.Context(), cmd.OutOrStdout(), a.registry(cmd), args[0], format, asJSON)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "statement format (csv, ofx, pdf); detected from the extension when empty")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

// selectParser picks the parser by explicit format or by file name.
func selectParser(reg *importer.Registry, path, format string) (importer.Parser, error) {
	if format != "" {
		if p := reg.Get(format); p != nil {
			return p, nil
		}
		return nil, fmt.Errorf("unknown format %q (known: %v)", format, reg.Formats())
	}
	if p := reg.Detect(filepath.Base(path)); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("cannot detect format of %s; use --format", filepath.Base(path))
}

func runParse(ctx context.Context, w io.Writer, reg *importer.Registry, path, format string, asJSON bool) error {
	logger := logging.FromContext(ctx)

	p, err := selectParser(reg, path, format)
	if err != nil {
		return err
	}

	logger.Debug().Str("file", path).Str("format", p.Format()).Msg("parsing statement")
	rep, err := parseFile(p, path)
	if err != nil {
		return err
	}

	if asJSON {
		return writeJSON(w, rep)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTYPE\tAMOUNT\tDESCRIPTION\tEXTERNAL ID")
	for _, t := range rep.Transactions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.Date, t.Type, t.Amount.StringFixed(2), t.Description, t.ExternalID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	success(w, "%d transactions (%s)", len(rep.Transactions), p.Format())
	for _, s := range rep.Skipped {
		warning(w, "row %d skipped: %s", s.Row, s.Err.Message)
	}
	return nil
}
