package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finimport/internal/classify"
	"github.com/cleared-dev/finimport/internal/invoice"
	"github.com/cleared-dev/finimport/internal/logging"
	"github.com/cleared-dev/finimport/internal/product"
)

func newInvoiceCommand(a *app) *cobra.Command {
	var asJSON, products bool

	cmd := &cobra.Command{
		Use:   "invoice <file.xml>...",
		Short: "Parse and classify NFe/NFCe invoices",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := product.NewMatcher(a.cfg.Matching.Threshold)
			return runInvoice(cmd.Context(), cmd.OutOrStdout(), m, args, asJSON, products)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().BoolVar(&products, "products", false, "group items across the invoices and print price history")

	return cmd
}

// classifiedInvoice is the invoice command's output for one file.
type classifiedInvoice struct {
	File     string           `json:"file"`
	Invoice  *invoice.Invoice `json:"invoice"`
	Category classify.Result  `json:"category"`
}

type invoiceOutput struct {
	Invoices []classifiedInvoice `json:"invoices"`
	Products []*product.Product  `json:"products,omitempty"`
}

func runInvoice(ctx context.Context, w io.Writer, m *product.Matcher, paths []string, asJSON, products bool) error {
	parser := invoice.NewParser(logging.FromContext(ctx))
	classifier := classify.New()
	catalog := product.NewCatalog(m)

	var out invoiceOutput
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading invoice: %w", err)
		}
		inv, err := parser.Parse(content)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		out.Invoices = append(out.Invoices, classifiedInvoice{
			File:     path,
			Invoice:  inv,
			Category: classifier.ClassifyWithConfidence(inv.Merchant, inv.Items),
		})
		catalog.AddInvoice(inv.Merchant, inv.IssuedAt, inv.Items)
	}
	if products {
		out.Products = catalog.Products()
	}

	if asJSON {
		return writeJSON(w, out)
	}
	for _, ci := range out.Invoices {
		if err := printInvoice(w, ci); err != nil {
			return err
		}
	}
	if products {
		return printProducts(w, out.Products)
	}
	return nil
}

func printInvoice(w io.Writer, ci classifiedInvoice) error {
	inv := ci.Invoice
	name := inv.Merchant.TradeName
	if name == "" {
		name = inv.Merchant.Name
	}
	heading(w, "%s  CNPJ %s  %s", name, inv.Merchant.CNPJ, inv.IssuedAt)
	if inv.AccessKey != "" {
		fmt.Fprintf(w, "  access key %s\n", inv.AccessKey)
	}
	fmt.Fprintf(w, "  category %s (%s, %.2f)\n", ci.Category.Category, ci.Category.Signal, ci.Category.Confidence)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  ITEM\tNCM\tQTY\tUNIT\tTOTAL\tDISCOUNT")
	for _, it := range inv.Items {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\n",
			it.Description, it.NCMCode, it.Quantity.String(),
			it.UnitPrice.StringFixed(2), it.TotalPrice.StringFixed(2), it.DiscountAmount.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	success(w, "%d items, total %s", len(inv.Items), inv.Total.StringFixed(2))
	return nil
}

func printProducts(w io.Writer, products []*product.Product) error {
	heading(w, "%d products", len(products))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  PRODUCT\tMERCHANT\tCOUNT\tMIN\tMAX\tLAST")
	for _, p := range products {
		for _, s := range p.PriceHistory() {
			fmt.Fprintf(tw, "  %s\t%s\t%d\t%s\t%s\t%s\n",
				p.Name, s.Merchant, s.Count, s.Min.StringFixed(2), s.Max.StringFixed(2), s.Last.StringFixed(2))
		}
	}
	return tw.Flush()
}
