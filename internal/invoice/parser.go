// Package invoice reads Brazilian electronic fiscal invoices (NFe/NFCe XML)
// and validates the identifiers used to look them up.
package invoice

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"github.com/cleared-dev/finimport/internal/importerr"
	"github.com/cleared-dev/finimport/internal/model"
	"github.com/cleared-dev/finimport/internal/textnorm"
)

// Invoice is the parsed content of one fiscal invoice.
type Invoice struct {
	AccessKey string                    `json:"accessKey,omitempty"`
	Number    string                    `json:"number,omitempty"`
	IssuedAt  string                    `json:"issuedAt,omitempty"` // YYYY-MM-DD
	Merchant  model.MerchantInfo        `json:"merchant"`
	Items     []model.ParsedInvoiceItem `json:"items"`
	Total     decimal.Decimal           `json:"total"`
}

// noGTIN is the placeholder NFe uses for items without a barcode.
const noGTIN = "SEM GTIN"

// nfeProc is the authorized-invoice envelope: the signed NFe plus the
// authorization protocol.
type nfeProc struct {
	NFe     nfeXML `xml:"NFe"`
	ProtNFe struct {
		InfProt struct {
			ChNFe string `xml:"chNFe"`
		} `xml:"infProt"`
	} `xml:"protNFe"`
}

type nfeXML struct {
	InfNFe infNFe `xml:"infNFe"`
}

type infNFe struct {
	ID  string `xml:"Id,attr"`
	Ide struct {
		NNF   string `xml:"nNF"`
		DhEmi string `xml:"dhEmi"`
		DEmi  string `xml:"dEmi"`
	} `xml:"ide"`
	Emit  emitXML  `xml:"emit"`
	Det   []detXML `xml:"det"`
	Total struct {
		ICMSTot struct {
			VNF string `xml:"vNF"`
		} `xml:"ICMSTot"`
	} `xml:"total"`
}

type emitXML struct {
	CNPJ      string `xml:"CNPJ"`
	CPF       string `xml:"CPF"`
	XNome     string `xml:"xNome"`
	XFant     string `xml:"xFant"`
	EnderEmit struct {
		XLgr string `xml:"xLgr"`
		Nro  string `xml:"nro"`
		XMun string `xml:"xMun"`
		UF   string `xml:"UF"`
	} `xml:"enderEmit"`
}

type detXML struct {
	Prod struct {
		CEAN     string `xml:"cEAN"`
		CEANTrib string `xml:"cEANTrib"`
		XProd    string `xml:"xProd"`
		NCM      string `xml:"NCM"`
		QCom     string `xml:"qCom"`
		VUnCom   string `xml:"vUnCom"`
		VProd    string `xml:"vProd"`
		VDesc    string `xml:"vDesc"`
	} `xml:"prod"`
}

// Parser converts invoice XML into an Invoice. The zero value is usable.
type Parser struct {
	logger zerolog.Logger
}

// NewParser creates an invoice parser that logs through logger.
func NewParser(logger zerolog.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse decodes an nfeProc, NFe or infNFe document. On malformed input it
// returns an Invoice with an empty item list together with a PARSE_ERROR.
func (p *Parser) Parse(content []byte) (*Invoice, error) {
	inv, err := decode(content)
	if err != nil {
		p.logger.Warn().Err(err).Int("bytes", len(content)).Msg("invoice xml rejected")
		return &Invoice{Items: []model.ParsedInvoiceItem{}}, importerr.Wrap(importerr.CodeParse, err, "parsing invoice xml", map[string]any{"bytes": len(content)})
	}
	return inv, nil
}

// ParseReader reads r fully and parses it.
func (p *Parser) ParseReader(r io.Reader) (*Invoice, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return &Invoice{Items: []model.ParsedInvoiceItem{}}, importerr.Wrap(importerr.CodeParse, err, "reading invoice", nil)
	}
	return p.Parse(content)
}

func decode(content []byte) (*Invoice, error) {
	d := xml.NewDecoder(bytes.NewReader(content))
	d.CharsetReader = charsetReader

	for {
		tok, err := d.Token()
		if err != nil {
			if err == io.EOF {
				return nil, errors.New("no root element")
			}
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "nfeProc":
			var doc nfeProc
			if err := d.DecodeElement(&doc, &start); err != nil {
				return nil, err
			}
			inv := fromInfNFe(doc.NFe.InfNFe)
			if inv.AccessKey == "" {
				inv.AccessKey = textnorm.Digits(doc.ProtNFe.InfProt.ChNFe)
			}
			return inv, nil
		case "NFe":
			var doc nfeXML
			if err := d.DecodeElement(&doc, &start); err != nil {
				return nil, err
			}
			return fromInfNFe(doc.InfNFe), nil
		case "infNFe":
			var doc infNFe
			if err := d.DecodeElement(&doc, &start); err != nil {
				return nil, err
			}
			return fromInfNFe(doc), nil
		default:
			return nil, fmt.Errorf("unexpected root element <%s>", start.Name.Local)
		}
	}
}

// charsetReader handles the Latin-1 declarations some SEFAZ exports carry.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
}

func fromInfNFe(src infNFe) *Invoice {
	inv := &Invoice{
		AccessKey: textnorm.Digits(strings.TrimPrefix(src.ID, "NFe")),
		Number:    strings.TrimSpace(src.Ide.NNF),
		IssuedAt:  issueDate(src.Ide.DhEmi, src.Ide.DEmi),
		Merchant:  merchant(src.Emit),
		Items:     make([]model.ParsedInvoiceItem, 0, len(src.Det)),
		Total:     num(src.Total.ICMSTot.VNF),
	}
	for _, det := range src.Det {
		inv.Items = append(inv.Items, model.ParsedInvoiceItem{
			Description:    strings.TrimSpace(det.Prod.XProd),
			NCMCode:        textnorm.Digits(det.Prod.NCM),
			Quantity:       num(det.Prod.QCom),
			UnitPrice:      num(det.Prod.VUnCom),
			TotalPrice:     num(det.Prod.VProd),
			DiscountAmount: num(det.Prod.VDesc),
			ProductCode:    gtin(det.Prod.CEAN, det.Prod.CEANTrib),
		})
	}
	return inv
}

func merchant(e emitXML) model.MerchantInfo {
	taxID := e.CNPJ
	if taxID == "" {
		taxID = e.CPF
	}
	addr := strings.TrimSpace(e.EnderEmit.XLgr)
	if nro := strings.TrimSpace(e.EnderEmit.Nro); nro != "" && addr != "" {
		addr += ", " + nro
	}
	return model.MerchantInfo{
		CNPJ:      textnorm.Digits(taxID),
		Name:      strings.TrimSpace(e.XNome),
		TradeName: strings.TrimSpace(e.XFant),
		Address:   addr,
		City:      strings.TrimSpace(e.EnderEmit.XMun),
		State:     strings.ToUpper(strings.TrimSpace(e.EnderEmit.UF)),
	}
}

// issueDate takes the date part of dhEmi (NFe 3.10+) or dEmi (2.00).
func issueDate(dhEmi, dEmi string) string {
	s := strings.TrimSpace(dhEmi)
	if s == "" {
		s = strings.TrimSpace(dEmi)
	}
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}

func gtin(codes ...string) string {
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c != "" && !strings.EqualFold(c, noGTIN) {
			return c
		}
	}
	return ""
}

// num parses an NFe fixed-point decimal. Unparseable values become zero.
func num(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
