package invoice

import (
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finimport/internal/importerr"
)

func TestParser_NFeProc(t *testing.T) {
	data, err := os.ReadFile("../../testdata/nfce_farmacia.xml")
	require.NoError(t, err)

	inv, err := NewParser(zerolog.Nop()).Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "42250112345678000190650010000123451000123459", inv.AccessKey)
	assert.Equal(t, "12345", inv.Number)
	assert.Equal(t, "2025-01-15", inv.IssuedAt)
	assert.Equal(t, "27.90", inv.Total.StringFixed(2))

	m := inv.Merchant
	assert.Equal(t, "12345678000190", m.CNPJ)
	assert.Equal(t, "DROGARIA E FARMACIA SAO JOAO LTDA", m.Name)
	assert.Equal(t, "Farmácia São João", m.TradeName)
	assert.Equal(t, "RUA DAS FLORES, 100", m.Address)
	assert.Equal(t, "Florianópolis", m.City)
	assert.Equal(t, "SC", m.State)

	require.Len(t, inv.Items, 2)
	dip := inv.Items[0]
	assert.Equal(t, "DIPIRONA SODICA 500MG 10 COMP", dip.Description)
	assert.Equal(t, "30049099", dip.NCMCode)
	assert.Equal(t, "2.00", dip.Quantity.StringFixed(2))
	assert.Equal(t, "8.49", dip.UnitPrice.StringFixed(2))
	assert.Equal(t, "16.98", dip.TotalPrice.StringFixed(2))
	assert.Equal(t, "1.98", dip.DiscountAmount.StringFixed(2))
	assert.Equal(t, "7891058001155", dip.ProductCode)

	brush := inv.Items[1]
	assert.Empty(t, brush.ProductCode)
	assert.True(t, brush.DiscountAmount.IsZero())
}

func TestParser_BareNFe(t *testing.T) {
	doc := `<NFe><infNFe Id="NFe123"><emit><CNPJ>11.222.333/0001-81</CNPJ><xNome>POSTO SHELL</xNome></emit>
<det><prod><xProd>GASOLINA COMUM</xProd><NCM>27101259</NCM><qCom>30.5</qCom><vUnCom>5.99</vUnCom><vProd>182.70</vProd></prod></det></infNFe></NFe>`

	inv, err := NewParser(zerolog.Nop()).Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "11222333000181", inv.Merchant.CNPJ)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "27101259", inv.Items[0].NCMCode)
	assert.Equal(t, "30.5", inv.Items[0].Quantity.String())
}

func TestParser_InfNFeRoot(t *testing.T) {
	doc := `<infNFe><ide><dEmi>2010-03-04</dEmi></ide><emit><xNome>MERCADO</xNome></emit></infNFe>`
	inv, err := NewParser(zerolog.Nop()).Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "2010-03-04", inv.IssuedAt)
	assert.NotNil(t, inv.Items)
	assert.Empty(t, inv.Items)
}

func TestParser_BadNumbersBecomeZero(t *testing.T) {
	doc := `<NFe><infNFe><det><prod><xProd>X</xProd><qCom>abc</qCom><vUnCom></vUnCom><vProd>1,50</vProd></prod></det></infNFe></NFe>`
	inv, err := NewParser(zerolog.Nop()).Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, inv.Items, 1)
	assert.True(t, inv.Items[0].Quantity.IsZero())
	assert.True(t, inv.Items[0].UnitPrice.IsZero())
	assert.True(t, inv.Items[0].TotalPrice.IsZero())
}

func TestParser_Latin1(t *testing.T) {
	doc := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><NFe><infNFe><emit><xNome>PADARIA S\xc3O JOS\xc9</xNome></emit></infNFe></NFe>")
	inv, err := NewParser(zerolog.Nop()).Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, "PADARIA SÃO JOSÉ", inv.Merchant.Name)
}

func TestParser_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"not xml", "definitely not xml"},
		{"truncated", "<nfeProc><NFe><infNFe><det><prod>"},
		{"wrong root", "<html><body>consulta</body></html>"},
		{"mismatched tags", "<NFe><infNFe></NFe></infNFe>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var inv *Invoice
			var err error
			assert.NotPanics(t, func() {
				inv, err = NewParser(zerolog.Nop()).Parse([]byte(tt.doc))
			})
			require.Error(t, err)
			assert.Equal(t, importerr.CodeParse, importerr.CodeOf(err))
			require.NotNil(t, inv)
			assert.NotNil(t, inv.Items)
			assert.Empty(t, inv.Items)
		})
	}
}

func TestParser_ParseReader(t *testing.T) {
	var p Parser
	inv, err := p.ParseReader(strings.NewReader(`<NFe><infNFe><emit><xNome>A</xNome></emit></infNFe></NFe>`))
	require.NoError(t, err)
	assert.Equal(t, "A", inv.Merchant.Name)
}
