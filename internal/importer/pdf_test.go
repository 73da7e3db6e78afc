package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finimport/internal/importerr"
	"github.com/cleared-dev/finimport/internal/model"
)

const sampleStatementText = `BANCO EXEMPLO S.A.
Extrato de conta corrente - Período 01/01/2025 a 31/01/2025
Data Histórico Valor
01/01 SALDO ANTERIOR 1.000,00
03/01 PIX ENVIADO FULANO DE TAL 150,00 D
05/01 TED RECEBIDA ACME LTDA 3.500,00 C
10/01   FARMACIA   SAO JOAO   -89,90
15/01/25 TARIFA PACOTE SERVICOS 35,00-
31/02 DATA INVALIDA 10,00 D
31/01 SALDO FINAL 4.225,10
Página 1 de 1
`

func TestPDFParser_StatementText(t *testing.T) {
	rep, err := NewPDFParser().parseStatementText(sampleStatementText)
	require.NoError(t, err)
	require.Len(t, rep.Transactions, 4)

	pix := rep.Transactions[0]
	assert.Equal(t, "2025-01-03", pix.Date)
	assert.Equal(t, "PIX ENVIADO FULANO DE TAL", pix.Description)
	assert.Equal(t, "150.00", pix.Amount.StringFixed(2))
	assert.Equal(t, model.TypeExpense, pix.Type)
	assert.Equal(t, "pdf", pix.Metadata["source"])

	ted := rep.Transactions[1]
	assert.Equal(t, model.TypeIncome, ted.Type)
	assert.Equal(t, "3500.00", ted.Amount.StringFixed(2))

	farm := rep.Transactions[2]
	assert.Equal(t, "FARMACIA SAO JOAO", farm.Description)
	assert.Equal(t, model.TypeExpense, farm.Type)

	tarifa := rep.Transactions[3]
	assert.Equal(t, "2025-01-15", tarifa.Date)
	assert.Equal(t, model.TypeExpense, tarifa.Type)

	require.Len(t, rep.Skipped, 1)
	assert.Equal(t, importerr.CodeInvalidDateFormat, rep.Skipped[0].Err.Code)
}

func TestPDFParser_NoStatementYear(t *testing.T) {
	_, err := NewPDFParser().parseStatementText("03/01 COMPRA 10,00 D\n")
	require.Error(t, err)
	assert.Equal(t, importerr.CodeNoTransactions, importerr.CodeOf(err))
}

func TestPDFParser_NoTransactions(t *testing.T) {
	_, err := NewPDFParser().parseStatementText("Extrato 2025\nNenhum lançamento no período\n")
	require.Error(t, err)
	assert.Equal(t, importerr.CodeNoTransactions, importerr.CodeOf(err))
}

func TestPDFParser_Malformed(t *testing.T) {
	_, err := NewPDFParser().Parse(strings.NewReader("%PDF-1.4 garbage"))
	require.Error(t, err)
	assert.Equal(t, importerr.CodeParse, importerr.CodeOf(err))
}

func TestPDFParser_YearRollover(t *testing.T) {
	text := "Periodo 01/12/2024 a 31/01/2025\n" +
		"20/12 COMPRA A 10,00 D\n" +
		"15/01 COMPRA B 20,00 D\n" +
		"31/12 COMPRA C 30,00 D\n"

	rep, err := NewPDFParser().parseStatementText(text)
	require.NoError(t, err)
	require.Len(t, rep.Transactions, 3)
	assert.Equal(t, "2024-12-20", rep.Transactions[0].Date)
	assert.Equal(t, "2025-01-15", rep.Transactions[1].Date)
	assert.Equal(t, "2024-12-31", rep.Transactions[2].Date)
}

func TestStatementStart(t *testing.T) {
	assert.Equal(t, period{year: 2024, month: 12}, statementStart("Período 01/12/2024 a 31/01/2025"))
	assert.Equal(t, period{year: 2025, month: 1}, statementStart("Extrato Janeiro 2025"))
	assert.Equal(t, period{}, statementStart("sem ano"))

	p := period{year: 2024, month: 12}
	assert.Equal(t, 2024, p.yearFor(12))
	assert.Equal(t, 2025, p.yearFor(1))
}

func TestPDFParser_CanParse(t *testing.T) {
	p := NewPDFParser()
	assert.True(t, p.CanParse("fatura.PDF"))
	assert.False(t, p.CanParse("fatura.csv"))
	assert.Equal(t, "pdf", p.Format())
}
