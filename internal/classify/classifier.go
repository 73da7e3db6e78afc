// Package classify infers a spending category for an invoice from the
// merchant's name and the tax codes of the items it sold.
package classify

import (
	"strings"

	"github.com/cleared-dev/finimport/internal/model"
	"github.com/cleared-dev/finimport/internal/textnorm"
)

// Signal names the evidence a classification was based on.
type Signal string

const (
	SignalName Signal = "name"
	SignalNCM  Signal = "ncm"
	SignalNone Signal = "none"
)

// nameConfidence is reported for keyword matches on the merchant name.
const nameConfidence = 0.9

// Result is a category together with how it was reached.
type Result struct {
	Category   model.InvoiceCategory `json:"category"`
	Signal     Signal                `json:"signal"`
	Confidence float64               `json:"confidence"`
}

type nameRule struct {
	category model.InvoiceCategory
	keywords []string
}

// nameRules is checked in order; the first rule with a keyword anywhere in
// the merchant name wins, so "SUPERFARMACIA" is a pharmacy. Keywords are in
// textnorm.Words form.
var nameRules = []nameRule{
	{model.CategoryPharmacy, []string{"farmacia", "drogaria", "drogasil", "droga raia", "pague menos", "panvel", "farma"}},
	{model.CategorySupermarket, []string{"supermercado", "supermercados", "hipermercado", "atacadao", "atacadista", "carrefour", "pao de acucar", "assai", "bompreco"}},
	{model.CategoryGroceries, []string{"mercearia", "hortifruti", "sacolao", "acougue", "padaria", "panificadora", "quitanda", "emporio", "minimercado", "mercado", "mercadinho"}},
	{model.CategoryRestaurant, []string{"restaurante", "lanchonete", "pizzaria", "churrascaria", "hamburgueria", "sorveteria", "cafeteria", "bistro", "ifood"}},
	{model.CategoryFuel, []string{"posto de combustivel", "auto posto", "posto", "combustiveis", "petrobras", "ipiranga", "shell"}},
	{model.CategoryPets, []string{"pet shop", "petshop", "pet center", "veterinari", "petz", "cobasi"}},
	{model.CategoryHealth, []string{"clinica", "hospital", "laboratorio", "odonto", "otica", "medic"}},
	{model.CategoryElectronics, []string{"eletronicos", "eletronica", "informatica", "celulares", "kabum"}},
	{model.CategoryClothing, []string{"confeccoes", "vestuario", "calcados", "roupas", "moda", "renner", "riachuelo", "hering"}},
	{model.CategoryHome, []string{"materiais de construcao", "material de construcao", "home center", "moveis", "leroy merlin", "tok stok", "madeireira"}},
	{model.CategoryEducation, []string{"escola", "colegio", "faculdade", "universidade", "livraria", "papelaria", "curso"}},
	{model.CategoryEntertainment, []string{"cinema", "cinemark", "teatro", "ingresso", "games", "parque"}},
	{model.CategoryTransport, []string{"estacionamento", "pedagio", "viacao", "transporte", "uber", "taxi"}},
	{model.CategoryServices, []string{"servicos", "lavanderia", "barbearia", "cabeleireiro", "salao", "oficina"}},
	{model.CategoryRetail, []string{"lojas", "loja", "magazine", "comercio", "varejo", "americanas"}},
}

// lookalikes are word stems that contain a keyword by accident ("posto" in
// "composto"). Words starting with one are ignored.
var lookalikes = []string{"compost", "impost", "expost", "propost", "suposto", "concurs"}

type ncmRule struct {
	category model.InvoiceCategory
	prefixes []string
}

// ncmRules maps NCM code prefixes to categories. Order breaks ties and
// lets specific prefixes shadow broader chapters listed later.
var ncmRules = []ncmRule{
	{model.CategoryPharmacy, []string{"3003", "3004", "3005", "3006"}},
	{model.CategoryFuel, []string{"2710", "2711", "2207"}},
	{model.CategoryPets, []string{"2309"}},
	{model.CategoryHealth, []string{"9004", "9018", "9019", "9021"}},
	{model.CategoryElectronics, []string{"8471", "8517", "8518", "8519", "8521", "8525", "8528"}},
	{model.CategoryEntertainment, []string{"9503", "9504"}},
	{model.CategoryTransport, []string{"4011", "8711", "8712"}},
	{model.CategoryEducation, []string{"49", "4820"}},
	{model.CategoryClothing, []string{"61", "62", "63", "64"}},
	{model.CategoryHome, []string{"94", "3208", "3209", "3214", "6907", "6908"}},
	{model.CategoryGroceries, []string{"02", "03", "04", "07", "08", "09", "10", "11", "15", "16", "17", "18", "19", "20", "21", "22"}},
}

// Classifier assigns an InvoiceCategory. It holds no state.
type Classifier struct{}

// New returns a Classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify returns the category for a merchant and its invoice items.
// It never returns an empty category; OTHER means no signal.
func (c *Classifier) Classify(m model.MerchantInfo, items []model.ParsedInvoiceItem) model.InvoiceCategory {
	return c.ClassifyWithConfidence(m, items).Category
}

// ClassifyWithConfidence tries the merchant name first, then a majority
// vote over item NCM codes, then falls back to OTHER.
func (c *Classifier) ClassifyWithConfidence(m model.MerchantInfo, items []model.ParsedInvoiceItem) Result {
	if cat, ok := byName(m.Name, m.TradeName); ok {
		return Result{Category: cat, Signal: SignalName, Confidence: nameConfidence}
	}
	if cat, share, ok := byNCM(items); ok {
		return Result{Category: cat, Signal: SignalNCM, Confidence: share}
	}
	return Result{Category: model.CategoryOther, Signal: SignalNone}
}

func byName(names ...string) (model.InvoiceCategory, bool) {
	var texts []string
	for _, n := range names {
		if text := nameText(n); text != "" {
			texts = append(texts, text)
		}
	}
	if len(texts) == 0 {
		return "", false
	}
	for _, rule := range nameRules {
		for _, kw := range rule.keywords {
			for _, text := range texts {
				if strings.Contains(text, kw) {
					return rule.category, true
				}
			}
		}
	}
	return "", false
}

// nameText normalizes a merchant name and drops lookalike words.
func nameText(name string) string {
	words := strings.Fields(textnorm.Words(name))
	kept := words[:0]
	for _, w := range words {
		if !isLookalike(w) {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func isLookalike(word string) bool {
	for _, stem := range lookalikes {
		if strings.HasPrefix(word, stem) {
			return true
		}
	}
	return false
}

// CategoryForNCM returns the category an NCM code points at, if any.
func CategoryForNCM(code string) (model.InvoiceCategory, bool) {
	idx := ncmRuleIndex(textnorm.Digits(code))
	if idx < 0 {
		return "", false
	}
	return ncmRules[idx].category, true
}

func ncmRuleIndex(code string) int {
	if code == "" {
		return -1
	}
	for i, rule := range ncmRules {
		for _, p := range rule.prefixes {
			if strings.HasPrefix(code, p) {
				return i
			}
		}
	}
	return -1
}

// byNCM votes one per item. The category with most votes wins; ties go to
// the rule listed first.
func byNCM(items []model.ParsedInvoiceItem) (model.InvoiceCategory, float64, bool) {
	votes := make([]int, len(ncmRules))
	coded := 0
	for _, it := range items {
		code := textnorm.Digits(it.NCMCode)
		if code == "" {
			continue
		}
		coded++
		if idx := ncmRuleIndex(code); idx >= 0 {
			votes[idx]++
		}
	}

	best := -1
	for i, v := range votes {
		if v > 0 && (best < 0 || v > votes[best]) {
			best = i
		}
	}
	if best < 0 {
		return "", 0, false
	}
	return ncmRules[best].category, float64(votes[best]) / float64(coded), true
}
