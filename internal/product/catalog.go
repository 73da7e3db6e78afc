package product

import (
	"sort"
	"strings"

	"github.com/schollz/closestmatch"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finimport/internal/id"
	"github.com/cleared-dev/finimport/internal/model"
)

// shortlist is how many fuzzy candidates are scored per lookup.
const shortlist = 5

// Observation is one purchase of a product.
type Observation struct {
	Merchant  string          `json:"merchant"`
	Date      string          `json:"date"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// PriceStats summarizes what one merchant charged for a product.
type PriceStats struct {
	Merchant string          `json:"merchant"`
	Count    int             `json:"count"`
	Min      decimal.Decimal `json:"min"`
	Max      decimal.Decimal `json:"max"`
	Last     decimal.Decimal `json:"last"`
	LastDate string          `json:"lastDate"`
}

// Product is a group of invoice items judged to be the same thing.
type Product struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Codes        []string      `json:"codes,omitempty"`
	Variants     []string      `json:"variants"`
	Observations []Observation `json:"observations"`
}

// PriceHistory returns one PriceStats per merchant, sorted by merchant.
// Last is the price of the most recent observation; equal dates keep the
// one added later.
func (p *Product) PriceHistory() []PriceStats {
	byMerchant := make(map[string]*PriceStats)
	for _, o := range p.Observations {
		s, ok := byMerchant[o.Merchant]
		if !ok {
			byMerchant[o.Merchant] = &PriceStats{
				Merchant: o.Merchant,
				Count:    1,
				Min:      o.UnitPrice,
				Max:      o.UnitPrice,
				Last:     o.UnitPrice,
				LastDate: o.Date,
			}
			continue
		}
		s.Count++
		s.Min = decimal.Min(s.Min, o.UnitPrice)
		s.Max = decimal.Max(s.Max, o.UnitPrice)
		if o.Date >= s.LastDate {
			s.Last = o.UnitPrice
			s.LastDate = o.Date
		}
	}

	out := make([]PriceStats, 0, len(byMerchant))
	for _, s := range byMerchant {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Merchant < out[j].Merchant })
	return out
}

func (p *Product) addVariant(name string) {
	for _, v := range p.Variants {
		if v == name {
			return
		}
	}
	p.Variants = append(p.Variants, name)
}

func (p *Product) addCode(code string) {
	if code == "" {
		return
	}
	for _, c := range p.Codes {
		if c == code {
			return
		}
	}
	p.Codes = append(p.Codes, code)
}

// Catalog groups invoice items from many invoices into products. Items
// join an existing product by product code first, then by exact normalized
// name, then by fuzzy name match above the matcher's threshold.
// A Catalog is not safe for concurrent use.
type Catalog struct {
	matcher  *Matcher
	products []*Product
	byCode   map[string]*Product
	byName   map[string]*Product

	names []string
	index *closestmatch.ClosestMatch
	dirty bool
}

// NewCatalog returns an empty catalog. A nil matcher uses DefaultThreshold.
func NewCatalog(m *Matcher) *Catalog {
	if m == nil {
		m = &Matcher{}
	}
	return &Catalog{
		matcher: m,
		byCode:  make(map[string]*Product),
		byName:  make(map[string]*Product),
	}
}

// AddInvoice records every item of an invoice issued by merchant on date.
func (c *Catalog) AddInvoice(merchant model.MerchantInfo, date string, items []model.ParsedInvoiceItem) {
	for _, it := range items {
		c.Add(merchant, date, it)
	}
}

// Add records one item and returns the product it was filed under. Items
// whose normalized name is empty and that carry no code are ignored.
func (c *Catalog) Add(merchant model.MerchantInfo, date string, item model.ParsedInvoiceItem) *Product {
	np := Normalize(item)
	if np.NormalizedName == "" && np.ProductCode == "" {
		return nil
	}

	p := c.find(np)
	if p == nil {
		p = &Product{ID: id.New(), Name: np.NormalizedName}
		c.products = append(c.products, p)
	}
	if p.Name == "" {
		p.Name = np.NormalizedName
	}
	p.addCode(np.ProductCode)
	p.addVariant(np.OriginalName)
	p.Observations = append(p.Observations, Observation{
		Merchant:  merchantKey(merchant),
		Date:      date,
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice,
	})

	if np.ProductCode != "" {
		c.byCode[np.ProductCode] = p
	}
	if np.NormalizedName != "" {
		if _, ok := c.byName[np.NormalizedName]; !ok {
			c.byName[np.NormalizedName] = p
			c.names = append(c.names, np.NormalizedName)
			c.dirty = true
		}
	}
	return p
}

// Lookup returns the product an item would be filed under, if any.
func (c *Catalog) Lookup(item model.ParsedInvoiceItem) (*Product, bool) {
	p := c.find(Normalize(item))
	return p, p != nil
}

// Products returns the products in the order they were first seen.
func (c *Catalog) Products() []*Product {
	out := make([]*Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) find(np model.NormalizedProduct) *Product {
	if np.ProductCode != "" {
		if p, ok := c.byCode[np.ProductCode]; ok {
			return p
		}
	}
	if np.NormalizedName == "" {
		return nil
	}
	if p, ok := c.byName[np.NormalizedName]; ok {
		return p
	}

	var (
		best     *Product
		bestConf float64
	)
	for _, name := range c.candidates(np.NormalizedName) {
		res := c.matcher.MatchNormalized(np, model.NormalizedProduct{NormalizedName: name})
		if res.IsMatch && res.Confidence > bestConf {
			best, bestConf = c.byName[name], res.Confidence
		}
	}
	return best
}

// candidates shortlists known names with a substring index. The index is
// rebuilt lazily after new names are added.
func (c *Catalog) candidates(name string) []string {
	if len(c.names) == 0 {
		return nil
	}
	if c.index == nil || c.dirty {
		c.index = closestmatch.New(c.names, []int{2, 3})
		c.dirty = false
	}
	return c.index.ClosestN(name, shortlist)
}

func merchantKey(m model.MerchantInfo) string {
	if m.CNPJ != "" {
		return m.CNPJ
	}
	if m.TradeName != "" {
		return strings.TrimSpace(m.TradeName)
	}
	return strings.TrimSpace(m.Name)
}
