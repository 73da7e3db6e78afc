package model

import "github.com/shopspring/decimal"

// MerchantInfo identifies the issuer of a fiscal invoice.
type MerchantInfo struct {
	CNPJ      string `json:"cnpj"`
	Name      string `json:"name"`
	TradeName string `json:"tradeName,omitempty"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
}

// ParsedInvoiceItem is one line item of a fiscal invoice.
type ParsedInvoiceItem struct {
	Description    string          `json:"description"`
	NCMCode        string          `json:"ncmCode,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	ProductCode    string          `json:"productCode,omitempty"` // EAN/GTIN
}

// InvoiceCategory is the spending category inferred for a merchant.
type InvoiceCategory string

const (
	CategoryPharmacy      InvoiceCategory = "PHARMACY"
	CategoryGroceries     InvoiceCategory = "GROCERIES"
	CategorySupermarket   InvoiceCategory = "SUPERMARKET"
	CategoryRestaurant    InvoiceCategory = "RESTAURANT"
	CategoryFuel          InvoiceCategory = "FUEL"
	CategoryRetail        InvoiceCategory = "RETAIL"
	CategoryServices      InvoiceCategory = "SERVICES"
	CategoryHome          InvoiceCategory = "HOME"
	CategoryElectronics   InvoiceCategory = "ELECTRONICS"
	CategoryClothing      InvoiceCategory = "CLOTHING"
	CategoryEntertainment InvoiceCategory = "ENTERTAINMENT"
	CategoryTransport     InvoiceCategory = "TRANSPORT"
	CategoryHealth        InvoiceCategory = "HEALTH"
	CategoryEducation     InvoiceCategory = "EDUCATION"
	CategoryPets          InvoiceCategory = "PETS"
	CategoryOther         InvoiceCategory = "OTHER"
)

// Categories lists every InvoiceCategory value.
var Categories = []InvoiceCategory{
	CategoryPharmacy, CategoryGroceries, CategorySupermarket, CategoryRestaurant,
	CategoryFuel, CategoryRetail, CategoryServices, CategoryHome,
	CategoryElectronics, CategoryClothing, CategoryEntertainment, CategoryTransport,
	CategoryHealth, CategoryEducation, CategoryPets, CategoryOther,
}

// Valid reports whether c is one of the closed set of categories.
func (c InvoiceCategory) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}
