package product

import "github.com/shopspring/decimal"

type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeShop   Scope = "shop"
)

const DefaultCurrency = "USD"

type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// Decimal returns the amount as a decimal; unparsable amounts read as zero.
func (m Money) Decimal() decimal.Decimal {
	d, err := decimal.NewFromString(m.Amount)
	if err != nil {
		return decimal.Zero
	}
	return d
}

type PriceRange struct {
	Min Money `json:"min"`
	Max Money `json:"max"`
}

// Shop describes where a product is sold.
type Shop struct {
	Name     string `json:"name"`
	StoreURL string `json:"onlineStoreUrl"`
}

type Image struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
	Shop    *Shop  `json:"shop,omitempty"`
}

type OptionSelection struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Variant struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Price            string            `json:"price"`
	AvailableForSale bool              `json:"availableForSale"`
	Options          []OptionSelection `json:"options"`
	Image            *Image            `json:"image,omitempty"`
}

type OptionValue struct {
	Value            string `json:"value"`
	AvailableForSale bool   `json:"availableForSale"`
	Exists           bool   `json:"exists"`
}

type Option struct {
	Name   string        `json:"name"`
	Values []OptionValue `json:"values"`
}

type SelectedVariant struct {
	Variant
	SelectionState *SelectionState `json:"selectionState,omitempty"`
}

type Attribute struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Extended holds the catalog-only descriptive fields.
type Extended struct {
	UniqueSellingPoint string      `json:"uniqueSellingPoint"`
	TopFeatures        []string    `json:"topFeatures"`
	TechSpecs          []string    `json:"techSpecs"`
	Attributes         []Attribute `json:"sharedAttributes"`
}

// Product is the canonical, source-agnostic product. Values are built by
// FromGlobal or FromTenant and treated as immutable afterwards; helpers that
// need a different shape return a modified copy.
type Product struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Handle           string           `json:"handle,omitempty"`
	OnlineStoreURL   string           `json:"onlineStoreUrl,omitempty"`
	Tags             []string         `json:"tags"`
	FeaturedImage    *Image           `json:"featuredImage,omitempty"`
	Images           []Image          `json:"images"`
	PriceRange       PriceRange       `json:"priceRange"`
	AvailableForSale bool             `json:"availableForSale"`
	Scope            Scope            `json:"scope"`
	Shop             Shop             `json:"shop"`
	Variants         []Variant        `json:"variants"`
	Options          []Option         `json:"options"`
	SelectedVariant  *SelectedVariant `json:"selectedProductVariant,omitempty"`
	Extended         *Extended        `json:"extended,omitempty"`
}
