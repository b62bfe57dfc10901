package product

import (
	"bytes"
	"encoding/json"
)

// RawAmount accepts a JSON string or number. Anything else decodes to the
// empty amount, which normalizes to zero.
type RawAmount string

func (a *RawAmount) UnmarshalJSON(b []byte) error {
	*a = ""

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = RawAmount(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*a = RawAmount(n.String())
	}
	return nil
}

type RawMoney struct {
	Amount       RawAmount `json:"amount"`
	CurrencyCode string    `json:"currencyCode"`
	Currency     string    `json:"currency"`
}

// RawPrice is either a money object or a bare amount.
type RawPrice struct {
	RawMoney
}

func (p *RawPrice) UnmarshalJSON(b []byte) error {
	p.RawMoney = RawMoney{}

	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var m RawMoney
		if err := json.Unmarshal(trimmed, &m); err == nil {
			p.RawMoney = m
		}
		return nil
	}
	return p.Amount.UnmarshalJSON(trimmed)
}

type RawShop struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	OnlineStoreURL string `json:"onlineStoreUrl"`
}

type RawImageProduct struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	OnlineStoreURL string   `json:"onlineStoreUrl"`
	Shop           *RawShop `json:"shop"`
}

type RawImage struct {
	URL     string           `json:"url"`
	AltText string           `json:"altText"`
	Product *RawImageProduct `json:"product"`
}

type RawSelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type RawVariant struct {
	ID               string              `json:"id"`
	Title            string              `json:"title"`
	DisplayName      string              `json:"displayName"`
	Price            RawPrice            `json:"price"`
	AvailableForSale *bool               `json:"availableForSale"`
	Options          []RawSelectedOption `json:"options"`
	SelectedOptions  []RawSelectedOption `json:"selectedOptions"`
	Image            *RawImage           `json:"image"`
	Media            []RawImage          `json:"media"`
}

// RawOptionValue is either a bare string or an object with availability flags.
type RawOptionValue struct {
	Value            string `json:"value"`
	AvailableForSale *bool  `json:"availableForSale"`
	Exists           *bool  `json:"exists"`
}

func (v *RawOptionValue) UnmarshalJSON(b []byte) error {
	*v = RawOptionValue{}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v.Value = s
		return nil
	}

	type plain RawOptionValue
	var p plain
	if err := json.Unmarshal(b, &p); err == nil {
		*v = RawOptionValue(p)
	}
	return nil
}

type RawOption struct {
	Name   string           `json:"name"`
	Values []RawOptionValue `json:"values"`
}

type RawAttribute struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// RawPriceRange bounds accept a money object or a bare amount.
type RawPriceRange struct {
	Min RawPrice `json:"min"`
	Max RawPrice `json:"max"`
}

// GlobalRawListing is one shop's listing of a catalog offer.
type GlobalRawListing struct {
	ID                     string       `json:"id"`
	Title                  string       `json:"title"`
	Description            string       `json:"description"`
	FeaturedImage          *RawImage    `json:"featuredImage"`
	OnlineStoreURL         string       `json:"onlineStoreUrl"`
	Price                  RawPrice     `json:"price"`
	AvailableForSale       *bool        `json:"availableForSale"`
	Shop                   *RawShop     `json:"shop"`
	SelectedProductVariant *RawVariant  `json:"selectedProductVariant"`
	Variants               []RawVariant `json:"variants"`
}

// GlobalRawProduct is an offer as returned by the catalog service.
type GlobalRawProduct struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	Images             []RawImage         `json:"images"`
	Media              []RawImage         `json:"media"`
	Options            []RawOption        `json:"options"`
	PriceRange         RawPriceRange      `json:"priceRange"`
	Products           []GlobalRawListing `json:"products"`
	Variants           []RawVariant       `json:"variants"`
	AvailableForSale   *bool              `json:"availableForSale"`
	UniqueSellingPoint string             `json:"uniqueSellingPoint"`
	TopFeatures        []string           `json:"topFeatures"`
	TechSpecs          []string           `json:"techSpecs"`
	SharedAttributes   []RawAttribute     `json:"sharedAttributes"`
	LookupURL          string             `json:"lookupUrl"`
}

type TenantPriceRange struct {
	MinVariantPrice RawMoney `json:"minVariantPrice"`
	MaxVariantPrice RawMoney `json:"maxVariantPrice"`
}

type TenantRawOption struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// TenantRawProduct is a shop product with its edge/node connections already
// flattened into plain lists.
type TenantRawProduct struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Handle         string            `json:"handle"`
	Status         string            `json:"status"`
	OnlineStoreURL string            `json:"onlineStoreUrl"`
	FeaturedImage  *RawImage         `json:"featuredImage"`
	Images         []RawImage        `json:"images"`
	PriceRange     TenantPriceRange  `json:"priceRange"`
	Variants       []RawVariant      `json:"variants"`
	Options        []TenantRawOption `json:"options"`
	Tags           []string          `json:"tags"`
}
