package search

import "shopsearch-be/internal/product"

const (
	ScopeGlobal = string(product.ScopeGlobal)
	ScopeShop   = string(product.ScopeShop)
	ScopeBoth   = "both"

	DefaultLimit = 10
	WidgetLimit  = 20
)

// Request is an aggregated search across the catalog and the tenant shop.
type Request struct {
	Query             string   `json:"query" validate:"required"`
	Context           string   `json:"context"`
	Scope             string   `json:"scope" validate:"omitempty,oneof=global shop both"`
	Limit             int      `json:"limit" validate:"gte=0"`
	MinPrice          *float64 `json:"min_price" validate:"omitempty,gte=0"`
	MaxPrice          *float64 `json:"max_price" validate:"omitempty,gte=0"`
	ShipsTo           string   `json:"ships_to" validate:"omitempty,iso3166_1_alpha2"`
	IncludeSecondhand *bool    `json:"include_secondhand"`
}

func (r Request) wantsGlobal() bool { return r.Scope == ScopeGlobal || r.Scope == ScopeBoth }
func (r Request) wantsShop() bool   { return r.Scope == ScopeShop || r.Scope == ScopeBoth }

// DetailRequest resolves one product. Options select a variant for shop
// products and are forwarded to the catalog for global ones.
type DetailRequest struct {
	ID      string                 `json:"upid" validate:"required"`
	Scope   string                 `json:"scope" validate:"omitempty,oneof=global shop"`
	Options []product.OptionFilter `json:"product_options" validate:"omitempty,dive"`
}

type SourceResult struct {
	Count    int               `json:"count"`
	Products []product.Product `json:"products"`
}

func newSourceResult(products []product.Product) SourceResult {
	if products == nil {
		products = []product.Product{}
	}
	return SourceResult{Count: len(products), Products: products}
}

// ResultSet holds each source's products and their merged ranking.
// ResultSet carries the normalized query and scope the search actually ran
// with alongside the per-source lists.
type ResultSet struct {
	Query        string       `json:"-"`
	Scope        string       `json:"-"`
	Global       SourceResult `json:"global"`
	Shop         SourceResult `json:"shop"`
	Combined     SourceResult `json:"combined"`
	Instructions string       `json:"-"`
}

type WidgetResult struct {
	Count        int               `json:"count"`
	Products     []product.Product `json:"products"`
	Instructions string            `json:"instructions"`
}

// outcome is what one source produced for a search. A failed source carries
// err and no products.
type outcome struct {
	products     []product.Product
	instructions string
	err          error
}
