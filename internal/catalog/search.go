package catalog

import (
	"context"
	"encoding/json"
	"strings"

	"shopsearch-be/internal/apperror"
	"shopsearch-be/internal/logger"
	"shopsearch-be/internal/product"

	"go.uber.org/zap"
)

const (
	ToolSearchGlobalProducts    = "search_global_products"
	ToolGetGlobalProductDetails = "get_global_product_details"

	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

type SearchParams struct {
	Query             string
	Context           string
	Limit             int
	MinPrice          *float64
	MaxPrice          *float64
	ShipsTo           string
	IncludeSecondhand *bool
}

type searchArguments struct {
	Query             string   `json:"query"`
	Context           string   `json:"context,omitempty"`
	Limit             int      `json:"limit"`
	MinPrice          *float64 `json:"min_price,omitempty"`
	MaxPrice          *float64 `json:"max_price,omitempty"`
	ShipsTo           string   `json:"ships_to,omitempty"`
	IncludeSecondhand *bool    `json:"include_secondhand,omitempty"`
}

type detailsArguments struct {
	UPID           string                 `json:"upid"`
	ProductOptions []product.OptionFilter `json:"product_options,omitempty"`
}

// searchPayload keeps each offer undecoded so one malformed offer cannot
// spoil the rest of the page.
type searchPayload struct {
	Offers       []json.RawMessage `json:"offers"`
	Instructions string            `json:"instructions"`
}

type SearchResult struct {
	Offers       []product.GlobalRawProduct `json:"offers"`
	Instructions string                     `json:"instructions"`
}

// SearchGlobalProducts runs a free-text search against the catalog. Unset
// filters are omitted from the tool arguments.
func (c *Client) SearchGlobalProducts(ctx context.Context, p SearchParams) (*SearchResult, error) {
	if strings.TrimSpace(p.Query) == "" {
		return nil, apperror.Validation("search query is required")
	}

	args := searchArguments{
		Query:             p.Query,
		Context:           p.Context,
		Limit:             clampLimit(p.Limit),
		MinPrice:          p.MinPrice,
		MaxPrice:          p.MaxPrice,
		ShipsTo:           p.ShipsTo,
		IncludeSecondhand: p.IncludeSecondhand,
	}

	payload, err := c.Call(ctx, ToolSearchGlobalProducts, args)
	if err != nil {
		return nil, err
	}

	res := &SearchResult{Offers: []product.GlobalRawProduct{}}
	if payload == nil {
		return res, nil
	}

	var page searchPayload
	if err := json.Unmarshal(payload, &page); err != nil {
		return nil, apperror.Parse(ToolSearchGlobalProducts, err)
	}
	res.Instructions = page.Instructions
	res.Offers = decodeOffers(ctx, page.Offers)
	return res, nil
}

// decodeOffers decodes offers one by one and drops those that do not decode.
func decodeOffers(ctx context.Context, raw []json.RawMessage) []product.GlobalRawProduct {
	offers := make([]product.GlobalRawProduct, 0, len(raw))
	for i, msg := range raw {
		var offer product.GlobalRawProduct
		if err := json.Unmarshal(msg, &offer); err != nil {
			logger.FromCtx(ctx).Warn("Skipping malformed catalog offer",
				zap.String("tool", ToolSearchGlobalProducts),
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		offers = append(offers, offer)
	}
	return offers
}

// GetGlobalProductDetails fetches one catalog product. upid may carry a
// resource prefix such as gid://shopify/p/.
func (c *Client) GetGlobalProductDetails(ctx context.Context, upid string, options []product.OptionFilter) (*product.GlobalRawProduct, error) {
	id := ExtractUPID(upid)
	if id == "" {
		return nil, apperror.Validation("product id is required")
	}

	args := detailsArguments{UPID: id}
	if len(options) > 0 {
		args.ProductOptions = options
	}

	payload, err := c.Call(ctx, ToolGetGlobalProductDetails, args)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, apperror.NotFound(ToolGetGlobalProductDetails, id)
	}

	var raw product.GlobalRawProduct
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, apperror.Parse(ToolGetGlobalProductDetails, err)
	}
	return &raw, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultSearchLimit
	case limit > MaxSearchLimit:
		return MaxSearchLimit
	default:
		return limit
	}
}
