package shop

import (
	"context"
	"fmt"
	"strings"

	"shopsearch-be/internal/apperror"
	"shopsearch-be/internal/logger"
	"shopsearch-be/internal/product"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

type SearchParams struct {
	Query    string
	Limit    int
	MinPrice *float64
	MaxPrice *float64
}

type connection[T any] struct {
	Edges []struct {
		Node T `json:"node"`
	} `json:"edges"`
}

func (c connection[T]) nodes() []T {
	out := make([]T, 0, len(c.Edges))
	for _, e := range c.Edges {
		out = append(out, e.Node)
	}
	return out
}

type productNode struct {
	ID             string                         `json:"id"`
	Title          string                         `json:"title"`
	Description    string                         `json:"description"`
	Handle         string                         `json:"handle"`
	Status         string                         `json:"status"`
	OnlineStoreURL string                         `json:"onlineStoreUrl"`
	FeaturedImage  *product.RawImage              `json:"featuredImage"`
	Images         connection[product.RawImage]   `json:"images"`
	PriceRange     product.TenantPriceRange       `json:"priceRange"`
	Variants       connection[product.RawVariant] `json:"variants"`
	Options        []product.TenantRawOption      `json:"options"`
	Tags           []string                       `json:"tags"`
}

func (n productNode) flatten() product.TenantRawProduct {
	return product.TenantRawProduct{
		ID:             n.ID,
		Title:          n.Title,
		Description:    n.Description,
		Handle:         n.Handle,
		Status:         n.Status,
		OnlineStoreURL: n.OnlineStoreURL,
		FeaturedImage:  n.FeaturedImage,
		Images:         n.Images.nodes(),
		PriceRange:     n.PriceRange,
		Variants:       n.Variants.nodes(),
		Options:        n.Options,
		Tags:           n.Tags,
	}
}

// SearchProducts matches the query against title, description and tags of the
// session's shop. Price bounds are applied to the fetched page, so a filtered
// result can hold fewer than Limit products.
func (c *Client) SearchProducts(ctx context.Context, p SearchParams) ([]product.Product, error) {
	sess, ok := SessionFrom(ctx)
	if !ok {
		return nil, apperror.NoSession("shop." + searchProductsDoc.operation)
	}
	if strings.TrimSpace(p.Query) == "" {
		return nil, apperror.Validation("search query is required")
	}

	var data struct {
		Products connection[productNode] `json:"products"`
	}
	vars := map[string]any{
		"query": searchPredicate(p.Query),
		"first": clampLimit(p.Limit),
	}
	if err := c.query(ctx, sess, searchProductsDoc, vars, &data); err != nil {
		return nil, err
	}

	nodes := data.Products.nodes()
	products := make([]product.Product, 0, len(nodes))
	for _, n := range nodes {
		mapped := product.FromTenant(n.flatten(), sess.Shop)
		if !withinPrice(mapped.PriceRange, p.MinPrice, p.MaxPrice) {
			continue
		}
		products = append(products, mapped)
	}

	logger.FromCtx(ctx).Info("Shop search completed",
		zap.Int("fetched", len(nodes)),
		zap.Int("returned", len(products)),
	)
	return products, nil
}

// ProductDetails loads one product of the session's shop by its global id.
func (c *Client) ProductDetails(ctx context.Context, id string) (*product.Product, error) {
	op := "shop." + productDetailsDoc.operation
	sess, ok := SessionFrom(ctx)
	if !ok {
		return nil, apperror.NoSession(op)
	}
	if strings.TrimSpace(id) == "" {
		return nil, apperror.Validation("product id is required")
	}

	var data struct {
		Product *productNode `json:"product"`
	}
	if err := c.query(ctx, sess, productDetailsDoc, map[string]any{"id": id}, &data); err != nil {
		return nil, err
	}
	if data.Product == nil {
		return nil, apperror.NotFound(op, id)
	}

	p := product.FromTenant(data.Product.flatten(), sess.Shop)
	return &p, nil
}

func searchPredicate(q string) string {
	q = strings.TrimSpace(q)
	return fmt.Sprintf("title:*%s* OR description:*%s* OR tags:*%s*", q, q, q)
}

// withinPrice keeps a product whose price range overlaps [min, max].
func withinPrice(r product.PriceRange, lo, hi *float64) bool {
	if lo != nil && r.Max.Decimal().LessThan(decimal.NewFromFloat(*lo)) {
		return false
	}
	if hi != nil && r.Min.Decimal().GreaterThan(decimal.NewFromFloat(*hi)) {
		return false
	}
	return true
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
