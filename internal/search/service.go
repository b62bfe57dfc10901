package search

import (
	"context"
	"slices"
	"time"

	"shopsearch-be/internal/catalog"
	"shopsearch-be/internal/logger"
	"shopsearch-be/internal/metrics"
	"shopsearch-be/internal/product"
	"shopsearch-be/internal/shop"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// GlobalSource is the remote catalog.
type GlobalSource interface {
	SearchGlobalProducts(ctx context.Context, p catalog.SearchParams) (*catalog.SearchResult, error)
	GetGlobalProductDetails(ctx context.Context, upid string, options []product.OptionFilter) (*product.GlobalRawProduct, error)
}

// ShopSource is the tenant catalog of the session on the context.
type ShopSource interface {
	SearchProducts(ctx context.Context, p shop.SearchParams) ([]product.Product, error)
	ProductDetails(ctx context.Context, id string) (*product.Product, error)
}

// Service federates product search over both sources.
type Service interface {
	Search(ctx context.Context, req Request) (*ResultSet, error)
	WidgetSearch(ctx context.Context, req Request) (*WidgetResult, error)
	GetProductDetails(ctx context.Context, req DetailRequest) (*product.Product, error)
}

type service struct {
	global  GlobalSource
	shop    ShopSource
	timeout time.Duration
	metrics *metrics.Recorder
}

// NewService wires the sources. timeout bounds each upstream call; zero
// leaves calls bounded only by the caller's context.
func NewService(global GlobalSource, tenant ShopSource, timeout time.Duration, rec *metrics.Recorder) Service {
	return &service{global: global, shop: tenant, timeout: timeout, metrics: rec}
}

func (s *service) Search(ctx context.Context, req Request) (*ResultSet, error) {
	req, err := prepareRequest(req, ScopeBoth)
	if err != nil {
		return nil, err
	}

	log := logger.FromCtx(ctx).With(
		zap.String("service", "Search"),
		zap.String("method", "Search"),
		zap.String("scope", req.Scope),
	)
	log.Info("searching products", zap.String("query", req.Query), zap.Int("limit", req.Limit))

	var global, tenant outcome
	var g errgroup.Group
	// Each source reports through its outcome, so the group never fails.
	if req.wantsGlobal() {
		g.Go(func() error {
			global = s.searchGlobal(ctx, req)
			return nil
		})
	}
	if req.wantsShop() {
		g.Go(func() error {
			tenant = s.searchShop(ctx, req)
			return nil
		})
	}
	g.Wait()

	set := &ResultSet{
		Query:        req.Query,
		Scope:        req.Scope,
		Global:       newSourceResult(global.products),
		Shop:         newSourceResult(tenant.products),
		Combined:     newSourceResult(merge(global.products, tenant.products)),
		Instructions: global.instructions,
	}

	log.Info("search completed",
		zap.Int("global", set.Global.Count),
		zap.Int("shop", set.Shop.Count),
		zap.Int("combined", set.Combined.Count),
	)
	return set, nil
}

// WidgetSearch is the public storefront search: catalog only, smaller pages.
func (s *service) WidgetSearch(ctx context.Context, req Request) (*WidgetResult, error) {
	req.Scope = ScopeGlobal
	req.Limit = min(req.Limit, WidgetLimit)
	req, err := prepareRequest(req, ScopeGlobal)
	if err != nil {
		return nil, err
	}

	res := s.searchGlobal(ctx, req)
	products := res.products
	if products == nil {
		products = []product.Product{}
	}
	return &WidgetResult{
		Count:        len(products),
		Products:     products,
		Instructions: res.instructions,
	}, nil
}

func (s *service) GetProductDetails(ctx context.Context, req DetailRequest) (*product.Product, error) {
	req, err := prepareDetailRequest(req)
	if err != nil {
		return nil, err
	}

	log := logger.FromCtx(ctx).With(
		zap.String("service", "Search"),
		zap.String("method", "GetProductDetails"),
		zap.String("scope", req.Scope),
		zap.String("product_id", req.ID),
	)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if req.Scope == ScopeShop {
		p, err := s.shop.ProductDetails(ctx, req.ID)
		if err != nil {
			log.Error("shop product lookup failed", zap.Error(err))
			return nil, err
		}
		selected := product.WithSelection(*p, req.Options)
		if len(req.Options) > 0 && selected.SelectedVariant == nil {
			log.Info("no variant matches requested options")
		}
		return &selected, nil
	}

	raw, err := s.global.GetGlobalProductDetails(ctx, req.ID, req.Options)
	if err != nil {
		log.Error("global product lookup failed", zap.Error(err))
		return nil, err
	}
	p := product.FromGlobal(*raw)
	return &p, nil
}

func (s *service) searchGlobal(ctx context.Context, req Request) outcome {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.global.SearchGlobalProducts(ctx, catalog.SearchParams{
		Query:             req.Query,
		Context:           req.Context,
		Limit:             req.Limit,
		MinPrice:          req.MinPrice,
		MaxPrice:          req.MaxPrice,
		ShipsTo:           req.ShipsTo,
		IncludeSecondhand: req.IncludeSecondhand,
	})
	if err != nil {
		return s.degrade(ctx, ScopeGlobal, err)
	}

	products := make([]product.Product, 0, len(res.Offers))
	for _, offer := range res.Offers {
		products = append(products, product.FromGlobal(offer))
	}
	s.metrics.ObserveSearch(ScopeGlobal, len(products), false)
	return outcome{products: products, instructions: res.Instructions}
}

func (s *service) searchShop(ctx context.Context, req Request) outcome {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	products, err := s.shop.SearchProducts(ctx, shop.SearchParams{
		Query:    req.Query,
		Limit:    req.Limit,
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
	})
	if err != nil {
		return s.degrade(ctx, ScopeShop, err)
	}

	s.metrics.ObserveSearch(ScopeShop, len(products), false)
	return outcome{products: products}
}

// degrade records a failed source and substitutes an empty result for it.
func (s *service) degrade(ctx context.Context, source string, err error) outcome {
	logger.FromCtx(ctx).Warn("source failed, continuing without it",
		zap.String("source", source),
		zap.Error(err),
	)
	s.metrics.ObserveSearch(source, 0, true)
	return outcome{products: []product.Product{}, err: err}
}

func (s *service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// merge concatenates global then shop products and moves available products
// ahead of unavailable ones without disturbing order inside either group.
func merge(global, tenant []product.Product) []product.Product {
	combined := make([]product.Product, 0, len(global)+len(tenant))
	combined = append(combined, global...)
	combined = append(combined, tenant...)

	slices.SortStableFunc(combined, func(a, b product.Product) int {
		return availabilityRank(a) - availabilityRank(b)
	})
	return combined
}

func availabilityRank(p product.Product) int {
	if p.AvailableForSale {
		return 0
	}
	return 1
}
