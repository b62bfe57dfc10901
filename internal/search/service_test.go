package search

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"shopsearch-be/internal/apperror"
	"shopsearch-be/internal/catalog"
	"shopsearch-be/internal/product"
	"shopsearch-be/internal/shop"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockGlobalSource struct {
	mock.Mock
}

func (m *MockGlobalSource) SearchGlobalProducts(ctx context.Context, p catalog.SearchParams) (*catalog.SearchResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.SearchResult), args.Error(1)
}

func (m *MockGlobalSource) GetGlobalProductDetails(ctx context.Context, upid string, options []product.OptionFilter) (*product.GlobalRawProduct, error) {
	args := m.Called(ctx, upid, options)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.GlobalRawProduct), args.Error(1)
}

type MockShopSource struct {
	mock.Mock
}

func (m *MockShopSource) SearchProducts(ctx context.Context, p shop.SearchParams) ([]product.Product, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]product.Product), args.Error(1)
}

func (m *MockShopSource) ProductDetails(ctx context.Context, id string) (*product.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }

func offer(id string, available bool) product.GlobalRawProduct {
	return product.GlobalRawProduct{ID: id, Title: id, AvailableForSale: boolPtr(available)}
}

func shopProduct(id string, available bool) product.Product {
	return product.Product{ID: id, Title: id, Scope: product.ScopeShop, AvailableForSale: available}
}

func ids(products []product.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func newTestService() (*MockGlobalSource, *MockShopSource, Service) {
	g := new(MockGlobalSource)
	s := new(MockShopSource)
	return g, s, NewService(g, s, time.Second, nil)
}

func TestService_Search(t *testing.T) {
	t.Run("Both sources merge available first", func(t *testing.T) {
		g, s, svc := newTestService()
		g.On("SearchGlobalProducts", mock.Anything, mock.Anything).Return(&catalog.SearchResult{
			Offers:       []product.GlobalRawProduct{offer("g1", false), offer("g2", true)},
			Instructions: "cite the merchant",
		}, nil)
		s.On("SearchProducts", mock.Anything, mock.Anything).Return([]product.Product{
			shopProduct("s1", true), shopProduct("s2", false),
		}, nil)

		res, err := svc.Search(context.Background(), Request{Query: "lamp"})

		require.NoError(t, err)
		assert.Equal(t, ScopeBoth, res.Scope)
		assert.Equal(t, 2, res.Global.Count)
		assert.Equal(t, 2, res.Shop.Count)
		assert.Equal(t, 4, res.Combined.Count)
		assert.Equal(t, []string{"g2", "s1", "g1", "s2"}, ids(res.Combined.Products))
		assert.Equal(t, "cite the merchant", res.Instructions)
		for _, p := range res.Global.Products {
			assert.Equal(t, product.ScopeGlobal, p.Scope)
		}
		g.AssertExpectations(t)
		s.AssertExpectations(t)
	})

	t.Run("Catalog failure degrades to shop only", func(t *testing.T) {
		g, s, svc := newTestService()
		g.On("SearchGlobalProducts", mock.Anything, mock.Anything).
			Return(nil, apperror.UpstreamRequest("catalog.call", http.StatusInternalServerError, "boom", nil))
		s.On("SearchProducts", mock.Anything, mock.Anything).Return([]product.Product{
			shopProduct("s1", true), shopProduct("s2", true),
		}, nil)

		res, err := svc.Search(context.Background(), Request{Query: "lamp", Scope: "both"})

		require.NoError(t, err)
		assert.Equal(t, 0, res.Global.Count)
		assert.NotNil(t, res.Global.Products)
		assert.Equal(t, 2, res.Shop.Count)
		assert.Equal(t, 2, res.Combined.Count)
	})

	t.Run("Missing session degrades shop side", func(t *testing.T) {
		g, s, svc := newTestService()
		g.On("SearchGlobalProducts", mock.Anything, mock.Anything).Return(&catalog.SearchResult{
			Offers: []product.GlobalRawProduct{offer("g1", true)},
		}, nil)
		s.On("SearchProducts", mock.Anything, mock.Anything).Return(nil, apperror.NoSession("shop.searchProducts"))

		res, err := svc.Search(context.Background(), Request{Query: "lamp"})

		require.NoError(t, err)
		assert.Equal(t, 1, res.Global.Count)
		assert.Equal(t, 0, res.Shop.Count)
		assert.Equal(t, []string{"g1"}, ids(res.Combined.Products))
	})

	t.Run("Global scope skips the shop", func(t *testing.T) {
		g, s, svc := newTestService()
		g.On("SearchGlobalProducts", mock.Anything, mock.Anything).Return(&catalog.SearchResult{}, nil)

		res, err := svc.Search(context.Background(), Request{Query: "  lamp ", Scope: " GLOBAL "})

		require.NoError(t, err)
		assert.Equal(t, 0, res.Combined.Count)
		assert.Equal(t, "lamp", res.Query)
		assert.Equal(t, ScopeGlobal, res.Scope)
		s.AssertNotCalled(t, "SearchProducts", mock.Anything, mock.Anything)
	})

	t.Run("Shop scope skips the catalog", func(t *testing.T) {
		g, s, svc := newTestService()
		s.On("SearchProducts", mock.Anything, mock.Anything).Return([]product.Product{shopProduct("s1", false)}, nil)

		res, err := svc.Search(context.Background(), Request{Query: "lamp", Scope: "SHOP"})

		require.NoError(t, err)
		assert.Equal(t, []string{"s1"}, ids(res.Combined.Products))
		g.AssertNotCalled(t, "SearchGlobalProducts", mock.Anything, mock.Anything)
	})

	t.Run("Filters reach each source", func(t *testing.T) {
		g, s, svc := newTestService()
		g.On("SearchGlobalProducts", mock.Anything, catalog.SearchParams{
			Query:             "lamp",
			Context:           "reading nook",
			Limit:             DefaultLimit,
			MinPrice:          floatPtr(5),
			MaxPrice:          floatPtr(50),
			ShipsTo:           "CA",
			IncludeSecondhand: boolPtr(true),
		}).Return(&catalog.SearchResult{}, nil)
		s.On("SearchProducts", mock.Anything, shop.SearchParams{
			Query:    "lamp",
			Limit:    DefaultLimit,
			MinPrice: floatPtr(5),
			MaxPrice: floatPtr(50),
		}).Return([]product.Product{}, nil)

		_, err := svc.Search(context.Background(), Request{
			Query:             "  lamp ",
			Context:           "reading nook",
			MinPrice:          floatPtr(5),
			MaxPrice:          floatPtr(50),
			ShipsTo:           "ca",
			IncludeSecondhand: boolPtr(true),
		})

		require.NoError(t, err)
		g.AssertExpectations(t)
		s.AssertExpectations(t)
	})

	t.Run("Upstream calls are bounded", func(t *testing.T) {
		g := new(MockGlobalSource)
		s := new(MockShopSource)
		svc := NewService(g, s, 20*time.Millisecond, nil)

		g.On("SearchGlobalProducts", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				<-args.Get(0).(context.Context).Done()
			}).
			Return(nil, context.DeadlineExceeded)
		s.On("SearchProducts", mock.Anything, mock.Anything).Return([]product.Product{shopProduct("s1", true)}, nil)

		start := time.Now()
		res, err := svc.Search(context.Background(), Request{Query: "lamp"})

		require.NoError(t, err)
		assert.Less(t, time.Since(start), time.Second)
		assert.Equal(t, 0, res.Global.Count)
		assert.Equal(t, 1, res.Shop.Count)
	})
}

func TestService_Search_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"Missing query", Request{}},
		{"Blank query", Request{Query: "   "}},
		{"Unknown scope", Request{Query: "lamp", Scope: "everywhere"}},
		{"Negative limit", Request{Query: "lamp", Limit: -1}},
		{"Negative price", Request{Query: "lamp", MinPrice: floatPtr(-1)}},
		{"Inverted price range", Request{Query: "lamp", MinPrice: floatPtr(10), MaxPrice: floatPtr(5)}},
		{"Bad country", Request{Query: "lamp", ShipsTo: "Canada"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, s, svc := newTestService()

			res, err := svc.Search(context.Background(), tt.req)

			assert.Nil(t, res)
			assert.True(t, errors.Is(err, apperror.ErrValidation), "got %v", err)
			g.AssertNotCalled(t, "SearchGlobalProducts", mock.Anything, mock.Anything)
			s.AssertNotCalled(t, "SearchProducts", mock.Anything, mock.Anything)
		})
	}
}

func TestService_WidgetSearch(t *testing.T) {
	t.Run("Caps the limit and stays global", func(t *testing.T) {
		g, s, svc := newTestService()
		g.On("SearchGlobalProducts", mock.Anything, mock.MatchedBy(func(p catalog.SearchParams) bool {
			return p.Limit == WidgetLimit && p.Query == "mug"
		})).Return(&catalog.SearchResult{
			Offers:       []product.GlobalRawProduct{offer("g1", true)},
			Instructions: "link to the store",
		}, nil)

		res, err := svc.WidgetSearch(context.Background(), Request{Query: "mug", Scope: "shop", Limit: 500})

		require.NoError(t, err)
		assert.Equal(t, 1, res.Count)
		assert.Equal(t, "link to the store", res.Instructions)
		g.AssertExpectations(t)
		s.AssertNotCalled(t, "SearchProducts", mock.Anything, mock.Anything)
	})

	t.Run("Default limit", func(t *testing.T) {
		g, _, svc := newTestService()
		g.On("SearchGlobalProducts", mock.Anything, mock.MatchedBy(func(p catalog.SearchParams) bool {
			return p.Limit == DefaultLimit
		})).Return(&catalog.SearchResult{}, nil)

		res, err := svc.WidgetSearch(context.Background(), Request{Query: "mug"})

		require.NoError(t, err)
		assert.Equal(t, 0, res.Count)
		assert.NotNil(t, res.Products)
	})

	t.Run("Catalog failure yields an empty page", func(t *testing.T) {
		g, _, svc := newTestService()
		g.On("SearchGlobalProducts", mock.Anything, mock.Anything).Return(nil, apperror.Parse("catalog.call", errors.New("bad json")))

		res, err := svc.WidgetSearch(context.Background(), Request{Query: "mug"})

		require.NoError(t, err)
		assert.Equal(t, 0, res.Count)
		assert.Empty(t, res.Products)
	})

	t.Run("Blank query", func(t *testing.T) {
		_, _, svc := newTestService()

		_, err := svc.WidgetSearch(context.Background(), Request{Query: " "})

		assert.True(t, errors.Is(err, apperror.ErrValidation))
	})
}

func TestService_GetProductDetails(t *testing.T) {
	apparel := &product.Product{
		ID:               "gid://shopify/Product/7",
		Scope:            product.ScopeShop,
		AvailableForSale: true,
		Variants: []product.Variant{
			{ID: "red-s", Options: []product.OptionSelection{{Name: "color", Value: "red"}, {Name: "size", Value: "S"}}},
			{ID: "red-m", Options: []product.OptionSelection{{Name: "color", Value: "red"}, {Name: "size", Value: "M"}}},
			{ID: "blue-s", Options: []product.OptionSelection{{Name: "color", Value: "blue"}, {Name: "size", Value: "S"}}},
		},
	}

	t.Run("Global is the default scope", func(t *testing.T) {
		g, s, svc := newTestService()
		g.On("GetGlobalProductDetails", mock.Anything, "gid://shopify/p/ABC", []product.OptionFilter(nil)).
			Return(&product.GlobalRawProduct{ID: "ABC", Title: "Kettle"}, nil)

		p, err := svc.GetProductDetails(context.Background(), DetailRequest{ID: "gid://shopify/p/ABC"})

		require.NoError(t, err)
		assert.Equal(t, "Kettle", p.Title)
		assert.Equal(t, product.ScopeGlobal, p.Scope)
		s.AssertNotCalled(t, "ProductDetails", mock.Anything, mock.Anything)
	})

	t.Run("Global options are forwarded", func(t *testing.T) {
		g, _, svc := newTestService()
		opts := []product.OptionFilter{{Key: "Color", Values: []string{"Red"}}}
		g.On("GetGlobalProductDetails", mock.Anything, "ABC", opts).Return(&product.GlobalRawProduct{ID: "ABC"}, nil)

		_, err := svc.GetProductDetails(context.Background(), DetailRequest{ID: "ABC", Scope: "global", Options: opts})

		require.NoError(t, err)
		g.AssertExpectations(t)
	})

	t.Run("Shop options select a variant", func(t *testing.T) {
		_, s, svc := newTestService()
		s.On("ProductDetails", mock.Anything, apparel.ID).Return(apparel, nil)

		p, err := svc.GetProductDetails(context.Background(), DetailRequest{
			ID:      apparel.ID,
			Scope:   "shop",
			Options: []product.OptionFilter{{Key: "color", Values: []string{"red"}}},
		})

		require.NoError(t, err)
		require.NotNil(t, p.SelectedVariant)
		assert.Equal(t, "red-s", p.SelectedVariant.ID)
		assert.Equal(t, product.SelectionMatch, p.SelectedVariant.SelectionState.Type)
		assert.Nil(t, apparel.SelectedVariant)
	})

	t.Run("Shop options without a match", func(t *testing.T) {
		_, s, svc := newTestService()
		s.On("ProductDetails", mock.Anything, apparel.ID).Return(apparel, nil)

		p, err := svc.GetProductDetails(context.Background(), DetailRequest{
			ID:      apparel.ID,
			Scope:   "shop",
			Options: []product.OptionFilter{{Key: "color", Values: []string{"green"}}},
		})

		require.NoError(t, err)
		assert.Nil(t, p.SelectedVariant)
		assert.True(t, p.AvailableForSale)
	})

	t.Run("Not found propagates", func(t *testing.T) {
		_, s, svc := newTestService()
		s.On("ProductDetails", mock.Anything, "gid://shopify/Product/404").
			Return(nil, apperror.NotFound("shop.getProduct", "gid://shopify/Product/404"))

		_, err := svc.GetProductDetails(context.Background(), DetailRequest{ID: "gid://shopify/Product/404", Scope: "shop"})

		assert.True(t, errors.Is(err, apperror.ErrNotFound))
	})

	t.Run("Upstream failure propagates", func(t *testing.T) {
		g, _, svc := newTestService()
		g.On("GetGlobalProductDetails", mock.Anything, "ABC", mock.Anything).
			Return(nil, apperror.UpstreamRequest("catalog.call", http.StatusBadGateway, "", nil))

		_, err := svc.GetProductDetails(context.Background(), DetailRequest{ID: "ABC"})

		assert.True(t, errors.Is(err, apperror.ErrUpstreamRequest))
	})

	t.Run("Validation", func(t *testing.T) {
		tests := map[string]DetailRequest{
			"Missing id":      {},
			"Unknown scope":   {ID: "ABC", Scope: "both"},
			"Option w/o key":  {ID: "ABC", Options: []product.OptionFilter{{Values: []string{"red"}}}},
			"Option w/o vals": {ID: "ABC", Options: []product.OptionFilter{{Key: "color"}}},
		}
		for name, req := range tests {
			t.Run(name, func(t *testing.T) {
				_, _, svc := newTestService()
				_, err := svc.GetProductDetails(context.Background(), req)
				assert.True(t, errors.Is(err, apperror.ErrValidation), "got %v", err)
			})
		}
	})
}

func TestMerge(t *testing.T) {
	global := []product.Product{shopProduct("g1", false), shopProduct("g2", true), shopProduct("g3", false)}
	tenant := []product.Product{shopProduct("s1", false), shopProduct("s2", true)}

	combined := merge(global, tenant)

	assert.Equal(t, []string{"g2", "s2", "g1", "g3", "s1"}, ids(combined))
	assert.Equal(t, []string{"g1", "g2", "g3"}, ids(global))
	assert.Empty(t, merge(nil, nil))
}
