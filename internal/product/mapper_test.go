package product

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestFromGlobal(t *testing.T) {
	t.Run("Full offer", func(t *testing.T) {
		doc := `{
			"id": "gid://shopify/p/ABC123",
			"title": "Trail Runner",
			"description": "Light shoe",
			"images": [{"url": "https://cdn/1.jpg", "altText": "", "product": {"shop": {"name": "Acme", "onlineStoreUrl": "https://acme.example"}}}],
			"options": [{"name": "Size", "values": [{"value": "9", "availableForSale": false, "exists": true}, "10"]}],
			"priceRange": {"min": {"amount": "89.5", "currencyCode": "CAD"}, "max": {"amount": 120, "currency": "CAD"}},
			"products": [{
				"id": "gid://shopify/Product/1",
				"onlineStoreUrl": "https://acme.example/products/trail",
				"shop": {"name": "Acme", "onlineStoreUrl": "https://acme.example"},
				"selectedProductVariant": {"id": "v1", "price": {"amount": "89.50", "currency": "CAD"}, "availableForSale": true, "options": [{"name": "Size", "value": "10"}]}
			}],
			"availableForSale": true,
			"uniqueSellingPoint": "Grippy",
			"topFeatures": ["Vibram sole"],
			"techSpecs": ["Drop: 6mm"],
			"sharedAttributes": [{"name": "Material", "values": ["Mesh"]}]
		}`

		var raw GlobalRawProduct
		require.NoError(t, json.Unmarshal([]byte(doc), &raw))

		p := FromGlobal(raw)

		assert.Equal(t, ScopeGlobal, p.Scope)
		assert.Equal(t, "gid://shopify/p/ABC123", p.ID)
		assert.Equal(t, "Trail Runner", p.Title)
		assert.Equal(t, Money{Amount: "89.50", CurrencyCode: "CAD"}, p.PriceRange.Min)
		assert.Equal(t, Money{Amount: "120.00", CurrencyCode: "CAD"}, p.PriceRange.Max)
		assert.True(t, p.AvailableForSale)
		assert.Equal(t, Shop{Name: "Acme", StoreURL: "https://acme.example"}, p.Shop)
		assert.Equal(t, "https://acme.example/products/trail", p.OnlineStoreURL)

		require.Len(t, p.Images, 1)
		assert.Equal(t, "Trail Runner", p.Images[0].AltText)
		require.NotNil(t, p.Images[0].Shop)
		assert.Equal(t, "Acme", p.Images[0].Shop.Name)
		require.NotNil(t, p.FeaturedImage)

		require.Len(t, p.Options, 1)
		assert.Equal(t, []OptionValue{
			{Value: "9", AvailableForSale: false, Exists: true},
			{Value: "10", AvailableForSale: true, Exists: true},
		}, p.Options[0].Values)

		require.Len(t, p.Variants, 1)
		assert.Equal(t, "89.50", p.Variants[0].Price)
		require.NotNil(t, p.SelectedVariant)
		assert.Equal(t, "v1", p.SelectedVariant.ID)
		assert.Nil(t, p.SelectedVariant.SelectionState)

		require.NotNil(t, p.Extended)
		assert.Equal(t, "Grippy", p.Extended.UniqueSellingPoint)
		assert.Equal(t, []string{"Vibram sole"}, p.Extended.TopFeatures)
		assert.Equal(t, []string{"Drop: 6mm"}, p.Extended.TechSpecs)
		assert.Equal(t, []Attribute{{Name: "Material", Values: []string{"Mesh"}}}, p.Extended.Attributes)
	})

	t.Run("Empty document", func(t *testing.T) {
		p := FromGlobal(GlobalRawProduct{})

		assert.Equal(t, ScopeGlobal, p.Scope)
		assert.Equal(t, Money{Amount: "0.00", CurrencyCode: "USD"}, p.PriceRange.Min)
		assert.Equal(t, Money{Amount: "0.00", CurrencyCode: "USD"}, p.PriceRange.Max)
		assert.True(t, p.AvailableForSale)
		assert.NotNil(t, p.Images)
		assert.NotNil(t, p.Variants)
		assert.NotNil(t, p.Options)
		assert.NotNil(t, p.Tags)
		assert.Nil(t, p.FeaturedImage)
		assert.Nil(t, p.SelectedVariant)
		require.NotNil(t, p.Extended)
		assert.NotNil(t, p.Extended.TopFeatures)
	})

	t.Run("Explicitly unavailable", func(t *testing.T) {
		p := FromGlobal(GlobalRawProduct{AvailableForSale: boolPtr(false)})
		assert.False(t, p.AvailableForSale)
	})

	t.Run("No available variant", func(t *testing.T) {
		p := FromGlobal(GlobalRawProduct{
			AvailableForSale: boolPtr(true),
			Variants: []RawVariant{
				{ID: "a", AvailableForSale: boolPtr(false)},
				{ID: "b", AvailableForSale: boolPtr(false)},
			},
		})
		assert.False(t, p.AvailableForSale)
	})

	t.Run("Listing price fallback", func(t *testing.T) {
		var raw GlobalRawProduct
		require.NoError(t, json.Unmarshal([]byte(`{"products":[{"title":"Mug","price":{"amount":"12","currencyCode":"EUR"}}]}`), &raw))

		p := FromGlobal(raw)
		assert.Equal(t, "Mug", p.Title)
		assert.Equal(t, Money{Amount: "12.00", CurrencyCode: "EUR"}, p.PriceRange.Min)
		assert.Equal(t, p.PriceRange.Min, p.PriceRange.Max)
	})
}

func TestFromTenant(t *testing.T) {
	t.Run("Full product", func(t *testing.T) {
		raw := TenantRawProduct{
			ID:            "gid://shopify/Product/42",
			Title:         "Hoodie",
			Handle:        "hoodie",
			FeaturedImage: &RawImage{URL: "https://cdn/f.jpg"},
			Images:        []RawImage{{URL: "https://cdn/1.jpg", AltText: "front"}, {URL: "https://cdn/2.jpg"}},
			PriceRange: TenantPriceRange{
				MinVariantPrice: RawMoney{Amount: "40.0", CurrencyCode: "GBP"},
				MaxVariantPrice: RawMoney{Amount: "55", CurrencyCode: "GBP"},
			},
			Variants: []RawVariant{
				{ID: "v1", Title: "S", Price: RawPrice{RawMoney{Amount: "40"}}, AvailableForSale: boolPtr(false), SelectedOptions: []RawSelectedOption{{Name: "Size", Value: "S"}}},
				{ID: "v2", Title: "M", Price: RawPrice{RawMoney{Amount: "55"}}, AvailableForSale: boolPtr(true), SelectedOptions: []RawSelectedOption{{Name: "Size", Value: "M"}}},
			},
			Options: []TenantRawOption{{Name: "Size", Values: []string{"S", "M"}}},
			Tags:    []string{"winter"},
		}

		p := FromTenant(raw, "acme.myshopify.com")

		assert.Equal(t, ScopeShop, p.Scope)
		assert.Equal(t, Shop{Name: "acme.myshopify.com", StoreURL: "https://acme.myshopify.com"}, p.Shop)
		assert.Equal(t, Money{Amount: "40.00", CurrencyCode: "GBP"}, p.PriceRange.Min)
		assert.Equal(t, Money{Amount: "55.00", CurrencyCode: "GBP"}, p.PriceRange.Max)
		assert.True(t, p.AvailableForSale)
		assert.Equal(t, []string{"winter"}, p.Tags)
		assert.Nil(t, p.Extended)

		require.Len(t, p.Images, 2)
		for _, img := range p.Images {
			require.NotNil(t, img.Shop)
			assert.Equal(t, "acme.myshopify.com", img.Shop.Name)
		}
		assert.Equal(t, "front", p.Images[0].AltText)
		assert.Equal(t, "Hoodie", p.Images[1].AltText)
		require.NotNil(t, p.FeaturedImage)
		assert.Equal(t, "Hoodie", p.FeaturedImage.AltText)

		require.Len(t, p.Variants, 2)
		assert.Equal(t, []OptionSelection{{Name: "Size", Value: "S"}}, p.Variants[0].Options)
		assert.Equal(t, "40.00", p.Variants[0].Price)

		require.Len(t, p.Options, 1)
		for _, v := range p.Options[0].Values {
			assert.True(t, v.AvailableForSale)
			assert.True(t, v.Exists)
		}
	})

	t.Run("No available variants", func(t *testing.T) {
		p := FromTenant(TenantRawProduct{
			Variants: []RawVariant{{ID: "v1", AvailableForSale: boolPtr(false)}},
		}, "acme.myshopify.com")
		assert.False(t, p.AvailableForSale)
	})

	t.Run("Price range rebuilt from variants", func(t *testing.T) {
		p := FromTenant(TenantRawProduct{
			Variants: []RawVariant{
				{ID: "a", Price: RawPrice{RawMoney{Amount: "19.99"}}},
				{ID: "b", Price: RawPrice{RawMoney{Amount: "5"}}},
				{ID: "c", Price: RawPrice{RawMoney{Amount: "not-a-price"}}},
			},
		}, "acme.myshopify.com")

		assert.Equal(t, Money{Amount: "0.00", CurrencyCode: "USD"}, p.PriceRange.Min)
		assert.Equal(t, Money{Amount: "19.99", CurrencyCode: "USD"}, p.PriceRange.Max)
	})

	t.Run("Empty document", func(t *testing.T) {
		p := FromTenant(TenantRawProduct{}, "")

		assert.Equal(t, ScopeShop, p.Scope)
		assert.Equal(t, Shop{}, p.Shop)
		assert.Equal(t, Money{Amount: "0.00", CurrencyCode: "USD"}, p.PriceRange.Min)
		assert.False(t, p.AvailableForSale)
		assert.NotNil(t, p.Images)
		assert.NotNil(t, p.Tags)
		assert.NotNil(t, p.Variants)
		assert.NotNil(t, p.Options)
	})
}

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		in   RawAmount
		want string
	}{
		{"", "0.00"},
		{"abc", "0.00"},
		{"-3", "0.00"},
		{"7", "7.00"},
		{" 7.5 ", "7.50"},
		{"0.125", "0.125"},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeAmount(tt.in))
		})
	}
}

func TestRawAmount_Lenient(t *testing.T) {
	var m struct {
		A RawAmount `json:"a"`
		B RawAmount `json:"b"`
		C RawAmount `json:"c"`
		D RawAmount `json:"d"`
	}
	err := json.Unmarshal([]byte(`{"a":"1.5","b":2,"c":{"nested":true},"d":null}`), &m)

	require.NoError(t, err)
	assert.Equal(t, RawAmount("1.5"), m.A)
	assert.Equal(t, RawAmount("2"), m.B)
	assert.Equal(t, RawAmount(""), m.C)
	assert.Equal(t, RawAmount(""), m.D)
}

func TestRawPrice_Shapes(t *testing.T) {
	var v struct {
		Obj  RawPrice `json:"obj"`
		Bare RawPrice `json:"bare"`
	}
	err := json.Unmarshal([]byte(`{"obj":{"amount":"3.10","currencyCode":"JPY"},"bare":"4.20"}`), &v)

	require.NoError(t, err)
	assert.Equal(t, RawAmount("3.10"), v.Obj.Amount)
	assert.Equal(t, "JPY", v.Obj.CurrencyCode)
	assert.Equal(t, RawAmount("4.20"), v.Bare.Amount)
}
