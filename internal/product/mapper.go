package product

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FromGlobal maps a catalog offer into the canonical model. It never fails:
// absent fields become empty values.
func FromGlobal(raw GlobalRawProduct) Product {
	var listing *GlobalRawListing
	if len(raw.Products) > 0 {
		listing = &raw.Products[0]
	}

	p := Product{
		ID:          raw.ID,
		Title:       raw.Title,
		Description: raw.Description,
		Tags:        []string{},
		Scope:       ScopeGlobal,
		Extended: &Extended{
			UniqueSellingPoint: raw.UniqueSellingPoint,
			TopFeatures:        nonNilStrings(raw.TopFeatures),
			TechSpecs:          nonNilStrings(raw.TechSpecs),
			Attributes:         mapAttributes(raw.SharedAttributes),
		},
	}

	if listing != nil {
		if p.ID == "" {
			p.ID = listing.ID
		}
		if p.Title == "" {
			p.Title = listing.Title
		}
		if p.Description == "" {
			p.Description = listing.Description
		}
		p.OnlineStoreURL = listing.OnlineStoreURL
	}
	if p.OnlineStoreURL == "" {
		p.OnlineStoreURL = raw.LookupURL
	}

	rawImages := raw.Images
	if len(rawImages) == 0 {
		rawImages = raw.Media
	}
	p.Images = mapImages(rawImages, p.Title, nil)
	p.Shop = globalShop(listing, rawImages)

	if listing != nil && listing.FeaturedImage != nil {
		p.FeaturedImage = mapImage(*listing.FeaturedImage, p.Title, nil)
	} else if len(p.Images) > 0 {
		first := p.Images[0]
		p.FeaturedImage = &first
	}

	p.PriceRange = PriceRange{
		Min: normalizeMoney(raw.PriceRange.Min.RawMoney, ""),
		Max: normalizeMoney(raw.PriceRange.Max.RawMoney, ""),
	}
	if raw.PriceRange.Min.Amount == "" && raw.PriceRange.Max.Amount == "" && listing != nil {
		price := normalizeMoney(listing.Price.RawMoney, "")
		p.PriceRange = PriceRange{Min: price, Max: price}
	}

	rawVariants := raw.Variants
	if len(rawVariants) == 0 && listing != nil {
		rawVariants = listing.Variants
		if len(rawVariants) == 0 && listing.SelectedProductVariant != nil {
			rawVariants = []RawVariant{*listing.SelectedProductVariant}
		}
	}
	p.Variants = mapVariants(rawVariants, p.Title)

	p.Options = make([]Option, 0, len(raw.Options))
	for _, o := range raw.Options {
		values := make([]OptionValue, 0, len(o.Values))
		for _, v := range o.Values {
			values = append(values, OptionValue{
				Value:            v.Value,
				AvailableForSale: boolOr(v.AvailableForSale, true),
				Exists:           boolOr(v.Exists, true),
			})
		}
		p.Options = append(p.Options, Option{Name: o.Name, Values: values})
	}

	if listing != nil && listing.SelectedProductVariant != nil {
		p.SelectedVariant = &SelectedVariant{
			Variant: mapVariant(*listing.SelectedProductVariant, p.Title),
		}
	}

	explicit := raw.AvailableForSale
	if explicit == nil && listing != nil {
		explicit = listing.AvailableForSale
	}
	p.AvailableForSale = boolOr(explicit, true)
	if len(p.Variants) > 0 && !anyAvailable(p.Variants) {
		p.AvailableForSale = false
	}

	return p
}

// FromTenant maps a flattened shop product into the canonical model. Every
// image and the product itself are stamped with the owning shop.
func FromTenant(raw TenantRawProduct, shopName string) Product {
	shop := Shop{Name: shopName}
	if shopName != "" {
		shop.StoreURL = "https://" + shopName
	}

	p := Product{
		ID:             raw.ID,
		Title:          raw.Title,
		Description:    raw.Description,
		Handle:         raw.Handle,
		OnlineStoreURL: raw.OnlineStoreURL,
		Tags:           nonNilStrings(raw.Tags),
		Scope:          ScopeShop,
		Shop:           shop,
	}

	p.Images = mapImages(raw.Images, p.Title, &shop)
	if raw.FeaturedImage != nil {
		p.FeaturedImage = mapImage(*raw.FeaturedImage, p.Title, &shop)
	}

	currency := firstNonEmpty(
		raw.PriceRange.MinVariantPrice.CurrencyCode,
		raw.PriceRange.MaxVariantPrice.CurrencyCode,
	)

	p.Variants = mapVariants(raw.Variants, p.Title)
	p.PriceRange = tenantPriceRange(raw.PriceRange, p.Variants, currency)

	p.Options = make([]Option, 0, len(raw.Options))
	for _, o := range raw.Options {
		values := make([]OptionValue, 0, len(o.Values))
		for _, v := range o.Values {
			values = append(values, OptionValue{Value: v, AvailableForSale: true, Exists: true})
		}
		p.Options = append(p.Options, Option{Name: o.Name, Values: values})
	}

	p.AvailableForSale = anyAvailable(p.Variants)
	return p
}

// tenantPriceRange uses the upstream min/max variant price and falls back to
// the variants themselves when the range is missing.
func tenantPriceRange(r TenantPriceRange, variants []Variant, currency string) PriceRange {
	if r.MinVariantPrice.Amount != "" || r.MaxVariantPrice.Amount != "" || len(variants) == 0 {
		return PriceRange{
			Min: normalizeMoney(r.MinVariantPrice, currency),
			Max: normalizeMoney(r.MaxVariantPrice, currency),
		}
	}

	lo := Money{Amount: variants[0].Price}.Decimal()
	hi := lo
	for _, v := range variants[1:] {
		d := Money{Amount: v.Price}.Decimal()
		if d.LessThan(lo) {
			lo = d
		}
		if d.GreaterThan(hi) {
			hi = d
		}
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return PriceRange{
		Min: Money{Amount: formatAmount(lo), CurrencyCode: currency},
		Max: Money{Amount: formatAmount(hi), CurrencyCode: currency},
	}
}

func globalShop(listing *GlobalRawListing, images []RawImage) Shop {
	if listing != nil && listing.Shop != nil {
		return Shop{Name: listing.Shop.Name, StoreURL: listing.Shop.OnlineStoreURL}
	}
	for _, img := range images {
		if img.Product != nil && img.Product.Shop != nil {
			return Shop{Name: img.Product.Shop.Name, StoreURL: img.Product.Shop.OnlineStoreURL}
		}
	}
	return Shop{}
}

func mapImages(raw []RawImage, title string, shop *Shop) []Image {
	images := make([]Image, 0, len(raw))
	for _, r := range raw {
		images = append(images, *mapImage(r, title, shop))
	}
	return images
}

func mapImage(r RawImage, title string, shop *Shop) *Image {
	img := &Image{URL: r.URL, AltText: r.AltText}
	if img.AltText == "" {
		img.AltText = title
	}
	switch {
	case shop != nil:
		s := *shop
		img.Shop = &s
	case r.Product != nil && r.Product.Shop != nil:
		img.Shop = &Shop{Name: r.Product.Shop.Name, StoreURL: r.Product.Shop.OnlineStoreURL}
	}
	return img
}

func mapVariants(raw []RawVariant, title string) []Variant {
	variants := make([]Variant, 0, len(raw))
	for _, r := range raw {
		variants = append(variants, mapVariant(r, title))
	}
	return variants
}

func mapVariant(r RawVariant, title string) Variant {
	v := Variant{
		ID:               r.ID,
		Title:            firstNonEmpty(r.Title, r.DisplayName),
		Price:            normalizeAmount(r.Price.Amount),
		AvailableForSale: boolOr(r.AvailableForSale, true),
	}

	opts := r.SelectedOptions
	if len(opts) == 0 {
		opts = r.Options
	}
	v.Options = make([]OptionSelection, 0, len(opts))
	for _, o := range opts {
		v.Options = append(v.Options, OptionSelection{Name: o.Name, Value: o.Value})
	}

	switch {
	case r.Image != nil:
		v.Image = mapImage(*r.Image, title, nil)
	case len(r.Media) > 0:
		v.Image = mapImage(r.Media[0], title, nil)
	}
	return v
}

func mapAttributes(raw []RawAttribute) []Attribute {
	attrs := make([]Attribute, 0, len(raw))
	for _, a := range raw {
		attrs = append(attrs, Attribute{Name: a.Name, Values: nonNilStrings(a.Values)})
	}
	return attrs
}

func normalizeMoney(m RawMoney, fallbackCurrency string) Money {
	return Money{
		Amount:       normalizeAmount(m.Amount),
		CurrencyCode: firstNonEmpty(m.CurrencyCode, m.Currency, fallbackCurrency, DefaultCurrency),
	}
}

// normalizeAmount coerces an upstream amount to a non-negative decimal string
// with at least two fractional digits. Malformed or negative input gives 0.00.
func normalizeAmount(a RawAmount) string {
	d, err := decimal.NewFromString(strings.TrimSpace(string(a)))
	if err != nil || d.IsNegative() {
		return formatAmount(decimal.Zero)
	}
	return formatAmount(d)
}

func formatAmount(d decimal.Decimal) string {
	if d.Exponent() < -2 {
		return d.String()
	}
	return d.StringFixed(2)
}

func anyAvailable(variants []Variant) bool {
	for _, v := range variants {
		if v.AvailableForSale {
			return true
		}
	}
	return false
}

func boolOr(b *bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return *b
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
