package product

import "slices"

const SelectionMatch = "match"

// OptionFilter constrains one option to a set of permitted values.
type OptionFilter struct {
	Key    string   `json:"key" validate:"required"`
	Values []string `json:"values" validate:"required,min=1"`
}

// SelectionState records how a variant was chosen.
type SelectionState struct {
	Type             string         `json:"type"`
	RequestedFilters []OptionFilter `json:"requestedFilters"`
}

// SelectVariant returns the first variant, in product order, that satisfies
// every filter. Options the filters do not mention are ignored.
func SelectVariant(p Product, filters []OptionFilter) (*SelectedVariant, bool) {
	if len(filters) == 0 {
		return nil, false
	}

	for _, v := range p.Variants {
		if !satisfies(v, filters) {
			continue
		}
		return &SelectedVariant{
			Variant: v,
			SelectionState: &SelectionState{
				Type:             SelectionMatch,
				RequestedFilters: slices.Clone(filters),
			},
		}, true
	}
	return nil, false
}

// WithSelection returns a copy of p carrying the matched variant. When nothing
// matches p is returned unchanged.
func WithSelection(p Product, filters []OptionFilter) Product {
	if sel, ok := SelectVariant(p, filters); ok {
		p.SelectedVariant = sel
	}
	return p
}

func satisfies(v Variant, filters []OptionFilter) bool {
	for _, f := range filters {
		idx := slices.IndexFunc(v.Options, func(o OptionSelection) bool {
			return o.Name == f.Key
		})
		if idx < 0 || !slices.Contains(f.Values, v.Options[idx].Value) {
			return false
		}
	}
	return true
}
