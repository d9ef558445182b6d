package offers

import "github.com/retailgenie/orchestrator/internal/catalog"

// Offer is a static promotion row.
type Offer struct {
	Code        string  `json:"code"`
	Category    string  `json:"category"`
	Discount    float64 `json:"discount"`
	Description string  `json:"description"`
}

// table holds the active promotions. A category of "all" applies to every
// product set.
var table = []Offer{
	{Code: "JEANS10", Category: "jeans", Discount: 10, Description: "10% off on all jeans"},
	{Code: "NEWUSER50", Category: "all", Discount: 50, Description: "Flat ₹50 off for new users"},
}

// All returns every active offer.
func All() []Offer {
	out := make([]Offer, len(table))
	copy(out, table)
	return out
}

// Applicable filters the offer table to promotions whose category is "all"
// or overlaps the given product set. An empty product set only matches the
// universal offers.
func Applicable(products []catalog.Product) []Offer {
	var matched []Offer
	for _, o := range table {
		if o.Category == "all" {
			matched = append(matched, o)
			continue
		}
		for _, p := range products {
			if p.Category == o.Category {
				matched = append(matched, o)
				break
			}
		}
	}
	return matched
}
