package taxonomy

import (
	"strings"

	"golang.org/x/text/cases"
)

// Target is the classification outcome for one imported row: the model the
// row is persisted into plus the normalized category labels written onto it.
type Target struct {
	Model       string
	Category    string
	SubCategory string
}

// Universal fallback bucket. Rows with unknown or missing categorization
// always land here, so classification is total.
const (
	UniversalCategory    = "ClientUniversal"
	UniversalSubCategory = "ClientAll"
)

var universal = Target{
	Model:       "ClientUniversal",
	Category:    UniversalCategory,
	SubCategory: UniversalSubCategory,
}

var fold = cases.Fold()

// key folds a label for table lookup. Unicode case folding keeps imported
// labels from mixed-case spreadsheets stable.
func key(s string) string {
	return fold.String(strings.TrimSpace(s))
}

// decision table: category -> sub-category -> target. Kept exactly as the
// deployed behavior, including combinations that fall through to the
// universal bucket; treat it as a compatibility contract, not a design to
// optimize.
var table = map[string]map[string]Target{
	"apartment": {
		"all":        {Model: "Apartment", Category: "Apartment", SubCategory: "all"},
		"sale":       {Model: "ApartmentBuyer", Category: "Apartment", SubCategory: "sale"},
		"owner":      {Model: "Apartment", Category: "Apartment", SubCategory: "owner"},
		"client":     {Model: "ApartmentClient", Category: "Apartment", SubCategory: "client"},
		"vip":        {Model: "ApartmentVIP", Category: "Apartment", SubCategory: "vip"},
		"vip-client": {Model: "ApartmentVIP", Category: "Apartment", SubCategory: "vip-client"},
		"visit":      {Model: "ApartmentVisit", Category: "Apartment", SubCategory: "visit"},
	},
	"land": {
		"all":        {Model: "Land", Category: "Land", SubCategory: "all"},
		"sale":       {Model: "LandBuyer", Category: "Land", SubCategory: "sale"},
		"owner":      {Model: "Land", Category: "Land", SubCategory: "owner"},
		"client":     {Model: "LandClient", Category: "Land", SubCategory: "client"},
		"vip-client": {Model: "LandVIP", Category: "Land", SubCategory: "vip-client"},
		"visit":      {Model: "LandVisit", Category: "Land", SubCategory: "visit"},
	},
	"shop": {
		"all":    {Model: "Shop", Category: "Shop", SubCategory: "all"},
		"sale":   {Model: "ShopBuyer", Category: "Shop", SubCategory: "sale"},
		"owner":  {Model: "Shop", Category: "Shop", SubCategory: "owner"},
		"client": {Model: "ShopClient", Category: "Shop", SubCategory: "client"},
		"visit":  {Model: "ShopVisit", Category: "Shop", SubCategory: "visit"},
	},
	"commercial": {
		"all":    {Model: "Commercial", Category: "CommercialSpace", SubCategory: "all"},
		"sale":   {Model: "CommercialBuyer", Category: "CommercialSpace", SubCategory: "sale"},
		"owner":  {Model: "Commercial", Category: "CommercialSpace", SubCategory: "owner"},
		"client": {Model: "CommercialClient", Category: "CommercialSpace", SubCategory: "client"},
		"visit":  {Model: "CommercialVisit", Category: "CommercialSpace", SubCategory: "visit"},
	},
	"jointventure": {
		"all":            {Model: "JointVenture", Category: "JointVenture", SubCategory: "all"},
		"owner":          {Model: "JointVenture", Category: "JointVenture", SubCategory: "owner"},
		"owner-proposal": {Model: "JointVenture", Category: "JointVenture", SubCategory: "owner-proposal"},
		"visit":          {Model: "JointVenture", Category: "JointVenture", SubCategory: "visit"},
	},
	"investor": {
		"all": {Model: "Investor", Category: "Investor", SubCategory: "all"},
	},
	"client": {
		"all": {Model: "ClientUniversal", Category: UniversalCategory, SubCategory: "ClientAll"},
		"vip": {Model: "ClientUniversal", Category: UniversalCategory, SubCategory: "ClientVIP"},
	},
}

// categoryAliases map alternate spellings onto table keys.
var categoryAliases = map[string]string{
	"commercialspace": "commercial",
	"joint venture":   "jointventure",
	"clientuniversal": "client",
}

// Classify maps a (category, subCategory) pair to exactly one target. The
// mapping is total: unrecognized pairs return the universal bucket.
func Classify(category, subCategory string) Target {
	c := key(category)
	if alias, ok := categoryAliases[c]; ok {
		c = alias
	}
	subs, ok := table[c]
	if !ok {
		return universal
	}
	t, ok := subs[key(subCategory)]
	if !ok {
		return universal
	}
	return t
}

// Label renders the human-readable breakdown label for a classified target.
// The universal bucket is labeled "Client-Universal" with no sub-category
// suffix; "CommercialSpace" keeps its historical short label.
func Label(t Target) string {
	cat := t.Category
	switch strings.ToLower(cat) {
	case "clientuniversal":
		return "Client-Universal"
	case "commercialspace":
		cat = "Commercial"
	}
	return cat + "-" + t.SubCategory
}
