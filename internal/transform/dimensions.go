// Package transform turns typed staging records into warehouse rows: the
// dimension tables and the item, payment and order facts.
package transform

import (
	"github.com/samber/lo"

	"github.com/Mickjrp/E-Commerce-Analytics/internal/records"
	"github.com/Mickjrp/E-Commerce-Analytics/internal/warehouse"
)

// Products left-joins products to the category translation. Categories
// without a translation keep their source name and get a nil English name.
func Products(products []records.Product, translations []records.CategoryTranslation) []warehouse.Product {
	// first translation per category wins
	english := make(map[string]*string, len(translations))
	for _, t := range translations {
		if _, ok := english[t.CategoryName]; !ok {
			english[t.CategoryName] = t.CategoryNameEnglish
		}
	}

	return lo.Map(products, func(p records.Product, _ int) warehouse.Product {
		var en *string
		if p.CategoryName != nil {
			en = english[*p.CategoryName]
		}
		return warehouse.Product{
			ProductID:    p.ProductID,
			CategoryName: p.CategoryName,
			CategoryEN:   en,
			WeightG:      p.WeightG,
			LengthCm:     p.LengthCm,
			HeightCm:     p.HeightCm,
			WidthCm:      p.WidthCm,
		}
	})
}

// Sellers projects seller records onto the sellers dimension.
func Sellers(sellers []records.Seller) []warehouse.Seller {
	return lo.Map(sellers, func(s records.Seller, _ int) warehouse.Seller {
		return warehouse.Seller{
			SellerID:  s.SellerID,
			ZipPrefix: s.ZipPrefix,
			City:      s.City,
			State:     s.State,
		}
	})
}

// GeoLookup reduces geolocation rows to one row per postal-code prefix,
// keeping the first row seen for each prefix. Rows without a prefix are
// dropped since they can never match.
func GeoLookup(geos []records.Geolocation) map[int64]records.Geolocation {
	withPrefix := lo.Filter(geos, func(g records.Geolocation, _ int) bool { return g.ZipPrefix != nil })
	unique := lo.UniqBy(withPrefix, func(g records.Geolocation) int64 { return *g.ZipPrefix })
	return lo.KeyBy(unique, func(g records.Geolocation) int64 { return *g.ZipPrefix })
}

// Customers left-joins customers to the deduplicated geolocation lookup.
// Every customer is kept exactly once; geo fields are nil on a miss.
func Customers(customers []records.Customer, geos []records.Geolocation) []warehouse.Customer {
	lookup := GeoLookup(geos)
	return lo.Map(customers, func(c records.Customer, _ int) warehouse.Customer {
		row := warehouse.Customer{
			CustomerID:       c.CustomerID,
			CustomerUniqueID: c.CustomerUniqueID,
			ZipPrefix:        c.ZipPrefix,
			City:             c.City,
			State:            c.State,
		}
		if c.ZipPrefix != nil {
			if g, ok := lookup[*c.ZipPrefix]; ok {
				row.GeoCity = g.City
				row.GeoState = g.State
			}
		}
		return row
	})
}
