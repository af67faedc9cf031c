// Package seed generates synthetic staging documents shaped like the Olist
// marketplace exports. Output is fully determined by Options.Seed.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Mickjrp/E-Commerce-Analytics/internal/staging"
)

// ── Word pools ──

var cities = []struct{ city, state string }{
	{"sao paulo", "SP"}, {"campinas", "SP"}, {"santos", "SP"}, {"rio de janeiro", "RJ"},
	{"niteroi", "RJ"}, {"belo horizonte", "MG"}, {"uberlandia", "MG"}, {"curitiba", "PR"},
	{"londrina", "PR"}, {"porto alegre", "RS"}, {"florianopolis", "SC"}, {"salvador", "BA"},
	{"recife", "PE"}, {"fortaleza", "CE"}, {"brasilia", "DF"}, {"goiania", "GO"},
	{"manaus", "AM"}, {"belem", "PA"}, {"vitoria", "ES"}, {"natal", "RN"},
}

var categories = []struct{ name, english string }{
	{"cama_mesa_banho", "bed_bath_table"},
	{"beleza_saude", "health_beauty"},
	{"esporte_lazer", "sports_leisure"},
	{"moveis_decoracao", "furniture_decor"},
	{"informatica_acessorios", "computers_accessories"},
	{"utilidades_domesticas", "housewares"},
	{"relogios_presentes", "watches_gifts"},
	{"telefonia", "telephony"},
	{"ferramentas_jardim", "garden_tools"},
	{"automotivo", "auto"},
	{"brinquedos", "toys"},
	{"cool_stuff", "cool_stuff"},
}

// untranslatedCategories have no row in the translation collection.
var untranslatedCategories = []string{"pc_gamer", "portateis_cozinha_e_preparadores_de_alimentos"}

var paymentTypes = []string{"credit_card", "boleto", "voucher", "debit_card"}

// orderStatuses is weighted towards delivered, as in the real export.
var orderStatuses = []string{
	"delivered", "delivered", "delivered", "delivered", "delivered", "delivered",
	"delivered", "delivered", "shipped", "canceled", "invoiced", "processing",
	"unavailable", "created", "approved",
}

const timestampLayout = "2006-01-02 15:04:05"

// Options sizes the generated data set.
type Options struct {
	Customers int
	Sellers   int
	Products  int
	Orders    int
	Seed      int64
	// End is the latest purchase timestamp generated. Purchases spread over
	// the two years before it.
	End time.Time
}

// DefaultOptions returns a small data set suitable for local runs.
func DefaultOptions() Options {
	return Options{
		Customers: 500,
		Sellers:   40,
		Products:  200,
		Orders:    800,
		Seed:      1,
		End:       time.Date(2018, 9, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Collections maps a staging collection name to its documents.
type Collections map[string][]staging.Document

// Names returns the collection names in write order.
func (c Collections) Names() []string {
	return []string{
		staging.Customers, staging.Geolocation, staging.Sellers, staging.Products,
		staging.CategoryTranslation, staging.Orders, staging.Items, staging.Payments, staging.Reviews,
	}
}

// KeyField is the identifier indexed for each collection, empty when none.
func KeyField(collection string) string {
	switch collection {
	case staging.Customers:
		return "customer_id"
	case staging.Orders, staging.Items, staging.Payments, staging.Reviews:
		return "order_id"
	case staging.Products:
		return "product_id"
	case staging.Sellers:
		return "seller_id"
	case staging.Geolocation:
		return "geolocation_zip_code_prefix"
	default:
		return ""
	}
}

// generator tracks generated ids for cross-collection references.
type generator struct {
	opts Options
	rng  *rand.Rand

	zipPrefixes []int
	customerIDs []string
	sellerIDs   []string
	productIDs  []string
}

// Generate builds every staging collection.
func Generate(opts Options) Collections {
	g := &generator{opts: opts, rng: rand.New(rand.NewSource(opts.Seed))}

	out := Collections{}
	out[staging.Geolocation] = g.geolocation()
	out[staging.Customers] = g.customers()
	out[staging.Sellers] = g.sellers()
	out[staging.CategoryTranslation] = g.translations()
	out[staging.Products] = g.products()

	orders, items, payments, reviews := g.orders()
	out[staging.Orders] = orders
	out[staging.Items] = items
	out[staging.Payments] = payments
	out[staging.Reviews] = reviews
	return out
}

// ── Random helpers ──

func (g *generator) intn(n int) int {
	if n <= 0 {
		return 0
	}
	return g.rng.Intn(n)
}

func (g *generator) chance(p float64) bool {
	return g.rng.Float64() < p
}

func (g *generator) pick(pool []string) string {
	return pool[g.intn(len(pool))]
}

func (g *generator) price(min, max float64) float64 {
	return float64(int((min+g.rng.Float64()*(max-min))*100)) / 100
}

// id returns a 32 character hex identifier in the style of the export.
func (g *generator) id() string {
	u, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		panic(fmt.Sprintf("seed id: %v", err))
	}
	return strings.ReplaceAll(u.String(), "-", "")
}

func (g *generator) purchaseTime() time.Time {
	offset := time.Duration(g.intn(2*365*24*60)) * time.Minute
	return g.opts.End.Add(-offset)
}

func stamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// ── Collections ──

func (g *generator) geolocation() []staging.Document {
	var docs []staging.Document
	for i := range cities {
		prefix := 1000 + i*1000 + g.intn(900)
		g.zipPrefixes = append(g.zipPrefixes, prefix)
		// several coordinate rows per prefix, as the export reports them
		for n := 1 + g.intn(4); n > 0; n-- {
			docs = append(docs, staging.Document{
				"geolocation_zip_code_prefix": int32(prefix),
				"geolocation_lat":             -23.5 + g.rng.Float64(),
				"geolocation_lng":             -46.6 + g.rng.Float64(),
				"geolocation_city":            cities[i].city,
				"geolocation_state":           cities[i].state,
			})
		}
	}
	return docs
}

func (g *generator) zipPrefix() (int, string, string) {
	i := g.intn(len(g.zipPrefixes))
	// a prefix with no geolocation row
	if g.chance(0.05) {
		return 99000 + g.intn(900), cities[i].city, cities[i].state
	}
	return g.zipPrefixes[i], cities[i].city, cities[i].state
}

func (g *generator) customers() []staging.Document {
	docs := make([]staging.Document, 0, g.opts.Customers)
	var persons []string
	for i := 0; i < g.opts.Customers; i++ {
		// returning shoppers get a new customer_id per order but keep their unique id
		person := g.id()
		if len(persons) > 0 && g.chance(0.15) {
			person = persons[g.intn(len(persons))]
		} else {
			persons = append(persons, person)
		}

		prefix, city, state := g.zipPrefix()
		customerID := g.id()
		g.customerIDs = append(g.customerIDs, customerID)

		doc := staging.Document{
			"customer_id":              customerID,
			"customer_unique_id":       person,
			"customer_zip_code_prefix": int32(prefix),
			"customer_city":            city,
			"customer_state":           state,
		}
		// CSV imports sometimes keep the prefix as text
		if g.chance(0.1) {
			doc["customer_zip_code_prefix"] = fmt.Sprintf("%05d", prefix)
		}
		docs = append(docs, doc)
	}
	return docs
}

func (g *generator) sellers() []staging.Document {
	docs := make([]staging.Document, 0, g.opts.Sellers)
	for i := 0; i < g.opts.Sellers; i++ {
		prefix, city, state := g.zipPrefix()
		sellerID := g.id()
		g.sellerIDs = append(g.sellerIDs, sellerID)
		docs = append(docs, staging.Document{
			"seller_id":              sellerID,
			"seller_zip_code_prefix": int32(prefix),
			"seller_city":            city,
			"seller_state":           state,
		})
	}
	return docs
}

func (g *generator) translations() []staging.Document {
	docs := make([]staging.Document, 0, len(categories))
	for _, c := range categories {
		docs = append(docs, staging.Document{
			"product_category_name":         c.name,
			"product_category_name_english": c.english,
		})
	}
	return docs
}

func (g *generator) products() []staging.Document {
	docs := make([]staging.Document, 0, g.opts.Products)
	for i := 0; i < g.opts.Products; i++ {
		productID := g.id()
		g.productIDs = append(g.productIDs, productID)

		doc := staging.Document{
			"product_id":                 productID,
			"product_name_lenght":        float64(20 + g.intn(40)),
			"product_description_lenght": float64(100 + g.intn(2000)),
			"product_photos_qty":         float64(1 + g.intn(5)),
			"product_weight_g":           float64(50 + g.intn(20000)),
			"product_length_cm":          float64(10 + g.intn(90)),
			"product_height_cm":          float64(2 + g.intn(60)),
			"product_width_cm":           float64(8 + g.intn(60)),
		}
		switch {
		case g.chance(0.02):
			doc["product_category_name"] = nil
		case g.chance(0.05):
			doc["product_category_name"] = g.pick(untranslatedCategories)
		default:
			doc["product_category_name"] = categories[g.intn(len(categories))].name
		}
		docs = append(docs, doc)
	}
	return docs
}

func (g *generator) orders() (orders, items, payments, reviews []staging.Document) {
	for i := 0; i < g.opts.Orders && len(g.customerIDs) > 0; i++ {
		orderID := g.id()
		status := g.pick(orderStatuses)
		purchased := g.purchaseTime()

		order := staging.Document{
			"order_id":                      orderID,
			"customer_id":                   g.customerIDs[i%len(g.customerIDs)],
			"order_status":                  status,
			"order_purchase_timestamp":      stamp(purchased),
			"order_approved_at":             stamp(purchased.Add(time.Duration(10+g.intn(600)) * time.Minute)),
			"order_estimated_delivery_date": stamp(purchased.AddDate(0, 0, 10+g.intn(30)).Truncate(24 * time.Hour)),
		}
		if status == "delivered" {
			carrier := purchased.Add(time.Duration(24+g.intn(96)) * time.Hour)
			order["order_delivered_carrier_date"] = stamp(carrier)
			order["order_delivered_customer_date"] = stamp(carrier.Add(time.Duration(24+g.intn(400)) * time.Hour))
		}
		orders = append(orders, order)

		// canceled and unavailable orders often never got items
		if (status == "canceled" || status == "unavailable") && g.chance(0.6) {
			continue
		}

		if len(g.productIDs) == 0 || len(g.sellerIDs) == 0 {
			continue
		}
		var goodsTotal float64
		count := 1 + g.intn(3)
		for n := 1; n <= count; n++ {
			price := g.price(5, 500)
			freight := g.price(0, 60)
			goodsTotal += price + freight
			items = append(items, staging.Document{
				"order_id":            orderID,
				"order_item_id":       int32(n),
				"product_id":          g.productIDs[g.intn(len(g.productIDs))],
				"seller_id":           g.sellerIDs[g.intn(len(g.sellerIDs))],
				"shipping_limit_date": stamp(purchased.AddDate(0, 0, 6)),
				"price":               price,
				"freight_value":       freight,
			})
		}

		// a few orders reach the export without payment rows
		if g.chance(0.02) {
			continue
		}
		payments = append(payments, g.payments(orderID, goodsTotal)...)

		if status == "delivered" && g.chance(0.7) {
			reviews = append(reviews, staging.Document{
				"review_id":    g.id(),
				"order_id":     orderID,
				"review_score": int32(1 + g.intn(5)),
			})
		}
	}
	return orders, items, payments, reviews
}

func (g *generator) payments(orderID string, total float64) []staging.Document {
	payment := func(seq int, typ string, installments int, value float64) staging.Document {
		return staging.Document{
			"order_id":             orderID,
			"payment_sequential":   int32(seq),
			"payment_type":         typ,
			"payment_installments": int32(installments),
			"payment_value":        float64(int(value*100)) / 100,
		}
	}

	// split between a voucher and a second instrument
	if g.chance(0.1) {
		voucher := float64(int(total*g.rng.Float64()*50)) / 100
		return []staging.Document{
			payment(1, "voucher", 1, voucher),
			payment(2, g.pick(paymentTypes), 1+g.intn(10), total-voucher),
		}
	}
	typ := g.pick(paymentTypes)
	installments := 1
	if typ == "credit_card" {
		installments = 1 + g.intn(10)
	}
	return []staging.Document{payment(1, typ, installments, total)}
}
