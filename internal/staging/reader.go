// Package staging reads the raw collections out of the MongoDB staging store.
package staging

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Mickjrp/E-Commerce-Analytics/internal/config"
	"github.com/Mickjrp/E-Commerce-Analytics/internal/records"
)

// Staging collection names.
const (
	Customers           = "customers"
	Orders              = "orders"
	Items               = "items"
	Reviews             = "reviews"
	Geolocation         = "geolocation"
	Payments            = "payments"
	Products            = "products"
	Sellers             = "sellers"
	CategoryTranslation = "category_translation"
)

const pingTimeout = 5 * time.Second

// Document is one staged document with store-internal identifiers removed.
type Document = map[string]any

// Connect opens a client and verifies it with a ping. The caller owns
// Disconnect.
func Connect(ctx context.Context, cfg config.Mongo) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI()))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}
	return client, nil
}

// Reader pulls whole collections into memory.
type Reader struct {
	db *mongo.Database
}

func NewReader(db *mongo.Database) *Reader {
	return &Reader{db: db}
}

// Collection returns every document of the named collection, optionally
// projected to fields. No filtering and no type coercion happen here.
func (r *Reader) Collection(ctx context.Context, name string, fields ...string) ([]Document, error) {
	opts := options.Find()
	if len(fields) > 0 {
		proj := bson.D{}
		for _, f := range fields {
			proj = append(proj, bson.E{Key: f, Value: 1})
		}
		opts.SetProjection(proj)
	}

	cur, err := r.db.Collection(name).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", name, err)
	}
	defer cur.Close(ctx)

	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	docs := make([]Document, 0, len(raw))
	for _, m := range raw {
		delete(m, "_id")
		docs = append(docs, Document(m))
	}
	return docs, nil
}

// Snapshot is the typed content of every collection the warehouse needs.
type Snapshot struct {
	Customers    []records.Customer
	Orders       []records.Order
	Items        []records.Item
	Payments     []records.Payment
	Products     []records.Product
	Sellers      []records.Seller
	Geolocations []records.Geolocation
	Translations []records.CategoryTranslation
}

// geolocationFields is the projection used for the geolocation collection;
// coordinates are never needed downstream.
var geolocationFields = []string{"geolocation_zip_code_prefix", "geolocation_city", "geolocation_state"}

// ReadAll reads and decodes every collection used by the load stage.
// Coercion outcomes are accumulated into report.
func (r *Reader) ReadAll(ctx context.Context, report *records.Report) (*Snapshot, error) {
	raw := make(map[string][]Document, 8)
	for _, name := range []string{Customers, Orders, Items, Payments, Products, Sellers, Geolocation, CategoryTranslation} {
		var fields []string
		if name == Geolocation {
			fields = geolocationFields
		}
		docs, err := r.Collection(ctx, name, fields...)
		if err != nil {
			return nil, err
		}
		raw[name] = docs
	}
	return Decode(raw, report)
}

// Decode converts raw documents keyed by collection name into a Snapshot.
// Absent collections decode as empty.
func Decode(raw map[string][]Document, report *records.Report) (*Snapshot, error) {
	s := &Snapshot{}
	steps := []struct {
		name   string
		decode func([]Document) error
	}{
		{Customers, func(d []Document) (err error) { s.Customers, err = records.DecodeCustomers(d, report); return }},
		{Orders, func(d []Document) (err error) { s.Orders, err = records.DecodeOrders(d, report); return }},
		{Items, func(d []Document) (err error) { s.Items, err = records.DecodeItems(d, report); return }},
		{Payments, func(d []Document) (err error) { s.Payments, err = records.DecodePayments(d, report); return }},
		{Products, func(d []Document) (err error) { s.Products, err = records.DecodeProducts(d, report); return }},
		{Sellers, func(d []Document) (err error) { s.Sellers, err = records.DecodeSellers(d, report); return }},
		{Geolocation, func(d []Document) (err error) { s.Geolocations, err = records.DecodeGeolocations(d, report); return }},
		{CategoryTranslation, func(d []Document) (err error) {
			s.Translations, err = records.DecodeCategoryTranslations(d, report)
			return
		}},
	}

	for _, step := range steps {
		if err := step.decode(raw[step.name]); err != nil {
			return nil, fmt.Errorf("decode %s: %w", step.name, err)
		}
	}
	return s, nil
}
