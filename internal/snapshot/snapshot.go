// Package snapshot writes each loaded table as a Parquet file for audit and
// debugging. Nothing in the pipeline reads these files back.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/Mickjrp/E-Commerce-Analytics/internal/transform"
	"github.com/Mickjrp/E-Commerce-Analytics/internal/warehouse"
)

// File describes one written snapshot.
type File struct {
	Table string
	Path  string
	Rows  int
	Bytes int64
}

// WriteTable writes rows to <dir>/<table>.parquet, replacing any previous file.
func WriteTable[T any](dir string, table warehouse.Table, rows []T) (File, error) {
	path := filepath.Join(dir, table.Name+".parquet")
	tmp := path + ".tmp"
	if err := writeParquet(tmp, rows); err != nil {
		_ = os.Remove(tmp)
		return File{}, fmt.Errorf("write %s snapshot: %w", table.Name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return File{}, fmt.Errorf("rename %s snapshot: %w", table.Name, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return File{Table: table.Name, Path: path, Rows: len(rows), Bytes: info.Size()}, nil
}

// writeParquet converts schema panics from parquet-go (unsupported types or
// tags) into errors.
func writeParquet[T any](path string, rows []T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parquet schema: %v", r)
		}
	}()
	return parquet.WriteFile(path, rows)
}

// WriteAll writes every table of a load result into dir.
func WriteAll(dir string, res *transform.Result) ([]File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}

	writers := []func() (File, error){
		func() (File, error) { return WriteTable(dir, warehouse.CustomersTable, res.Customers) },
		func() (File, error) { return WriteTable(dir, warehouse.ProductsTable, res.Products) },
		func() (File, error) { return WriteTable(dir, warehouse.SellersTable, res.Sellers) },
		func() (File, error) { return WriteTable(dir, warehouse.OrdersTable, res.Orders) },
		func() (File, error) { return WriteTable(dir, warehouse.OrderItemsTable, res.OrderItems) },
		func() (File, error) { return WriteTable(dir, warehouse.PaymentsTable, res.Payments) },
	}

	files := make([]File, 0, len(writers))
	for _, write := range writers {
		f, err := write()
		if err != nil {
			return files, err
		}
		files = append(files, f)
	}
	return files, nil
}
