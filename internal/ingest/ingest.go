package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CollectionFiles maps the dataset CSV file names to their target
// collections.
var CollectionFiles = map[string]string{
	"distribution_centers.csv": "distribution_centers",
	"inventory_items.csv":      "inventory_items",
	"order_items.csv":          "order_items",
	"orders.csv":               "orders",
	"products.csv":             "products",
	"users.csv":                "users",
}

// SortedFiles returns the CSV file names in a stable order.
func SortedFiles() []string {
	files := make([]string, 0, len(CollectionFiles))
	for file := range CollectionFiles {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ReadRecords parses one CSV file into store-ready documents. The first
// row is the header; numeric and timestamp values are coerced so the
// executor's queries see typed fields, and empty values are dropped
// entirely (a missing sold_at means "in stock").
func ReadRecords(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", filepath.Base(path), err)
	}

	var docs []map[string]any
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		doc := make(map[string]any, len(header))
		for i, col := range header {
			if i >= len(row) {
				continue
			}
			val := strings.TrimSpace(row[i])
			if val == "" {
				continue
			}
			doc[col] = coerce(val)
		}
		if len(doc) > 0 {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func coerce(val string) any {
	if n, err := strconv.ParseInt(val, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(val, 64); err == nil {
		return f
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, val); err == nil {
			return t.UTC()
		}
	}
	return val
}
