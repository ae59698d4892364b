package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory_items.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestReadRecordsCoercion(t *testing.T) {
	path := writeCSV(t, "id,product_id,cost,sold_at,product_name\n"+
		"1,42,2.75,2022-03-01 10:30:00+00:00,Classic T-Shirt\n"+
		"2,42,2.75,,Classic T-Shirt\n")

	docs, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("read records: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}

	first := docs[0]
	if first["id"] != int64(1) || first["product_id"] != int64(42) {
		t.Fatalf("integer coercion failed: %#v", first)
	}
	if first["cost"] != 2.75 {
		t.Fatalf("float coercion failed: %#v", first["cost"])
	}
	soldAt, ok := first["sold_at"].(time.Time)
	if !ok || soldAt.UTC().Hour() != 10 {
		t.Fatalf("timestamp coercion failed: %#v", first["sold_at"])
	}
	if first["product_name"] != "Classic T-Shirt" {
		t.Fatalf("string passthrough failed: %#v", first["product_name"])
	}

	// An empty sold_at must be absent, not zero-valued: its absence is
	// what marks the unit as in stock.
	if _, ok := docs[1]["sold_at"]; ok {
		t.Fatalf("empty value must be dropped: %#v", docs[1])
	}
}

func TestReadRecordsMissingFile(t *testing.T) {
	_, err := ReadRecords(filepath.Join(t.TempDir(), "orders.csv"))
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestReadRecordsRaggedRows(t *testing.T) {
	path := writeCSV(t, "id,name,brand\n1,Shirt\n")
	docs, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("short rows should parse: %v", err)
	}
	if len(docs) != 1 || docs[0]["name"] != "Shirt" {
		t.Fatalf("unexpected documents: %#v", docs)
	}
	if _, ok := docs[0]["brand"]; ok {
		t.Fatalf("missing column must not appear: %#v", docs[0])
	}
}

func TestCollectionFilesCoverDataset(t *testing.T) {
	files := SortedFiles()
	if len(files) != 6 {
		t.Fatalf("expected 6 dataset files, got %d", len(files))
	}
	if files[0] != "distribution_centers.csv" {
		t.Fatalf("expected sorted order, got %v", files)
	}
	if CollectionFiles["orders.csv"] != "orders" {
		t.Fatalf("orders.csv must map to the orders collection")
	}
}
