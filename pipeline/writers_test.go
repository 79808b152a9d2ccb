package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marketscout/go-scout/models"
)

func writerProduct() *models.StructuredProduct {
	return &models.StructuredProduct{
		ID:          "a1b2c3",
		Title:       "Test Template",
		Description: "A reusable project template.",
		SourceURL:   "http://example.test/product/1",
		SourceName:  "gumroad",
		Status:      models.StatusSuccess,
		Pricing: models.Pricing{
			Type:     models.PricingOneTime,
			Amount:   10,
			Currency: "USD",
		},
		Metadata: models.Metadata{
			Category: "template",
		},
		ScrapedAt: time.Date(2026, 8, 4, 13, 9, 13, 0, time.UTC),
	}
}

func TestCSVWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.csv")

	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}

	if err := writer.Write([]*models.StructuredProduct{writerProduct()}); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records=%d, want 2", len(records))
	}
	if records[0][0] != "id" || records[0][1] != "title" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][1] != "Test Template" || records[1][3] != "10.00" {
		t.Fatalf("unexpected record: %v", records[1])
	}
}

func TestJSONWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.jsonl")

	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("create json writer: %v", err)
	}

	if err := writer.Write([]*models.StructuredProduct{writerProduct()}); err != nil {
		t.Fatalf("write json: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close json: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open json: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	count := 0
	for scanner.Scan() {
		var decoded models.StructuredProduct
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid json line: %v", err)
		}
		if decoded.Title != "Test Template" {
			t.Fatalf("decoded title = %q", decoded.Title)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan json: %v", err)
	}
	if count != 1 {
		t.Fatalf("json lines=%d, want 1", count)
	}
}

func TestDualWriterWrite(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "products.csv")
	jsonPath := filepath.Join(dir, "products.jsonl")

	writer, err := NewDualWriter(csvPath, jsonPath)
	if err != nil {
		t.Fatalf("create dual writer: %v", err)
	}

	if err := writer.Write([]*models.StructuredProduct{writerProduct()}); err != nil {
		t.Fatalf("write dual: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close dual: %v", err)
	}

	if info, err := os.Stat(csvPath); err != nil || info.Size() == 0 {
		t.Fatalf("csv file missing or empty")
	}
	if info, err := os.Stat(jsonPath); err != nil || info.Size() == 0 {
		t.Fatalf("json file missing or empty")
	}
}

func TestNewWriterFormats(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		format  string
		file    string
		wantErr bool
	}{
		{format: "csv", file: filepath.Join(dir, "out.csv")},
		{format: "json", file: filepath.Join(dir, "out.jsonl")},
		{format: "dual", file: filepath.Join(dir, "out.csv")},
		{format: "xml", file: filepath.Join(dir, "out.xml"), wantErr: true},
	}

	for _, tt := range tests {
		writer, err := NewWriter(tt.format, tt.file)
		if (err != nil) != tt.wantErr {
			t.Fatalf("NewWriter(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if writer != nil {
			writer.Close()
		}
	}
}
