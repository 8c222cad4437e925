package exporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"samscope/internal/models"
)

func exportSample() []*models.Contract {
	return []*models.Contract{
		models.FromRow(map[string]string{
			models.HeaderNoticeID:   "E-1",
			models.HeaderTitle:      "First",
			models.HeaderAgency:     "DOD",
			models.HeaderDatePosted: "2024-01-01",
			"Link":                  "https://sam.gov/opp/E-1",
		}),
		models.FromRow(map[string]string{
			models.HeaderNoticeID:   "E-2",
			models.HeaderTitle:      "Second",
			models.HeaderAgency:     "GSA",
			models.HeaderDatePosted: "2024-01-02",
		}),
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"csv", "json", "xlsx", "excel"} {
		if _, err := ParseFormat(name); err != nil {
			t.Errorf("ParseFormat(%q): %v", name, err)
		}
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, FormatCSV, exportSample()); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d csv rows", len(records))
	}
	header := strings.Join(records[0], ",")
	if !strings.Contains(header, models.HeaderNoticeID) || !strings.Contains(header, "Link") {
		t.Errorf("header missing columns: %q", header)
	}
	if records[1][0] != "E-1" || records[2][0] != "E-2" {
		t.Errorf("rows: %v", records[1:])
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, FormatJSON, exportSample()); err != nil {
		t.Fatal(err)
	}
	var rows []map[string]string
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d json rows", len(rows))
	}
	// Original field names and unmapped columns survive.
	if rows[0][models.HeaderNoticeID] != "E-1" || rows[0]["Link"] == "" {
		t.Errorf("first row: %v", rows[0])
	}
}

func TestExportExcel(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, FormatExcel, exportSample()); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d sheet rows", len(rows))
	}
	if rows[0][0] != models.HeaderNoticeID || rows[1][0] != "E-1" {
		t.Errorf("sheet contents: %v", rows[:2])
	}
}
