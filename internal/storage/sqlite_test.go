package storage

import (
	"context"
	"path/filepath"
	"testing"

	"samscope/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "contracts.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testContract(id, title string) *models.Contract {
	return models.FromRow(map[string]string{
		models.HeaderNoticeID:   id,
		models.HeaderTitle:      title,
		models.HeaderAgency:     "DEPT OF DEFENSE",
		models.HeaderDatePosted: "2024-03-01",
		models.HeaderNAICSCode:  "541512",
		models.HeaderSetAside:   "SBA",
		models.HeaderAwardValue: "100000",
		"Link":                  "https://sam.gov/opp/" + id,
	})
}

func TestUpsertAndSearchRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	in := testContract("N-100", "Cybersecurity Support")
	n, err := store.UpsertContracts(ctx, []*models.Contract{in})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("persisted %d, want 1", n)
	}

	got, err := store.Search(ctx, &models.Filter{Keyword: "Cybersecurity"}, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results", len(got))
	}
	// Round-trip: the reconstructed record preserves every original field.
	for k, v := range in.Raw {
		if got[0].Raw[k] != v {
			t.Errorf("raw[%q] = %q, want %q", k, got[0].Raw[k], v)
		}
	}
	if got[0].NoticeID != "N-100" || got[0].AwardValue != 100000 {
		t.Errorf("reconstructed contract: %+v", got[0])
	}
}

func TestUpsertReplacesByNoticeID(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	first := testContract("N-200", "Old Title")
	second := testContract("N-200", "New Title")
	if _, err := store.UpsertContracts(ctx, []*models.Contract{first}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.UpsertContracts(ctx, []*models.Contract{second}); err != nil {
		t.Fatal(err)
	}

	total, err := store.Count(ctx, &models.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Fatalf("count = %d, want 1", total)
	}
	got, _ := store.Search(ctx, &models.Filter{}, 10, 0)
	if got[0].Title != "New Title" {
		t.Errorf("second import should win, got %q", got[0].Title)
	}
}

func TestUpsertDropsInvalidRows(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	missingTitle := testContract("N-300", "x")
	missingTitle.Title = ""
	n, err := store.UpsertContracts(ctx, []*models.Contract{
		testContract("N-301", "Valid"),
		missingTitle,
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("persisted %d, want 1", n)
	}
	total, _ := store.Count(ctx, &models.Filter{})
	if total != 1 {
		t.Errorf("count = %d, want 1", total)
	}
}

func TestSearchPaginationAndFilters(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	var batch []*models.Contract
	for _, id := range []string{"A-1", "A-2", "A-3"} {
		batch = append(batch, testContract(id, "Contract "+id))
	}
	other := testContract("B-1", "Contract B-1")
	other.Agency = "GSA"
	other.Raw[models.HeaderAgency] = "GSA"
	batch = append(batch, other)
	if _, err := store.UpsertContracts(ctx, batch); err != nil {
		t.Fatal(err)
	}

	page, err := store.Search(ctx, &models.Filter{}, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 {
		t.Errorf("limit ignored: got %d", len(page))
	}
	rest, _ := store.Search(ctx, &models.Filter{}, 10, 2)
	if len(rest) != 2 {
		t.Errorf("offset ignored: got %d", len(rest))
	}

	byAgency, err := store.Search(ctx, &models.Filter{Agencies: []string{"GSA"}}, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(byAgency) != 1 || byAgency[0].NoticeID != "B-1" {
		t.Errorf("agency filter: %+v", byAgency)
	}

	n, err := store.Count(ctx, &models.Filter{Agencies: []string{"DEPT OF DEFENSE"}})
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}

func TestSearchAwardValueRange(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	small := testContract("V-1", "Small")
	small.AwardValue = 5000
	small.Raw[models.HeaderAwardValue] = "5000"
	big := testContract("V-2", "Big")
	big.AwardValue = 900000
	big.Raw[models.HeaderAwardValue] = "900000"
	if _, err := store.UpsertContracts(ctx, []*models.Contract{small, big}); err != nil {
		t.Fatal(err)
	}

	min, max := 1000.0, 10000.0
	got, err := store.Search(ctx, &models.Filter{AwardValueMin: &min, AwardValueMax: &max}, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].NoticeID != "V-1" {
		t.Errorf("range filter: %+v", got)
	}
}

func TestBulkUpdate(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	if _, err := store.UpsertContracts(ctx, []*models.Contract{
		testContract("U-1", "One"), testContract("U-2", "Two"),
	}); err != nil {
		t.Fatal(err)
	}

	err := store.BulkUpdate(ctx, []string{"U-1"}, map[string]string{"setaside": "8(a)"})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := store.Search(ctx, &models.Filter{SetAside: "8(a)"}, 10, 0)
	if len(got) != 1 || got[0].NoticeID != "U-1" {
		t.Fatalf("updated row not found: %+v", got)
	}
	// The payload is patched too, so reconstructed results see the update.
	if got[0].SetAside != "8(a)" {
		t.Errorf("payload not patched: %q", got[0].SetAside)
	}

	if err := store.BulkUpdate(ctx, []string{"U-1"}, map[string]string{"notice_id": "evil"}); err == nil {
		t.Error("non-updatable field accepted")
	}
	if err := store.BulkUpdate(ctx, []string{"U-1"}, map[string]string{"data; DROP TABLE contracts": "x"}); err == nil {
		t.Error("unknown field accepted")
	}
}

func TestBulkDelete(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	if _, err := store.UpsertContracts(ctx, []*models.Contract{
		testContract("D-1", "One"), testContract("D-2", "Two"), testContract("D-3", "Three"),
	}); err != nil {
		t.Fatal(err)
	}

	if err := store.BulkDelete(ctx, []string{"D-1", "D-3", "missing"}); err != nil {
		t.Fatal(err)
	}
	got, _ := store.Search(ctx, &models.Filter{}, 10, 0)
	if len(got) != 1 || got[0].NoticeID != "D-2" {
		t.Errorf("after delete: %+v", got)
	}

	// Deleting only nonexistent ids is a no-op, not an error.
	if err := store.BulkDelete(ctx, []string{"nope"}); err != nil {
		t.Errorf("delete of nonexistent id: %v", err)
	}
}

func TestDistinctAgenciesAndSetAsides(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	a := testContract("L-1", "One")
	b := testContract("L-2", "Two")
	b.Agency = "GSA"
	b.Raw[models.HeaderAgency] = "GSA"
	b.SetAside = ""
	b.Raw[models.HeaderSetAside] = ""
	if _, err := store.UpsertContracts(ctx, []*models.Contract{a, b}); err != nil {
		t.Fatal(err)
	}

	agencies, err := store.Agencies(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(agencies) != 2 || agencies[0] != "DEPT OF DEFENSE" || agencies[1] != "GSA" {
		t.Errorf("agencies = %v", agencies)
	}
	setasides, err := store.SetAsides(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(setasides) != 1 || setasides[0] != "SBA" {
		t.Errorf("setasides = %v", setasides)
	}
}
