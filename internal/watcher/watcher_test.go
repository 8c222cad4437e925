package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestIsCSV(t *testing.T) {
	cases := map[string]bool{
		"a.csv":      true,
		"a.CSV":      true,
		"a.csv.part": false,
		"a.txt":      false,
		"csv":        false,
	}
	for path, want := range cases {
		if got := isCSV(path); got != want {
			t.Errorf("isCSV(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestWatcherImportsDroppedCSV(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var imported []string
	w := NewWatcher([]string{dir}, func(path string) {
		mu.Lock()
		imported = append(imported, path)
		mu.Unlock()
	}, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	csvPath := filepath.Join(dir, "drop.csv")
	if err := os.WriteFile(csvPath, []byte("Notice ID,Title\nN-1,T\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// Non-CSV files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(imported)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(imported) == 0 {
		t.Fatal("csv drop never imported")
	}
	if imported[0] != csvPath {
		t.Errorf("imported %q, want %q", imported[0], csvPath)
	}
	for _, p := range imported {
		if filepath.Ext(p) == ".txt" {
			t.Errorf("non-csv file imported: %q", p)
		}
	}
}

func TestWatcherStopTwice(t *testing.T) {
	w := NewWatcher(nil, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}
