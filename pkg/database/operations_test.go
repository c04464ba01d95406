package database

import (
	"path/filepath"
	"testing"
)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "local.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorage_SetGetRemove(t *testing.T) {
	s := openTestStorage(t)

	if _, ok, err := s.GetItem(KeyRollNumber); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := s.SetItem(KeyRollNumber, "21CS001"); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	v, ok, err := s.GetItem(KeyRollNumber)
	if err != nil || !ok || v != "21CS001" {
		t.Fatalf("GetItem = %q, %v, %v", v, ok, err)
	}

	// Overwrite keeps a single row
	if err := s.SetItem(KeyRollNumber, "21CS002"); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	items, err := s.Items()
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 1 || items[KeyRollNumber] != "21CS002" {
		t.Errorf("unexpected items %v", items)
	}

	if err := s.RemoveItem(KeyRollNumber); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if _, ok, _ := s.GetItem(KeyRollNumber); ok {
		t.Error("key still present after RemoveItem")
	}
	if err := s.RemoveItem(KeyRollNumber); err != nil {
		t.Errorf("removing a missing key should not fail: %v", err)
	}
}

func TestStorage_PersistsAcrossConnections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.SetItem(KeyTheme, "pink"); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if v, ok, _ := s.GetItem(KeyTheme); !ok || v != "pink" {
		t.Errorf("expected persisted theme, got %q (ok=%v)", v, ok)
	}
}

func TestMemoryStorage(t *testing.T) {
	var ls LocalStorage = NewMemoryStorage()
	ls.SetItem(KeyDarkMode, "true")
	if v, ok, _ := ls.GetItem(KeyDarkMode); !ok || v != "true" {
		t.Errorf("GetItem = %q, %v", v, ok)
	}
	ls.RemoveItem(KeyDarkMode)
	if _, ok, _ := ls.GetItem(KeyDarkMode); ok {
		t.Error("expected key removed")
	}
}
