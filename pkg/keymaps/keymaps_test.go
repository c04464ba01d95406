package keymaps

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/key"
)

func TestBuildKeyMap_Defaults(t *testing.T) {
	km := BuildKeyMap(nil)

	if got := km.QuitApp.Help(); got.Key != "q" || got.Desc != "quit" {
		t.Errorf("unexpected quit help %+v", got)
	}
	if !key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}}, km.ToggleStatus) {
		t.Error("space should toggle status")
	}
	if km.ToggleStatus.Help().Key != "space" {
		t.Errorf("unexpected toggle help %+v", km.ToggleStatus.Help())
	}
	if !key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'K'}}, km.MoveUp) {
		t.Error("K should move up")
	}
	if !key.Matches(tea.KeyMsg{Type: tea.KeyShiftDown}, km.MoveDown) {
		t.Error("shift+down should move down")
	}
}

func TestBuildKeyMap_Overrides(t *testing.T) {
	// Lowercased action names as read back from the config file.
	km := BuildKeyMap(map[string]string{
		"quitapp": "x, ctrl+q",
		"AddTask": "n",
		"Refresh": "",
	})

	if !key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}}, km.QuitApp) {
		t.Error("override x should quit")
	}
	if !key.Matches(tea.KeyMsg{Type: tea.KeyCtrlQ}, km.QuitApp) {
		t.Error("second override key should quit")
	}
	if key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}, km.QuitApp) {
		t.Error("default key should be replaced")
	}
	if km.AddTask.Help().Key != "n" {
		t.Errorf("unexpected add help %+v", km.AddTask.Help())
	}
	if km.Refresh.Help().Key != "r" {
		t.Error("empty override should keep the default")
	}
}

func TestGetDefaultKeyMappings(t *testing.T) {
	m := GetDefaultKeyMappings()
	if len(m) != len(KeyDefinitions) {
		t.Fatalf("expected %d mappings, got %d", len(KeyDefinitions), len(m))
	}
	if m["ShowHelp"] != "ctrl+b" {
		t.Errorf("unexpected ShowHelp %q", m["ShowHelp"])
	}
}
