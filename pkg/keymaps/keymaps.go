package keymaps

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type KeyDefinition struct {
	DefaultKey string
	Help       string
}

var KeyDefinitions = map[string]KeyDefinition{
	"ShowHelp":        {"ctrl+b", "show/hide commands"},
	"QuitApp":         {"q", "quit"},
	"ToggleStatus":    {"space", "toggle status"},
	"AddTask":         {"a", "add task"},
	"DeleteTask":      {"d", "delete task"},
	"MoveUp":          {"K,shift+up", "move task up"},
	"MoveDown":        {"J,shift+down", "move task down"},
	"Refresh":         {"r", "reload tasks"},
	"Logout":          {"ctrl+l", "log out"},
	"ToggleDarkMode":  {"m", "toggle dark mode"},
	"CycleTheme":      {"t", "cycle theme"},
	"CopyTask":        {"y", "copy task text"},
	"ShowDoneTasks":   {"ctrl+d", "show only done tasks"},
	"ShowUndoneTasks": {"ctrl+u", "show only undone tasks"},
	"ToggleRegister":  {"ctrl+r", "switch between login and register"},
}

type KeyMap struct {
	ShowHelp        key.Binding
	QuitApp         key.Binding
	ToggleStatus    key.Binding
	AddTask         key.Binding
	DeleteTask      key.Binding
	MoveUp          key.Binding
	MoveDown        key.Binding
	Refresh         key.Binding
	Logout          key.Binding
	ToggleDarkMode  key.Binding
	CycleTheme      key.Binding
	CopyTask        key.Binding
	ShowDoneTasks   key.Binding
	ShowUndoneTasks key.Binding
	ToggleRegister  key.Binding
}

// BuildKeyMap applies configOverrides to the defaults. Action names match
// case-insensitively since the config loader lowercases map keys.
func BuildKeyMap(configOverrides map[string]string) KeyMap {
	overrides := make(map[string]string, len(configOverrides))
	for action, keys := range configOverrides {
		overrides[strings.ToLower(action)] = keys
	}

	km := KeyMap{}
	for action, def := range KeyDefinitions {
		keyStr := def.DefaultKey
		if override, exists := overrides[strings.ToLower(action)]; exists && override != "" {
			keyStr = override
		}
		b := parseKeyBinding(keyStr, def.DefaultKey, def.Help)

		switch action {
		case "ShowHelp":
			km.ShowHelp = b
		case "QuitApp":
			km.QuitApp = b
		case "ToggleStatus":
			km.ToggleStatus = b
		case "AddTask":
			km.AddTask = b
		case "DeleteTask":
			km.DeleteTask = b
		case "MoveUp":
			km.MoveUp = b
		case "MoveDown":
			km.MoveDown = b
		case "Refresh":
			km.Refresh = b
		case "Logout":
			km.Logout = b
		case "ToggleDarkMode":
			km.ToggleDarkMode = b
		case "CycleTheme":
			km.CycleTheme = b
		case "CopyTask":
			km.CopyTask = b
		case "ShowDoneTasks":
			km.ShowDoneTasks = b
		case "ShowUndoneTasks":
			km.ShowUndoneTasks = b
		case "ToggleRegister":
			km.ToggleRegister = b
		}
	}
	return km
}

func parseKeyBinding(keyStr, defaultKey, helpText string) key.Binding {
	if keyStr == "" {
		keyStr = defaultKey
	}

	// Handle multiple keys separated by commas
	keys := strings.Split(keyStr, ",")
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = strings.TrimSpace(k)
		keys[i] = names[i]
		// The space bar arrives as " ".
		if names[i] == "space" {
			keys[i] = " "
		}
	}

	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(names[0], helpText),
	)
}

// GetDefaultKeyMappings returns the default key mappings for configuration
func GetDefaultKeyMappings() map[string]string {
	keyMappings := make(map[string]string)
	for action, def := range KeyDefinitions {
		keyMappings[action] = def.DefaultKey
	}
	return keyMappings
}
