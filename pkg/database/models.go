package database

// Keys of the values persisted in local storage. They match the keys the
// browser client used so exported state stays recognisable.
const (
	KeyRollNumber = "rollNumber"
	KeyTheme      = "theme"
	KeyDarkMode   = "darkMode"
)

// LocalStorage is a synchronous string key/value store.
type LocalStorage interface {
	// GetItem returns the value for key and whether it was present.
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}
