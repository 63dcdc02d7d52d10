package custody

// ===============================
// Stored-at (physical storage category)
// ===============================

// StoredAt is the enumerated storage category of a tool after a transfer,
// distinct from the free-text location field.
type StoredAt string

const (
	StoredOnTruck       StoredAt = "on-truck"
	StoredOnSite        StoredAt = "on-site"
	StoredNotApplicable StoredAt = "n/a"
)

func (s StoredAt) Valid() bool {
	switch s {
	case StoredOnTruck, StoredOnSite, StoredNotApplicable:
		return true
	}
	return false
}

func (s StoredAt) String() string {
	return string(s)
}
