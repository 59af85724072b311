package vector

// Access is the intent a caller expresses when opening a dataset.
type Access int

const (
	// ReadOnly opens a dataset for reading.
	ReadOnly Access = iota
	// Update opens a dataset for in-place modification.
	Update
)

// String returns the human-readable access name.
func (a Access) String() string {
	switch a {
	case ReadOnly:
		return "read"
	case Update:
		return "update"
	default:
		return "unknown"
	}
}
