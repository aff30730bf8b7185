package models

// Alias maps a label used on receipts to a payment handle.
// Stored aliases act as defaults under each receipt's own alias table.
type Alias struct {
	// ID is the unique identifier for the alias (UUID format).
	ID string

	// Name is the label as it appears on receipts (e.g., "Al").
	Name string

	// Handle is what the label resolves to: a payment handle, "me" or "everyone".
	Handle string

	// CreatedAt is the Unix timestamp when the alias was first stored.
	CreatedAt int64
}
