package storage

// EntityMetadata is the reserved component present in every Page. It mirrors
// the externally issued token for its slot, which checked mode cross-validates
// on access, and counts per-entity component writes.
type EntityMetadata struct {
	Token          AccessToken
	ComponentCount int
	FieldWrites    uint32
}
