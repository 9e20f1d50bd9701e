package types

// Status is the row status of a persisted resource in the database.
// Deleted rows are soft-deleted and excluded from all scoped reads.
type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusDeleted   Status = "deleted"
)

func (s Status) String() string {
	return string(s)
}
