package credential

// Tier identifies which discovery location a record came from. On an
// identity collision the repository tier wins.
type Tier string

const (
	TierRepository Tier = "repository"
	TierActiveSlot Tier = "active-slot"
)

// Record describes one discovered credential file. Records are immutable;
// a rescan replaces the whole set rather than updating records in place.
type Record struct {
	Name string `json:"name"` // identity key: file name, case-sensitive
	Path string `json:"path"`
	Size int64  `json:"size"`
	Tier Tier   `json:"tier"`
}
