package git

// SyncStatus is the relation between a branch and its upstream.
type SyncStatus uint8

const (
	// StatusUnknown means the repository was not classified yet.
	StatusUnknown SyncStatus = iota
	StatusUpToDate
	StatusNeedPull
	StatusNeedPush
	StatusDiverged
	StatusError
)

func (s SyncStatus) String() string {
	switch s {
	case StatusUpToDate:
		return "up to date"
	case StatusNeedPull:
		return "need pull"
	case StatusNeedPush:
		return "need push"
	case StatusDiverged:
		return "diverged"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Hashes holds the commits compared by Classify.
type Hashes struct {
	Local    string
	Remote   string
	Ancestor string
}

// Classify derives the sync status from the local tip, the upstream tip and
// their merge base. Any query failure yields StatusError.
func Classify(h Hashes, err error) SyncStatus {
	switch {
	case err != nil:
		return StatusError
	case h.Local == h.Remote:
		return StatusUpToDate
	case h.Local == h.Ancestor:
		return StatusNeedPull
	case h.Remote == h.Ancestor:
		return StatusNeedPush
	default:
		return StatusDiverged
	}
}
