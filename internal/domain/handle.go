package domain

import "time"

// VideoHandle identifies a finalized upload sitting in the uploads directory.
// It is immutable once constructed; identity and equality are by Path.
type VideoHandle struct {
	Path      string
	Hash      string
	CreatedAt time.Time
}

// Equal reports whether two handles name the same finalized file.
func (h VideoHandle) Equal(other VideoHandle) bool {
	return h.Path == other.Path
}
