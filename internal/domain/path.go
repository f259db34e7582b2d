package domain

import "errors"

// ErrInvalidProvenance is returned when a record is written without a
// recognized delivery-path tag.
var ErrInvalidProvenance = errors.New("invalid or missing delivery path tag")

// Path identifies which delivery path produced a record. Every order and
// audit write must carry one so the two paths can be compared later.
type Path string

const (
	// PathSync is the synchronous request/response delivery path.
	PathSync Path = "SYNC"
	// PathAsync is the asynchronous publish/consume delivery path.
	PathAsync Path = "ASYNC"
)

// IsValid reports whether the path is a member of the closed enumeration.
// Matching is exact; mixed-case or trimmed variants are rejected on purpose,
// an ambiguous tag poisons the path comparison.
func (p Path) IsValid() bool {
	switch p {
	case PathSync, PathAsync:
		return true
	default:
		return false
	}
}

// String returns the string representation of the path.
func (p Path) String() string {
	return string(p)
}

// ParsePath converts a raw string into a Path, failing on anything outside
// the enumeration. There is no default: absence is an error, not SYNC.
func ParsePath(s string) (Path, error) {
	p := Path(s)
	if !p.IsValid() {
		return "", ErrInvalidProvenance
	}
	return p, nil
}

// ValidatePath rejects writes that would reach storage without provenance.
// It is called by every repository before any I/O occurs.
func ValidatePath(p Path) error {
	if !p.IsValid() {
		return ErrInvalidProvenance
	}
	return nil
}

// AllPaths returns the closed set of delivery paths, for configuration
// validation and comparison queries.
func AllPaths() []Path {
	return []Path{PathSync, PathAsync}
}
