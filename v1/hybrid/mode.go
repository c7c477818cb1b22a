package hybrid

import "github.com/Aleph-Alpha/querykit/v1/filter"

// Mode is the strategy used to answer a request.
type Mode int

const (
	// ModeLocal answers from the local store only.
	ModeLocal Mode = iota
	// ModeLocalFirst answers from the local store and pads a short page
	// with external results.
	ModeLocalFirst
	// ModeExternal answers from the external catalog only.
	ModeExternal
)

func (m Mode) String() string {
	switch m {
	case ModeLocal:
		return "local"
	case ModeLocalFirst:
		return "local_first"
	case ModeExternal:
		return "external"
	default:
		return "unknown"
	}
}

// DecideMode picks the mode of req.
//
// Entities unknown to the external catalog are local. Otherwise the request
// goes local-first when it sorts or filters on a local-only field, or when it
// carries a relational or internal ID filter, and external in every other case.
func DecideMode(req *filter.Request) Mode {
	entity := req.Entity
	if !entity.IsExternal() {
		return ModeLocal
	}
	if s := req.Paging.Sort; s != nil && entity.IsLocalOnly(s.Field) {
		return ModeLocalFirst
	}
	if req.RawID != nil || req.HasRelational() {
		return ModeLocalFirst
	}
	for _, f := range req.Fields() {
		if entity.IsLocalOnly(f) {
			return ModeLocalFirst
		}
	}
	return ModeExternal
}
