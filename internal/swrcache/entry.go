package swrcache

import "time"

// formatVersion is bumped whenever the on-disk layout changes. Files
// written with another version are treated as a miss.
const formatVersion = 2

// List names one roster list the platform serves.
type List string

const (
	Students List = "students"
	Groups   List = "groups"
)

// Lists holds every cached list.
var Lists = []List{Students, Groups}

type entry[T any] struct {
	Version   int       `json:"version"`
	List      List      `json:"list"`
	Items     T         `json:"items"`
	FetchedAt time.Time `json:"fetched_at"`
}

func (e entry[T]) usable(list List) bool {
	return e.Version == formatVersion && e.List == list && !e.FetchedAt.IsZero()
}
