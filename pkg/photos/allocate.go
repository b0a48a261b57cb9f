package photos

import (
	"time"

	"vkbackup/pkg/models"
)

// DateLayout is the capture-date qualifier format
const DateLayout = "2006-01-02"

// NameSet tracks filenames already handed out in one run.
// It is not safe for concurrent use.
type NameSet map[string]struct{}

// Has reports whether name is taken
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Add marks name as taken
func (s NameSet) Add(name string) {
	s[name] = struct{}{}
}

// Allocator assigns like-count based filenames. It must see every photo of
// the run up front so that shared like counts get a date qualifier.
type Allocator struct {
	likeCounts map[int]int
	loc        *time.Location
}

// NewAllocator prepares an allocator for the given photos. Capture dates are
// rendered in loc, or the local zone when loc is nil.
func NewAllocator(all []models.Photo, loc *time.Location) *Allocator {
	if loc == nil {
		loc = time.Local
	}
	counts := make(map[int]int, len(all))
	for _, p := range all {
		counts[p.Likes]++
	}
	return &Allocator{likeCounts: counts, loc: loc}
}

// Allocate returns a name for p that is not in used and records it there.
// The fallback ladder is likes, likes_date, then the photo id, then a
// numeric suffix starting at 2.
func (a *Allocator) Allocate(p models.Photo, used NameSet) models.FileName {
	name := models.FileName{Likes: p.Likes}
	if a.likeCounts[p.Likes] > 1 {
		name.Date = p.Date.In(a.loc).Format(DateLayout)
	}

	if used.Has(name.String()) {
		name.PhotoID = p.ID
		for suffix := 2; used.Has(name.String()); suffix++ {
			name.Suffix = suffix
		}
	}

	used.Add(name.String())
	return name
}
