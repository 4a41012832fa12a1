package image

import (
	"sync"
	"time"
)

// VersionLayout is the format of image version tags.
const VersionLayout = "2006-01-02_15-04-05"

// Versioner hands out strictly increasing, sortable version tags. When the
// clock has not moved past the previous tag's second, the previous tag plus
// one second is used instead.
type Versioner struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// NewVersioner creates a Versioner reading now. A nil now uses time.Now.
func NewVersioner(now func() time.Time) *Versioner {
	if now == nil {
		now = time.Now
	}
	return &Versioner{now: now}
}

// Next returns the next version tag.
func (v *Versioner) Next() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	t := v.now().UTC().Truncate(time.Second)
	if !v.last.IsZero() && !t.After(v.last) {
		t = v.last.Add(time.Second)
	}
	v.last = t
	return t.Format(VersionLayout)
}
