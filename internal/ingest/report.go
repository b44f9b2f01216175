package ingest

import "time"

// Pass statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// ProfileReport counts what happened to one profile's candidates.
type ProfileReport struct {
	ProfileID         string `json:"profile_id"`
	Candidates        int    `json:"candidates"`
	CacheHits         int    `json:"cache_hits"`
	StoreHits         int    `json:"store_hits"`
	Stored            int    `json:"stored"`
	Inserted          int    `json:"inserted"`
	SkippedNoDate     int    `json:"skipped_no_date"`
	SkippedIrrelevant int    `json:"skipped_irrelevant"`
	Failed            int    `json:"failed"`
}

// Report summarizes one pass. Total is the store size after the pass, or -1
// when it could not be counted.
type Report struct {
	StartedAt   time.Time       `json:"started_at"`
	Duration    time.Duration   `json:"duration"`
	Profiles    []ProfileReport `json:"profiles"`
	CachePruned int             `json:"cache_pruned"`
	StorePruned int             `json:"store_pruned"`
	Total       int             `json:"total"`
}

// Stored is the number of records written during the pass.
func (r Report) Stored() int {
	n := 0
	for _, p := range r.Profiles {
		n += p.Stored
	}
	return n
}

// Inserted is the number of records seen for the first time.
func (r Report) Inserted() int {
	n := 0
	for _, p := range r.Profiles {
		n += p.Inserted
	}
	return n
}

// Profile returns the report for id.
func (r Report) Profile(id string) (ProfileReport, bool) {
	for _, p := range r.Profiles {
		if p.ProfileID == id {
			return p, true
		}
	}
	return ProfileReport{}, false
}
