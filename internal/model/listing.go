package model

import "context"

// Listing is the unified representation of a job posting from any board.
// URL is the sole identity: two listings with the same URL are the same
// posting no matter what the other fields say.
type Listing struct {
	URL        string            `json:"url"`
	Title      string            `json:"title"`
	JobType    string            `json:"job_type"`
	Location   string            `json:"location"`
	HospitalID string            `json:"hospital_id"`
	DatePosted string            `json:"date_posted,omitempty"` // ISO date when the board exposes one
	Raw        map[string]string `json:"-"`                     // source fields kept for diagnostics only
}

// Source fetches all listings for one hospital board.
type Source interface {
	HospitalID() string
	Fetch(ctx context.Context) ([]Listing, error)
}

// Notifier delivers new listings to wherever the user reads them.
type Notifier interface {
	Notify(listings []Listing) error
}

// SeenStore persists the set of listing URLs already delivered or
// acknowledged. Load reads the whole set; Save merges urls into it. The
// set only ever grows.
type SeenStore interface {
	Load() (map[string]struct{}, error)
	Save(urls map[string]struct{}) error
}
