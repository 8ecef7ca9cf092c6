package domain

import "time"

type Channel string

const (
	ChannelBrowser Channel = "browser"
	ChannelApp     Channel = "app"
)

type SearchProgress struct {
	Progress    int `json:"progress"`
	ProgressMax int `json:"progress_max"`
}

func (p SearchProgress) Remaining() int {
	if p.ProgressMax <= p.Progress {
		return 0
	}

	return p.ProgressMax - p.Progress
}

type SearchCounters struct {
	PCSearch     []SearchProgress `json:"pc_search,omitempty"`
	MobileSearch []SearchProgress `json:"mobile_search,omitempty"`
}

// MobileRemaining reads the first mobile-search counter, the one the
// mobile search activity advances.
func (c SearchCounters) MobileRemaining() int {
	if len(c.MobileSearch) == 0 {
		return 0
	}

	return c.MobileSearch[0].Remaining()
}

type DashboardSnapshot struct {
	AvailablePoints int            `json:"available_points"`
	Counters        SearchCounters `json:"counters"`
	FetchedAt       time.Time      `json:"fetched_at"`
}

func (d DashboardSnapshot) HasMobileSearch() bool {
	return len(d.Counters.MobileSearch) > 0
}

type EarnablePoints struct {
	Browser int
	App     int
}

func (e EarnablePoints) Total() int {
	return e.Browser + e.App
}
