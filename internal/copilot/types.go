package copilot

import "time"

// ReportLink is the API response for the latest 28-day users report.
type ReportLink struct {
	DownloadLinks  []string `json:"download_links"`
	ReportStartDay string   `json:"report_start_day"`
	ReportEndDay   string   `json:"report_end_day"`
}

// Result is a ReportLink fetch outcome, TUI-ready.
type Result struct {
	Link      *ReportLink
	FetchedAt time.Time
	Error     error
}
