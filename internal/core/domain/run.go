package domain

// RunStats holds counters for one pipeline run.
// All counters live here instead of package-level globals so a run can be
// inspected and logged as a unit.
type RunStats struct {
	FilingsListed       int `json:"filings_listed"`
	ArchivesDownloaded  int `json:"archives_downloaded"`
	ArchivesCached      int `json:"archives_cached"`
	SubDocuments        int `json:"sub_documents"`
	SubDocumentsSkipped int `json:"sub_documents_skipped"`
	PagesSegmented      int `json:"pages_segmented"`
	PagesUploaded       int `json:"pages_uploaded"`
	PagesSkipped        int `json:"pages_skipped"` // already in the ledger
	BatchesSubmitted    int `json:"batches_submitted"`
	BatchesFailed       int `json:"batches_failed"`
	Errors              int `json:"errors"`
}

// RunResult is the outcome of one pipeline run.
type RunResult struct {
	Success  bool     `json:"success"`
	Stats    RunStats `json:"stats"`
	Error    string   `json:"error,omitempty"`
	Duration float64  `json:"duration_seconds"`
}
