package domain

import "time"

// FilingDescriptor identifies one raw filing archive in the catalog.
// It is created when the catalog listing is fetched and never mutated after.
type FilingDescriptor struct {
	EntityID        string    `json:"entity_id"`      // CIK, zero-padded to 10 digits
	Ticker          string    `json:"ticker"`
	CompanyName     string    `json:"company_name"`
	AccessionNumber string    `json:"accession_number"` // with hyphens, e.g. 0000320193-24-000123
	FormType        string    `json:"form_type"`
	FilingDate      time.Time `json:"filing_date"`
	ReportDate      time.Time `json:"report_date"`
	AcceptanceTime  time.Time `json:"acceptance_time"`
	SourceURL       string    `json:"source_url"` // canonical archive download URL
	CachePath       string    `json:"cache_path"` // local cache location, set once downloaded
}

// SubDocument is one embedded document within a filing archive.
type SubDocument struct {
	AccessionNumber string `json:"accession_number"`
	Sequence        int    `json:"sequence"` // 1-based, unique within a filing
	Filename        string `json:"filename"`
	Type            string `json:"type"`        // declared form/exhibit type, e.g. 10-K, EX-99.1
	Extension       string `json:"extension"`   // lowercased filename extension, e.g. .htm
	Description     string `json:"description"`
	Body            string `json:"body"` // raw content block
}

// Page is one page-sized segment of a sub-document's normalized text.
type Page struct {
	AccessionNumber string `json:"accession_number"`
	Sequence        int    `json:"sequence"`
	Index           int    `json:"index"` // 1-based within the sub-document
	Title           string `json:"title"`
	Content         string `json:"content"`
}

// ItemID returns the stable index item id for this page.
func (p Page) ItemID() string {
	return ItemID(p.AccessionNumber, p.Sequence, p.Index)
}
