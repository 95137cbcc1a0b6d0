package domain

import "fmt"

// ItemID builds the stable index item id for a page.
// The format is "{accessionNumber}_{sequence}_{pageIndex}".
func ItemID(accessionNumber string, sequence, pageIndex int) string {
	return fmt.Sprintf("%s_%d_%d", accessionNumber, sequence, pageIndex)
}

// ACLEntry grants access to an index item.
type ACLEntry struct {
	Type       string `json:"type"`       // user, group, everyone
	Value      string `json:"value"`      // principal id
	AccessType string `json:"accessType"` // grant or deny
}

// ItemProperties is the searchable property bag of an index item.
type ItemProperties struct {
	Title           string `json:"title"`
	CompanyName     string `json:"companyName"`
	Ticker          string `json:"ticker"`
	FormType        string `json:"formType"`
	AccessionNumber string `json:"accessionNumber"`
	FilingDate      string `json:"filingDate,omitempty"`
	ReportDate      string `json:"reportDate,omitempty"`
	PageNumber      int    `json:"pageNumber"`
	SourceURL       string `json:"url,omitempty"`
}

// ItemContent is the full-text payload of an index item.
type ItemContent struct {
	Type  string `json:"type"` // always "text"
	Value string `json:"value"`
}

// IndexItem is one uploadable unit, built 1:1 from a Page.
type IndexItem struct {
	ID         string         `json:"-"` // carried in the request URL, not the body
	ACL        []ACLEntry     `json:"acl"`
	Properties ItemProperties `json:"properties"`
	Content    ItemContent    `json:"content"`
}

// NewIndexItem builds an IndexItem from a page and its filing metadata.
func NewIndexItem(filing FilingDescriptor, page Page, acl []ACLEntry) *IndexItem {
	props := ItemProperties{
		Title:           page.Title,
		CompanyName:     filing.CompanyName,
		Ticker:          filing.Ticker,
		FormType:        filing.FormType,
		AccessionNumber: filing.AccessionNumber,
		PageNumber:      page.Index,
		SourceURL:       filing.SourceURL,
	}
	if !filing.FilingDate.IsZero() {
		props.FilingDate = filing.FilingDate.Format("2006-01-02")
	}
	if !filing.ReportDate.IsZero() {
		props.ReportDate = filing.ReportDate.Format("2006-01-02")
	}

	return &IndexItem{
		ID:         page.ItemID(),
		ACL:        acl,
		Properties: props,
		Content:    ItemContent{Type: "text", Value: page.Content},
	}
}
