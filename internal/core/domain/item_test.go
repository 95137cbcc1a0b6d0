package domain

import (
	"testing"
	"time"
)

func TestItemID(t *testing.T) {
	tests := []struct {
		name      string
		accession string
		sequence  int
		pageIndex int
		want      string
	}{
		{"typical", "0000320193-24-000123", 1, 7, "0000320193-24-000123_1_7"},
		{"first page", "0001193125-23-017489", 1, 1, "0001193125-23-017489_1_1"},
		{"exhibit sequence", "0000320193-24-000123", 12, 3, "0000320193-24-000123_12_3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ItemID(tt.accession, tt.sequence, tt.pageIndex)
			if got != tt.want {
				t.Errorf("ItemID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPageItemID(t *testing.T) {
	page := Page{
		AccessionNumber: "0000320193-24-000123",
		Sequence:        1,
		Index:           4,
	}
	if got := page.ItemID(); got != "0000320193-24-000123_1_4" {
		t.Errorf("Page.ItemID() = %q", got)
	}
}

func TestNewIndexItem(t *testing.T) {
	filing := FilingDescriptor{
		EntityID:        "0000320193",
		Ticker:          "AAPL",
		CompanyName:     "Apple Inc.",
		AccessionNumber: "0000320193-24-000123",
		FormType:        "10-K",
		FilingDate:      time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
		ReportDate:      time.Date(2024, 9, 28, 0, 0, 0, 0, time.UTC),
		SourceURL:       "https://example.com/Archives/edgar/data/320193/000032019324000123/0000320193-24-000123.txt",
	}
	page := Page{
		AccessionNumber: filing.AccessionNumber,
		Sequence:        1,
		Index:           2,
		Title:           "RISK FACTORS",
		Content:         "Item 1A. Risk Factors",
	}
	acl := []ACLEntry{{Type: "everyone", Value: "everyone", AccessType: "grant"}}

	item := NewIndexItem(filing, page, acl)

	if item.ID != "0000320193-24-000123_1_2" {
		t.Errorf("ID = %q", item.ID)
	}
	if item.Properties.CompanyName != "Apple Inc." {
		t.Errorf("CompanyName = %q", item.Properties.CompanyName)
	}
	if item.Properties.PageNumber != 2 {
		t.Errorf("PageNumber = %d", item.Properties.PageNumber)
	}
	if item.Properties.FilingDate != "2024-11-01" {
		t.Errorf("FilingDate = %q", item.Properties.FilingDate)
	}
	if item.Properties.ReportDate != "2024-09-28" {
		t.Errorf("ReportDate = %q", item.Properties.ReportDate)
	}
	if item.Content.Type != "text" || item.Content.Value != "Item 1A. Risk Factors" {
		t.Errorf("Content = %+v", item.Content)
	}
	if len(item.ACL) != 1 || item.ACL[0].AccessType != "grant" {
		t.Errorf("ACL = %+v", item.ACL)
	}
}

func TestNewIndexItem_ZeroDatesOmitted(t *testing.T) {
	item := NewIndexItem(FilingDescriptor{AccessionNumber: "0-0-0"}, Page{AccessionNumber: "0-0-0", Sequence: 1, Index: 1}, nil)
	if item.Properties.FilingDate != "" {
		t.Errorf("expected empty FilingDate, got %q", item.Properties.FilingDate)
	}
	if item.Properties.ReportDate != "" {
		t.Errorf("expected empty ReportDate, got %q", item.Properties.ReportDate)
	}
}
