package model

import "fmt"

// ReportCategory identifies one family of exported reports. At most one
// artifact per claim is tracked for each category.
type ReportCategory string

const (
	CategoryCommercial ReportCategory = "Commercial Dollars"
	CategoryUpdated    ReportCategory = "Updated Commercial Payments"
	CategoryFederal    ReportCategory = "Federal Dollars"
	CategorySummary    ReportCategory = "Summary"
)

// AllCategories lists the report categories in display order.
var AllCategories = []ReportCategory{
	CategoryCommercial,
	CategoryUpdated,
	CategoryFederal,
	CategorySummary,
}

// Folder is the report subdirectory for the category.
func (c ReportCategory) Folder() string {
	switch c {
	case CategoryCommercial:
		return "report_commercialdollars"
	case CategoryUpdated:
		return "report_updatedcommercialdollars"
	case CategoryFederal:
		return "report_federaldollars"
	case CategorySummary:
		return "report_summary"
	default:
		return "reports"
	}
}

// ParseCategory accepts either the display name or a short alias
// (commercial, updated, federal, summary).
func ParseCategory(s string) (ReportCategory, error) {
	switch s {
	case string(CategoryCommercial), "commercial":
		return CategoryCommercial, nil
	case string(CategoryUpdated), "updated":
		return CategoryUpdated, nil
	case string(CategoryFederal), "federal":
		return CategoryFederal, nil
	case string(CategorySummary), "summary":
		return CategorySummary, nil
	}
	return "", fmt.Errorf("unknown report category %q", s)
}

// ReportRecord links a claim to the artifact exported for a category.
type ReportRecord struct {
	Script       string
	Category     ReportCategory
	ArtifactPath string
}

// PharmacyProfile is the singleton pharmacy identity block.
type PharmacyProfile struct {
	Name          string `json:"pharmacy_name" yaml:"pharmacy_name"`
	Address       string `json:"address" yaml:"address"`
	Phone         string `json:"phone" yaml:"phone"`
	Fax           string `json:"fax" yaml:"fax"`
	Email         string `json:"email" yaml:"email"`
	NCPDP         string `json:"ncpdp" yaml:"ncpdp"`
	NPI           string `json:"npi" yaml:"npi"`
	ContactPerson string `json:"contact_person" yaml:"contact_person"`
}
