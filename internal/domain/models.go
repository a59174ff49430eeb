package domain

import (
	"time"
)

// DateLayout is the serialized form of DatePublished
const DateLayout = "2006-01-02"

// Vacancy is the normalized job vacancy entity shared by every source and sink.
// Optional fields are pointers: nil means the origin did not provide a value.
type Vacancy struct {
	Source        string    `row:"source" json:"source"`
	Name          string    `row:"name" json:"name"`
	Description   string    `row:"description" json:"description"`
	DatePublished time.Time `row:"date_published" json:"date_published"`
	EmployerName  *string   `row:"employer_name" json:"employer_name"`
	SourceID      string    `row:"id_source" json:"id_source"` // not unique across sources

	SalaryRangeLower     *int    `row:"salary_range_lower" json:"salary_range_lower"`
	SalaryRangeUpper     *int    `row:"salary_range_upper" json:"salary_range_upper"`
	SalaryCurrency       *string `row:"salary_currency" json:"salary_currency"`
	SalaryGrossIndicator *bool   `row:"salary_gross_indicator" json:"salary_gross_indicator"`
	ScheduleType         *string `row:"schedule_type" json:"schedule_type"`
	EmploymentType       *string `row:"employment_type" json:"employment_type"`
	Region               *string `row:"region" json:"region"`
	CoverLetterRequired  *bool   `row:"cover_letter_required" json:"cover_letter_required"`

	// hh.ru specific
	EmployerIDHH      *string `row:"employer_id_hh" json:"employer_id_hh"`
	ExperienceRangeHH *string `row:"experience_range_hh" json:"experience_range_hh"`
	TestRequiredHH    *bool   `row:"test_required_hh" json:"test_required_hh"`
	TestIncludedHH    *bool   `row:"test_included_hh" json:"test_included_hh"`
}

// Date truncates t to its calendar date in t's own location, expressed in UTC
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
