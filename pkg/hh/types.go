package hh

import (
	"net/http"
	"time"
)

// Config defines hh.ru API client settings
type Config struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

// Client queries the hh.ru vacancy endpoints
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// SearchParams describe one page of a vacancy search.
// DateFrom and DateTo are calendar dates, both inclusive.
type SearchParams struct {
	Specialization int
	Area           int
	PerPage        int
	Page           int
	DateFrom       time.Time
	DateTo         time.Time
}

// SearchPage is one page of search results
type SearchPage struct {
	Found   int        `json:"found"`
	Pages   int        `json:"pages"`
	Page    int        `json:"page"`
	PerPage int        `json:"per_page"`
	Items   []ItemStub `json:"items"`
}

// IDs lists the vacancy ids on the page in order
func (p SearchPage) IDs() []string {
	ids := make([]string, 0, len(p.Items))
	for _, item := range p.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// ItemStub is the part of a search item the crawler uses
type ItemStub struct {
	ID string `json:"id"`
}

// Vacancy is a full vacancy document. Nested objects the API sends as null
// decode to nil.
type Vacancy struct {
	ID                     string      `json:"id"`
	Name                   string      `json:"name"`
	Description            string      `json:"description"`
	PublishedAt            string      `json:"published_at"`
	Employer               *Employer   `json:"employer"`
	Salary                 *Salary     `json:"salary"`
	Schedule               *Dictionary `json:"schedule"`
	Employment             *Dictionary `json:"employment"`
	Area                   *Dictionary `json:"area"`
	Experience             *Dictionary `json:"experience"`
	ResponseLetterRequired *bool       `json:"response_letter_required"`
	Test                   *Test       `json:"test"`
	HasTest                *bool       `json:"has_test"`
}

// Employer of a vacancy; anonymous employers carry no id
type Employer struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

type Salary struct {
	From     *int    `json:"from"`
	To       *int    `json:"to"`
	Currency *string `json:"currency"`
	Gross    *bool   `json:"gross"`
}

// Dictionary is an hh.ru reference entry such as a schedule or an area
type Dictionary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Test struct {
	Required bool `json:"required"`
}
