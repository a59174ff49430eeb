package hh

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL + "/", HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestSearch(t *testing.T) {
	var gotQuery url.Values
	var gotPath, gotUA string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"found":3,"pages":2,"page":0,"per_page":2,"items":[{"id":"11","name":"a"},{"id":"12"}]}`))
	})

	page, err := c.Search(context.Background(), SearchParams{
		Specialization: 1,
		Area:           113,
		PerPage:        2,
		Page:           0,
		DateFrom:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DateTo:         time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotPath != "/vacancies" {
		t.Errorf("path = %q, want /vacancies", gotPath)
	}
	if gotUA != DefaultUserAgent {
		t.Errorf("User-Agent = %q, want %q", gotUA, DefaultUserAgent)
	}

	wantQuery := url.Values{
		"specialization": {"1"},
		"area":           {"113"},
		"per_page":       {"2"},
		"date_from":      {"2024-03-01"},
		"date_to":        {"2024-03-07"},
		"page":           {"0"},
	}
	if diff := cmp.Diff(wantQuery, gotQuery); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}

	if page.Found != 3 || page.Pages != 2 {
		t.Errorf("found/pages = %d/%d, want 3/2", page.Found, page.Pages)
	}
	if diff := cmp.Diff([]string{"11", "12"}, page.IDs()); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestVacancy(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vacancies/42" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{
			"id": "42",
			"name": "Go developer",
			"description": "<p>Write Go</p>",
			"published_at": "2024-03-05T23:30:00+0300",
			"employer": {"id": "7", "name": "Acme"},
			"salary": {"from": 100000, "to": null, "currency": "RUR", "gross": true},
			"schedule": {"id": "remote", "name": "Remote"},
			"employment": null,
			"area": {"id": "1", "name": "Moscow"},
			"experience": {"id": "between1And3", "name": "1-3 years"},
			"response_letter_required": false,
			"test": null,
			"has_test": false
		}`))
	})

	got, err := c.Vacancy(context.Background(), "42")
	if err != nil {
		t.Fatalf("Vacancy: %v", err)
	}

	employerID, from, currency, gross := "7", 100000, "RUR", true
	notRequired, noTest := false, false
	want := Vacancy{
		ID:                     "42",
		Name:                   "Go developer",
		Description:            "<p>Write Go</p>",
		PublishedAt:            "2024-03-05T23:30:00+0300",
		Employer:               &Employer{ID: &employerID, Name: "Acme"},
		Salary:                 &Salary{From: &from, Currency: &currency, Gross: &gross},
		Schedule:               &Dictionary{ID: "remote", Name: "Remote"},
		Area:                   &Dictionary{ID: "1", Name: "Moscow"},
		Experience:             &Dictionary{ID: "between1And3", Name: "1-3 years"},
		ResponseLetterRequired: &notRequired,
		HasTest:                &noTest,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("vacancy mismatch (-want +got):\n%s", diff)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  int
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			status: http.StatusInternalServerError,
		},
		{
			name: "forbidden",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "captcha required", http.StatusForbidden)
			},
			status: http.StatusForbidden,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"found": "many"`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)

			_, err := c.Vacancy(context.Background(), "1")
			if err == nil {
				t.Fatal("expected error")
			}

			var apiErr *APIError
			if tt.status == 0 {
				if errors.As(err, &apiErr) {
					t.Errorf("decode failure reported as API error: %v", err)
				}
				return
			}
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T: %v", err, err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", apiErr.StatusCode, tt.status)
			}
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := NewClient(Config{BaseURL: base})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := c.Search(context.Background(), SearchParams{PerPage: 1}); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestVacancyRequiresID(t *testing.T) {
	c, err := NewClient(Config{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.Vacancy(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty id")
	}
}
