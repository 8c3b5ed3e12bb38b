package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/listing"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestClient() *Client {
	return NewClient(zap.NewNop(), nil, 5*time.Second)
}

func serveJSON(t *testing.T, body string, check func(r *http.Request)) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestAdzunaMissingCredentialsSkipsRequest(t *testing.T) {
	srv, calls := serveJSON(t, `{"results": []}`, nil)

	adapter := NewAdzuna(AdzunaConfig{BaseURL: srv.URL, Credentials: AdzunaCredentials{AppID: "id"}}, newTestClient(), nil)

	items, err := adapter.Fetch(context.Background(), Query{Keywords: "cloud", Days: 7, Now: testNow})
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
	if items != nil {
		t.Fatalf("expected no listings, got %d", len(items))
	}
	if atomic.LoadInt32(calls) != 0 {
		t.Fatalf("expected no http calls")
	}
}

func TestAdzunaFetch(t *testing.T) {
	body := `{"results": [
		{"id": "4711", "title": "Cloud Architect", "description": "Design <b>AWS</b> platforms",
		 "redirect_url": "https://adzuna.example/4711", "created": "2026-03-09T08:00:00Z",
		 "company": {"display_name": "Acme"}, "location": {"display_name": "Boston, MA"},
		 "salary_max": 185000.5},
		{"id": 4712, "title": "Old Posting", "created": "2026-01-01T08:00:00Z",
		 "company": {"display_name": "Globex"}, "location": {"display_name": "Remote"}}
	]}`
	srv, _ := serveJSON(t, body, func(r *http.Request) {
		if r.URL.Path != "/v1/api/jobs/us/search/1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("app_id") != "id" || q.Get("app_key") != "key" {
			t.Errorf("expected credentials in query")
		}
		if q.Get("what") != "cloud architect" || q.Get("max_days_old") != "7" || q.Get("results_per_page") != "50" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
	})

	adapter := NewAdzuna(AdzunaConfig{
		BaseURL:     srv.URL,
		Credentials: AdzunaCredentials{AppID: "id", AppKey: "key"},
	}, newTestClient(), nil)

	items, err := adapter.Fetch(context.Background(), Query{Keywords: "cloud architect", Days: 7, Now: testNow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 recent listing, got %d", len(items))
	}

	got := items[0]
	if got.Title != "Cloud Architect" || got.Company != "Acme" || got.Location != "Boston, MA" {
		t.Fatalf("unexpected listing: %+v", got)
	}
	if got.Description != "Design AWS platforms" {
		t.Fatalf("expected html stripped description, got %q", got.Description)
	}
	if got.Source != listing.SourceAdzuna || got.ExternalID != "4711" {
		t.Fatalf("unexpected identity: %s/%s", got.Source, got.ExternalID)
	}
	if got.Salary == nil || *got.Salary != "185000.5" {
		t.Fatalf("unexpected salary: %v", got.Salary)
	}
	if got.MatchScore != nil {
		t.Fatalf("expected unscored listing")
	}
}

func TestRemotiveKeepsUnparseableDates(t *testing.T) {
	body := `{"jobs": [
		{"id": 1, "title": "SRE", "company_name": "Acme", "description": "<p>Kubernetes</p>",
		 "url": "https://remotive.example/1", "publication_date": "2026-03-08T10:00:00", "salary": ""},
		{"id": 2, "title": "DevOps", "company_name": "Globex", "description": "Terraform",
		 "url": "https://remotive.example/2", "publication_date": "not a date", "salary": "$100k"},
		{"id": 3, "title": "Stale", "company_name": "Initech", "description": "old",
		 "url": "https://remotive.example/3", "publication_date": "2025-12-01T10:00:00"}
	]}`
	srv, _ := serveJSON(t, body, func(r *http.Request) {
		if r.URL.Query().Get("search") != "devops" {
			t.Errorf("unexpected search: %s", r.URL.RawQuery)
		}
	})

	adapter := NewRemotive(RemotiveConfig{BaseURL: srv.URL}, newTestClient(), nil)

	items, err := adapter.Fetch(context.Background(), Query{Keywords: "devops", Days: 7, Now: testNow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(items))
	}
	if items[0].ExternalID != "1" || items[1].ExternalID != "2" {
		t.Fatalf("unexpected order: %s, %s", items[0].ExternalID, items[1].ExternalID)
	}
	if items[0].Location != "Remote" || items[0].Description != "Kubernetes" {
		t.Fatalf("unexpected normalization: %+v", items[0])
	}
	if items[0].Salary != nil {
		t.Fatalf("expected empty salary to be nil")
	}
	if items[1].Salary == nil || *items[1].Salary != "$100k" {
		t.Fatalf("unexpected salary: %v", items[1].Salary)
	}
}

func TestRemotiveBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	adapter := NewRemotive(RemotiveConfig{BaseURL: srv.URL}, newTestClient(), nil)
	if _, err := adapter.Fetch(context.Background(), Query{Keywords: "go"}); err == nil {
		t.Fatal("expected error for bad status")
	}
}

func TestArbeitnowFiltersAndTruncates(t *testing.T) {
	long := strings.Repeat("x", 600)
	body := `{"data": [
		{"slug": "cloud-1", "title": "Cloud Engineer", "company_name": "Acme", "location": "Berlin",
		 "description": "` + long + `", "url": "https://arbeitnow.example/1", "created_at": 1773050000},
		{"slug": "chef-1", "title": "Chef", "company_name": "Bistro", "location": "Munich",
		 "description": "Cooking", "url": "https://arbeitnow.example/2", "created_at": 1773050000},
		{"slug": "platform-1", "title": "Engineer", "company_name": "Globex", "location": "Hamburg",
		 "description": "Our PLATFORM team", "url": "https://arbeitnow.example/3", "created_at": "yesterday"},
		{"slug": "cloud-old", "title": "Cloud Ops", "company_name": "Initech", "location": "Köln",
		 "description": "old", "url": "https://arbeitnow.example/4", "created_at": 1700000000}
	]}`
	srv, _ := serveJSON(t, body, nil)

	adapter := NewArbeitnow(ArbeitnowConfig{BaseURL: srv.URL, MaxDescriptionLength: DefaultMaxDescriptionLength}, newTestClient(), nil)

	items, err := adapter.Fetch(context.Background(), Query{Keywords: "Cloud Platform", Days: 7, Now: testNow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(items))
	}
	if items[0].ExternalID != "cloud-1" || items[1].ExternalID != "platform-1" {
		t.Fatalf("unexpected listings: %s, %s", items[0].ExternalID, items[1].ExternalID)
	}
	if got := len([]rune(items[0].Description)); got != DefaultMaxDescriptionLength {
		t.Fatalf("expected truncated description, got %d runes", got)
	}
	if items[0].PostedDate != "1773050000" {
		t.Fatalf("unexpected posted date: %q", items[0].PostedDate)
	}
}

func TestWeWorkRemotelyFeed(t *testing.T) {
	feed := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>We Work Remotely</title>
<item>
  <title>Acme: Senior DevOps Engineer</title>
  <region>Anywhere in the World</region>
  <description>&lt;p&gt;Run our Kubernetes clusters&lt;/p&gt;</description>
  <pubDate>Mon, 09 Mar 2026 10:00:00 +0000</pubDate>
  <guid>https://weworkremotely.example/jobs/1</guid>
  <link>https://weworkremotely.example/jobs/1</link>
</item>
<item>
  <title>Bistro: Head Chef</title>
  <description>Cooking</description>
  <pubDate>Mon, 09 Mar 2026 10:00:00 +0000</pubDate>
  <guid>https://weworkremotely.example/jobs/2</guid>
  <link>https://weworkremotely.example/jobs/2</link>
</item>
</channel>
</rss>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	adapter := NewWeWorkRemotely(WeWorkRemotelyConfig{Feeds: []string{srv.URL}}, newTestClient(), nil)

	items, err := adapter.Fetch(context.Background(), Query{Keywords: "devops", Days: 7, Now: testNow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(items))
	}

	got := items[0]
	if got.Company != "Acme" || got.Title != "Senior DevOps Engineer" {
		t.Fatalf("unexpected title split: %q / %q", got.Company, got.Title)
	}
	if got.Description != "Run our Kubernetes clusters" {
		t.Fatalf("unexpected description: %q", got.Description)
	}
	if got.PostedDate != "2026-03-09T10:00:00Z" {
		t.Fatalf("unexpected posted date: %q", got.PostedDate)
	}
	if got.ExternalID == "" || got.Source != listing.SourceWeWorkRemotely {
		t.Fatalf("unexpected identity: %+v", got)
	}
}

func TestClientHonoursContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	adapter := NewRemotive(RemotiveConfig{BaseURL: srv.URL}, newTestClient(), nil)
	if _, err := adapter.Fetch(ctx, Query{Keywords: "go"}); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestSplitFeedTitle(t *testing.T) {
	company, title := splitFeedTitle("Acme: Cloud: Engineer")
	if company != "Acme" || title != "Cloud: Engineer" {
		t.Fatalf("unexpected split: %q / %q", company, title)
	}
	company, title = splitFeedTitle("No company")
	if company != "" || title != "No company" {
		t.Fatalf("unexpected split: %q / %q", company, title)
	}
}
