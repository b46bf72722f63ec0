package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <item>
      <title>FOMC statement</title>
      <link>https://example.com/fomc</link>
      <description>&lt;p&gt;The Committee decided to &lt;b&gt;maintain&lt;/b&gt; the target range.&lt;/p&gt;</description>
      <pubDate>Mon, 03 Jun 2024 14:00:00 GMT</pubDate>
    </item>
    <item>
      <title>CPI release</title>
      <link>https://example.com/cpi</link>
      <description>Consumer prices rose 0.3 percent in May.</description>
      <pubDate>Tue, 04 Jun 2024 12:30:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func TestRecentParsesAndStripsHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssFixture))
	}))
	defer srv.Close()

	f := NewWithSources([]Source{{Name: "Test Feed", RSSURL: srv.URL}}, time.Minute, nil)
	articles, err := f.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}

	// Newest first.
	if articles[0].Title != "CPI release" {
		t.Errorf("expected CPI release first, got %s", articles[0].Title)
	}
	if articles[1].Title != "FOMC statement" {
		t.Errorf("expected FOMC statement second, got %s", articles[1].Title)
	}

	// HTML stripped from the summary.
	want := "The Committee decided to maintain the target range."
	if articles[1].Summary != want {
		t.Errorf("expected summary %q, got %q", want, articles[1].Summary)
	}
	if articles[1].Source != "Test Feed" {
		t.Errorf("expected source Test Feed, got %s", articles[1].Source)
	}
	if articles[1].PublishedAt.IsZero() {
		t.Error("expected parsed publish date")
	}
}

func TestRecentLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssFixture))
	}))
	defer srv.Close()

	f := NewWithSources([]Source{{Name: "Test", RSSURL: srv.URL}}, time.Minute, nil)
	articles, err := f.Recent(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("expected 1 article, got %d", len(articles))
	}
}

func TestRecentSkipsFailedSources(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssFixture))
	}))
	defer good.Close()
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer dead.Close()

	f := NewWithSources([]Source{
		{Name: "Dead", RSSURL: dead.URL},
		{Name: "Good", RSSURL: good.URL},
	}, time.Minute, nil)

	articles, err := f.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(articles) != 2 {
		t.Errorf("expected articles from the healthy source, got %d", len(articles))
	}
}

func TestRecentUsesCache(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(rssFixture))
	}))
	defer srv.Close()

	f := NewWithSources([]Source{{Name: "Test", RSSURL: srv.URL}}, time.Minute, nil)
	if _, err := f.Recent(context.Background(), 5); err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if _, err := f.Recent(context.Background(), 5); err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if hits != 1 {
		t.Errorf("expected 1 upstream hit, got %d", hits)
	}
}

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain text", "plain text"},
		{"<p>nested <b>tags</b> here</p>", "nested tags here"},
		{"  <div> padded </div>  ", "padded"},
	}
	for _, tt := range tests {
		if got := cleanHTML(tt.in); got != tt.want {
			t.Errorf("cleanHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
