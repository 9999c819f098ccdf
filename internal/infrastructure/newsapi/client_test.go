package newsapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"CityPodcast/internal/config"
)

func TestBuildQueryURL(t *testing.T) {
	t.Parallel()

	u, err := buildQueryURL("https://newsapi.org/v2/everything", "San Jose", "en", "k3y")
	if err != nil {
		t.Fatalf("buildQueryURL returned error: %v", err)
	}

	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}
	if parsed.Host != "newsapi.org" || parsed.Path != "/v2/everything" {
		t.Fatalf("unexpected url: %s", u)
	}

	q := parsed.Query()
	if q.Get("q") != `San Jose OR "San Jose"` {
		t.Fatalf("unexpected q: %s", q.Get("q"))
	}
	if q.Get("sortBy") != "publishedAt" || q.Get("pageSize") != "10" || q.Get("language") != "en" {
		t.Fatalf("unexpected query: %v", q)
	}
	if q.Get("apiKey") != "k3y" {
		t.Fatalf("unexpected apiKey: %s", q.Get("apiKey"))
	}
}

func TestPlainText(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Plain headline":                         "Plain headline",
		"<p>City council <b>votes</b> today</p>": "City council votes today",
		"Tacos &amp; tunes":                      "Tacos & tunes",
		"  spaced  ":                             "spaced",
	}
	for in, want := range cases {
		if got := plainText(in); got != want {
			t.Fatalf("plainText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClientFetchKeepsFiveMostRecent(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		var items []string
		items = append(items, `{"source":{"name":"Removed"},"title":"[Removed]","description":null,"url":"","publishedAt":""}`)
		for i := 1; i <= 9; i++ {
			items = append(items, fmt.Sprintf(
				`{"source":{"name":"Source %d"},"title":"Story %d","description":"<p>Desc %d</p>","url":"https://example.com/%d","publishedAt":"2025-11-0%dT10:00:00Z"}`,
				i, i, i, i, i))
		}
		items[2] = `{"source":{"name":"KUT"},"title":"No description story","description":null,"url":"https://example.com/x","publishedAt":"2025-11-08T10:00:00Z"}`
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"status":"ok","totalResults":10,"articles":[%s]}`, strings.Join(items, ","))
	}))
	defer server.Close()

	client := NewClient(config.NewsConfig{Endpoint: server.URL + "/v2/everything", APIKey: "k"}, server.Client(), nil)

	articles, err := client.Fetch(context.Background(), "Austin")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if gotQuery.Get("q") != `Austin OR "Austin"` {
		t.Fatalf("unexpected q: %s", gotQuery.Get("q"))
	}
	if len(articles) != MaxArticles {
		t.Fatalf("expected %d articles, got %d", MaxArticles, len(articles))
	}
	if articles[0].Title != "Story 1" || articles[0].Description != "Desc 1" || articles[0].Source != "Source 1" {
		t.Fatalf("unexpected first article: %+v", articles[0])
	}
	if articles[1].Title != "No description story" || articles[1].Description != "" {
		t.Fatalf("unexpected second article: %+v", articles[1])
	}
	if articles[0].PublishedAt.IsZero() {
		t.Fatalf("expected published timestamp to be parsed")
	}
}

func TestClientFetchNonSuccessIsEmpty(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyInvalid"}`))
	}))
	defer server.Close()

	client := NewClient(config.NewsConfig{Endpoint: server.URL}, server.Client(), nil)

	articles, err := client.Fetch(context.Background(), "Austin")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if articles == nil || len(articles) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", articles)
	}
}

func TestClientFetchTransportFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	client := NewClient(config.NewsConfig{Endpoint: endpoint}, nil, nil)
	if _, err := client.Fetch(context.Background(), "Austin"); err == nil {
		t.Fatalf("expected transport error")
	}
}
