package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"CityPodcast/internal/config"
	"CityPodcast/internal/domain"
	"CityPodcast/internal/ports"
)

const (
	candidateCount = 10
	// MaxArticles is the number of most recent articles handed to the script writer.
	MaxArticles = 5

	removedMarker = "[Removed]"
)

// Client fetches city news from the NewsAPI "everything" endpoint.
type Client struct {
	endpoint string
	apiKey   string
	language string
	client   *http.Client
	logger   *slog.Logger
}

var _ ports.NewsSource = (*Client)(nil)

type everythingResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string  `json:"title"`
		Description *string `json:"description"`
		URL         string  `json:"url"`
		PublishedAt string  `json:"publishedAt"`
	} `json:"articles"`
}

// NewClient wires an HTTP client; a nil client gets the configured timeout.
func NewClient(cfg config.NewsConfig, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	language := cfg.Language
	if language == "" {
		language = "en"
	}
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		language: language,
		client:   client,
		logger:   logger,
	}
}

// Fetch returns up to MaxArticles recent articles about city.
// A non-success status from NewsAPI yields an empty result, not an error.
func (c *Client) Fetch(ctx context.Context, city string) ([]domain.Article, error) {
	reqURL, err := buildQueryURL(c.endpoint, city, c.language, c.apiKey)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "CityPodcast/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request news: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.warn("newsapi returned non-success status",
			"city", city,
			"status", resp.StatusCode,
			"body", strings.TrimSpace(string(body)))
		return []domain.Article{}, nil
	}

	var payload everythingResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode news: %w", err)
	}

	articles := make([]domain.Article, 0, MaxArticles)
	for _, item := range payload.Articles {
		if len(articles) == MaxArticles {
			break
		}
		title := plainText(item.Title)
		if title == "" || title == removedMarker {
			continue
		}

		article := domain.Article{
			Title:  title,
			Source: strings.TrimSpace(item.Source.Name),
			URL:    item.URL,
		}
		if item.Description != nil {
			article.Description = plainText(*item.Description)
		}
		if ts, err := time.Parse(time.RFC3339, item.PublishedAt); err == nil {
			article.PublishedAt = ts
		}
		articles = append(articles, article)
	}

	c.debug("fetched news", "city", city, "candidates", len(payload.Articles), "kept", len(articles))
	return articles, nil
}

func buildQueryURL(endpoint, city, language, apiKey string) (string, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid news endpoint %s: %w", endpoint, err)
	}

	query := parsed.Query()
	query.Set("q", fmt.Sprintf(`%s OR "%s"`, city, city))
	query.Set("language", language)
	query.Set("sortBy", "publishedAt")
	query.Set("pageSize", strconv.Itoa(candidateCount))
	query.Set("apiKey", apiKey)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// plainText strips any inline HTML NewsAPI leaves in titles and descriptions.
func plainText(value string) string {
	value = strings.TrimSpace(value)
	if !strings.ContainsAny(value, "<&") {
		return value
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(value))
	if err != nil {
		return value
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Client) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
