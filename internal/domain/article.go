package domain

import "time"

// Article is a news item returned by the news provider for a single pipeline run.
type Article struct {
	Title string
	// Description is empty when the provider did not supply one.
	Description string
	Source      string
	URL         string
	PublishedAt time.Time
}
