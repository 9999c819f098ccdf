package script

import (
	"fmt"
	"strings"

	"CityPodcast/internal/domain"
)

// Temperature is the sampling temperature used for every script.
const Temperature = 0.7

// SystemPersona is the fixed system instruction given to the language model.
const SystemPersona = "You are an expert radio script writer specializing in local news podcasts with warm, conversational delivery."

const missingDescription = "No description"

// BuildPrompt renders the user prompt for city embedding articles in the given order.
func BuildPrompt(city string, articles []domain.Article) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a professional local radio news host creating a hyper-local morning news podcast for %s.\n\n", city)
	fmt.Fprintf(&b, "Based on these news articles about %s:\n\n", city)
	b.WriteString(formatArticles(articles))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, `Create a 10-15 minute radio-style news script with the following structure:
1. Warm introduction welcoming listeners to %[1]s's morning news
2. Top 3 local headlines (focus ONLY on %[1]s-specific news)
3. Community events or local interest stories
4. Brief weather mention (if available in articles)
5. Friendly sign-off

Important guidelines:
- Use a warm, conversational NPR-style tone
- Focus EXCLUSIVELY on hyper-local %[1]s news - NO national/international headlines
- Explain any technical terms in simple language
- Include SSML markup for natural speech:
  * Use <break time="0.5s"/> for pauses
  * Use <prosody rate="slow">text</prosody> for emphasis
  * Use <phoneme alphabet="ipa" ph="pronunciation">word</phoneme> for difficult words
- Keep the total script to 10-15 minutes of speaking time
- Make it sound natural and engaging, like a real radio host

Write ONLY the script text, no stage directions or meta-commentary.`, city)

	return b.String()
}

func formatArticles(articles []domain.Article) string {
	blocks := make([]string, 0, len(articles))
	for i, article := range articles {
		description := strings.TrimSpace(article.Description)
		if description == "" {
			description = missingDescription
		}
		blocks = append(blocks, fmt.Sprintf("Article %d:\nTitle: %s\nDescription: %s\nSource: %s",
			i+1, article.Title, description, article.Source))
	}
	return strings.Join(blocks, "\n\n")
}
