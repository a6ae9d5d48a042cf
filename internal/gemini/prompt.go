package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/deusflow/headlines/internal/news"
)

const groupInstruction = `You are an expert news editor. Process the list of news articles below.

Group and deduplicate: find articles from different sources that cover the exact same event. Put their links and publishers under a single neutral, comprehensive headline with a short summary. Articles that are unique stay as standalone items with their one link.

Use the publisher and link values exactly as given.

Here is the list of news articles:
`

const significanceInstruction = `You are an expert news editor. For each news story below decide whether it is significant world news.

A significant story has a high potential to impact global markets, international relations or major policy decisions worldwide. Rate it HIGH in that case, MEDIUM if the impact is regional, LOW otherwise.

Return every story with its title, summary and links unchanged and the significance field filled in.

Here is the list of stories as JSON:
`

func groupPrompt(items []news.FeedItem) string {
	var b strings.Builder
	b.WriteString(groupInstruction)
	for _, it := range items {
		fmt.Fprintf(&b, "\nHeadline: %s\nDescription: %s\nPublisher: %s\nLink: %s\n",
			it.Title, it.Summary, it.Publisher, it.Link)
	}
	return b.String()
}

func significancePrompt(items []news.NewsItem) (string, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encoding stories: %w", err)
	}
	return significanceInstruction + string(data) + "\n", nil
}
