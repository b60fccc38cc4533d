package tools

import (
	"context"
	"fmt"

	"github.com/taskpilot/taskpilot/config"
	"github.com/taskpilot/taskpilot/internal/plan"
	"github.com/taskpilot/taskpilot/internal/webfetch"
)

// ScrapeTool answers "scrape" steps. It fetches either the explicit url
// argument or the top_k URLs of the most recent search results in the
// shared context, and emits extracted page text. Fetch failures are logged
// per URL and never fail the step.
type ScrapeTool struct {
	fetcher  webfetch.Fetcher
	fallback webfetch.Fetcher
}

// NewScrapeTool builds a scraper. With browser enabled it renders pages in
// headless Chrome and falls back to plain HTTP when rendering fails.
func NewScrapeTool(cfg config.ScraperConfig, browser bool) *ScrapeTool {
	httpFetcher := webfetch.HTTPFetcher{Timeout: cfg.Timeout, MaxChars: cfg.MaxChars}
	if !browser {
		return &ScrapeTool{fetcher: httpFetcher}
	}
	return &ScrapeTool{
		fetcher:  webfetch.BrowserFetcher{Timeout: cfg.Timeout, MaxChars: cfg.MaxChars},
		fallback: httpFetcher,
	}
}

// Run implements Tool.
func (t *ScrapeTool) Run(ctx context.Context, args map[string]interface{}, state plan.State) ([]string, map[string]interface{}, error) {
	urls := t.targetURLs(args, state)
	if len(urls) == 0 {
		return []string{"No URLs or search results available to scrape"}, map[string]interface{}{"pages": []interface{}{}}, nil
	}

	var logs []string
	pages := make([]interface{}, 0, len(urls))
	for _, u := range urls {
		logs = append(logs, fmt.Sprintf("Fetching %s", u))
		page, err := t.fetch(ctx, u)
		if err != nil {
			logs = append(logs, fmt.Sprintf("Error fetching %s: %v", u, err))
			continue
		}
		text := page.Text
		if text == "" {
			text = "(no text)"
		}
		pages = append(pages, map[string]interface{}{"url": u, "text": text})
		logs = append(logs, fmt.Sprintf("Scraped %s (%d chars)", u, len(page.Text)))
	}
	return logs, map[string]interface{}{"pages": pages}, nil
}

func (t *ScrapeTool) fetch(ctx context.Context, url string) (webfetch.Page, error) {
	page, err := t.fetcher.Fetch(ctx, url)
	if err != nil && t.fallback != nil {
		return t.fallback.Fetch(ctx, url)
	}
	return page, err
}

func (t *ScrapeTool) targetURLs(args map[string]interface{}, state plan.State) []string {
	if u, _ := args["url"].(string); u != "" {
		return []string{u}
	}
	output, ok := plan.FirstMatch(state, "results")
	if !ok {
		return nil
	}
	results := anySlice(output["results"])
	if len(results) == 0 {
		return nil
	}
	topK := intArg(args, "top_k", 3)
	var urls []string
	for _, r := range results {
		if len(urls) >= topK {
			break
		}
		m, ok := r.(map[string]interface{})
		if !ok {
			continue
		}
		if u, _ := m["url"].(string); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
