package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"time"
)

// --- Error Definitions ---
var ErrContentNotConfigured = errors.New("content feed API keys are not configured")

const (
	defaultNewsBaseURL    = "https://newsapi.org"
	defaultRecipesBaseURL = "https://api.spoonacular.com"
)

// htmlTagPattern strips markup from upstream recipe summaries.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>?`)

// ContentItem is the normalized feed entry: one shape whether the source is a
// news article or a recipe.
type ContentItem struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"` // "article" or "recipe"
	Title       string          `json:"title"`
	ImageURL    string          `json:"imageUrl"`
	SourceName  string          `json:"sourceName"`
	URL         string          `json:"url"`
	PublishedAt time.Time       `json:"publishedAt"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// ContentService aggregates the read-only learning feed from the two upstream
// content providers.
type ContentService interface {
	News(ctx context.Context) ([]ContentItem, error)
	Recipes(ctx context.Context) ([]ContentItem, error)
	Feed(ctx context.Context) ([]ContentItem, error)
}

// ContentConfig carries the upstream credentials and endpoints. Base URLs are
// overridable so tests can point at a local server.
type ContentConfig struct {
	NewsAPIKey        string
	SpoonacularAPIKey string
	NewsBaseURL       string
	RecipesBaseURL    string
}

// contentService implements the ContentService interface.
type contentService struct {
	cfg    ContentConfig
	client *http.Client
}

// NewContentService creates a new instance of contentService.
func NewContentService(cfg ContentConfig) ContentService {
	if cfg.NewsBaseURL == "" {
		cfg.NewsBaseURL = defaultNewsBaseURL
	}
	if cfg.RecipesBaseURL == "" {
		cfg.RecipesBaseURL = defaultRecipesBaseURL
	}
	return &contentService{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// --- Upstream response shapes ---

type newsArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	URLToImage  string    `json:"urlToImage"`
	PublishedAt time.Time `json:"publishedAt"`
}

type newsResponse struct {
	Articles []json.RawMessage `json:"articles"`
}

type recipe struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Image      string `json:"image"`
	SourceName string `json:"sourceName"`
	SourceURL  string `json:"sourceUrl"`
	Summary    string `json:"summary"`
}

type recipesResponse struct {
	Recipes []json.RawMessage `json:"recipes"`
}

// News fetches US health headlines and normalizes them to feed items.
func (s *contentService) News(ctx context.Context) ([]ContentItem, error) {
	if s.cfg.NewsAPIKey == "" {
		return nil, ErrContentNotConfigured
	}

	endpoint := fmt.Sprintf("%s/v2/top-headlines?country=us&category=health&apiKey=%s",
		s.cfg.NewsBaseURL, url.QueryEscape(s.cfg.NewsAPIKey))

	var parsed newsResponse
	if err := s.getJSON(ctx, endpoint, &parsed); err != nil {
		return nil, fmt.Errorf("news API request failed: %w", err)
	}

	items := make([]ContentItem, 0, len(parsed.Articles))
	for _, raw := range parsed.Articles {
		var a newsArticle
		if err := json.Unmarshal(raw, &a); err != nil {
			continue
		}
		items = append(items, ContentItem{
			ID:          a.URL,
			Type:        "article",
			Title:       a.Title,
			ImageURL:    a.URLToImage,
			SourceName:  a.Source.Name,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			Data:        raw,
		})
	}
	return items, nil
}

// Recipes fetches random vegetarian recipes, summaries stripped of HTML.
func (s *contentService) Recipes(ctx context.Context) ([]ContentItem, error) {
	if s.cfg.SpoonacularAPIKey == "" {
		return nil, ErrContentNotConfigured
	}

	endpoint := fmt.Sprintf("%s/recipes/random?number=10&tags=vegetarian,healthy&apiKey=%s",
		s.cfg.RecipesBaseURL, url.QueryEscape(s.cfg.SpoonacularAPIKey))

	var parsed recipesResponse
	if err := s.getJSON(ctx, endpoint, &parsed); err != nil {
		return nil, fmt.Errorf("recipes API request failed: %w", err)
	}

	now := time.Now().UTC()
	items := make([]ContentItem, 0, len(parsed.Recipes))
	for _, raw := range parsed.Recipes {
		var r recipe
		if err := json.Unmarshal(raw, &r); err != nil {
			continue
		}
		sourceName := r.SourceName
		if sourceName == "" {
			sourceName = "Spoonacular"
		}

		// Re-encode with the summary cleaned so raw payload matches what we show.
		var full map[string]any
		data := raw
		if err := json.Unmarshal(raw, &full); err == nil {
			full["summary"] = htmlTagPattern.ReplaceAllString(r.Summary, "")
			if encoded, err := json.Marshal(full); err == nil {
				data = encoded
			}
		}

		items = append(items, ContentItem{
			ID:          fmt.Sprintf("%d", r.ID),
			Type:        "recipe",
			Title:       r.Title,
			ImageURL:    r.Image,
			SourceName:  sourceName,
			URL:         r.SourceURL,
			PublishedAt: now, // Recipes carry no timestamp upstream
			Data:        data,
		})
	}
	return items, nil
}

// Feed fetches both sources concurrently and merges them newest-first. A
// single failing upstream degrades to the other's items; both failing is an
// error.
func (s *contentService) Feed(ctx context.Context) ([]ContentItem, error) {
	if s.cfg.NewsAPIKey == "" && s.cfg.SpoonacularAPIKey == "" {
		return nil, ErrContentNotConfigured
	}

	type result struct {
		items []ContentItem
		err   error
	}
	newsCh := make(chan result, 1)
	recipesCh := make(chan result, 1)

	go func() {
		items, err := s.News(ctx)
		newsCh <- result{items, err}
	}()
	go func() {
		items, err := s.Recipes(ctx)
		recipesCh <- result{items, err}
	}()

	news, recipes := <-newsCh, <-recipesCh
	if news.err != nil && recipes.err != nil {
		return nil, news.err
	}

	feed := append(news.items, recipes.items...)
	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].PublishedAt.After(feed[j].PublishedAt)
	})
	return feed, nil
}

func (s *contentService) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
