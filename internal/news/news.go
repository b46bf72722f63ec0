// Package news fetches recent macroeconomic news from Federal Reserve and
// statistical-agency RSS feeds.
package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/seenimoa/macrolens/internal/infra"
)

// Source is one RSS feed configuration.
type Source struct {
	Name   string
	RSSURL string
}

// DefaultSources lists the configured macroeconomic news feeds.
var DefaultSources = []Source{
	{
		Name:   "Federal Reserve Press Releases",
		RSSURL: "https://www.federalreserve.gov/feeds/press_all.xml",
	},
	{
		Name:   "FRED Blog",
		RSSURL: "https://fredblog.stlouisfed.org/feed/",
	},
	{
		Name:   "BLS News Releases",
		RSSURL: "https://www.bls.gov/feed/news_release.rss",
	},
	{
		Name:   "BEA News",
		RSSURL: "https://apps.bea.gov/rss/rss.xml",
	},
}

// Article is one news item, HTML already stripped from the summary.
type Article struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// Fetcher pulls and caches articles from the configured sources.
type Fetcher struct {
	sources []Source
	cache   *infra.Cache
	limiter *infra.RateLimiter
	parser  *gofeed.Parser
	log     *zap.Logger
}

// New creates a Fetcher over the default sources. cacheTTL <= 0 falls back
// to 10 minutes.
func New(cacheTTL time.Duration, log *zap.Logger) *Fetcher {
	return NewWithSources(DefaultSources, cacheTTL, log)
}

// NewWithSources creates a Fetcher over custom sources.
func NewWithSources(sources []Source, cacheTTL time.Duration, log *zap.Logger) *Fetcher {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{
		sources: sources,
		cache:   infra.NewCache(cacheTTL),
		limiter: infra.NewRateLimiter(2, time.Second), // conservative: 2 req/s
		parser:  gofeed.NewParser(),
		log:     log,
	}
}

// Recent returns up to limit recent articles across all sources, newest
// first. Failed sources are skipped so one dead feed cannot empty the
// whole result.
func (n *Fetcher) Recent(ctx context.Context, limit int) ([]Article, error) {
	cacheKey := fmt.Sprintf("news:recent:%d", limit)
	if cached, ok := n.cache.Get(cacheKey); ok {
		return cached.([]Article), nil
	}

	var all []Article
	for _, src := range n.sources {
		articles, err := n.fetchRSS(ctx, src)
		if err != nil {
			n.log.Debug("skipping news source", zap.String("source", src.Name), zap.Error(err))
			continue
		}
		all = append(all, articles...)
	}

	sortArticlesByDate(all)

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	n.cache.Set(cacheKey, all)
	return all, nil
}

// fetchRSS downloads and parses one RSS feed.
func (n *Fetcher) fetchRSS(ctx context.Context, src Source) ([]Article, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, _, err := infra.DoGet(ctx, src.RSSURL, map[string]string{
		"Accept": "application/rss+xml, application/xml, */*",
	})
	if err != nil {
		return nil, fmt.Errorf("fetch RSS %s: %w", src.Name, err)
	}
	defer body.Close()

	feed, err := n.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", src.Name, err)
	}

	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		a := Article{
			Title:   item.Title,
			URL:     item.Link,
			Source:  src.Name,
			Summary: cleanHTML(item.Description),
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = *item.PublishedParsed
		}
		articles = append(articles, a)
	}

	return articles, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// sortArticlesByDate sorts articles by published date (newest first).
// Simple insertion sort, fine for slices this small.
func sortArticlesByDate(articles []Article) {
	for i := 1; i < len(articles); i++ {
		key := articles[i]
		j := i - 1
		for j >= 0 && articles[j].PublishedAt.Before(key.PublishedAt) {
			articles[j+1] = articles[j]
			j--
		}
		articles[j+1] = key
	}
}
