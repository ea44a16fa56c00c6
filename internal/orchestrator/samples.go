package orchestrator

import (
	"time"

	"github.com/johnrirwin/marketwire/internal/models"
)

type sample struct {
	id        string
	headline  string
	summary   string
	source    string
	label     string
	related   string
	sentiment string
	age       time.Duration
}

// samples are the bundled stand-in articles shown for a category when its
// feeds produced nothing.
var samples = map[string][]sample{
	"general": {
		{
			id:        "demo-1",
			headline:  "Federal Reserve Signals Potential Rate Cuts in 2024",
			summary:   "Fed officials hint at possible interest rate reductions as inflation shows signs of cooling, potentially boosting market sentiment.",
			source:    "Reuters",
			label:     "Economy",
			sentiment: "positive",
			age:       time.Hour,
		},
		{
			id:        "demo-2",
			headline:  "Tech Stocks Rally on AI Optimism",
			summary:   "Major technology companies see significant gains as investors remain bullish on artificial intelligence developments and adoption.",
			source:    "Bloomberg",
			label:     "Technology",
			sentiment: "positive",
			age:       2 * time.Hour,
		},
	},
	"company": {
		{
			id:        "demo-3",
			headline:  "Apple Reports Strong iPhone Sales in Q4",
			summary:   "Apple Inc. beats earnings expectations with robust iPhone 15 sales, driving revenue growth despite economic headwinds.",
			source:    "MarketWatch",
			label:     "Earnings",
			related:   "AAPL",
			sentiment: "positive",
			age:       4 * time.Hour,
		},
	},
	"crypto": {
		{
			id:        "demo-4",
			headline:  "Bitcoin Breaks Above $45,000 Resistance",
			summary:   "Bitcoin surges past key resistance level as institutional adoption continues and regulatory clarity improves.",
			source:    "CoinDesk",
			label:     "Cryptocurrency",
			sentiment: "positive",
			age:       6 * time.Hour,
		},
	},
	"forex": {
		{
			id:        "demo-5",
			headline:  "Dollar Weakens Against Major Currencies",
			summary:   "US Dollar index falls as investors anticipate potential Fed policy changes, benefiting EUR and GBP pairs.",
			source:    "ForexLive",
			label:     "Forex",
			sentiment: "neutral",
			age:       7 * time.Hour,
		},
	},
	"technology": {
		{
			id:        "demo-6",
			headline:  "Microsoft Unveils New AI-Powered Office Features",
			summary:   "Microsoft announces integration of advanced AI capabilities across Office suite, enhancing productivity tools.",
			source:    "TechCrunch",
			label:     "Technology",
			sentiment: "positive",
			age:       8 * time.Hour,
		},
	},
	"business": {
		{
			id:        "demo-7",
			headline:  "Global Supply Chain Disruptions Ease",
			summary:   "International shipping costs decline as supply chain bottlenecks show signs of improvement worldwide.",
			source:    "Wall Street Journal",
			label:     "Business",
			sentiment: "positive",
			age:       9 * time.Hour,
		},
	},
}

// demoArticles returns the samples for category dated relative to now. An
// unknown category has none.
func demoArticles(category string, now time.Time) []models.DisplayArticle {
	set := samples[category]
	out := make([]models.DisplayArticle, 0, len(set))
	for _, s := range set {
		out = append(out, models.DisplayArticle{
			ID:          s.id,
			Headline:    s.headline,
			Summary:     s.summary,
			Source:      s.source,
			Category:    s.label,
			PublishedAt: now.Add(-s.age),
			URL:         "#",
			Related:     s.related,
			Sentiment:   s.sentiment,
			Provider:    models.ProviderDemo,
		})
	}
	return out
}
