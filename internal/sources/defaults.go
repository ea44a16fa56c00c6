package sources

import "github.com/johnrirwin/marketwire/internal/models"

func feed(url, source string, categories ...string) models.FeedSource {
	return models.FeedSource{URL: url, SourceName: source, Categories: categories}
}

// DefaultFeeds returns the built-in feed list used when no feeds file or
// database source is configured. VentureBeat is listed twice on purpose; the
// second entry only carries "technology".
func DefaultFeeds() []models.FeedSource {
	return []models.FeedSource{
		// General financial news
		feed("https://feeds.reuters.com/reuters/businessNews", "Reuters", "general", "business"),
		feed("https://feeds.bloomberg.com/markets/news.rss", "Bloomberg", "general", "business"),
		feed("https://feeds.marketwatch.com/marketwatch/topstories/", "MarketWatch", "general", "company"),
		feed("https://feeds.finance.yahoo.com/rss/2.0/headline", "Yahoo Finance", "general", "company"),
		feed("http://rss.cnn.com/rss/money_latest.rss", "CNN Money", "general", "business"),
		feed("https://feeds.wsj.com/wsj/xml/rss/3_7085.xml", "Wall Street Journal", "general", "business"),
		feed("https://www.cnbc.com/id/100003114/device/rss/rss.html", "CNBC", "general", "business"),
		feed("https://feeds.feedburner.com/zerohedge/feed", "ZeroHedge", "general", "business"),
		feed("https://feeds.feedburner.com/benzinga", "Benzinga", "general", "company"),
		feed("https://feeds.feedburner.com/InvestingcomAnalysis", "Investing.com", "general", "company"),

		// Business
		feed("https://fortune.com/feed/", "Fortune", "business"),
		feed("https://feeds.feedburner.com/fastcompany/headlines", "Fast Company", "business", "technology"),
		feed("https://feeds.feedburner.com/entrepreneur/latest", "Entrepreneur", "business"),
		feed("http://feeds.businessinsider.com/~r/businessinsider/~3", "Business Insider", "business", "technology"),
		feed("https://hbr.org/feed", "Harvard Business Review", "business"),
		feed("https://feeds.feedburner.com/inc/headlines", "Inc.com", "business"),
		feed("https://feeds.feedburner.com/venturebeat/SZYF", "VentureBeat", "business", "technology"),
		feed("https://feeds.feedburner.com/crunchbase-news", "Crunchbase", "business", "technology"),

		// Technology
		feed("https://feeds.feedburner.com/TechCrunch/", "TechCrunch", "technology"),
		feed("http://feeds.arstechnica.com/arstechnica/index/", "Ars Technica", "technology"),
		feed("https://feeds.feedburner.com/venturebeat/SZYF", "VentureBeat", "technology"),
		feed("http://feeds.mashable.com/Mashable", "Mashable", "technology"),
		feed("https://www.wired.com/feed/rss", "Wired", "technology"),
		feed("https://feeds.feedburner.com/TheNextWeb", "The Next Web", "technology"),
		feed("https://feeds.feedburner.com/techcrunch/startups", "TechCrunch Startups", "technology", "business"),
		feed("https://feeds.feedburner.com/TechCrunchIT", "TechCrunch Main", "technology"),

		// Company and stock news
		feed("https://www.fool.com/feeds/index.aspx", "Motley Fool", "company"),
		feed("https://investorplace.com/feed/", "InvestorPlace", "company"),
		feed("https://www.thestreet.com/.rss/full/", "TheStreet", "company"),
		feed("https://feeds.barrons.com/public/rss/barrons_news", "Barrons", "company"),
		feed("https://feeds.feedburner.com/seekingalpha/feed", "Seeking Alpha", "company"),
		feed("https://feeds.feedburner.com/GuruFocus", "GuruFocus", "company"),
		feed("https://feeds.feedburner.com/StockNews", "StockNews", "company"),
		feed("https://feeds.feedburner.com/247wallst", "24/7 Wall St", "company"),

		// Crypto
		feed("https://feeds.feedburner.com/CoinDesk", "CoinDesk", "crypto"),
		feed("https://cointelegraph.com/rss", "CoinTelegraph", "crypto"),
		feed("https://bitcoinmagazine.com/.rss/full/", "Bitcoin Magazine", "crypto"),
		feed("https://www.newsbtc.com/feed/", "NewsBTC", "crypto"),
		feed("https://cryptoslate.com/feed/", "CryptoSlate", "crypto"),
		feed("https://decrypt.co/feed", "Decrypt", "crypto"),
		feed("https://coingape.com/feed/", "CoinGape", "crypto"),
		feed("https://coinjournal.net/feed/", "CoinJournal", "crypto"),
		feed("https://cryptonews.com/news/feed/", "CryptoNews", "crypto"),
		feed("https://www.coindesk.com/arc/outboundfeeds/rss/", "CoinDesk Markets", "crypto"),

		// Forex
		feed("https://www.forexlive.com/feed/news", "ForexLive", "forex"),
		feed("https://www.fxstreet.com/rss/news", "FXStreet", "forex"),
		feed("https://www.dailyfx.com/feeds/market-news", "DailyFX", "forex"),
		feed("https://www.babypips.com/feed", "BabyPips", "forex"),
		feed("https://www.forexfactory.com/rss.php", "Forex Factory", "forex"),
		feed("https://www.forex.com/en/rss/market-news/", "Forex.com", "forex"),
		feed("https://www.forexcrunch.com/feed/", "Forex Crunch", "forex"),
		feed("https://www.actionforex.com/rss/", "Action Forex", "forex"),
	}
}
