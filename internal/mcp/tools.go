package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/johnrirwin/marketwire/internal/logging"
	"github.com/johnrirwin/marketwire/internal/models"
	"github.com/johnrirwin/marketwire/internal/ratelimit"
)

const (
	defaultCategory = "general"
	defaultLimit    = 20
	maxLimit        = 200
)

type GetNewsInput struct {
	Category string `json:"category,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type ListFeedsInput struct {
	Category string `json:"category,omitempty"`
}

type GetSnapshotInput struct {
	Category string `json:"category,omitempty"`
	Query    string `json:"query,omitempty"`
}

type ListFeedsOutput struct {
	Feeds      []models.FeedSource `json:"feeds"`
	Count      int                 `json:"count"`
	Categories []string            `json:"categories"`
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_market_news",
		Description: "Aggregate the latest financial news for a category from every registered RSS feed. Returns articles newest first with the sources seen and how many feeds responded.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"category": map[string]interface{}{
					"type":        "string",
					"description": "One of general, business, technology, company, crypto, forex (default: general)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of articles to return (default: 20)",
				},
			},
		},
	}, s.handleGetNews)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_feed_sources",
		Description: "List the registered RSS feeds, optionally only those tagged with a category.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Only list feeds tagged with this category",
				},
			},
		},
	}, s.handleListFeeds)

	if s.desk == nil {
		return
	}

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_news_snapshot",
		Description: "Return the news desk as last refreshed: every category with its articles, whether they are live or demo, and feed health.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Return a single category instead of the whole desk",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Keep only articles whose headline, summary or source contains this text (case-insensitive)",
				},
			},
		},
	}, s.handleGetSnapshot)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "refresh_news_snapshot",
		Description: "Fetch every category again and publish a new news desk snapshot. Refreshes are throttled.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleRefreshSnapshot)
}

func (s *Server) handleGetNews(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input GetNewsInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	if input.Category == "" {
		input.Category = defaultCategory
	}
	if input.Limit < 0 {
		return nil, fmt.Errorf("limit must be non-negative, got %d", input.Limit)
	}
	if input.Limit == 0 {
		input.Limit = defaultLimit
	}
	if input.Limit > maxLimit {
		input.Limit = maxLimit
	}

	report, err := s.client.Aggregate(ctx, input.Category, input.Limit)
	if err != nil {
		s.logger.Error("Failed to aggregate news", logging.WithFields(map[string]interface{}{
			"category": input.Category,
			"error":    err.Error(),
		}))
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(report)
}

func (s *Server) handleListFeeds(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input ListFeedsInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	var feeds []models.FeedSource
	if input.Category != "" {
		feeds = s.registry.ForCategory(input.Category)
	} else {
		feeds = s.registry.All()
	}

	return jsonResult(ListFeedsOutput{
		Feeds:      feeds,
		Count:      len(feeds),
		Categories: s.registry.Categories(),
	})
}

func (s *Server) handleGetSnapshot(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input GetSnapshotInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	snap, ok := s.desk.Snapshot()
	if !ok {
		return mcp.NewToolResultError("the first refresh has not completed yet"), nil
	}

	if input.Category != "" {
		view, found := snap.Category(input.Category)
		if !found {
			return mcp.NewToolResultError("unknown category: " + input.Category), nil
		}
		if input.Query != "" {
			return jsonResult(view.Search(input.Query))
		}
		return jsonResult(view)
	}

	if input.Query != "" {
		return jsonResult(snap.Search(input.Query))
	}
	return jsonResult(snap)
}

func (s *Server) handleRefreshSnapshot(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := s.desk.TriggerRefresh(ctx)
	if errors.Is(err, ratelimit.ErrThrottled) {
		return mcp.NewToolResultError("refresh requested too recently, try again later"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("refresh news: %w", err)
	}

	return jsonResult(map[string]interface{}{
		"runId":           snap.RunID,
		"mode":            snap.Mode,
		"notice":          snap.Notice,
		"feedsAttempted":  snap.FeedsAttempted,
		"feedsSuccessful": snap.FeedsSuccessful,
		"updatedAt":       snap.UpdatedAt,
	})
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
