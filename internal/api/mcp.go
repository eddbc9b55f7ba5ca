package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/fabula/internal/archive"
	"github.com/kalambet/fabula/internal/storage"
	"github.com/kalambet/fabula/internal/timeline"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store *storage.Store
}

// NewMCPServer creates an MCP server with the timeline tools and resources
// registered, so writing assistants can read and extend the chronicle.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"fabula",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("fabula — narrative timeline keeper for novel and world-building events."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("add_event",
			mcp.WithDescription("Record a narrative timeline event."),
			mcp.WithString("title", mcp.Description("Event title"), mcp.Required()),
			mcp.WithString("date_text", mcp.Description("Freeform date label, e.g. 'Spring 1842' or 'Year 12 – Sepia Age'"), mcp.Required()),
			mcp.WithString("start_date", mcp.Description("ISO-like start date: YYYY, YYYY-MM, or YYYY-MM-DD (unlocks chart plotting)")),
			mcp.WithString("end_date", mcp.Description("Optional ISO-like end date, same format")),
			mcp.WithString("era", mcp.Description("Era grouping label")),
			mcp.WithString("story", mcp.Description("Story grouping label, e.g. Overmorrow")),
			mcp.WithArray("characters", mcp.Description("Character names involved")),
			mcp.WithArray("categories", mcp.Description("Category tags")),
			mcp.WithString("notes", mcp.Description("Plot summary or notes")),
			mcp.WithNumber("sort_index", mcp.Description("Manual ordering override (default 0)")),
		),
		mcpAddEvent(deps),
	)

	s.AddTool(
		mcp.NewTool("find_events",
			mcp.WithDescription("Filter timeline events by story, era, character, category, and keyword. All criteria combine with AND."),
			mcp.WithString("story", mcp.Description("Exact story label")),
			mcp.WithString("era", mcp.Description("Exact era label")),
			mcp.WithString("character", mcp.Description("Character name (list membership)")),
			mcp.WithString("category", mcp.Description("Category tag (list membership)")),
			mcp.WithString("keyword", mcp.Description("Case-insensitive substring over title, date label, and notes")),
		),
		mcpFindEvents(deps),
	)

	s.AddTool(
		mcp.NewTool("get_event",
			mcp.WithDescription("Fetch a single timeline event by id."),
			mcp.WithString("id", mcp.Description("Event id"), mcp.Required()),
		),
		mcpGetEvent(deps),
	)

	s.AddTool(
		mcp.NewTool("delete_event",
			mcp.WithDescription("Delete a timeline event by id."),
			mcp.WithString("id", mcp.Description("Event id"), mcp.Required()),
		),
		mcpDeleteEvent(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"timeline://events",
			"Timeline Events",
			mcp.WithResourceDescription("All timeline events as a JSON list in insertion order"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceEvents(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"timeline://profile",
			"Timeline Profile",
			mcp.WithResourceDescription("Timeline metadata (saga title, author, default story) as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfile(deps),
	)

	return s
}

func mcpAddEvent(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title, err := req.RequireString("title")
		if err != nil {
			return mcpError("title is required"), nil
		}
		dateText, err := req.RequireString("date_text")
		if err != nil {
			return mcpError("date_text is required"), nil
		}

		e := timeline.Normalize(storage.Event{
			ID:         uuid.New().String(),
			Title:      title,
			DateText:   dateText,
			StartDate:  req.GetString("start_date", ""),
			EndDate:    req.GetString("end_date", ""),
			Era:        req.GetString("era", ""),
			Story:      req.GetString("story", ""),
			Characters: req.GetStringSlice("characters", nil),
			Categories: req.GetStringSlice("categories", nil),
			Notes:      req.GetString("notes", ""),
			SortIndex:  req.GetInt("sort_index", 0),
		})
		if err := timeline.ValidateEvent(e); err != nil {
			return mcpError(err.Error()), nil
		}
		if err := deps.Store.SaveEvent(e); err != nil {
			return mcpError(fmt.Sprintf("failed to save event: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Recorded event %s (%s)", e.ID, e.Title)), nil
	}
}

func mcpFindEvents(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter := timeline.Filter{
			Story:     req.GetString("story", ""),
			Era:       req.GetString("era", ""),
			Character: req.GetString("character", ""),
			Category:  req.GetString("category", ""),
			Keyword:   req.GetString("keyword", ""),
		}

		events, err := deps.Store.ListEvents()
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list events: %v", err)), nil
		}

		events = timeline.SortForDisplay(filter.Apply(events))
		if events == nil {
			events = []storage.Event{}
		}

		b, err := json.Marshal(events)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal events: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGetEvent(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		e, err := deps.Store.GetEvent(id)
		if err != nil {
			return mcpError(fmt.Sprintf("event %s not found", id)), nil
		}

		b, err := json.Marshal(e)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal event: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpDeleteEvent(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		if err := deps.Store.DeleteEvent(id); err != nil {
			return mcpError(fmt.Sprintf("event %s not found", id)), nil
		}
		return mcpText(fmt.Sprintf("Deleted event %s", id)), nil
	}
}

func mcpResourceEvents(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		events, err := deps.Store.ListEvents()
		if err != nil {
			return nil, fmt.Errorf("failed to list events: %w", err)
		}

		var buf bytes.Buffer
		if err := archive.WriteJSON(&buf, events); err != nil {
			return nil, fmt.Errorf("failed to marshal events: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     buf.String(),
			},
		}, nil
	}
}

func mcpResourceProfile(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		p, err := deps.Store.GetAllProfileKeys()
		if err != nil {
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}

		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal profile: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
