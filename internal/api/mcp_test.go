package api

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kalambet/fabula/internal/storage"
)

// --- helpers ---

func newTestMCPDeps(t *testing.T) (MCPDeps, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return MCPDeps{Store: store}, store
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func makeReadResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func mcpAddSample(t *testing.T, deps MCPDeps, args map[string]interface{}) {
	t.Helper()
	result, err := mcpAddEvent(deps)(context.Background(), makeCallToolRequest("add_event", args))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
}

// --- tests ---

func TestMCPTool_AddEvent(t *testing.T) {
	deps, store := newTestMCPDeps(t)

	mcpAddSample(t, deps, map[string]interface{}{
		"title":      "Founding",
		"date_text":  "Year of Ash",
		"start_date": "1997",
		"story":      "Overmorrow",
		"characters": []string{"Maren", "maren", "Tobias"},
		"sort_index": 1,
	})

	events, err := store.ListEvents()
	if err != nil {
		t.Fatalf("listing events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Title != "Founding" || events[0].SortIndex != 1 {
		t.Fatalf("unexpected event: %+v", events[0])
	}
	if len(events[0].Characters) != 2 {
		t.Fatalf("expected deduped characters, got %v", events[0].Characters)
	}
}

func TestMCPTool_AddEvent_MissingRequired(t *testing.T) {
	deps, store := newTestMCPDeps(t)
	handler := mcpAddEvent(deps)

	for _, args := range []map[string]interface{}{
		{"date_text": "Year of Ash"},
		{"title": "Founding"},
	} {
		result, err := handler(context.Background(), makeCallToolRequest("add_event", args))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Fatalf("expected error result for args %v", args)
		}
	}

	n, err := store.CountEvents()
	if err != nil {
		t.Fatalf("counting events: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 events, got %d", n)
	}
}

func TestMCPTool_FindEvents(t *testing.T) {
	deps, _ := newTestMCPDeps(t)

	mcpAddSample(t, deps, map[string]interface{}{
		"title": "Founding", "date_text": "Year of Ash",
		"story": "Overmorrow", "categories": []string{"politics"},
	})
	mcpAddSample(t, deps, map[string]interface{}{
		"title": "The Long Voyage", "date_text": "Spring 1842",
		"story": "Stelo Vienas", "categories": []string{"war"},
	})

	handler := mcpFindEvents(deps)
	result, err := handler(context.Background(), makeCallToolRequest("find_events", map[string]interface{}{
		"story": "Overmorrow",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	var events []storage.Event
	if err := json.Unmarshal([]byte(toolText(t, result)), &events); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Founding" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestMCPTool_FindEvents_EmptyResult(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	handler := mcpFindEvents(deps)

	result, err := handler(context.Background(), makeCallToolRequest("find_events", map[string]interface{}{
		"keyword": "nonexistent",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	if text := toolText(t, result); text != "[]" {
		t.Fatalf("expected empty array, got: %s", text)
	}
}

func TestMCPTool_GetEvent_NotFound(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	handler := mcpGetEvent(deps)

	result, err := handler(context.Background(), makeCallToolRequest("get_event", map[string]interface{}{
		"id": "ghost",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result for unknown id")
	}
}

func TestMCPTool_DeleteEvent(t *testing.T) {
	deps, store := newTestMCPDeps(t)

	mcpAddSample(t, deps, map[string]interface{}{
		"title": "Founding", "date_text": "Year of Ash",
	})
	events, err := store.ListEvents()
	if err != nil {
		t.Fatalf("listing events: %v", err)
	}

	handler := mcpDeleteEvent(deps)
	result, err := handler(context.Background(), makeCallToolRequest("delete_event", map[string]interface{}{
		"id": events[0].ID,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	// Deleting again reports the same not-found error.
	result, err = handler(context.Background(), makeCallToolRequest("delete_event", map[string]interface{}{
		"id": events[0].ID,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result for repeated delete")
	}
}

func TestMCPResource_Events(t *testing.T) {
	deps, _ := newTestMCPDeps(t)

	mcpAddSample(t, deps, map[string]interface{}{
		"title": "Founding", "date_text": "Year of Ash",
	})

	handler := mcpResourceEvents(deps)
	contents, err := handler(context.Background(), makeReadResourceRequest("timeline://events"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(contents))
	}

	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}

	var events []storage.Event
	if err := json.Unmarshal([]byte(tc.Text), &events); err != nil {
		t.Fatalf("failed to parse events JSON: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Founding" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestMCPResource_Profile(t *testing.T) {
	deps, store := newTestMCPDeps(t)

	if err := store.SetProfileKey("saga_title", "Overmorrow Chronicle"); err != nil {
		t.Fatalf("setting profile key: %v", err)
	}

	handler := mcpResourceProfile(deps)
	contents, err := handler(context.Background(), makeReadResourceRequest("timeline://profile"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}

	var p map[string]string
	if err := json.Unmarshal([]byte(tc.Text), &p); err != nil {
		t.Fatalf("failed to parse profile JSON: %v", err)
	}
	if p["saga_title"] != "Overmorrow Chronicle" {
		t.Fatalf("unexpected profile: %v", p)
	}
}
