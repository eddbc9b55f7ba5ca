package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

func TestCreateEventRequest(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/events": `{"id":"ev-123","title":"Founding","date_text":"Year of Ash"}`,
	})

	client := ts.client()

	req := map[string]any{
		"title":      "Founding",
		"date_text":  "Year of Ash",
		"characters": []string{"Maren"},
		"sort_index": 1,
	}

	resp, err := client.post(ctx, "/api/events", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result map[string]any
	if err := decodeJSON(resp, &result); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if result["id"] != "ev-123" {
		t.Errorf("id = %v, want ev-123", result["id"])
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}

	r := ts.requests[0]
	if r.Method != "POST" || r.Path != "/api/events" {
		t.Errorf("request = %s %s", r.Method, r.Path)
	}
	if r.Auth != "Bearer test-token" {
		t.Errorf("auth = %q, want Bearer test-token", r.Auth)
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["title"] != "Founding" {
		t.Errorf("body.title = %v", body["title"])
	}
}

func TestListEventsRequest_FilterQuery(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/events": `[]`,
	})

	client := ts.client()

	resp, err := client.get(ctx, "/api/events?story=Overmorrow&q=voyage")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var events []json.RawMessage
	if err := decodeJSON(resp, &events); err != nil {
		t.Fatalf("decode error: %v", err)
	}

	r := ts.requests[0]
	if !strings.Contains(r.Path, "story=Overmorrow") || !strings.Contains(r.Path, "q=voyage") {
		t.Errorf("path = %q, want filter query params", r.Path)
	}
}

func TestDecodeJSON_ServerError(t *testing.T) {
	ts := newTestServer(t, nil)

	client := ts.client()

	resp, err := client.get(ctx, "/api/events/ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var v any
	err = decodeJSON(resp, &v)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %v, want status code in message", err)
	}
}

func TestImportRequest_RawBody(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/import/json": `{"status":"imported","mode":"merge","count":2}`,
	})

	client := ts.client()

	payload := `[{"id":"a","title":"Founding","date_text":"Year of Ash"}]`
	resp, err := client.postRaw(ctx, "/api/import/json?mode=merge", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result struct {
		Count int    `json:"count"`
		Mode  string `json:"mode"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if result.Count != 2 || result.Mode != "merge" {
		t.Errorf("result = %+v", result)
	}

	r := ts.requests[0]
	if !strings.Contains(r.Path, "mode=merge") {
		t.Errorf("path = %q, want mode param", r.Path)
	}
	if r.Body != payload {
		t.Errorf("body = %q, want raw payload", r.Body)
	}
}
