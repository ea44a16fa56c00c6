package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Aggregate(t *testing.T) {
	stub := &stubClient{report: cryptoReport()}
	ts := httptest.NewServer(newTestServer(t, stub, nil))
	defer ts.Close()

	client := NewClient(ts.URL+"/", nil)
	report, err := client.Aggregate(context.Background(), "crypto", 5)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	if category, limit := stub.lastCall(); category != "crypto" || limit != 5 {
		t.Errorf("server saw %q/%d, want crypto/5", category, limit)
	}
	if report.Category != "crypto" || report.FeedsAttempted != 2 || report.FeedsSuccessful != 1 {
		t.Errorf("report = %+v", report)
	}
	if len(report.Articles) != 1 || !report.Articles[0].PublishedAt.Equal(published) {
		t.Errorf("articles = %+v", report.Articles)
	}
	if len(report.Sources) != 1 || report.Sources[0] != "X" {
		t.Errorf("sources = %v", report.Sources)
	}
	if report.FetchedAt.IsZero() {
		t.Error("FetchedAt should be set")
	}
}

func TestClient_ErrorEnvelope(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, &stubClient{err: errors.New("boom")}, nil))
	defer ts.Close()

	_, err := NewClient(ts.URL, nil).Aggregate(context.Background(), "general", 20)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError || apiErr.Message != "boom" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestClient_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	if _, err := NewClient(url, nil).Aggregate(context.Background(), "general", 20); err == nil {
		t.Error("expected error for a closed server")
	}
}

func TestClient_BadJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer ts.Close()

	if _, err := NewClient(ts.URL, nil).Aggregate(context.Background(), "general", 20); err == nil {
		t.Error("expected decode error")
	}
}
