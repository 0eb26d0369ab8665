package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func completionResponse(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestComplete_Success(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody chatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(completionResponse("  Sounds promising, push the timeline.  ")))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "test-key", 5*time.Second, nil)
	got, err := c.Complete(context.Background(), Request{
		Model:     "test-model",
		Messages:  []Message{{Role: "user", Content: "hello"}},
		MaxTokens: 220,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if want := "Sounds promising, push the timeline."; got != want {
		t.Errorf("content = %q, want %q (trimmed)", got, want)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q, want /chat/completions", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth = %q, want bearer token", gotAuth)
	}
	if gotBody.Model != "test-model" || gotBody.MaxTokens != 220 {
		t.Errorf("request body = %+v", gotBody)
	}
}

func TestComplete_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse("   ")))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", 5*time.Second, nil)
	_, err := c.Complete(context.Background(), Request{Model: "m"})
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Errorf("err = %v, want ErrEmptyCompletion", err)
	}
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", 5*time.Second, nil)
	_, err := c.Complete(context.Background(), Request{Model: "m"})
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Errorf("err = %v, want ErrEmptyCompletion", err)
	}
}

func TestComplete_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", 5*time.Second, nil)
	_, err := c.Complete(context.Background(), Request{Model: "m"})
	if err == nil {
		t.Fatal("expected error for 503")
	}
}

func TestComplete_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(completionResponse("too late")))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", 20*time.Millisecond, nil)
	_, err := c.Complete(context.Background(), Request{Model: "m"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestComplete_NoAuthHeaderWithoutKey(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(completionResponse("ok")))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", 5*time.Second, nil)
	if _, err := c.Complete(context.Background(), Request{Model: "m"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want unset", gotAuth)
	}
}
