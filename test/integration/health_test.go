package integration

import (
	"context"
	"net/http"
	"strings"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/health")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
	}
	decodeJSON(t, resp, &body)
	if body.Status != "ok" {
		t.Errorf("status = %q, want %q", body.Status, "ok")
	}
}

func TestHealthzEndpointNoAuth(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 without auth, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "ok") {
		t.Errorf("body = %q, want to contain 'ok'", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	client := newClient(testEnv.BaseURL(), testToken)
	if _, err := client.CreateChatCompletion(context.Background(), hiRequest()); err != nil {
		t.Fatalf("CreateChatCompletion: %v", err)
	}

	resp := getURL(t, testEnv.BaseURL()+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := readBody(t, resp)
	for _, name := range []string{
		"ollagate_requests_total",
		"ollagate_upstream_requests_total",
		"ollagate_estimated_tokens_total",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}

func TestListModels(t *testing.T) {
	testEnv.Ollama.SetModels("llama2:latest", "mistral:7b")
	t.Cleanup(func() { testEnv.Ollama.SetModels("llama2:latest") })

	client := newClient(testEnv.BaseURL(), testToken)
	list, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(list.Models) != 2 {
		t.Fatalf("len(models) = %d, want 2", len(list.Models))
	}
	if list.Models[0].ID != "llama2:latest" || list.Models[0].OwnedBy != "ollama" {
		t.Errorf("models[0] = %+v", list.Models[0])
	}
}

func TestListModelsRequiresAuth(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/v1/models")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}
