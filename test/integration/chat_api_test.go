// Live integration tests against a running API instance. The full stack
// (Postgres with pgvector, Ollama, the REST server) must be up; every test
// skips itself when the server is unreachable so the suite stays green in
// environments without the services.
//
// Run with:
//
//	go test ./test/integration/ -v

package integration

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func apiBaseURL() string {
	if v := os.Getenv("API_BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:8000"
}

// requireAPI skips the calling test when no server answers the health probe.
func requireAPI(t *testing.T) {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}
	res, err := client.Get(apiBaseURL() + "/health")
	if err != nil {
		t.Skipf("API not running at %s: %v", apiBaseURL(), err)
	}
	res.Body.Close()
}

func postJSON(t *testing.T, path string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}

	client := &http.Client{Timeout: 300 * time.Second} // cold model loads are slow
	res, err := client.Post(apiBaseURL()+path, "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	defer res.Body.Close()

	return res, decodeBody(t, res.Body)
}

func getJSON(t *testing.T, path string) (*http.Response, map[string]interface{}) {
	t.Helper()

	client := &http.Client{Timeout: 30 * time.Second}
	res, err := client.Get(apiBaseURL() + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer res.Body.Close()

	return res, decodeBody(t, res.Body)
}

func decodeBody(t *testing.T, r io.Reader) map[string]interface{} {
	t.Helper()

	raw, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("Failed to parse response JSON: %v, raw: %s", err, string(raw))
	}
	return parsed
}

// TestHealthEndpoint verifies the raw health probe shape.
func TestHealthEndpoint(t *testing.T) {
	requireAPI(t)

	res, body := getJSON(t, "/health")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", res.StatusCode)
	}

	for _, field := range []string{"status", "llm_status", "vectorstore_status", "documents_indexed", "timestamp"} {
		if _, ok := body[field]; !ok {
			t.Errorf("Health response missing field %q", field)
		}
	}
	t.Logf("✅ Health: status=%v llm=%v vectorstore=%v", body["status"], body["llm_status"], body["vectorstore_status"])
}

// TestChatRoundTrip sends a question, checks the persisted exchange shows up
// in history, and deletes the conversation afterwards.
func TestChatRoundTrip(t *testing.T) {
	requireAPI(t)

	res, body := postJSON(t, "/api/chat/v1", map[string]interface{}{
		"message": "What topics does the indexed material cover?",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", res.StatusCode, body)
	}

	data, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Response missing data envelope: %v", body)
	}

	answer, _ := data["answer"].(string)
	if answer == "" {
		t.Error("Answer should not be empty")
	}
	t.Logf("✅ Answer (%d chars)", len(answer))

	conversationID, _ := data["conversation_id"].(string)
	if _, err := uuid.Parse(conversationID); err != nil {
		t.Fatalf("conversation_id is not a valid UUID: %q", conversationID)
	}

	// The exchange must be visible in history immediately.
	res, body = getJSON(t, "/api/chat/v1/history/"+conversationID)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("History fetch expected 200, got %d", res.StatusCode)
	}
	historyData, _ := body["data"].(map[string]interface{})
	messages, _ := historyData["messages"].([]interface{})
	if len(messages) < 2 {
		t.Errorf("Expected at least user+assistant messages, got %d", len(messages))
	}
	t.Logf("✅ History holds %d messages", len(messages))

	// Cleanup.
	req, _ := http.NewRequest(http.MethodDelete, apiBaseURL()+"/api/chat/v1/history/"+conversationID, nil)
	delRes, err := (&http.Client{Timeout: 30 * time.Second}).Do(req)
	if err != nil {
		t.Fatalf("DELETE failed: %v", err)
	}
	delRes.Body.Close()
	if delRes.StatusCode != http.StatusOK {
		t.Errorf("Delete expected 200, got %d", delRes.StatusCode)
	}
}

// TestChatValidation checks that an empty message is rejected before any
// model work happens.
func TestChatValidation(t *testing.T) {
	requireAPI(t)

	res, body := postJSON(t, "/api/chat/v1", map[string]interface{}{
		"message": "",
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty message, got %d: %v", res.StatusCode, body)
	}

	res, body = postJSON(t, "/api/chat/v1", map[string]interface{}{
		"message":         "hello",
		"conversation_id": "not-a-uuid",
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed conversation_id, got %d: %v", res.StatusCode, body)
	}
}

// TestStreamEndpoint consumes the SSE trace stream and requires a terminal
// done event.
func TestStreamEndpoint(t *testing.T) {
	requireAPI(t)

	streamURL := fmt.Sprintf("%s/api/chat/v1/stream?message=%s",
		apiBaseURL(), url.QueryEscape("Summarize the available material in one sentence."))

	client := &http.Client{Timeout: 300 * time.Second}
	res, err := client.Get(streamURL)
	if err != nil {
		t.Fatalf("Stream request failed: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Expected text/event-stream content type, got %q", ct)
	}

	scanner := bufio.NewScanner(res.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var events int
	var sawDone bool
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		events++

		var ev map[string]interface{}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("Malformed SSE payload: %v, raw: %s", err, line)
		}
		if ev["event_type"] == "done" {
			sawDone = true
			break
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("Stream read error: %v", err)
	}

	if events == 0 {
		t.Error("Expected at least one trace event")
	}
	if !sawDone {
		t.Error("Stream ended without a done event")
	}
	t.Logf("✅ Received %d events, terminal done seen", events)
}

// TestDocumentIngestFlow queues a document and waits for the background
// consumer to index it.
func TestDocumentIngestFlow(t *testing.T) {
	requireAPI(t)

	filename := fmt.Sprintf("integration_%d.txt", time.Now().UnixNano())
	res, body := postJSON(t, "/api/document/v1", map[string]interface{}{
		"filename": filename,
		"title":    "Integration Fixture",
		"content":  "The midterm covers sorting algorithms, asymptotic analysis, and basic graph traversal. Office hours run Tuesdays at 2pm.",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("Ingest expected 200, got %d: %v", res.StatusCode, body)
	}

	data, _ := body["data"].(map[string]interface{})
	status, _ := data["status"].(string)
	if status != "pending" {
		t.Errorf("Freshly queued document should be pending, got %q", status)
	}

	// Poll sources until the consumer flips the status.
	deadline := time.Now().Add(120 * time.Second)
	indexed := false
	for time.Now().Before(deadline) {
		_, sourcesBody := getJSON(t, "/api/document/v1/sources")
		sourcesData, _ := sourcesBody["data"].(map[string]interface{})
		sources, _ := sourcesData["sources"].([]interface{})
		for _, s := range sources {
			src, _ := s.(map[string]interface{})
			if src["filename"] == filename && src["status"] == "indexed" {
				indexed = true
			}
		}
		if indexed {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if !indexed {
		t.Fatalf("Document %s never reached indexed status", filename)
	}
	t.Logf("✅ Document indexed: %s", filename)

	// Cleanup.
	req, _ := http.NewRequest(http.MethodDelete, apiBaseURL()+"/api/document/v1/"+filename, nil)
	delRes, err := (&http.Client{Timeout: 30 * time.Second}).Do(req)
	if err != nil {
		t.Fatalf("DELETE source failed: %v", err)
	}
	delRes.Body.Close()
	if delRes.StatusCode != http.StatusOK {
		t.Errorf("Delete source expected 200, got %d", delRes.StatusCode)
	}
}
