package main

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

	"github.com/fatih/color"
)

// Smoke-tests the running API end to end: health probe, a blocking chat
// round trip, the SSE trace stream, and the document stats endpoint.

var baseURL = "http://localhost:8000"

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, path string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+path, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{} // No timeout; a cold model can take a while
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func main() {
	if v := os.Getenv("API_BASE_URL"); v != "" {
		baseURL = v
	}

	question := "What are the prerequisites for the machine learning course?"
	if len(os.Args) > 1 {
		question = strings.Join(os.Args[1:], " ")
	}

	color.Cyan("🚀 Academic RAG API Smoke Test\n")

	// 1. Health probe
	color.Yellow("\n1. Health Check")
	resp, body, err := sendRequest("GET", "/health", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var healthResp map[string]interface{}
	json.Unmarshal(body, &healthResp)
	prettyPrint(healthResp)

	// 2. Blocking chat round trip
	color.Yellow("\n2. Chat: %q", question)
	chatReq := map[string]interface{}{
		"message": question,
	}
	resp, body, err = sendRequest("POST", "/api/chat/v1", chatReq)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var chatResp map[string]interface{}
	json.Unmarshal(body, &chatResp)

	var conversationID string
	// Concise printing for chat response to avoid a huge citation dump
	if data, ok := chatResp["data"].(map[string]interface{}); ok {
		fmt.Printf("Answer: %s\n", data["answer"])
		if sources, ok := data["sources"].([]interface{}); ok {
			fmt.Printf("Sources: %d\n", len(sources))
		}
		if id, ok := data["conversation_id"].(string); ok {
			conversationID = id
			fmt.Printf("Conversation ID: %s\n", conversationID)
		}
	} else {
		prettyPrint(chatResp)
	}

	// 3. SSE trace stream for a follow-up question
	color.Yellow("\n3. Streamed Chat (SSE trace events)")
	streamURL := fmt.Sprintf("%s/api/chat/v1/stream?message=%s", baseURL, url.QueryEscape(question))
	if conversationID != "" {
		streamURL += "&conversation_id=" + conversationID
	}
	streamResp, err := http.Get(streamURL)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", streamResp.Status)

	scanner := bufio.NewScanner(streamResp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	events := 0
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		events++
		var ev map[string]interface{}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			fmt.Println(line)
			continue
		}
		switch ev["event_type"] {
		case "thought":
			fmt.Printf("  [thought] %v\n", ev["thought"])
		case "final_answer":
			fmt.Printf("  [final_answer] %.80v...\n", ev["answer"])
		case "error":
			color.Red("  [error] %v", ev["error_message"])
		default:
			fmt.Printf("  [%v] node=%v\n", ev["event_type"], ev["node_name"])
		}
		if ev["event_type"] == "done" {
			break
		}
	}
	streamResp.Body.Close()
	if err := scanner.Err(); err != nil {
		color.Red("Stream read error: %v", err)
	}
	fmt.Printf("Received %d events\n", events)

	// 4. Document stats
	color.Yellow("\n4. Document Stats")
	resp, body, err = sendRequest("GET", "/api/document/v1/stats", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var statsResp map[string]interface{}
	json.Unmarshal(body, &statsResp)
	prettyPrint(statsResp)

	color.Cyan("\n✅ Smoke Test Complete")
}
