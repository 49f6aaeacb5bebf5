package coordinator

import (
	"testing"
)

func TestParseReact(t *testing.T) {
	tests := []struct {
		name         string
		response     string
		wantAction   string
		wantInput    string
		wantThought  string
		wantFallback bool
	}{
		{
			name:        "well formed search",
			response:    "Thought: Technical concept, I need documents.\nAction: search\nAction Input: machine learning fundamentals",
			wantAction:  "search",
			wantInput:   "machine learning fundamentals",
			wantThought: "Technical concept, I need documents.",
		},
		{
			name:        "well formed answer",
			response:    "Thought: Simple greeting.\nAction: answer\nAction Input: Hello! How can I help you?",
			wantAction:  "answer",
			wantInput:   "Hello! How can I help you?",
			wantThought: "Simple greeting.",
		},
		{
			name:        "clarify action",
			response:    "Thought: Too vague.\nAction: clarify\nAction Input: Which topic do you mean?",
			wantAction:  "clarify",
			wantInput:   "Which topic do you mean?",
			wantThought: "Too vague.",
		},
		{
			name:        "uppercase action is normalized",
			response:    "Thought: ok\nAction: SEARCH\nAction Input: neural networks",
			wantAction:  "search",
			wantInput:   "neural networks",
			wantThought: "ok",
		},
		{
			name:        "continuation lines are joined",
			response:    "Thought: The question needs\nseveral documents.\nAction: search\nAction Input: transformer\narchitecture attention",
			wantAction:  "search",
			wantInput:   "transformer architecture attention",
			wantThought: "The question needs several documents.",
		},
		{
			name:        "quotes around input are stripped",
			response:    "Thought: ok\nAction: search\nAction Input: \"gradient descent\"",
			wantAction:  "search",
			wantInput:   "gradient descent",
			wantThought: "ok",
		},
		{
			name:        "echoed prompt artifact is removed",
			response:    "Thought: ok\nAction: search\nAction Input: Respond NOW in ReAct format (3 lines): overfitting",
			wantAction:  "search",
			wantInput:   "overfitting",
			wantThought: "ok",
		},
		{
			name:        "search with empty input reuses thought",
			response:    "Thought: backpropagation in neural networks\nAction: search\nAction Input:",
			wantAction:  "search",
			wantInput:   "backpropagation in neural networks",
			wantThought: "backpropagation in neural networks",
		},
		{
			name:         "unknown action falls back to answer",
			response:     "Thought: hmm\nAction: retrieve\nAction Input: something",
			wantAction:   "answer",
			wantInput:    "",
			wantThought:  "hmm",
			wantFallback: true,
		},
		{
			name:         "free text without structure falls back",
			response:     "I think the user wants to know about CNNs so let me explain them here directly.",
			wantAction:   "answer",
			wantInput:    "",
			wantFallback: true,
		},
		{
			name:         "empty response falls back",
			response:     "",
			wantAction:   "answer",
			wantFallback: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseReact(tt.response)

			if got.Action != tt.wantAction {
				t.Errorf("Action = %q, want %q", got.Action, tt.wantAction)
			}
			if got.Input != tt.wantInput {
				t.Errorf("Input = %q, want %q", got.Input, tt.wantInput)
			}
			if tt.wantThought != "" && got.Thought != tt.wantThought {
				t.Errorf("Thought = %q, want %q", got.Thought, tt.wantThought)
			}
			if got.Fallback != tt.wantFallback {
				t.Errorf("Fallback = %v, want %v", got.Fallback, tt.wantFallback)
			}
		})
	}
}

func TestIsOutOfDomain(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"what is the bitcoin price today", true},
		{"best lasagna recipe", true},
		{"who won the world cup", true},
		{"what is machine learning", false},
		{"explain CNN architectures", false},
		{"hello", false},
		// Domain keyword outranks the off-topic one
		{"machine learning for football analytics", false},
		{"tell me something interesting", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := isOutOfDomain(tt.query); got != tt.want {
				t.Errorf("isOutOfDomain(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}
