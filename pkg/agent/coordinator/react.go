package coordinator

import "strings"

// Decision is the outcome of one coordinator pass.
type Decision struct {
	Thought string
	Action  string
	Input   string

	// OutOfDomain is set when the keyword gate short-circuited the
	// decision without consulting the model.
	OutOfDomain bool

	// Fallback marks decisions recovered from an unparseable model
	// response rather than taken from it.
	Fallback bool
}

// Action values the coordinator can choose.
const (
	ActionSearch  = "search"
	ActionAnswer  = "answer"
	ActionClarify = "clarify"
)

// Instruction fragments small models sometimes echo back inside
// Action Input.
var promptArtifacts = []string{
	"YOUR RESPONSE (ReAct format):",
	"Respond NOW in ReAct format (3 lines):",
	"your response:",
}

// parseReact extracts the Thought / Action / Action Input lines from a
// model response, tolerating continuation lines and sloppy formatting.
// When no valid action can be recovered the decision falls back to a
// direct answer, the safe default, and Fallback is set so the caller can
// note the anomaly in the trace.
func parseReact(response string) Decision {
	var d Decision

	current := ""
	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "Thought:"):
			current = "thought"
			d.Thought = strings.TrimSpace(strings.TrimPrefix(line, "Thought:"))
		case strings.HasPrefix(line, "Action Input:"):
			current = "input"
			d.Input = strings.TrimSpace(strings.TrimPrefix(line, "Action Input:"))
		case strings.HasPrefix(line, "Action:"):
			current = "action"
			d.Action = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "Action:")))
		case line != "":
			// Continuation of the previous field
			switch current {
			case "thought":
				d.Thought += " " + line
			case "action":
				d.Action += " " + strings.ToLower(line)
			case "input":
				d.Input += " " + line
			}
		}
	}

	d.Input = cleanActionInput(d.Input)

	// A search with no query is useless; the thought usually names the
	// topic, so reuse it.
	if d.Action == ActionSearch && d.Input == "" && d.Thought != "" {
		d.Input = d.Thought
	}

	switch d.Action {
	case ActionSearch, ActionAnswer, ActionClarify:
	default:
		d.Action = ActionAnswer
		d.Input = ""
		d.Fallback = true
	}

	return d
}

func cleanActionInput(input string) string {
	for _, phrase := range promptArtifacts {
		input = strings.ReplaceAll(input, phrase, "")
	}
	input = strings.TrimSpace(input)
	input = strings.Trim(input, `"'`)
	return strings.TrimSpace(input)
}
