package trace

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestEventSerializationKeepsMeaningfulZeroes(t *testing.T) {
	tests := []struct {
		name       string
		event      Event
		wantKeys   []string
		absentKeys []string
	}{
		{
			name:       "empty retrieval keeps zero count",
			event:      NewDocumentsRetrieved("searching", 0, nil),
			wantKeys:   []string{`"document_count":0`, `"sources":[]`, `"event_type":"documents_retrieved"`},
			absentKeys: []string{`"relevant_count"`, `"answer"`, `"success"`},
		},
		{
			name:       "failed done keeps false flag",
			event:      NewDone(false, 1500*time.Millisecond, 0),
			wantKeys:   []string{`"success":false`, `"total_time_seconds":1.5`, `"total_iterations":0`},
			absentKeys: []string{`"document_count"`, `"decision"`},
		},
		{
			name:       "forced grading exposes the flag",
			event:      NewGradingResult("grading", 0, 3, "answer", true),
			wantKeys:   []string{`"relevant_count":0`, `"total_count":3`, `"decision":"answer"`, `"forced":true`},
			absentKeys: []string{`"document_count"`},
		},
		{
			name:       "normal grading still carries forced false",
			event:      NewGradingResult("grading", 2, 5, "answer", false),
			wantKeys:   []string{`"forced":false`},
			absentKeys: nil,
		},
		{
			name:       "final answer with no evidence",
			event:      NewFinalAnswer("answering", "hi", nil, 0),
			wantKeys:   []string{`"total_iterations":0`, `"answer":"hi"`, `"sources":[]`},
			absentKeys: []string{`"document_count"`},
		},
		{
			name: "final answer carries citation objects",
			event: NewFinalAnswer("answering", "text", []Citation{
				{Document: "excerpt...", Source: "paper.pdf", Similarity: 0.8123},
			}, 1),
			wantKeys:   []string{`"source":"paper.pdf"`, `"similarity":0.8123`},
			absentKeys: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.event)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			got := string(raw)
			for _, key := range tt.wantKeys {
				if !strings.Contains(got, key) {
					t.Errorf("payload missing %s: %s", key, got)
				}
			}
			for _, key := range tt.absentKeys {
				if strings.Contains(got, key) {
					t.Errorf("payload should omit %s: %s", key, got)
				}
			}
		})
	}
}

func TestDoneRoundsElapsedToCentiseconds(t *testing.T) {
	ev := NewDone(true, 1234567*time.Microsecond, 2)
	if *ev.TotalTimeSeconds != 1.23 {
		t.Errorf("TotalTimeSeconds = %v, want 1.23", *ev.TotalTimeSeconds)
	}
	if *ev.TotalIterations != 2 {
		t.Errorf("TotalIterations = %d, want 2", *ev.TotalIterations)
	}
}

func TestSourceAccessors(t *testing.T) {
	retrieved := NewDocumentsRetrieved("searching", 2, []string{"a.pdf", "b.pdf"})
	if got := retrieved.SourceList(); len(got) != 2 || got[0] != "a.pdf" {
		t.Errorf("SourceList = %v, want [a.pdf b.pdf]", got)
	}
	if got := retrieved.CitationList(); got != nil {
		t.Errorf("CitationList on retrieval event = %v, want nil", got)
	}

	final := NewFinalAnswer("answering", "x", []Citation{{Source: "a.pdf"}}, 0)
	if got := final.CitationList(); len(got) != 1 || got[0].Source != "a.pdf" {
		t.Errorf("CitationList = %v, want one a.pdf citation", got)
	}
}

func TestRecorderStampsIterationAndOrder(t *testing.T) {
	rec := NewRecorder()

	rec.Record(NewNodeStart("coordinating"))
	rec.SetIteration(1)
	rec.Record(NewRewrite("rewriting", "a", "b"))
	rec.Record(NewNodeStart("searching"))

	events := rec.Events()
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Iteration != 0 {
		t.Errorf("first event iteration = %d, want 0", events[0].Iteration)
	}
	if events[1].Iteration != 1 || events[2].Iteration != 1 {
		t.Errorf("post-rewrite iterations = %d, %d, want 1, 1", events[1].Iteration, events[2].Iteration)
	}
	for i, ev := range events {
		if ev.Timestamp.IsZero() {
			t.Errorf("event %d missing timestamp", i)
		}
	}
}

func TestRecorderEventsReturnsCopy(t *testing.T) {
	rec := NewRecorder()
	rec.Record(NewNodeStart("coordinating"))

	snapshot := rec.Events()
	snapshot[0].Node = "mutated"

	if rec.Events()[0].Node != "coordinating" {
		t.Error("mutating the snapshot changed the recorded trace")
	}
}

func TestChannelSinkDeliversInOrder(t *testing.T) {
	sink := NewChannelSink(8)
	rec := NewRecorder(sink)

	rec.Record(NewNodeStart("coordinating"))
	rec.Record(NewThought("coordinating", "needs evidence", "search"))
	rec.Record(NewNodeEnd("coordinating"))
	sink.Close()

	var kinds []Kind
	for ev := range sink.Events() {
		kinds = append(kinds, ev.Kind)
	}

	want := []Kind{KindNodeStart, KindThought, KindNodeEnd}
	if len(kinds) != len(want) {
		t.Fatalf("got %d events, want %d", len(kinds), len(want))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestChannelSinkDropsWhenAbandoned(t *testing.T) {
	sink := NewChannelSink(1)
	sink.Write(NewNodeStart("coordinating"))

	// Nobody is draining; this must not block.
	done := make(chan struct{})
	go func() {
		sink.Write(NewNodeEnd("coordinating"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Write blocked on a full, abandoned sink")
	}
}
