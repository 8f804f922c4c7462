package crag

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradeValid(t *testing.T) {
	assert.True(t, GradeRelevant.Valid())
	assert.True(t, GradeIrrelevant.Valid())
	assert.False(t, Grade("maybe").Valid())
	assert.False(t, Grade("").Valid())
}

func TestStateJSONRoundTrip(t *testing.T) {
	crawler := "crawler output"
	st := &State{
		OwnerID:  "alice",
		Question: "q",
		Answer:   "a",
		Verdict:  &GradeResponse{Grade: GradeIrrelevant, Description: "off topic"},
		CrawlerResult: &crawler,
		Context:  []Passage{{Content: "p1", Metadata: map[string]string{"source": "doc.pdf"}}},
		Messages: []Message{
			{Role: RoleUser, Content: "q"},
			{Role: RoleAssistant, ToolCalls: []ToolCall{{Ref: "c1", Name: "web_search", Args: map[string]any{"query": "q"}}}},
			{Role: RoleTool, Content: "result", ToolRef: "c1", ToolName: "web_search"},
		},
	}

	raw, err := json.Marshal(st)
	require.NoError(t, err)

	var got State
	require.NoError(t, json.Unmarshal(raw, &got))

	assert.Equal(t, st.OwnerID, got.OwnerID)
	assert.Equal(t, st.Messages, got.Messages)
	assert.Equal(t, st.Verdict, got.Verdict)
	assert.Equal(t, st.CrawlerResult, got.CrawlerResult)
	assert.Equal(t, st.Context, got.Context)
}

func TestStateJSONDistinguishesNilCrawlerResult(t *testing.T) {
	// nil means the research loop never ran; empty string means it ran
	// and produced no text. The distinction must survive persistence.
	empty := ""
	ran := &State{OwnerID: "a", CrawlerResult: &empty}
	never := &State{OwnerID: "a"}

	rawRan, err := json.Marshal(ran)
	require.NoError(t, err)
	rawNever, err := json.Marshal(never)
	require.NoError(t, err)

	var gotRan, gotNever State
	require.NoError(t, json.Unmarshal(rawRan, &gotRan))
	require.NoError(t, json.Unmarshal(rawNever, &gotNever))

	require.NotNil(t, gotRan.CrawlerResult)
	assert.Equal(t, "", *gotRan.CrawlerResult)
	assert.Nil(t, gotNever.CrawlerResult)
}

func TestStateClone(t *testing.T) {
	crawler := "c"
	st := &State{
		OwnerID:       "alice",
		Question:      "q",
		Verdict:       &GradeResponse{Grade: GradeRelevant},
		CrawlerResult: &crawler,
		Context:       []Passage{{Content: "p", Metadata: map[string]string{"k": "v"}}},
		Messages: []Message{
			{Role: RoleAssistant, ToolCalls: []ToolCall{{Ref: "r", Name: "n", Args: map[string]any{"a": "b"}}}},
		},
	}

	clone := st.Clone()
	require.Equal(t, st, clone)

	// Mutating the clone must not touch the original.
	clone.Messages[0].ToolCalls[0].Args["a"] = "changed"
	clone.Context[0].Metadata["k"] = "changed"
	*clone.CrawlerResult = "changed"
	clone.Verdict.Grade = GradeIrrelevant

	assert.Equal(t, "b", st.Messages[0].ToolCalls[0].Args["a"])
	assert.Equal(t, "v", st.Context[0].Metadata["k"])
	assert.Equal(t, "c", *st.CrawlerResult)
	assert.Equal(t, GradeRelevant, st.Verdict.Grade)
}

func TestStateResetTurnKeepsHistory(t *testing.T) {
	crawler := "c"
	st := &State{
		OwnerID:       "alice",
		Question:      "q",
		Answer:        "a",
		Verdict:       &GradeResponse{Grade: GradeIrrelevant},
		CrawlerResult: &crawler,
		Context:       []Passage{{Content: "p"}},
		Messages:      []Message{{Role: RoleUser, Content: "q"}},
	}

	st.resetTurn()

	assert.Empty(t, st.Question)
	assert.Empty(t, st.Answer)
	assert.Nil(t, st.Verdict)
	assert.Nil(t, st.CrawlerResult)
	assert.Nil(t, st.Context)
	assert.Equal(t, "alice", st.OwnerID)
	assert.Len(t, st.Messages, 1)
}

func TestContextText(t *testing.T) {
	st := &State{Context: []Passage{{Content: "first"}, {Content: "second"}, {Content: "third"}}}
	assert.Equal(t, "first\n\nsecond\n\nthird", st.ContextText())

	assert.Empty(t, (&State{}).ContextText())
}
