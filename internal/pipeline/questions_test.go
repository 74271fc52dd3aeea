package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuestions_JSONObject(t *testing.T) {
	t.Parallel()

	raw := `{"questions": ["Where are you going?", "When?", "  ", "What is your budget?"]}`
	assert.Equal(t, []string{
		"Where are you going?",
		"When?",
		"What is your budget?",
	}, ParseQuestions(raw))
}

func TestParseQuestions_FencedJSON(t *testing.T) {
	t.Parallel()

	raw := "```json\n{\"questions\": [\"目的地是哪裡？\", \"出發日期？\"]}\n```"
	assert.Equal(t, []string{"目的地是哪裡？", "出發日期？"}, ParseQuestions(raw))
}

func TestParseQuestions_BareArray(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b"}, ParseQuestions(`["a", "b"]`))
}

func TestParseQuestions_NumberedList(t *testing.T) {
	t.Parallel()

	raw := "1. Where are you going?\n\n2) When do you leave?\n- What is your budget?\n* Anything else?\n"
	assert.Equal(t, []string{
		"Where are you going?",
		"When do you leave?",
		"What is your budget?",
		"Anything else?",
	}, ParseQuestions(raw))
}

func TestParseQuestions_EmptyResponse(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ParseQuestions("   \n  \n"))
	assert.Empty(t, ParseQuestions(`{"questions": []}`))
}

func TestParseFollowupDecision(t *testing.T) {
	t.Parallel()

	d, err := parseFollowupDecision(`{"need_followup": true, "followup_question": "Which city exactly?"}`)
	require.NoError(t, err)
	assert.True(t, d.NeedFollowup)
	assert.Equal(t, "Which city exactly?", d.FollowupQuestion)

	d, err = parseFollowupDecision("```\n{\"need_followup\": false, \"followup_question\": \"\"}\n```")
	require.NoError(t, err)
	assert.False(t, d.NeedFollowup)

	_, err = parseFollowupDecision("not json at all")
	assert.Error(t, err)

	_, err = parseFollowupDecision(`{"need_followup": true, "followup_question": "  "}`)
	assert.Error(t, err)
}

func TestFormatTranscript(t *testing.T) {
	t.Parallel()

	pairs := []QA{
		{Question: "Where to?", Answer: "Tokyo"},
		{Question: "Which district?", Answer: "Shinjuku", FollowUp: true},
		{Question: "Budget?", Answer: NoAnswer},
	}
	want := "Q1: Where to?\n" +
		"A1: Tokyo\n" +
		"Q1 (follow-up): Which district?\n" +
		"A1 (follow-up): Shinjuku\n" +
		"Q2: Budget?\n" +
		"A2: " + NoAnswer
	assert.Equal(t, want, FormatTranscript(pairs))
}
