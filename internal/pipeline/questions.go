package pipeline

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// NoAnswer is recorded when the operator explicitly skips a question, so
// downstream stages can see that the question was asked.
const NoAnswer = "(no answer provided)"

// QA is one question/answer pair from the clarification interview.
type QA struct {
	Question string
	Answer   string
	FollowUp bool
}

var listMarkerRe = regexp.MustCompile(`^\s*(?:[-*•]+|\d+\s*[.)、:：]?)\s*`)

// ParseQuestions extracts the question list from a model response. A JSON
// object of the form {"questions": [...]} (or a bare JSON array) is tried
// first, matching what the stage templates request; otherwise the response
// is treated as a plain list, one question per line or numbered item.
// Empty or malformed lines are dropped.
func ParseQuestions(raw string) []string {
	body := stripCodeFence(raw)

	if qs, ok := parseJSONQuestions(body); ok {
		return qs
	}
	return parseListQuestions(body)
}

func parseJSONQuestions(body string) ([]string, bool) {
	var obj struct {
		Questions []string `json:"questions"`
	}
	if err := json.Unmarshal([]byte(body), &obj); err == nil && obj.Questions != nil {
		return cleanQuestions(obj.Questions), true
	}

	var arr []string
	if err := json.Unmarshal([]byte(body), &arr); err == nil {
		return cleanQuestions(arr), true
	}
	return nil, false
}

func parseListQuestions(body string) []string {
	var qs []string
	for line := range strings.Lines(body) {
		line = listMarkerRe.ReplaceAllString(strings.TrimSpace(line), "")
		if line != "" {
			qs = append(qs, line)
		}
	}
	return qs
}

func cleanQuestions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, q := range in {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}

// stripCodeFence unwraps a response the model wrapped in a markdown fence.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

type followupDecision struct {
	NeedFollowup     bool   `json:"need_followup"`
	FollowupQuestion string `json:"followup_question"`
}

func parseFollowupDecision(raw string) (followupDecision, error) {
	body := stripCodeFence(raw)
	var d followupDecision
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		return followupDecision{}, fmt.Errorf("parse follow-up decision: %w", err)
	}
	if d.NeedFollowup && strings.TrimSpace(d.FollowupQuestion) == "" {
		return followupDecision{}, fmt.Errorf("follow-up requested without a question")
	}
	d.FollowupQuestion = strings.TrimSpace(d.FollowupQuestion)
	return d, nil
}

// FormatTranscript renders question/answer pairs as the stage's context
// entry. Follow-ups keep their parent question's number.
func FormatTranscript(pairs []QA) string {
	var b strings.Builder
	n := 0
	for _, p := range pairs {
		label := ""
		if p.FollowUp {
			label = fmt.Sprintf("%d (follow-up)", n)
		} else {
			n++
			label = fmt.Sprintf("%d", n)
		}
		fmt.Fprintf(&b, "Q%s: %s\n", label, p.Question)
		fmt.Fprintf(&b, "A%s: %s\n", label, p.Answer)
	}
	return strings.TrimRight(b.String(), "\n")
}
