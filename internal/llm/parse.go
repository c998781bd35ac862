package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Source tags which parse stage produced a Message, so tests and logs can
// tell structured output from heuristic recovery.
type Source string

const (
	// SourceJSON: the whole response decoded as the requested JSON object.
	SourceJSON Source = "json"
	// SourceExtracted: a JSON object was found inside surrounding text
	// (prose, code fences) and both keys were read from it.
	SourceExtracted Source = "extracted"
	// SourceHeuristic: first line became the subject, the rest the body.
	SourceHeuristic Source = "heuristic"
)

// Message is a generated notification.
type Message struct {
	Subject string
	Body    string
	Source  Source
}

var (
	subjectPrefix = regexp.MustCompile(`(?i)^subject:\s*`)
	bodyPrefix    = regexp.MustCompile(`(?i)^body:\s*`)
)

// ParseMessage turns raw model output into a Message. The model is asked for
// a two-key JSON object but is not trusted to comply: strict decode first,
// then a JSON object embedded in surrounding text, then a line-split
// heuristic. The heuristic never fails, so ParseMessage always returns
// something usable.
func ParseMessage(content string) Message {
	content = strings.TrimSpace(content)

	var strict struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := json.Unmarshal([]byte(content), &strict); err == nil && strict.Subject != "" {
		return Message{Subject: strict.Subject, Body: strict.Body, Source: SourceJSON}
	}

	if msg, ok := extractEmbedded(content); ok {
		return msg
	}

	return heuristic(content)
}

// extractEmbedded pulls subject/body out of the first {...} block, covering
// responses wrapped in prose or markdown fences.
func extractEmbedded(content string) (Message, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return Message{}, false
	}
	block := content[start : end+1]
	if !gjson.Valid(block) {
		return Message{}, false
	}
	subject := gjson.Get(block, "subject")
	body := gjson.Get(block, "body")
	if !subject.Exists() || !body.Exists() {
		return Message{}, false
	}
	return Message{
		Subject: strings.TrimSpace(subject.String()),
		Body:    strings.TrimSpace(body.String()),
		Source:  SourceExtracted,
	}, true
}

// heuristic treats the first line as the subject and the remainder as the
// body, stripping literal "subject:" / "body:" prefixes.
func heuristic(content string) Message {
	lines := strings.Split(content, "\n")
	subject := strings.TrimSpace(subjectPrefix.ReplaceAllString(lines[0], ""))
	body := ""
	if len(lines) > 1 {
		body = strings.Join(lines[1:], "\n")
		body = strings.TrimSpace(bodyPrefix.ReplaceAllString(strings.TrimSpace(body), ""))
	}
	return Message{Subject: subject, Body: body, Source: SourceHeuristic}
}
