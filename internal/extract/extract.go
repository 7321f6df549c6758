// Package extract recovers a structured object from raw model output. LLM
// completions are not reliably well-formed JSON, so recovery runs as an
// ordered pipeline of small named repair stages, each pure and testable in
// isolation. Repairs are heuristic by nature; anything still unparseable after
// the second pass is surfaced as a MalformedResponseError, never as guessed
// partial data.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/inducomp/aipk/internal/domain"
)

var (
	reFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")

	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	// Line comments only when not preceded by ':' so "https://..." values
	// inside strings survive.
	reLineComment = regexp.MustCompile(`(?m)(^|[\s,{\[])//.*$`)

	// A url field truncated mid-value before a line break or the next key.
	reURLCutNewline = regexp.MustCompile(`"url":\s*"https?:\s*[\r\n]`)
	reURLCutQuote   = regexp.MustCompile(`("url":\s*"https?:\s*)(")`)

	reTrailingBrace   = regexp.MustCompile(`,\s*}`)
	reTrailingBracket = regexp.MustCompile(`,\s*]`)
	reFlatten         = regexp.MustCompile(`[\n\r\t]`)
)

// StripFence extracts the content of a fenced code block if one is present.
func StripFence(text string) string {
	if m := reFence.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return text
}

// SliceBraces slices the text to the span between the first '{' and the last
// '}', discarding any preamble or epilogue prose. Text without a brace pair is
// returned unchanged.
func SliceBraces(text string) string {
	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first == -1 || last == -1 || last <= first {
		return text
	}
	return text[first : last+1]
}

// StripComments removes block and line comment artifacts some providers echo
// inside "JSON".
func StripComments(text string) string {
	text = reBlockComment.ReplaceAllString(text, "")
	return reLineComment.ReplaceAllString(text, "$1")
}

// RepairTruncatedURLs substitutes a safe empty value for url fields the model
// truncated mid-value.
func RepairTruncatedURLs(text string) string {
	text = reURLCutNewline.ReplaceAllString(text, "\"url\": \"\",\n")
	return reURLCutQuote.ReplaceAllString(text, "\"url\": \"\",$2")
}

// AggressiveCleanup is the second-pass repair: trailing commas before closing
// brackets are dropped and newlines/tabs flattened to spaces. It runs only
// after a strict parse has already failed.
func AggressiveCleanup(text string) string {
	text = reTrailingBrace.ReplaceAllString(text, "}")
	text = reTrailingBracket.ReplaceAllString(text, "]")
	return reFlatten.ReplaceAllString(text, " ")
}

// JSON runs the full recovery pipeline and returns strict JSON bytes.
// Empty input fails with ErrEmptyResponse before any pattern work; input that
// survives neither parse attempt fails with a MalformedResponseError carrying
// the offending text.
func JSON(text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyResponse
	}

	s := StripFence(text)
	s = SliceBraces(s)
	s = StripComments(s)
	s = RepairTruncatedURLs(s)

	if err := probe(s); err == nil {
		return []byte(s), nil
	}

	cleaned := AggressiveCleanup(s)
	if err := probe(cleaned); err != nil {
		return nil, &domain.MalformedResponseError{Raw: s, Cause: err}
	}
	return []byte(cleaned), nil
}

// Decode recovers JSON from raw model text and unmarshals it into dst.
func Decode(text string, dst interface{}) error {
	data, err := JSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &domain.MalformedResponseError{Raw: string(data), Cause: err}
	}
	return nil
}

func probe(s string) error {
	var v interface{}
	return json.Unmarshal([]byte(s), &v)
}
