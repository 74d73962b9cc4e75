package format

import (
	"bytes"
	"encoding/json"
	"strings"
)

// PrettyJSON renders text as two-space indented JSON. Text that does not parse
// is returned unchanged.
func PrettyJSON(text string) string {
	pretty, ok := PrettyJSONStrict(text)
	if !ok {
		return text
	}
	return pretty
}

// PrettyJSONStrict is PrettyJSON that also reports whether text parsed. A
// single surrounding markdown code fence is accepted around the JSON.
func PrettyJSONStrict(text string) (string, bool) {
	candidate := strings.TrimSpace(text)
	if !json.Valid([]byte(candidate)) {
		unfenced, ok := stripFence(candidate)
		if !ok || !json.Valid([]byte(unfenced)) {
			return "", false
		}
		candidate = unfenced
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(candidate), "", "  "); err != nil {
		return "", false
	}
	return buf.String(), true
}

// stripFence removes a ```lang ... ``` fence wrapping the whole text
func stripFence(text string) (string, bool) {
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return "", false
	}
	body := strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		// Drop the info string ("json") on the opening line
		if !strings.ContainsAny(body[:nl], "{[\"") {
			body = body[nl+1:]
		}
	}
	return strings.TrimSpace(body), true
}
