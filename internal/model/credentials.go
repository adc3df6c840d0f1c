package model

import "strings"

// Credentials holds the API keys attached to outbound verification
// requests. The Gemini key authorizes the reasoning model and is
// mandatory; the Tavily key augments web search and may be absent, in
// which case the backend falls back to its default search path.
//
// Keys live only in client-local storage and are read-then-copied per
// request: edits during an in-flight request never change credentials
// that were already sent. They must never appear in logs or reports.
type Credentials struct {
	GeminiKey string
	TavilyKey string
}

// Trimmed returns a copy with surrounding whitespace removed from both keys.
func (c Credentials) Trimmed() Credentials {
	return Credentials{
		GeminiKey: strings.TrimSpace(c.GeminiKey),
		TavilyKey: strings.TrimSpace(c.TavilyKey),
	}
}

// Configured reports whether the mandatory key is present. Callers must
// treat an unconfigured store as "block submission", not as an error.
func (c Credentials) Configured() bool {
	return strings.TrimSpace(c.GeminiKey) != ""
}
