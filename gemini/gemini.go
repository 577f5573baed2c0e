// Package gemini implements [pricechat.Provider] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK. The SDK's streaming iterator of
// responses is flattened into a sequence of text deltas.
package gemini

const (
	defaultModel     = "gemini-2.5-flash"
	defaultMaxTokens = 8192
)
