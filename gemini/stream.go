package gemini

import (
	"fmt"
	"iter"

	"google.golang.org/genai"
)

// Deltas flattens a genai response stream into answer text. Thought parts
// are skipped. A blocked prompt or a candidate stopped for safety or
// recitation ends the sequence with an error.
func Deltas(responses iter.Seq2[*genai.GenerateContentResponse, error]) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for resp, err := range responses {
			if err != nil {
				yield("", fmt.Errorf("gemini: %w", err))
				return
			}
			if resp == nil {
				continue
			}
			if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
				yield("", fmt.Errorf("gemini: prompt blocked: %s", fb.BlockReason))
				return
			}
			if len(resp.Candidates) == 0 {
				continue
			}
			cand := resp.Candidates[0]
			if cand.Content != nil {
				for _, part := range cand.Content.Parts {
					if part == nil || part.Thought || part.Text == "" {
						continue
					}
					if !yield(part.Text, nil) {
						return
					}
				}
			}
			switch cand.FinishReason {
			case genai.FinishReasonSafety, genai.FinishReasonRecitation:
				yield("", fmt.Errorf("gemini: answer stopped: %s", cand.FinishReason))
				return
			}
		}
	}
}
