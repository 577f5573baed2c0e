package anthropic

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/tidwall/gjson"
	"github.com/tmaxmax/go-sse"
)

var errUnexpectedEOF = errors.New("anthropic: unexpected end of stream")

// Deltas reduces a Messages API event stream to its text deltas. The
// sequence ends after message_stop. An error event, a stop for a reason
// other than the answer being finished, or a stream that ends without
// message_stop is yielded as the final error.
func Deltas(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for ev, err := range sse.Read(r, nil) {
			if err != nil {
				yield("", fmt.Errorf("anthropic: %w", err))
				return
			}
			switch ev.Type {
			case "content_block_delta":
				if gjson.Get(ev.Data, "delta.type").String() != "text_delta" {
					// Thinking and signature deltas are not part of the answer.
					continue
				}
				if text := gjson.Get(ev.Data, "delta.text").String(); text != "" {
					if !yield(text, nil) {
						return
					}
				}
			case "message_delta":
				if err := checkStopReason(gjson.Get(ev.Data, "delta.stop_reason").String()); err != nil {
					yield("", err)
					return
				}
			case "message_stop":
				return
			case "error":
				yield("", fmt.Errorf("anthropic: %s: %s",
					gjson.Get(ev.Data, "error.type").String(),
					gjson.Get(ev.Data, "error.message").String()))
				return
			default:
				// message_start, content_block_start/stop, ping and unknown
				// event types carry no answer text.
			}
		}
		yield("", errUnexpectedEOF)
	}
}

// checkStopReason rejects stop reasons that leave the answer unusable. A
// truncated answer at max_tokens is still delivered.
func checkStopReason(reason string) error {
	switch reason {
	case "", "end_turn", "max_tokens", "stop_sequence":
		return nil
	case "refusal":
		return errors.New("anthropic: answer refused")
	default:
		return fmt.Errorf("anthropic: unexpected stop reason %q", reason)
	}
}
