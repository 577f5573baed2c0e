package pricechat_test

import (
	"testing"

	"github.com/fwojciec/pricechat"
	"github.com/stretchr/testify/assert"
)

func TestEventTypeSwitch_Exhaustive(t *testing.T) {
	t.Parallel()
	events := []pricechat.Event{
		pricechat.EventDelta{Text: "hello"},
		pricechat.EventDone{},
		pricechat.EventMalformed{Payload: "x", Reason: pricechat.MalformedSyntax},
	}
	var kinds []string
	for _, e := range events {
		switch e.(type) {
		case pricechat.EventDelta:
			kinds = append(kinds, "delta")
		case pricechat.EventDone:
			kinds = append(kinds, "done")
		case pricechat.EventMalformed:
			kinds = append(kinds, "malformed")
		default:
			t.Fatalf("unexpected event type %T", e)
		}
	}
	assert.Equal(t, []string{"delta", "done", "malformed"}, kinds)
}

func TestEventMalformed_Ignorable(t *testing.T) {
	t.Parallel()
	assert.True(t, pricechat.EventMalformed{Reason: pricechat.MalformedEmpty}.Ignorable())
	assert.False(t, pricechat.EventMalformed{Reason: pricechat.MalformedSyntax}.Ignorable())
	assert.False(t, pricechat.EventMalformed{Reason: pricechat.MalformedMissingDelta}.Ignorable())
}
