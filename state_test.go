package pricechat_test

import (
	"testing"

	"github.com/fwojciec/pricechat"
	"github.com/stretchr/testify/assert"
)

func TestTurnState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state    pricechat.TurnState
		active   bool
		abnormal bool
		str      string
	}{
		{pricechat.TurnState{Phase: pricechat.PhaseIdle}, false, false, "idle"},
		{pricechat.TurnState{Phase: pricechat.PhaseSending}, true, false, "sending"},
		{pricechat.TurnState{Phase: pricechat.PhaseStreaming}, true, false, "streaming"},
		{pricechat.TurnState{Phase: pricechat.PhaseClosed, Reason: pricechat.CloseCompleted}, false, false, "closed(completed)"},
		{pricechat.TurnState{Phase: pricechat.PhaseClosed, Reason: pricechat.CloseCancelled}, false, true, "closed(cancelled)"},
		{pricechat.TurnState{Phase: pricechat.PhaseClosed, Reason: pricechat.CloseNetworkError}, false, true, "closed(network_error)"},
		{pricechat.TurnState{Phase: pricechat.PhaseClosed, Reason: pricechat.CloseProtocolError}, false, true, "closed(protocol_error)"},
	}
	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.active, tt.state.Active())
			assert.Equal(t, tt.abnormal, tt.state.Abnormal())
			assert.Equal(t, tt.str, tt.state.String())
		})
	}
}
