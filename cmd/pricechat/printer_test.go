package main

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/pricechat"
	"github.com/fwojciec/pricechat/mock"
	"github.com/fwojciec/pricechat/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := newPrinter(&buf)
	u := pricechat.NewMessage(pricechat.RoleUser, "q")

	p.Update(pricechat.Snapshot{Messages: []pricechat.Message{u}})
	assert.Empty(t, buf.String())

	p.Update(pricechat.Snapshot{Messages: []pricechat.Message{u, pricechat.NewMessage(pricechat.RoleAssistant, "Hel")}})
	p.Update(pricechat.Snapshot{Messages: []pricechat.Message{u, pricechat.NewMessage(pricechat.RoleAssistant, "Hello")}})
	// A stale snapshot prints nothing.
	p.Update(pricechat.Snapshot{Messages: []pricechat.Message{u, pricechat.NewMessage(pricechat.RoleAssistant, "He")}})

	err := p.finish(pricechat.Snapshot{
		Messages: []pricechat.Message{u, pricechat.NewMessage(pricechat.RoleAssistant, "Hello")},
		State:    pricechat.TurnState{Phase: pricechat.PhaseClosed, Reason: pricechat.CloseCompleted},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello\n", buf.String())
}

func TestPrinter_Finish(t *testing.T) {
	t.Parallel()

	closed := func(r pricechat.CloseReason, err error) pricechat.Snapshot {
		return pricechat.Snapshot{State: pricechat.TurnState{Phase: pricechat.PhaseClosed, Reason: r}, Err: err}
	}

	assert.EqualError(t, newPrinter(&bytes.Buffer{}).finish(closed(pricechat.CloseCancelled, nil)), "cancelled")
	assert.ErrorIs(t, newPrinter(&bytes.Buffer{}).finish(closed(pricechat.CloseNetworkError, pricechat.ErrIncompleteStream)), pricechat.ErrIncompleteStream)
	assert.ErrorContains(t, newPrinter(&bytes.Buffer{}).finish(closed(pricechat.CloseProtocolError, nil)), "protocol_error")
}

func TestPrinter_WriteError(t *testing.T) {
	t.Parallel()

	boom := errors.New("broken pipe")
	w := &failingWriter{err: boom}
	p := newPrinter(w)
	u := pricechat.NewMessage(pricechat.RoleUser, "q")

	p.Update(pricechat.Snapshot{Messages: []pricechat.Message{u, pricechat.NewMessage(pricechat.RoleAssistant, "Hel")}})
	p.Update(pricechat.Snapshot{Messages: []pricechat.Message{u, pricechat.NewMessage(pricechat.RoleAssistant, "Hello")}})

	err := p.finish(pricechat.Snapshot{
		Messages: []pricechat.Message{u, pricechat.NewMessage(pricechat.RoleAssistant, "Hello")},
		State:    pricechat.TurnState{Phase: pricechat.PhaseClosed, Reason: pricechat.CloseCompleted},
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, w.writes)
}

type failingWriter struct {
	err    error
	writes int
}

func (w *failingWriter) Write([]byte) (int, error) {
	w.writes++
	return 0, w.err
}

func TestAskCommand(t *testing.T) {
	t.Parallel()

	questions := make(chan string, 4)
	provider := &mock.Provider{StreamFn: func(_ context.Context, q string) iter.Seq2[string, error] {
		questions <- q
		return mock.Deltas(nil, "Average ", "price is ", "5.2M")
	}}
	srv := httptest.NewServer(relay.NewHandler(provider, relay.WithTokens("secret")))
	t.Cleanup(srv.Close)

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("server: "+srv.URL+"\n"), 0o600))

	t.Run("prints streamed answer", func(t *testing.T) {
		var out, errOut bytes.Buffer
		cmd := newRootCmd(envMap(map[string]string{"PRICECHAT_TOKEN": "secret"}))
		cmd.SetOut(&out)
		cmd.SetErr(&errOut)
		cmd.SetArgs([]string{"ask", "--config", cfgPath, "average", "price?"})

		require.NoError(t, cmd.Execute())
		assert.Equal(t, "Average price is 5.2M\n", out.String())
		assert.Equal(t, "average price?", <-questions)
	})

	t.Run("unauthorized", func(t *testing.T) {
		var out, errOut bytes.Buffer
		cmd := newRootCmd(envMap(nil))
		cmd.SetOut(&out)
		cmd.SetErr(&errOut)
		cmd.SetArgs([]string{"ask", "--config", cfgPath, "--token", "wrong", "q"})

		err := cmd.Execute()
		require.ErrorIs(t, err, pricechat.ErrUnauthorized)
		assert.Empty(t, out.String())
	})
}
