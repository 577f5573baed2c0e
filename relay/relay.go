// Package relay serves the streaming chat endpoint on top of a
// pricechat.Provider. It speaks the same wire format the chat client
// consumes and is used as a local stand-in for the AI service.
package relay

import (
	"errors"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/fwojciec/pricechat"
	pcjson "github.com/fwojciec/pricechat/json"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/tmaxmax/go-sse"
)

const maxRequestBody = 1 << 20

var errInvalidBody = errors.New("request body must be a JSON object")

// Handler serves POST /ai/chat/stream and GET /healthz.
type Handler struct {
	provider pricechat.Provider
	tokens   map[string]struct{}
	log      logrus.FieldLogger
	mux      *http.ServeMux
}

// Option configures a [Handler].
type Option func(*Handler)

// WithTokens sets the bearer tokens accepted by the stream endpoint. With no
// tokens every request is accepted.
func WithTokens(tokens ...string) Option {
	return func(h *Handler) {
		for _, t := range tokens {
			if t = strings.TrimSpace(t); t != "" {
				h.tokens[t] = struct{}{}
			}
		}
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(log logrus.FieldLogger) Option {
	return func(h *Handler) { h.log = log }
}

// NewHandler creates a [Handler] answering questions with provider.
func NewHandler(provider pricechat.Provider, opts ...Option) *Handler {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	h := &Handler{
		provider: provider,
		tokens:   make(map[string]struct{}),
		log:      discard,
		mux:      http.NewServeMux(),
	}
	for _, o := range opts {
		o(h)
	}
	h.mux.HandleFunc("POST /ai/chat/stream", h.handleStream)
	h.mux.HandleFunc("GET /healthz", h.handleHealth)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"status":"ok"}`)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	w.Header().Set("X-Request-Id", id)
	log := h.log.WithField("request_id", id)

	if !h.authorized(r) {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	question, err := readQuestion(r)
	if err != nil {
		log.WithError(err).Debug("bad request")
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	next, stop := iter.Pull2(h.provider.Stream(r.Context(), question))
	defer stop()

	// Failures before the first delta still get a regular HTTP error.
	delta, err, ok := next()
	if ok && err != nil {
		log.WithError(err).Error("provider failed")
		writeDetail(w, http.StatusBadGateway, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	sess, err := sse.Upgrade(w, r)
	if err != nil {
		log.WithError(err).Error("upgrade to event stream")
		writeDetail(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	frames := 0
	for ; ok; delta, err, ok = next() {
		if err != nil {
			// Ending without the sentinel tells the client the turn broke.
			log.WithError(err).WithField("frames", frames).Error("provider failed mid-stream")
			return
		}
		if delta == "" {
			continue
		}
		payload, encErr := pcjson.EncodeDelta(delta)
		if encErr != nil {
			log.WithError(encErr).Error("encode delta")
			return
		}
		if sendErr := send(sess, payload); sendErr != nil {
			log.WithError(sendErr).Debug("client went away")
			return
		}
		frames++
	}
	if err := send(sess, pricechat.Sentinel); err != nil {
		log.WithError(err).Debug("client went away")
		return
	}
	log.WithField("frames", frames).Info("stream completed")
}

func (h *Handler) authorized(r *http.Request) bool {
	if len(h.tokens) == 0 {
		return true
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	_, ok = h.tokens[strings.TrimSpace(token)]
	return ok
}

func readQuestion(r *http.Request) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return "", errInvalidBody
	}
	req := pricechat.Request{Question: gjson.GetBytes(body, "question").String()}
	if err := req.Validate(); err != nil {
		return "", err
	}
	return req.Question, nil
}

func send(sess *sse.Session, payload string) error {
	msg := &sse.Message{}
	msg.AppendData(payload)
	if err := sess.Send(msg); err != nil {
		return err
	}
	return sess.Flush()
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	body, err := sjson.Set(`{}`, "detail", detail)
	if err != nil {
		body = `{"detail":"internal error"}`
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
