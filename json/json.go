// Package json interprets frame payloads of the chat stream.
package json

import (
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/pricechat"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// deltaKey is the object member that carries assistant text.
const deltaKey = "delta"

// Interpret classifies one frame payload. It never fails: anything that is
// not the sentinel or a well-formed delta object comes back as
// pricechat.EventMalformed.
func Interpret(payload string) pricechat.Event {
	payload = strings.TrimSpace(payload)
	if payload == pricechat.Sentinel {
		return pricechat.EventDone{}
	}
	if payload == "" {
		return pricechat.EventMalformed{Payload: payload, Reason: pricechat.MalformedEmpty}
	}
	if !gjson.Valid(payload) {
		return pricechat.EventMalformed{Payload: payload, Reason: pricechat.MalformedSyntax}
	}
	doc := gjson.Parse(payload)
	if !doc.IsObject() {
		return pricechat.EventMalformed{Payload: payload, Reason: pricechat.MalformedSyntax}
	}
	// A repeated key resolves to its last occurrence, as in JSON.parse.
	var delta gjson.Result
	doc.ForEach(func(key, value gjson.Result) bool {
		if key.Str == deltaKey {
			delta = value
		}
		return true
	})
	if delta.Type != gjson.String {
		return pricechat.EventMalformed{Payload: payload, Reason: pricechat.MalformedMissingDelta}
	}
	text := delta.Str
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, string(utf8.RuneError))
	}
	return pricechat.EventDelta{Text: text}
}

// EncodeDelta returns the payload carrying text as one delta.
func EncodeDelta(text string) (string, error) {
	return sjson.Set(`{}`, deltaKey, text)
}
