package pricechat

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxQuestionLength bounds the question size accepted by Validate, in runes.
const MaxQuestionLength = 4000

// Request carries one question and the credential used to authorize it.
type Request struct {
	Question string
	Token    string
}

// Validate checks universal constraints on Request.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return ErrEmptyMessage
	}
	if n := utf8.RuneCountInString(r.Question); n > MaxQuestionLength {
		return fmt.Errorf("question has %d characters, limit is %d: %w", n, MaxQuestionLength, ErrValidation)
	}
	return nil
}
