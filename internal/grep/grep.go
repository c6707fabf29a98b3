// Package grep implements pattern subscriptions and the message matching
// engine that decides who gets notified.
package grep

import (
	"regexp"

	"grepbot/internal/model"
)

// InvalidPatternError reports a pattern that failed to compile.
// Its message is the regexp parser's message, unchanged.
type InvalidPatternError struct {
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return e.Err.Error()
}

func (e *InvalidPatternError) Unwrap() error {
	return e.Err
}

// Subscription is a compiled grep. Identity is the pattern text and owner;
// the compiled regexp is derived from the pattern and never compared.
type Subscription struct {
	re      *regexp.Regexp
	Pattern string
	UserID  int64
}

// Compile builds a subscription for the given owner and pattern.
func Compile(userID int64, pattern string) (Subscription, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Subscription{}, &InvalidPatternError{Pattern: pattern, Err: err}
	}
	return Subscription{re: re, Pattern: pattern, UserID: userID}, nil
}

// Matches reports whether the pattern matches anywhere in text.
func (s Subscription) Matches(text string) bool {
	return s.re != nil && s.re.MatchString(text)
}

// Grep returns the serializable identity of the subscription.
func (s Subscription) Grep() model.Grep {
	return model.Grep{Pattern: s.Pattern, UserID: s.UserID}
}

func (s Subscription) key() key {
	return key{pattern: s.Pattern, userID: s.UserID}
}

type key struct {
	pattern string
	userID  int64
}
