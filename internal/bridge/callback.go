// Package bridge drives one face-capture session: it intercepts callback
// navigations raised by the content surface, registers the reference identity,
// maps terminal detection events to outcomes and collects the captured frame.
package bridge

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/andresmejia3/facebridge/internal/types"
)

// Scheme is the pseudo-navigation scheme the content surface uses to talk to the host.
const Scheme = "callback"

// SchemePrefix is what a navigation target must start with to be treated as an event.
const SchemePrefix = Scheme + "://"

// ErrNotCallback is returned when a target does not carry the callback scheme.
var ErrNotCallback = errors.New("not a callback navigation")

// ParseError describes a callback URL that could not be turned into an event.
type ParseError struct {
	URL    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed callback %q: %s", e.URL, e.Reason)
}

// IsCallback reports whether a navigation target must be intercepted.
func IsCallback(target string) bool {
	return strings.HasPrefix(target, SchemePrefix)
}

// ParseCallback decodes callback://<tag>?<query>.
//
// The tag is everything after the scheme up to the first '?', '/' or '#', lower
// cased. Query pairs that fail to decode are dropped; the rest are kept, so a
// damaged payload degrades to default field values instead of failing.
func ParseCallback(target string) (types.CallbackEvent, error) {
	if !IsCallback(target) {
		return types.CallbackEvent{}, ErrNotCallback
	}
	rest := target[len(SchemePrefix):]

	tag := rest
	if i := strings.IndexAny(rest, "?/#"); i >= 0 {
		tag = rest[:i]
	}
	tag = strings.ToLower(tag)
	if tag == "" {
		return types.CallbackEvent{}, &ParseError{URL: target, Reason: "empty event tag"}
	}

	var rawQuery string
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rawQuery = rest[i+1:]
		if j := strings.IndexByte(rawQuery, '#'); j >= 0 {
			rawQuery = rawQuery[:j]
		}
	}
	// ParseQuery keeps every pair it could decode even when it returns an error.
	params, _ := url.ParseQuery(rawQuery)

	return types.CallbackEvent{Tag: types.Tag(tag), Params: params}, nil
}
