package session

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Names of the completion-marker predicates, reported as Snapshot.DetectedBy.
const (
	SignalCallback      = "callback"
	SignalPoll          = "poll"
	SignalDirectStatus  = "direct_status"
	SignalNestedStatus  = "nested_status"
	SignalArgsStatus    = "args_status"
	SignalAlternateFlag = "alternate_flag"
)

var completionStatuses = map[string]bool{
	"success":        true,
	"proof_verified": true,
	"completed":      true,
	"verified":       true,
}

var alternateFlags = []string{"proof_verified", "verified", "success"}

// Predicate inspects one parsed transport message.
type Predicate struct {
	Name  string
	Match func(msg gjson.Result) bool
}

// Predicates are evaluated in order; the first match wins.
var Predicates = []Predicate{
	{Name: SignalDirectStatus, Match: DirectStatus},
	{Name: SignalNestedStatus, Match: NestedStatus},
	{Name: SignalArgsStatus, Match: ArgsStatus},
	{Name: SignalAlternateFlag, Match: AlternateFlag},
}

// MatchCompletion reports whether raw carries a completion marker in any
// known shape, and which predicate matched. Non-JSON messages never match.
func MatchCompletion(raw []byte) (string, bool) {
	payload := stripEventPrefix(raw)
	if !gjson.ValidBytes(payload) {
		return "", false
	}
	msg := gjson.ParseBytes(payload)
	for _, p := range Predicates {
		if p.Match(msg) {
			return p.Name, true
		}
	}
	return "", false
}

// stripEventPrefix drops a socket.io packet type such as the "42" in
// 42["status",{...}].
func stripEventPrefix(raw []byte) []byte {
	i := 0
	for i < len(raw) && raw[i] >= '0' && raw[i] <= '9' {
		i++
	}
	if i > 0 && i < len(raw) && (raw[i] == '[' || raw[i] == '{') {
		return raw[i:]
	}
	return raw
}

func isCompletion(v gjson.Result) bool {
	return v.Type == gjson.String && completionStatuses[strings.ToLower(v.String())]
}

// DirectStatus matches {"status": "success"}.
func DirectStatus(msg gjson.Result) bool {
	return msg.IsObject() && isCompletion(msg.Get("status"))
}

// NestedStatus matches a status one level down under an event name or a
// data wrapper: {"verification_result": {"status": "success"}}.
func NestedStatus(msg gjson.Result) bool {
	if !msg.IsObject() {
		return false
	}
	found := false
	msg.ForEach(func(_, v gjson.Result) bool {
		if v.IsObject() && isCompletion(v.Get("status")) {
			found = true
			return false
		}
		return true
	})
	return found
}

// ArgsStatus matches a status inside an argument list, either an "args"
// field or a top-level array: {"args": [{"status": "success"}]} or
// ["status", {"status": "success"}].
func ArgsStatus(msg gjson.Result) bool {
	args := msg
	if msg.IsObject() {
		args = msg.Get("args")
	}
	if !args.IsArray() {
		return false
	}
	found := false
	args.ForEach(func(_, v gjson.Result) bool {
		if (v.IsObject() && isCompletion(v.Get("status"))) || isCompletion(v) {
			found = true
			return false
		}
		return true
	})
	return found
}

// AlternateFlag matches a boolean completion field: {"proof_verified": true}.
func AlternateFlag(msg gjson.Result) bool {
	if !msg.IsObject() {
		return false
	}
	for _, name := range alternateFlags {
		if msg.Get(name).Type == gjson.True {
			return true
		}
	}
	return false
}
