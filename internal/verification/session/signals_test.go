package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestMatchCompletion(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{name: "direct status", raw: `{"status":"success"}`, want: SignalDirectStatus, wantOK: true},
		{name: "direct status case insensitive", raw: `{"status":"PROOF_VERIFIED"}`, want: SignalDirectStatus, wantOK: true},
		{name: "nested under event", raw: `{"verification_result":{"status":"completed"}}`, want: SignalNestedStatus, wantOK: true},
		{name: "nested under data", raw: `{"type":"update","data":{"status":"success"}}`, want: SignalNestedStatus, wantOK: true},
		{name: "args object", raw: `{"event":"status","args":[{"status":"success"}]}`, want: SignalArgsStatus, wantOK: true},
		{name: "socket.io frame", raw: `42["status",{"status":"success"}]`, want: SignalArgsStatus, wantOK: true},
		{name: "alternate flag", raw: `{"proof_verified":true}`, want: SignalAlternateFlag, wantOK: true},
		{name: "pending status", raw: `{"status":"pending"}`},
		{name: "flag false", raw: `{"proof_verified":false}`},
		{name: "flag as string", raw: `{"verified":"true"}`},
		{name: "deeply nested", raw: `{"a":{"b":{"status":"success"}}}`},
		{name: "not json", raw: `hello`},
		{name: "socket.io ping", raw: `2`},
		{name: "empty", raw: ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchCompletion([]byte(tt.raw))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPredicatesAreIndependent(t *testing.T) {
	msg := gjson.Parse(`{"status":"success"}`)
	assert.True(t, DirectStatus(msg))
	assert.False(t, NestedStatus(msg))
	assert.False(t, ArgsStatus(msg))
	assert.False(t, AlternateFlag(msg))

	arr := gjson.Parse(`["verified"]`)
	assert.False(t, DirectStatus(arr))
	assert.True(t, ArgsStatus(arr))
}

func TestPredicateOrder(t *testing.T) {
	names := make([]string, 0, len(Predicates))
	for _, p := range Predicates {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{SignalDirectStatus, SignalNestedStatus, SignalArgsStatus, SignalAlternateFlag}, names)
}
