package tools

import (
	"testing"

	"github.com/joeunion/pidog/internal/action"
	"github.com/stretchr/testify/require"
)

func TestParseResponseStructuredJSON(t *testing.T) {
	text := `{"speech":"hello there","actions":["sit","bogus"],"tools":[{"name":"remember","params":{"subject":"alice"}}]}`
	d := ParseResponse(text)
	require.Equal(t, "hello there", d.Speech)
	require.Equal(t, []action.Token{action.Sit}, d.Actions)
	require.Len(t, d.Tools, 1)
	require.Equal(t, "remember", d.Tools[0].Name)
	require.Equal(t, "alice", d.Tools[0].Params["subject"])
}

func TestParseResponseStripsCodeFence(t *testing.T) {
	text := "```json\n{\"speech\":\"woof\",\"actions\":[\"bark\"]}\n```"
	d := ParseResponse(text)
	require.Equal(t, "woof", d.Speech)
	require.Equal(t, []action.Token{action.Bark}, d.Actions)
}

func TestParseResponseLegacyLineFormat(t *testing.T) {
	text := "Hi there!\nACTIONS: sit, wag tail, bogus\nTOOL: remember {\"subject\":\"alice\"}"
	d := ParseResponse(text)
	require.Equal(t, "Hi there!", d.Speech)
	require.Equal(t, []action.Token{action.Sit, action.WagTail}, d.Actions)
	require.Len(t, d.Tools, 1)
	require.Equal(t, "remember", d.Tools[0].Name)
	require.Equal(t, "alice", d.Tools[0].Params["subject"])
}

func TestParseResponseLegacyMultilineSpeech(t *testing.T) {
	text := "Hello!\nHow are you?\nACTIONS: sit"
	d := ParseResponse(text)
	require.Equal(t, "Hello! How are you?", d.Speech)
}

func TestParseToolLineWithoutParams(t *testing.T) {
	name, params := parseToolLine("list_tricks")
	require.Equal(t, "list_tricks", name)
	require.Nil(t, params)
}
