package keyboard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/maxbot/core/maxapi"
)

func TestNPerRow(t *testing.T) {
	btns := []maxapi.Button{Callback("a", "a"), Callback("b", "b"), Callback("c", "c")}

	kb := NPerRow(btns, 2)
	require.Len(t, kb, 2)
	assert.Len(t, kb[0], 2)
	assert.Len(t, kb[1], 1)
	assert.Equal(t, "c", kb[1][0].Payload)

	assert.Len(t, NPerRow(btns, 0), 3)
	assert.Empty(t, NPerRow(nil, 3))
}

func TestRowsSkipsEmpty(t *testing.T) {
	kb := Rows(Row(Callback("a", "a")), Row(), Row(Link("site", "https://max.ru")))
	require.Len(t, kb, 2)
	assert.Equal(t, maxapi.ButtonLink, kb[1][0].Type)
}

func TestCancelOverrides(t *testing.T) {
	b := Cancel()
	assert.Equal(t, "cancel", b.Payload)
	assert.Equal(t, maxapi.IntentNegative, b.Intent)

	b = Cancel("stop", "Stop")
	assert.Equal(t, "stop", b.Payload)
	assert.Equal(t, "Stop", b.Text)
}

func TestKeyboardWireFormat(t *testing.T) {
	att := maxapi.InlineKeyboardAttachment(Rows(Row(Callback("Info", "info"), Positive("Go", "go"))))
	raw, err := json.Marshal(att)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "inline_keyboard",
		"payload": {"buttons": [[
			{"type": "callback", "text": "Info", "payload": "info", "intent": "default"},
			{"type": "callback", "text": "Go", "payload": "go", "intent": "positive"}
		]]}
	}`, string(raw))
}
