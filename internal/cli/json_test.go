package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHighlightJSON(t *testing.T) {
	SetEnabled(true)
	t.Cleanup(func() { SetEnabled(!checkNoColor()) })

	out := HighlightJSON(`{"alt":"A carer","cached":true,"n":3,"x":null}`)

	assert.Contains(t, out, Blue+`"alt"`+Reset+":")
	assert.Contains(t, out, Green+`"A carer"`+Reset)
	assert.Contains(t, out, Yellow+"true"+Reset)
	assert.Contains(t, out, Purple+"3"+Reset)
	assert.Contains(t, out, Dim+"null"+Reset)
}

func TestPrettyPrint_NoColor(t *testing.T) {
	SetEnabled(false)
	t.Cleanup(func() { SetEnabled(!checkNoColor()) })

	var buf bytes.Buffer
	PrettyPrint(&buf, map[string]string{"reply": "Hello"})

	assert.Equal(t, "{\n  \"reply\": \"Hello\"\n}\n", buf.String())
	assert.Equal(t, "✔", CheckMark())
}
