package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWithWriter(t *testing.T) {
	t.Cleanup(func() { Init("info", "json") })

	t.Run("JSONAtInfo", func(t *testing.T) {
		buf := &bytes.Buffer{}
		InitWithWriter(buf, "info", "json")

		Debug("hidden")
		Info("code issued", "code", "AB12")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "code issued", entry["msg"])
		assert.Equal(t, "AB12", entry["code"])
		assert.Equal(t, "INFO", entry["level"])
	})

	t.Run("TextAtError", func(t *testing.T) {
		buf := &bytes.Buffer{}
		InitWithWriter(buf, "ERROR", "text")

		Warn("hidden")
		Error("store down")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "msg=\"store down\"")
	})

	t.Run("DebugEnabled", func(t *testing.T) {
		buf := &bytes.Buffer{}
		InitWithWriter(buf, "debug", "json")

		Debug("collision")
		assert.Contains(t, buf.String(), "collision")
	})
}
