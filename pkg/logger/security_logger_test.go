package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskCredential(t *testing.T) {
	sl := NewSecurityLogger(NewNop())

	assert.Equal(t, "", sl.MaskCredential(""))
	assert.Equal(t, "***", sl.MaskCredential("abcd"))

	masked := sl.MaskCredential("supersecret")
	assert.True(t, strings.HasPrefix(masked, "su***#"))
	assert.NotContains(t, masked, "supersecret")
	assert.Equal(t, masked, sl.MaskCredential("supersecret"))
}

func TestMaskAPIEndpoint(t *testing.T) {
	sl := NewSecurityLogger(NewNop())

	masked := sl.MaskAPIEndpoint("https://api.dataforseo.com/v3/serp/google")
	assert.True(t, strings.HasPrefix(masked, "api.dataforseo.com/api#"))
	assert.NotContains(t, masked, "/v3/")

	assert.True(t, strings.HasPrefix(sl.MaskAPIEndpoint("not a url"), "api-endpoint#"))
}

func TestMaskLogMessage(t *testing.T) {
	sl := NewSecurityLogger(NewNop())

	masked := sl.MaskLogMessage("login=bob calling https://api.example.com/v3/x")
	assert.Contains(t, masked, "login=***")
	assert.NotContains(t, masked, "bob")
	assert.NotContains(t, masked, "/v3/x")
}

func TestSafeInfo_MasksFields(t *testing.T) {
	var buf bytes.Buffer
	sl := NewSecurityLogger(NewWithWriter(Config{Level: "info"}, &buf))

	sl.SafeInfo("Upstream client configured", map[string]interface{}{
		"login":      "api-user@example.com",
		"base_url":   "https://api.dataforseo.com",
		"timeout_ms": 30000,
	})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Upstream client configured", line["message"])
	assert.NotEqual(t, "api-user@example.com", line["login"])
	assert.True(t, strings.HasPrefix(line["base_url"].(string), "api.dataforseo.com/api#"))
	assert.Equal(t, float64(30000), line["timeout_ms"])
}

func TestNewWithWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "warn"}, &buf)

	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.WithField("source", "bing").Warn("shown")
	assert.Contains(t, buf.String(), `"source":"bing"`)
}
