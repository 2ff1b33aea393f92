package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/tapdeck/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"", log.InfoLevel},
		{"debug", log.DebugLevel},
		{"WARN", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"loud", log.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestConfigure_Text(t *testing.T) {
	var buf bytes.Buffer
	l := log.New()

	configure(l, &buf, config.LogConfig{Level: "warn"})
	l.WithField("kind", "audio").Info("hidden")
	l.WithField("kind", "audio").Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "kind=audio")
}

func TestConfigure_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := log.New()

	configure(l, &buf, config.LogConfig{JSON: true})
	l.WithField("tier", "local").Info("order saved")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "order saved", entry["msg"])
	assert.Equal(t, "local", entry["tier"])
	assert.Equal(t, "info", entry["level"])
}
