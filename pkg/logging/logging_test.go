package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixWriter(t *testing.T) {
	testCases := []struct {
		name   string
		writes []string
		want   string
		flush  string
	}{
		{name: "single line", writes: []string{"hello\n"}, want: "> hello\n"},
		{name: "split line", writes: []string{"hel", "lo\nwor", "ld\n"}, want: "> hello\n> world\n"},
		{name: "trailing partial", writes: []string{"a\nb"}, want: "> a\n", flush: "> a\n> b"},
		{name: "empty lines", writes: []string{"\n\n"}, want: "> \n> \n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			pw := NewPrefixWriter("> ", &out)
			for _, w := range tc.writes {
				n, err := pw.Write([]byte(w))
				require.NoError(t, err)
				assert.Equal(t, len(w), n)
			}
			assert.Equal(t, tc.want, out.String())

			require.NoError(t, pw.Flush())
			if tc.flush != "" {
				assert.Equal(t, tc.flush, out.String())
			} else {
				assert.Equal(t, tc.want, out.String())
			}
		})
	}
}

func TestResolveLevel(t *testing.T) {
	testCases := []struct {
		name       string
		flag, env  string
		configured string
		want       string
	}{
		{name: "default", want: DefaultLevel},
		{name: "config", configured: "info", want: "info"},
		{name: "env beats config", env: "DEBUG", configured: "info", want: "debug"},
		{name: "flag beats env", flag: "trace", env: "debug", configured: "info", want: "trace"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(EnvLogLevel, tc.env)
			assert.Equal(t, tc.want, ResolveLevel(tc.flag, tc.configured))
		})
	}
}

func TestValidLevel(t *testing.T) {
	for _, level := range []string{"trace", "debug", "info", "warn", "error", "off"} {
		assert.True(t, ValidLevel(level), level)
	}
	assert.False(t, ValidLevel("loud"))
}

func TestNewLoggerHumanOutput(t *testing.T) {
	t.Setenv(EnvJSONLog, "")
	var out bytes.Buffer
	logger := NewLogger("psdkit", "debug", &out)
	logger.Debug("📂 Reading header", "offset", 0)
	logger.Trace("hidden")

	line := out.String()
	assert.True(t, strings.HasPrefix(line, "🎨 "), line)
	assert.Contains(t, line, "Reading header")
	assert.Contains(t, line, "offset=0")
	assert.NotContains(t, line, "hidden")
}

func TestNewLoggerJSON(t *testing.T) {
	t.Setenv(EnvJSONLog, "1")
	var out bytes.Buffer
	logger := NewLogger("psdkit", "info", &out)
	logger.Info("decoded", "layers", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &entry))
	assert.Equal(t, "decoded", entry["@message"])
	assert.Equal(t, "psdkit", entry["@module"])
	assert.EqualValues(t, 2, entry["layers"])
	assert.Equal(t, hclog.Info, hclog.LevelFromString(entry["@level"].(string)))
}
