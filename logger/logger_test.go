package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "info"}, &buf)

	l.Info().Str("member", "m1").Msg("classified")

	out := buf.String()
	assert.Contains(t, out, `"message":"classified"`)
	assert.Contains(t, out, `"member":"m1"`)
	assert.Contains(t, out, `"service":"participation-engine"`)
}

func TestNewWithWriter_Pretty(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "info", Pretty: true}, &buf)

	l.Info().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseLevel(tc.in), tc.in)
	}
}

func TestNew_SetsGlobalLevel(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	_ = New(Config{Level: "error"})

	assert.Equal(t, zerolog.ErrorLevel, zerolog.GlobalLevel())
}
