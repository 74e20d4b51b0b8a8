package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, Level(0))
	assert.Equal(t, zerolog.WarnLevel, Level(-1))
	assert.Equal(t, zerolog.InfoLevel, Level(1))
	assert.Equal(t, zerolog.DebugLevel, Level(2))
	assert.Equal(t, zerolog.TraceLevel, Level(3))
	assert.Equal(t, zerolog.TraceLevel, Level(9))
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]int{
		"warn": 0, "warning": 0, "error": 0,
		"info": 1, "debug": 2, "trace": 3,
	} {
		got, ok := ParseLevel(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := ParseLevel("verbose")
	assert.False(t, ok)
}

func TestSetupWithWriter_Filters(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWithWriter(1, &buf)

	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
