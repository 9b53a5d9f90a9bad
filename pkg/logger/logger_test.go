package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewSetsLevel(t *testing.T) {
	_ = New(Config{Level: "debug"})
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	_ = New(Config{Level: "warn"})
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestNewFallsBackOnUnknownLevel(t *testing.T) {
	_ = New(Config{Level: "loudest"})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	_ = New(Config{})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
