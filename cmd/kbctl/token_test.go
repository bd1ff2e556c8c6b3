package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTTL(t *testing.T) {
	d, err := parseTTL("")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d)

	d, err = parseTTL("36h")
	require.NoError(t, err)
	assert.Equal(t, 36*time.Hour, d)

	_, err = parseTTL("tomorrow")
	assert.Error(t, err)
}
