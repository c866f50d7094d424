package main

import (
	"io"
	"testing"

	"digicoop/internal/config"
	"digicoop/internal/utils"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCacheFallsBackWithoutRedis(t *testing.T) {
	l := logrus.New()
	l.SetOutput(io.Discard)

	cache, closeCache, err := newCache(&config.Config{}, logrus.NewEntry(l))
	require.NoError(t, err)
	defer closeCache()
	assert.IsType(t, &utils.MemoryCache{}, cache)

	_, _, err = newCache(&config.Config{RedisAddr: "127.0.0.1:1"}, logrus.NewEntry(l))
	assert.Error(t, err)
}
