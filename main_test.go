package main

import (
	"bytes"
	"testing"
	"time"

	"lovelink/pkg/catalog"
	"lovelink/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeason(t *testing.T) {
	july := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

	s, err := parseSeason("", july)
	require.NoError(t, err)
	assert.Equal(t, catalog.Summer, s)

	s, err = parseSeason(" Winter ", july)
	require.NoError(t, err)
	assert.Equal(t, catalog.Winter, s)

	_, err = parseSeason("monsoon", july)
	assert.Error(t, err)
}

func TestParseTimeOfDay(t *testing.T) {
	evening := time.Date(2026, 7, 1, 19, 0, 0, 0, time.UTC)

	tod, err := parseTimeOfDay("", evening)
	require.NoError(t, err)
	assert.Equal(t, catalog.Evening, tod)

	_, err = parseTimeOfDay("brunch", evening)
	assert.Error(t, err)
}

func TestListPlaces(t *testing.T) {
	var buf bytes.Buffer
	opts := placesOptions{score: 6000, season: "winter", timeOfDay: "night", infinite: true, infiniteCount: 10}

	require.NoError(t, listPlaces(&buf, catalog.Default(), opts, time.Now()))
	out := buf.String()
	assert.Contains(t, out, "at score 6,000 (winter, night)")
	assert.Contains(t, out, "illumination")
	assert.NotContains(t, out, "fireworks")
	assert.Contains(t, out, catalog.Synthetic(10).ID)
	assert.Contains(t, out, "+51")
}

func TestLoadCatalog_Default(t *testing.T) {
	cfg, err := config.LoadConfig("does_not_exist.yml")
	require.NoError(t, err)

	c, err := loadCatalog(cfg)
	require.NoError(t, err)
	assert.Equal(t, len(catalog.DefaultLocations), c.Len())
}

func TestSurrealURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8000/rpc", surrealURL("ws://localhost:8000/rpc"))
	assert.Equal(t, "wss://db.example.com/rpc", surrealURL("db.example.com"))
}
