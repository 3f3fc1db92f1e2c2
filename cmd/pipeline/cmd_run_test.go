package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/commodities/internal/domain"
)

const positionsJSON = `[
  {"id": "rb2505C3800", "underlying": "RB", "strike": 3800, "expiry": "2025-04-17", "type": "call", "quantity": 2, "avg_cost": 55.5, "open_date": "2025-02-10"},
  {"id": "au2506P540", "underlying": "AU", "strike": 540, "expiry": "2025-05-26", "type": "put", "quantity": -1, "avg_cost": 9.2}
]`

func TestLoadPositions_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.json")
	require.NoError(t, os.WriteFile(path, []byte(positionsJSON), 0644))

	positions, err := loadPositions(path, nil)

	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, "rb2505C3800", positions[0].ID)
	require.NotNil(t, positions[0].OpenDate)
	assert.Equal(t, domain.NewDate(2025, time.February, 10), *positions[0].OpenDate)
	assert.Nil(t, positions[1].OpenDate)
	assert.False(t, positions[1].IsLong())
}

func TestLoadPositions_Stdin(t *testing.T) {
	positions, err := loadPositions("-", strings.NewReader(positionsJSON))

	require.NoError(t, err)
	assert.Len(t, positions, 2)
}

func TestLoadPositions_Errors(t *testing.T) {
	_, err := loadPositions(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.ErrorContains(t, err, "failed to open positions file")

	_, err = loadPositions("-", strings.NewReader(`{"id": "x"}`))
	assert.ErrorContains(t, err, "failed to parse positions")
}
