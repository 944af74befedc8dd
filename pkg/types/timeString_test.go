package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeString_UnmarshalText(t *testing.T) {
	var ts TimeString
	require.NoError(t, ts.UnmarshalText([]byte("03:30")))
	assert.Equal(t, TimeString("03:30"), ts)

	err := ts.UnmarshalText([]byte("25:99"))
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)
	assert.Equal(t, TimeString("03:30"), ts)
}

func TestTimeString_Next(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	next, err := TimeString("03:30").Next(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 11, 3, 30, 0, 0, time.UTC), next)

	next, err = TimeString("18:15").Next(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 10, 18, 15, 0, 0, time.UTC), next)

	_, err = TimeString("").Next(now)
	assert.ErrorIs(t, err, ErrInvalidTimeValue)
}
