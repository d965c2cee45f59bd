package capture

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizedDefaults(t *testing.T) {
	o, err := Options{URL: "http://127.0.0.1:8080/", OutputPath: "out.png"}.normalized()
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, o.Width)
	assert.Equal(t, DefaultHeight, o.Height)
	assert.Equal(t, 30*time.Second, o.Timeout)

	o, err = Options{URL: "u", OutputPath: "p", Width: 800, Height: 600, Timeout: time.Second}.normalized()
	require.NoError(t, err)
	assert.Equal(t, 800, o.Width)
	assert.Equal(t, 600, o.Height)
	assert.Equal(t, time.Second, o.Timeout)
}

func TestCalendarPNGRequiresTargets(t *testing.T) {
	err := CalendarPNG(context.Background(), Options{OutputPath: "out.png"})
	assert.ErrorContains(t, err, "URL is required")

	err = CalendarPNG(context.Background(), Options{URL: "http://127.0.0.1:8080/"})
	assert.ErrorContains(t, err, "OutputPath is required")
}
