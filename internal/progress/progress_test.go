package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTickFalseBeforeOneSecond(t *testing.T) {
	timer := Start()
	require.False(t, timer.Tick()) // first call only seeds lastTick
	require.False(t, timer.Tick())
}

func TestElapsedIsWholeSeconds(t *testing.T) {
	timer := Start()
	time.Sleep(5 * time.Millisecond)
	require.Equal(t, timer.Elapsed(), timer.Elapsed().Round(time.Second))
}
