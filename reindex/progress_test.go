package reindex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressReportsAtInterval(t *testing.T) {
	var buf strings.Builder
	tracker := NewProgressTracker(&buf, 100, 25)
	tracker.Start()

	tracker.Update(10)
	assert.Empty(t, buf.String())

	tracker.Update(30)
	assert.Contains(t, buf.String(), "30/100")

	tracker.Finish()
	assert.Contains(t, buf.String(), "100/100")
	assert.Contains(t, buf.String(), "100.0%")
}

func TestProgressCapsAtTotal(t *testing.T) {
	var buf strings.Builder
	tracker := NewProgressTracker(&buf, 10, 1)
	tracker.Start()

	tracker.Update(50)
	assert.Contains(t, buf.String(), "10/10")
}

func TestProgressIgnoresUpdatesBeforeStart(t *testing.T) {
	var buf strings.Builder
	tracker := NewProgressTracker(&buf, 10, 1)

	tracker.Update(5)
	tracker.Finish()
	assert.Empty(t, buf.String())
	assert.Zero(t, tracker.Elapsed())
}
