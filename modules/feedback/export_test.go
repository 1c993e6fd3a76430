package feedback

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportJSON_WarmOnly(t *testing.T) {
	tracker := NewLearningTracker()
	tracker.RecordInteraction(0, 1.0, true, nil)

	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, tracker, nil))

	var decoded exportedData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Nil(t, decoded.ColdStart)
	assert.Equal(t, 1, decoded.WarmStart.Metrics.TotalInteractions)
}

func TestExportJSON_WithColdComparison(t *testing.T) {
	warm := NewLearningTracker()
	cold := NewLearningTracker()
	warm.RecordInteraction(0, 1.0, true, nil)
	cold.RecordInteraction(0, 0.0, true, nil)

	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, warm, cold))

	var decoded exportedData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.NotNil(t, decoded.ColdStart)
	assert.Equal(t, 1, decoded.ColdStart.Metrics.TotalInteractions)
}

func TestExportCSV_WritesOneRowPerInteraction(t *testing.T) {
	tracker := NewLearningTracker()
	tracker.RecordInteraction(0, 1.0, true, nil)
	tracker.RecordInteraction(1, 0.0, false, nil)

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, tracker))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3) // header + 2 interactions
}
