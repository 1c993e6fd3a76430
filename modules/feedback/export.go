package feedback

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// exportedData is the JSON export's envelope: a timestamped pairing of the
// warm-start tracker's metrics/history with an optional cold-start
// comparison, used by the dashboard the learning demo feeds.
type exportedData struct {
	Timestamp time.Time           `json:"timestamp"`
	WarmStart exportedTrackerData `json:"warm_start"`
	ColdStart *exportedTrackerData `json:"cold_start,omitempty"`
}

type exportedTrackerData struct {
	Metrics Summary             `json:"metrics"`
	History []InteractionRecord `json:"history"`
}

func formatLearningData(warm, cold *LearningTracker) exportedData {
	data := exportedData{
		Timestamp: time.Now(),
		WarmStart: exportedTrackerData{
			Metrics: warm.GetSummary(),
			History: warm.History(),
		},
	}
	if cold != nil {
		data.ColdStart = &exportedTrackerData{
			Metrics: cold.GetSummary(),
			History: cold.History(),
		}
	}
	return data
}

// ExportJSON writes warm (and optionally cold) tracker history and summary
// metrics to w as indented JSON, for dashboard consumption.
func ExportJSON(w io.Writer, warm, cold *LearningTracker) error {
	data := formatLearningData(warm, cold)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportCSV writes the warm tracker's interaction history as CSV rows, one
// per interaction, suitable for spreadsheet-based plotting.
func ExportCSV(w io.Writer, tracker *LearningTracker) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"interaction", "timestamp", "selected_arm", "reward", "is_optimal",
		"response_rate", "precision", "recall", "f1_score", "cumulative_regret",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, rec := range tracker.History() {
		row := []string{
			fmt.Sprintf("%d", rec.Interaction),
			rec.Timestamp.Format(time.RFC3339),
			fmt.Sprintf("%d", rec.SelectedArm),
			fmt.Sprintf("%.4f", rec.Reward),
			fmt.Sprintf("%t", rec.IsOptimal),
			fmt.Sprintf("%.4f", rec.ResponseRate),
			fmt.Sprintf("%.4f", rec.Precision),
			fmt.Sprintf("%.4f", rec.Recall),
			fmt.Sprintf("%.4f", rec.F1Score),
			fmt.Sprintf("%.4f", rec.CumulativeRegret),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return cw.Error()
}
