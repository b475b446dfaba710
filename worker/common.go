package worker

import (
	"fmt"
	"path"
	"time"
)

// getResultsFileKey is processed/documents/<doc>/<key>.ltp_results.json.
func getResultsFileKey(task *Task) string {
	return path.Join(
		"processed",
		"documents",
		task.document.DocID,
		fmt.Sprintf("%s.ltp_results.json", task.redisKey),
	)
}

const RFC3339Micro = "2006-01-02T15:04:05.000000-07:00"

func getFormattedNow() *string {
	now := time.Now().UTC().Format(RFC3339Micro)
	return &now
}
