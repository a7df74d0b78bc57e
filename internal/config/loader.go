package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/BartekS5/WETL/pkg/models"
)

// LoadJob reads and parses a job file from the given path and applies
// defaults. It returns a fully parsed Job or an error if the file cannot be
// read or parsed.
func LoadJob(filePath string) (*models.Job, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file '%s': %w", filePath, err)
	}

	var job models.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to parse job file '%s': %w", filePath, err)
	}

	if job.LoadMode == "" {
		job.LoadMode = models.LoadModeAppend
	}
	return &job, nil
}
