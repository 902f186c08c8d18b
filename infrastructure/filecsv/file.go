package filecsv

import (
	"os"

	"syllabus-crawler/infrastructure/logger"
)

// NewFile opens path for appending, creating it when missing
func NewFile(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while open file")
		return nil, err
	}

	return file, nil
}
