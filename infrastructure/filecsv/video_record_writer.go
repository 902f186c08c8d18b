package filecsv

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"syllabus-crawler/domain/model"
)

var header = []string{
	"channel", "playlist_id", "playlist_title", "video_id", "title", "url",
	"view_count", "weight", "grade", "board", "subject", "topic", "subtopic",
}

// VideoRecordWriter appends every published record as one CSV row
type VideoRecordWriter struct {
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
}

func NewVideoRecordWriter(path string) (*VideoRecordWriter, error) {
	file, err := NewFile(path)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	w := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			_ = file.Close()
			return nil, err
		}
		w.Flush()
	}
	return &VideoRecordWriter{file: file, w: w}, nil
}

func (v *VideoRecordWriter) Publish(_ context.Context, record *model.VideoRecord) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	row := []string{
		record.Channel,
		record.PlaylistID,
		record.PlaylistTitle,
		record.VideoID,
		record.Title,
		record.URL,
		strconv.FormatUint(record.ViewCount, 10),
		strconv.FormatFloat(record.Weight, 'f', -1, 64),
		strconv.Itoa(record.Grade),
		record.Board,
		record.Subject,
		record.Topic,
		record.Subtopic,
	}
	if err := v.w.Write(row); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	v.w.Flush()
	return v.w.Error()
}

func (v *VideoRecordWriter) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.w.Flush()
	return v.file.Close()
}
