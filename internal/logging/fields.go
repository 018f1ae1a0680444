package logging

import "log/slog"

// Common field names for consistent logging across the pipeline.
const (
	FieldService   = "service"
	FieldTask      = "task"
	FieldInquiryID = "inquiry_id"
	FieldBatch     = "batch_size"
	FieldChunk     = "chunk_size"
	FieldWatermark = "watermark"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// Task returns a slog attribute for a task name.
func Task(name string) slog.Attr {
	return slog.String(FieldTask, name)
}

// InquiryID returns a slog attribute for an inquiry id.
func InquiryID(id int64) slog.Attr {
	return slog.Int64(FieldInquiryID, id)
}

// Batch returns a slog attribute for a polled batch size.
func Batch(n int) slog.Attr {
	return slog.Int(FieldBatch, n)
}

// Chunk returns a slog attribute for a processing chunk size.
func Chunk(n int) slog.Attr {
	return slog.Int(FieldChunk, n)
}

// Watermark returns a slog attribute for the persisted watermark.
func Watermark(id int64) slog.Attr {
	return slog.Int64(FieldWatermark, id)
}

// Duration returns a slog attribute for duration in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
