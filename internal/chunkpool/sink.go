package chunkpool

import "log/slog"

// ProgressSink receives fire-and-forget progress updates. Implementations
// must never block for long and their failures are never fatal.
type ProgressSink interface {
	ReportChunkStatus(jobID string, chunkIndex int, status Status)
	ReportProcessedCount(jobID string, processed int)
}

// LogSink is the default ProgressSink, writing progress to the logger.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s LogSink) ReportChunkStatus(jobID string, chunkIndex int, status Status) {
	s.logger().Debug("chunk status", "job_id", jobID, "chunk", chunkIndex, "status", status)
}

func (s LogSink) ReportProcessedCount(jobID string, processed int) {
	s.logger().Debug("chunks processed", "job_id", jobID, "processed", processed)
}

// Verify interface
var _ ProgressSink = LogSink{}
