package service

import "deptinbox/backend/internal/domain"

// Recorder 接收业务指标，*monitoring.Metrics 实现了它
type Recorder interface {
	RecordSubmitted()
	RecordStatusTransition(status domain.Status)
	RecordDeleted()
	RecordPersistenceError(operation string)
	SetOverflowLength(n int)
}

type nopRecorder struct{}

func (nopRecorder) RecordSubmitted()                     {}
func (nopRecorder) RecordStatusTransition(domain.Status) {}
func (nopRecorder) RecordDeleted()                       {}
func (nopRecorder) RecordPersistenceError(string)        {}
func (nopRecorder) SetOverflowLength(int)                {}
