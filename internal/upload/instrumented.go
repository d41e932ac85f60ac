package upload

import (
	"context"
	"errors"
	"mime/multipart"

	"github.com/hitoshi/internhub/internal/metrics"
	"github.com/hitoshi/internhub/internal/model"
)

// InstrumentedStore は保存結果をメトリクスに記録する FileStore。
type InstrumentedStore struct {
	next     FileStore
	recorder metrics.Recorder
}

// NewInstrumentedStore は next をラップした InstrumentedStore を生成する。
func NewInstrumentedStore(next FileStore, recorder metrics.Recorder) *InstrumentedStore {
	return &InstrumentedStore{next: next, recorder: metrics.OrNop(recorder)}
}

// Save はファイルを保存し、受け付け・拒否を記録する。
// 形式やサイズによる拒否のみを拒否として数え、I/O障害は記録しない。
func (s *InstrumentedStore) Save(ctx context.Context, policy Policy, fh *multipart.FileHeader, requestBaseURL string) (*Stored, error) {
	stored, err := s.next.Save(ctx, policy, fh, requestBaseURL)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Kind == model.KindValidation {
			s.recorder.RecordUpload(policy.Name, false)
		}
		return nil, err
	}
	s.recorder.RecordUpload(policy.Name, true)
	return stored, nil
}

// Discard は保存済みファイルを破棄する。
func (s *InstrumentedStore) Discard(stored *Stored) error {
	return s.next.Discard(stored)
}

var _ FileStore = (*InstrumentedStore)(nil)
