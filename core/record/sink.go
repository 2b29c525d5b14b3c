package record

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/davidahmann/fixcheck/core/errs"
	"github.com/davidahmann/fixcheck/core/fsx"
	"github.com/davidahmann/fixcheck/core/jcs"
)

// Sink persists verification records as JSON keyed by instance identifier.
type Sink struct {
	Path   string
	Logger *zap.Logger
}

// Write serializes {instanceID: rec} and persists it atomically, returning
// the RFC 8785 content digest of the payload. A write failure is an IO
// error for the caller to report; it never changes the verdict already
// computed inside rec.
func (s Sink) Write(instanceID string, rec Record) (string, error) {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	payload, err := json.MarshalIndent(map[string]Record{instanceID: rec}, "", "    ")
	if err != nil {
		return "", errs.Wrap(fmt.Errorf("marshal record: %w", err), errs.CategoryIO, "record_marshal_failed")
	}
	payload = append(payload, '\n')

	digest, err := jcs.Digest(payload)
	if err != nil {
		return "", errs.Wrap(fmt.Errorf("digest record: %w", err), errs.CategoryIO, "record_digest_failed")
	}

	if err := fsx.WriteFileAtomic(s.Path, payload, 0o644); err != nil {
		return "", errs.Wrap(fmt.Errorf("persist record: %w", err), errs.CategoryIO, "record_write_failed")
	}

	logger.Info("verification record persisted",
		zap.String("path", s.Path),
		zap.String("instance_id", instanceID),
		zap.String("digest", digest),
		zap.Bool("resolved", rec.Resolved))
	return digest, nil
}
