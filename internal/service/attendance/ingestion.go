package attendance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/devicepush"
)

// PunchRecorder runs the punch pipeline for a resolved subject.
type PunchRecorder interface {
	RecordPunch(ctx context.Context, subject attendance.Subject, ts time.Time, source attendance.Source, meta attendance.DeviceMeta) (attendance.PunchResult, error)
}

type IngestionServiceImpl struct {
	resolver attendance.IdentityResolver
	recorder PunchRecorder
	parser   devicepush.Parser
}

func NewIngestionService(resolver attendance.IdentityResolver, recorder PunchRecorder, parser devicepush.Parser) attendance.IngestionService {
	return &IngestionServiceImpl{
		resolver: resolver,
		recorder: recorder,
		parser:   parser,
	}
}

// Ingest implements attendance.IngestionService. Rows are handled one at a
// time and independently; a failing row is logged, counted and skipped.
func (s *IngestionServiceImpl) Ingest(ctx context.Context, serial string, body io.Reader) attendance.IngestionResult {
	var result attendance.IngestionResult
	serial = s.parser.Serial(serial)

	rows, err := s.parser.ParseBatch(body)
	if err != nil {
		slog.Warn("device push body truncated", "serial", serial, "error", err)
	}

	for _, row := range rows {
		result.Received++

		if err := s.ingestRow(ctx, serial, row, &result); err != nil {
			result.Failed++
			slog.Warn("device push row skipped",
				"serial", serial,
				"line", row.Line,
				"row", row.Raw,
				"error", err)
		}
	}

	slog.Info("device push processed",
		"serial", serial,
		"received", result.Received,
		"recorded", result.Recorded,
		"duplicates", result.Duplicates,
		"failed", result.Failed)

	return result
}

func (s *IngestionServiceImpl) ingestRow(ctx context.Context, serial string, row devicepush.Row, result *attendance.IngestionResult) error {
	if row.Err != nil {
		if errors.Is(row.Err, devicepush.ErrInvalidTime) {
			return fmt.Errorf("%w: %v", attendance.ErrInvalidTimestamp, row.Err)
		}
		return fmt.Errorf("%w: %v", attendance.ErrMalformedIngestionRow, row.Err)
	}

	subject, err := s.resolver.ResolveCode(ctx, row.Punch.UserID)
	if err != nil {
		return err
	}

	deviceID := serial
	verifyMode := row.Punch.VerifyMode
	res, err := s.recorder.RecordPunch(ctx, subject, row.Punch.Time, attendance.SourceBiometric, attendance.DeviceMeta{
		DeviceID:   &deviceID,
		VerifyMode: &verifyMode,
	})
	if err != nil {
		return err
	}

	if res.Duplicate {
		result.Duplicates++
	} else {
		result.Recorded++
	}
	return nil
}
