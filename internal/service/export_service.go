package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
)

type sessionReader interface {
	GetSession(ctx context.Context) (*repository.TimetableSession, error)
}

// ExportService renders the current timetable as a CSV artifact and hands
// out signed download links.
type ExportService struct {
	sessions  sessionReader
	teachers  teacherSource
	calendar  calendarSource
	exporter  *export.CSVExporter
	storage   *storage.LocalStorage
	signer    *storage.SignedURLSigner
	history   historyNotifier
	retention time.Duration
	logger    *zap.Logger
}

// NewExportService constructs the service. Artifacts older than retention
// are removed opportunistically after each export.
func NewExportService(
	sessions sessionReader,
	teachers teacherSource,
	calendar calendarSource,
	store *storage.LocalStorage,
	signer *storage.SignedURLSigner,
	history historyNotifier,
	retention time.Duration,
	logger *zap.Logger,
) *ExportService {
	if retention <= 0 {
		retention = 72 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		sessions:  sessions,
		teachers:  teachers,
		calendar:  calendar,
		exporter:  export.NewCSVExporter(),
		storage:   store,
		signer:    signer,
		history:   history,
		retention: retention,
		logger:    logger,
	}
}

// ExportCSV renders the stored timetable and returns a signed download link.
func (s *ExportService) ExportCSV(ctx context.Context) (*dto.ExportResponse, error) {
	session, err := s.sessions.GetSession(ctx)
	if err != nil {
		if err == appErrors.ErrCacheMiss {
			return nil, appErrors.ErrNoTimetable
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	config, err := s.calendar.Get(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school config")
	}
	teachers, err := s.teachers.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}

	names := make(map[string]string, len(teachers))
	for _, t := range teachers {
		names[t.ID] = t.FullName
	}

	table := export.Table{Headers: []string{"Class", "Day", "Period", "Subject", "Teacher"}}
	for _, slot := range dto.SlotsFromTimetable(session.Timetable) {
		day := fmt.Sprintf("%d", slot.Day)
		if slot.Day < len(config.Days) {
			day = config.Days[slot.Day]
		}
		teacher := slot.TeacherID
		if name, ok := names[slot.TeacherID]; ok {
			teacher = name
		}
		table.Rows = append(table.Rows, []string{
			slot.ClassID,
			day,
			fmt.Sprintf("%d", slot.Period+1),
			slot.Subject,
			teacher,
		})
	}

	data, err := s.exporter.Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("timetable-%s.csv", session.Version)
	if _, err := s.storage.Save(filename, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Generate(session.Version, filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}

	if deleted, err := s.storage.CleanupOlderThan(s.retention); err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
	} else if len(deleted) > 0 {
		s.logger.Info("stale exports removed", zap.Int("files", len(deleted)))
	}

	s.history.Record(models.HistoryActionExport, "timetable", "timetable exported as CSV", map[string]string{
		"version": session.Version,
		"file":    filename,
	})

	return &dto.ExportResponse{
		File:      filename,
		Token:     token,
		URL:       "/exports/download?token=" + url.QueryEscape(token),
		ExpiresAt: expiresAt,
	}, nil
}

// Resolve validates a download token and returns the absolute path and the
// suggested attachment name of the artifact.
func (s *ExportService) Resolve(token string) (string, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download link")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return "", "", appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
	}
	_ = file.Close()
	return s.storage.Path(relPath), relPath, nil
}
