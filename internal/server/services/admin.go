package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/dmitrijs2005/stallpass/internal/common"
	"github.com/dmitrijs2005/stallpass/internal/logging"
	"github.com/dmitrijs2005/stallpass/internal/server/config"
	"github.com/dmitrijs2005/stallpass/internal/server/metrics"
	"github.com/dmitrijs2005/stallpass/internal/server/objectstore"
	"github.com/dmitrijs2005/stallpass/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Export is a rendered CSV report. ArchiveKey is set when a copy was
// stored in the export bucket.
type Export struct {
	Filename   string
	Data       []byte
	ArchiveKey string
}

type AdminService struct {
	repomanager  repomanager.RepositoryManager
	visits       *VisitService
	adminKey     []byte
	objects      objectstore.API
	exportBucket string
	logger       logging.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

// NewAdminService wires the admin operations. objects may be nil; exports
// are then only returned, never archived.
func NewAdminService(m repomanager.RepositoryManager, visits *VisitService, objects objectstore.API, cfg *config.Config, logger logging.Logger, mt *metrics.Metrics) *AdminService {
	return &AdminService{
		repomanager:  m,
		visits:       visits,
		adminKey:     []byte(cfg.AdminKey),
		objects:      objects,
		exportBucket: cfg.ExportBucket,
		logger:       logger.With("module", "admin"),
		metrics:      mt,
		now:          time.Now,
	}
}

// CheckKey compares key with the configured admin key in constant time.
func (s *AdminService) CheckKey(key string) error {
	if len(s.adminKey) == 0 || subtle.ConstantTimeCompare([]byte(key), s.adminKey) != 1 {
		return common.ErrorInvalidAdminKey
	}
	return nil
}

// Reset clears every user's visits and every pending visit token.
func (s *AdminService) Reset(ctx context.Context) error {
	if err := s.visits.ResetAll(ctx); err != nil {
		return err
	}
	s.metrics.Reset()
	s.logger.Warn(ctx, "all visits and pending visit tokens cleared")
	return nil
}

// Export renders the visits report. When an export bucket is configured a
// copy is archived there; a failed upload is logged and does not fail the
// export.
func (s *AdminService) Export(ctx context.Context) (*Export, error) {
	users, err := s.repomanager.Users().List(ctx)
	if err != nil {
		return nil, common.ErrorInternal
	}

	now := s.now().UTC()
	exp := &Export{
		Filename: fmt.Sprintf("visits-%s.csv", now.Format("20060102-150405")),
		Data:     renderVisitsCSV(users),
	}

	if s.objects != nil && s.exportBucket != "" {
		key := exportStorageKey(now)
		if err := objectstore.Put(ctx, s.objects, s.exportBucket, key, "text/csv", exp.Data); err != nil {
			s.logger.Error(ctx, "error archiving export", "bucket", s.exportBucket, "error", err)
		} else {
			exp.ArchiveKey = key
		}
	}

	s.logger.Info(ctx, "visits exported", "users", len(users), "archive_key", exp.ArchiveKey)
	return exp, nil
}

func exportStorageKey(d time.Time) string {
	return fmt.Sprintf("exports/%d/%02d/%02d/%v.csv", d.Year(), d.Month(), d.Day(), uuid.New())
}
