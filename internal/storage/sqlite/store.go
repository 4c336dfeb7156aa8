package sqlite

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
)

// Store bundles the storage implementations behind one PipelineStorage
type Store struct {
	*RunStorage
	*CandidateStorage
	*ReviewStorage
	*ReportStorage

	db *SQLiteDB
}

// Compile-time assertion: Store implements the full pipeline surface
var _ interfaces.PipelineStorage = (*Store)(nil)

// NewStore opens the database and wires the storage implementations
func NewStore(logger arbor.ILogger, config *common.SQLiteConfig) (*Store, error) {
	db, err := NewSQLiteDB(logger, config)
	if err != nil {
		return nil, err
	}

	return &Store{
		RunStorage:       NewRunStorage(db, logger),
		CandidateStorage: NewCandidateStorage(db, logger),
		ReviewStorage:    NewReviewStorage(db, logger),
		ReportStorage:    NewReportStorage(db, logger),
		db:               db,
	}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}
