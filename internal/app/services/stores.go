package services

import (
	"context"
	"time"

	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/app/repositories"
)

// LocationStore is the venue persistence used by LocationService
type LocationStore interface {
	CreateLocation(ctx context.Context, l *models.Location) error
	GetLocation(ctx context.Context, id int64) (*models.Location, error)
	ListLocations(ctx context.Context) ([]*models.Location, error)
	UpdateLocation(ctx context.Context, l *models.Location) error
}

// BlockStore is the block persistence used by BlockService
type BlockStore interface {
	CreateBlock(ctx context.Context, b *models.Block) error
	GetBlock(ctx context.Context, id int64) (*models.Block, error)
	ListBlocks(ctx context.Context, year *int) ([]*models.Block, error)
	UpdateBlock(ctx context.Context, b *models.Block) error
}

// ExclusionStore is the exclusion date persistence used by ExclusionService
type ExclusionStore interface {
	CreateExclusion(ctx context.Context, e *models.ExclusionDate) error
	ExclusionsForYears(ctx context.Context, years []int) ([]*models.ExclusionDate, error)
	UpdateExclusionReason(ctx context.Context, id int64, reason *string) (*models.ExclusionDate, error)
	DeleteExclusion(ctx context.Context, id int64) error
}

// SessionStore is the session persistence used by SessionService
type SessionStore interface {
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id int64) (*models.Session, error)
	ListSessions(ctx context.Context, f repositories.SessionFilter) ([]*models.Session, error)
	CountSessions(ctx context.Context, f repositories.SessionFilter) (int64, error)
	UpdateSession(ctx context.Context, s *models.Session) error
	DeleteSession(ctx context.Context, id int64) error
	ReplaceSessionBlocks(ctx context.Context, sessionID int64, blockIDs []int64) error
	SessionBlockIDs(ctx context.Context, sessionID int64) ([]int64, error)
	SessionBlockIDsFor(ctx context.Context, sessionIDs []int64) (map[int64][]int64, error)
	GetBlocksByIDs(ctx context.Context, ids []int64) ([]*models.Block, error)
	GetLocation(ctx context.Context, id int64) (*models.Location, error)
}

// GenerationStore is what occurrence generation reads and writes
type GenerationStore interface {
	GetSession(ctx context.Context, id int64) (*models.Session, error)
	ListSessionBlocks(ctx context.Context, sessionID int64) ([]*models.Block, error)
	ExclusionsForYears(ctx context.Context, years []int) ([]*models.ExclusionDate, error)
	ExistingStartTimes(ctx context.Context, sessionID int64) (map[int64]struct{}, error)
	InsertGeneratedOccurrence(ctx context.Context, o *models.Occurrence) (bool, error)
	DeleteAutoGeneratedOccurrences(ctx context.Context, sessionID int64) (int64, error)
}

// OccurrenceStore is the occurrence persistence used outside generation
type OccurrenceStore interface {
	GetSession(ctx context.Context, id int64) (*models.Session, error)
	GetLocation(ctx context.Context, id int64) (*models.Location, error)
	GetBlock(ctx context.Context, id int64) (*models.Block, error)
	ListSessionBlocks(ctx context.Context, sessionID int64) ([]*models.Block, error)
	ListOccurrences(ctx context.Context, sessionID int64) ([]*models.Occurrence, error)
	GetOccurrence(ctx context.Context, id int64) (*models.Occurrence, error)
	CreateOccurrence(ctx context.Context, o *models.Occurrence) error
	SetOccurrenceCancelled(ctx context.Context, id int64, cancelled bool, reason *string) (*models.Occurrence, error)
}

// StaffStore is the staff persistence used by AuthService
type StaffStore interface {
	GetStaffByEmail(ctx context.Context, email string) (*models.Staff, error)
}

// NotificationStore is what change alerts read: who to tell, where the
// session runs and when it next runs
type NotificationStore interface {
	ConfirmedRecipients(ctx context.Context, sessionID int64) ([]models.SignupRecipient, error)
	GetLocation(ctx context.Context, id int64) (*models.Location, error)
	ListOccurrences(ctx context.Context, sessionID int64) ([]*models.Occurrence, error)
}

// SignupStore is the signup persistence used by SignupService
type SignupStore interface {
	GetSession(ctx context.Context, id int64) (*models.Session, error)
	ListSignups(ctx context.Context, f repositories.SignupFilter) ([]*models.Signup, error)
	GetSignup(ctx context.Context, id int64) (*models.Signup, error)
	UpdateSignupStatus(ctx context.Context, id int64, status models.SignupStatus) (*time.Time, error)
}

// CatalogStore is what the public session catalogue reads
type CatalogStore interface {
	GetSession(ctx context.Context, id int64) (*models.Session, error)
	ListSessions(ctx context.Context, f repositories.SessionFilter) ([]*models.Session, error)
	ListLocations(ctx context.Context) ([]*models.Location, error)
	GetLocation(ctx context.Context, id int64) (*models.Location, error)
	SessionBlockIDsFor(ctx context.Context, sessionIDs []int64) (map[int64][]int64, error)
	GetBlocksByIDs(ctx context.Context, ids []int64) ([]*models.Block, error)
	ListOccurrences(ctx context.Context, sessionID int64) ([]*models.Occurrence, error)
}

// TxStore is the store handed to a unit of work running in a transaction
type TxStore interface {
	GenerationStore
	SessionStore
}

// Transactor runs fn in a single database transaction
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error
}

type txManagerTransactor struct {
	manager *repositories.TxManager
}

// NewTransactor adapts a repositories.TxManager to Transactor
func NewTransactor(manager *repositories.TxManager) Transactor {
	return &txManagerTransactor{manager: manager}
}

func (t *txManagerTransactor) InTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error {
	return t.manager.InTx(ctx, func(ctx context.Context, store *repositories.Store) error {
		return fn(ctx, store)
	})
}
