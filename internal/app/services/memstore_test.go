package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/app/repositories"
	"github.com/afterschool/sessions-api/internal/pkg/apperrors"
	"github.com/afterschool/sessions-api/internal/pkg/schedule"
)

var errInjected = errors.New("injected storage failure")

// memStore is an in-memory stand-in for the Postgres repositories. InTx
// snapshots the data and restores it when the unit of work fails.
type memStore struct {
	nextID      int64
	locations   map[int64]models.Location
	blocks      map[int64]models.Block
	exclusions  map[int64]models.ExclusionDate
	sessions    map[int64]models.Session
	links       map[int64][]int64
	occurrences map[int64]models.Occurrence
	staff       map[string]models.Staff
	recipients  map[int64][]models.SignupRecipient
	signups     map[int64]models.Signup

	// failInsertAt makes the nth InsertGeneratedOccurrence call fail
	failInsertAt int
	inserts      int
	// hideExisting makes ExistingStartTimes report nothing, as a concurrent
	// writer would observe
	hideExisting bool
	txCount      int
}

func newMemStore() *memStore {
	return &memStore{
		locations:   map[int64]models.Location{},
		blocks:      map[int64]models.Block{},
		exclusions:  map[int64]models.ExclusionDate{},
		sessions:    map[int64]models.Session{},
		links:       map[int64][]int64{},
		occurrences: map[int64]models.Occurrence{},
		staff:       map[string]models.Staff{},
		recipients:  map[int64][]models.SignupRecipient{},
		signups:     map[int64]models.Signup{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

type memSnapshot struct {
	nextID      int64
	locations   map[int64]models.Location
	blocks      map[int64]models.Block
	exclusions  map[int64]models.ExclusionDate
	sessions    map[int64]models.Session
	links       map[int64][]int64
	occurrences map[int64]models.Occurrence
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *memStore) snapshot() memSnapshot {
	links := make(map[int64][]int64, len(m.links))
	for k, v := range m.links {
		links[k] = append([]int64(nil), v...)
	}
	return memSnapshot{
		nextID:      m.nextID,
		locations:   copyMap(m.locations),
		blocks:      copyMap(m.blocks),
		exclusions:  copyMap(m.exclusions),
		sessions:    copyMap(m.sessions),
		links:       links,
		occurrences: copyMap(m.occurrences),
	}
}

func (m *memStore) restore(s memSnapshot) {
	m.nextID = s.nextID
	m.locations = s.locations
	m.blocks = s.blocks
	m.exclusions = s.exclusions
	m.sessions = s.sessions
	m.links = s.links
	m.occurrences = s.occurrences
}

func (m *memStore) InTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error {
	m.txCount++
	snap := m.snapshot()
	if err := fn(ctx, m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// --- seeding helpers ---

func (m *memStore) addLocation(name, address string) *models.Location {
	l := models.Location{ID: m.id(), Name: name, Address: address}
	m.locations[l.ID] = l
	return &l
}

func (m *memStore) addBlock(year int, blockType models.BlockType, start, end time.Time, tz string) *models.Block {
	b := models.Block{ID: m.id(), Year: year, BlockType: blockType, Name: string(blockType), StartDate: start, EndDate: end, Timezone: tz}
	m.blocks[b.ID] = b
	return &b
}

func (m *memStore) addExclusion(year int, date time.Time) {
	e := models.ExclusionDate{ID: m.id(), Year: year, Date: date}
	m.exclusions[e.ID] = e
}

func (m *memStore) addSession(s models.Session, blockIDs ...int64) *models.Session {
	s.ID = m.id()
	m.sessions[s.ID] = s
	m.links[s.ID] = append([]int64(nil), blockIDs...)
	return &s
}

func (m *memStore) addOccurrence(o models.Occurrence) *models.Occurrence {
	o.ID = m.id()
	m.occurrences[o.ID] = o
	return &o
}

func (m *memStore) addSignup(s models.Signup) *models.Signup {
	s.ID = m.id()
	m.signups[s.ID] = s
	return &s
}

func (m *memStore) sessionOccurrences(sessionID int64) []models.Occurrence {
	var out []models.Occurrence
	for _, o := range m.occurrences {
		if o.SessionID == sessionID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out
}

// --- locations ---

func (m *memStore) CreateLocation(ctx context.Context, l *models.Location) error {
	l.ID = m.id()
	m.locations[l.ID] = *l
	return nil
}

func (m *memStore) GetLocation(ctx context.Context, id int64) (*models.Location, error) {
	l, ok := m.locations[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &l, nil
}

func (m *memStore) ListLocations(ctx context.Context) ([]*models.Location, error) {
	out := []*models.Location{}
	for _, l := range m.locations {
		l := l
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) UpdateLocation(ctx context.Context, l *models.Location) error {
	if _, ok := m.locations[l.ID]; !ok {
		return repositories.ErrNotFound
	}
	m.locations[l.ID] = *l
	return nil
}

// --- blocks ---

func (m *memStore) CreateBlock(ctx context.Context, b *models.Block) error {
	for _, existing := range m.blocks {
		if existing.Year == b.Year && existing.BlockType == b.BlockType {
			return apperrors.ErrBlockAlreadyExists
		}
	}
	b.ID = m.id()
	m.blocks[b.ID] = *b
	return nil
}

func (m *memStore) GetBlock(ctx context.Context, id int64) (*models.Block, error) {
	b, ok := m.blocks[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &b, nil
}

func (m *memStore) ListBlocks(ctx context.Context, year *int) ([]*models.Block, error) {
	out := []*models.Block{}
	for _, b := range m.blocks {
		if year != nil && b.Year != *year {
			continue
		}
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (m *memStore) UpdateBlock(ctx context.Context, b *models.Block) error {
	if _, ok := m.blocks[b.ID]; !ok {
		return repositories.ErrNotFound
	}
	m.blocks[b.ID] = *b
	return nil
}

func (m *memStore) GetBlocksByIDs(ctx context.Context, ids []int64) ([]*models.Block, error) {
	out := []*models.Block{}
	for _, id := range ids {
		if b, ok := m.blocks[id]; ok {
			out = append(out, &b)
		}
	}
	return out, nil
}

func (m *memStore) ListSessionBlocks(ctx context.Context, sessionID int64) ([]*models.Block, error) {
	return m.GetBlocksByIDs(ctx, m.links[sessionID])
}

// --- exclusions ---

func (m *memStore) CreateExclusion(ctx context.Context, e *models.ExclusionDate) error {
	for _, existing := range m.exclusions {
		if existing.Year == e.Year && existing.Date.Equal(e.Date) {
			return apperrors.ErrExclusionAlreadyExists
		}
	}
	e.ID = m.id()
	m.exclusions[e.ID] = *e
	return nil
}

func (m *memStore) ExclusionsForYears(ctx context.Context, years []int) ([]*models.ExclusionDate, error) {
	wanted := map[int]bool{}
	for _, y := range years {
		wanted[y] = true
	}
	out := []*models.ExclusionDate{}
	for _, e := range m.exclusions {
		if wanted[e.Year] {
			e := e
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *memStore) UpdateExclusionReason(ctx context.Context, id int64, reason *string) (*models.ExclusionDate, error) {
	e, ok := m.exclusions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	e.Reason = reason
	m.exclusions[id] = e
	return &e, nil
}

func (m *memStore) DeleteExclusion(ctx context.Context, id int64) error {
	if _, ok := m.exclusions[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.exclusions, id)
	return nil
}

// --- sessions ---

func (m *memStore) CreateSession(ctx context.Context, s *models.Session) error {
	s.ID = m.id()
	m.sessions[s.ID] = *s
	return nil
}

func (m *memStore) GetSession(ctx context.Context, id int64) (*models.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &s, nil
}

func (m *memStore) filterSessions(f repositories.SessionFilter) []*models.Session {
	out := []*models.Session{}
	for _, s := range m.sessions {
		if f.Year != nil && s.Year != *f.Year {
			continue
		}
		if f.LocationID != nil && s.LocationID != *f.LocationID {
			continue
		}
		if !f.IncludeArchived && s.Archived {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(f.Search)) {
			continue
		}
		s := s
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) ListSessions(ctx context.Context, f repositories.SessionFilter) ([]*models.Session, error) {
	all := m.filterSessions(f)
	if f.Limit <= 0 {
		return all, nil
	}
	if f.Offset >= len(all) {
		return []*models.Session{}, nil
	}
	end := f.Offset + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[f.Offset:end], nil
}

func (m *memStore) CountSessions(ctx context.Context, f repositories.SessionFilter) (int64, error) {
	return int64(len(m.filterSessions(f))), nil
}

func (m *memStore) UpdateSession(ctx context.Context, s *models.Session) error {
	if _, ok := m.sessions[s.ID]; !ok {
		return repositories.ErrNotFound
	}
	m.sessions[s.ID] = *s
	return nil
}

func (m *memStore) DeleteSession(ctx context.Context, id int64) error {
	if _, ok := m.sessions[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.sessions, id)
	delete(m.links, id)
	for oid, o := range m.occurrences {
		if o.SessionID == id {
			delete(m.occurrences, oid)
		}
	}
	return nil
}

func (m *memStore) ReplaceSessionBlocks(ctx context.Context, sessionID int64, blockIDs []int64) error {
	m.links[sessionID] = append([]int64{}, blockIDs...)
	return nil
}

func (m *memStore) SessionBlockIDs(ctx context.Context, sessionID int64) ([]int64, error) {
	ids := append([]int64{}, m.links[sessionID]...)
	return ids, nil
}

func (m *memStore) SessionBlockIDsFor(ctx context.Context, sessionIDs []int64) (map[int64][]int64, error) {
	out := map[int64][]int64{}
	for _, id := range sessionIDs {
		if ids := m.links[id]; len(ids) > 0 {
			out[id] = append([]int64{}, ids...)
		}
	}
	return out, nil
}

// --- occurrences ---

func (m *memStore) ExistingStartTimes(ctx context.Context, sessionID int64) (map[int64]struct{}, error) {
	starts := map[int64]struct{}{}
	if m.hideExisting {
		return starts, nil
	}
	for _, o := range m.occurrences {
		if o.SessionID == sessionID {
			starts[schedule.InstantKey(o.StartsAt)] = struct{}{}
		}
	}
	return starts, nil
}

func (m *memStore) startTaken(sessionID int64, startsAt time.Time) bool {
	for _, o := range m.occurrences {
		if o.SessionID == sessionID && o.StartsAt.Equal(startsAt) {
			return true
		}
	}
	return false
}

func (m *memStore) InsertGeneratedOccurrence(ctx context.Context, o *models.Occurrence) (bool, error) {
	m.inserts++
	if m.failInsertAt > 0 && m.inserts == m.failInsertAt {
		return false, errInjected
	}
	if m.startTaken(o.SessionID, o.StartsAt) {
		return false, nil
	}
	o.ID = m.id()
	o.AutoGenerated = true
	m.occurrences[o.ID] = *o
	return true, nil
}

func (m *memStore) CreateOccurrence(ctx context.Context, o *models.Occurrence) error {
	if m.startTaken(o.SessionID, o.StartsAt) {
		return apperrors.ErrOccurrenceAlreadyExists
	}
	o.ID = m.id()
	m.occurrences[o.ID] = *o
	return nil
}

func (m *memStore) DeleteAutoGeneratedOccurrences(ctx context.Context, sessionID int64) (int64, error) {
	var deleted int64
	for id, o := range m.occurrences {
		if o.SessionID == sessionID && o.AutoGenerated {
			delete(m.occurrences, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memStore) ListOccurrences(ctx context.Context, sessionID int64) ([]*models.Occurrence, error) {
	out := []*models.Occurrence{}
	for _, o := range m.sessionOccurrences(sessionID) {
		o := o
		if o.BlockID != nil {
			if b, ok := m.blocks[*o.BlockID]; ok {
				name := b.Name
				o.BlockName = &name
			}
		}
		out = append(out, &o)
	}
	return out, nil
}

func (m *memStore) GetOccurrence(ctx context.Context, id int64) (*models.Occurrence, error) {
	o, ok := m.occurrences[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &o, nil
}

func (m *memStore) SetOccurrenceCancelled(ctx context.Context, id int64, cancelled bool, reason *string) (*models.Occurrence, error) {
	o, ok := m.occurrences[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if !cancelled {
		reason = nil
	}
	o.Cancelled = cancelled
	o.CancellationReason = reason
	m.occurrences[id] = o
	return &o, nil
}

// --- staff and signups ---

func (m *memStore) GetStaffByEmail(ctx context.Context, email string) (*models.Staff, error) {
	s, ok := m.staff[strings.ToLower(email)]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &s, nil
}

func (m *memStore) ConfirmedRecipients(ctx context.Context, sessionID int64) ([]models.SignupRecipient, error) {
	return append([]models.SignupRecipient{}, m.recipients[sessionID]...), nil
}

func (m *memStore) ListSignups(ctx context.Context, f repositories.SignupFilter) ([]*models.Signup, error) {
	out := []*models.Signup{}
	for _, s := range m.signups {
		if s.SessionID != f.SessionID || (f.Status != nil && s.Status != *f.Status) {
			continue
		}
		s := s
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetSignup(ctx context.Context, id int64) (*models.Signup, error) {
	s, ok := m.signups[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &s, nil
}

func (m *memStore) UpdateSignupStatus(ctx context.Context, id int64, status models.SignupStatus) (*time.Time, error) {
	s, ok := m.signups[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	s.Status = status
	s.WithdrawnAt = nil
	if status == models.SignupStatusWithdrawn {
		now := time.Now()
		s.WithdrawnAt = &now
	}
	m.signups[id] = s
	return s.WithdrawnAt, nil
}
