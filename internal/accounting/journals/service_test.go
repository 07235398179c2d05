package journals

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/accounting/periods"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

type mockRepository struct {
	entries    map[int64]JournalEntry
	lines      map[int64][]JournalLine
	periods    map[int64]periods.Period
	sequences  map[string]int64
	references map[string]bool
	sources    map[string]int64
	nextID     int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		entries:    map[int64]JournalEntry{},
		lines:      map[int64][]JournalLine{},
		periods:    map[int64]periods.Period{},
		sequences:  map[string]int64{},
		references: map[string]bool{},
		sources:    map[string]int64{},
	}
}

func (m *mockRepository) addPeriod(p periods.Period) {
	m.periods[p.ID] = p
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) List(ctx context.Context, filter ListFilter) ([]JournalEntry, error) {
	var out []JournalEntry
	for _, entry := range m.entries {
		if filter.Status != nil && entry.Status != *filter.Status {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (JournalEntry, error) {
	return m.GetEntryWithLines(ctx, id)
}

func (m *mockRepository) FindOpenPeriodByDate(ctx context.Context, date time.Time) (periods.Period, error) {
	for _, p := range m.periods {
		if p.Status == periods.PeriodStatusOpen && p.ContainsDate(date) {
			return p, nil
		}
	}
	return periods.Period{}, shared.ErrNoOpenPeriod
}

func (m *mockRepository) GetPeriodForUpdate(ctx context.Context, periodID int64) (periods.Period, error) {
	p, ok := m.periods[periodID]
	if !ok {
		return periods.Period{}, shared.ErrNoOpenPeriod
	}
	return p, nil
}

func (m *mockRepository) GetNextOpenPeriodAfter(ctx context.Context, date time.Time) (periods.Period, error) {
	var best *periods.Period
	for _, p := range m.periods {
		if p.Status != periods.PeriodStatusOpen || p.StartDate.Before(date) {
			continue
		}
		candidate := p
		if best == nil || candidate.StartDate.Before(best.StartDate) {
			best = &candidate
		}
	}
	if best == nil {
		return periods.Period{}, shared.ErrNoOpenPeriod
	}
	return *best, nil
}

func (m *mockRepository) NextSequence(ctx context.Context, prefix, monthKey string) (int64, error) {
	key := prefix + ":" + monthKey
	m.sequences[key]++
	return m.sequences[key], nil
}

func (m *mockRepository) InsertEntry(ctx context.Context, entry *JournalEntry) error {
	if entry.Reference != "" && m.references[entry.Reference] {
		return shared.ErrNumberConflict
	}
	m.nextID++
	entry.ID = m.nextID
	m.entries[entry.ID] = *entry
	if entry.Reference != "" {
		m.references[entry.Reference] = true
	}
	return nil
}

func (m *mockRepository) InsertLines(ctx context.Context, entryID int64, lines []JournalLine) error {
	stored := make([]JournalLine, len(lines))
	copy(stored, lines)
	for i := range stored {
		stored[i].EntryID = entryID
	}
	m.lines[entryID] = stored
	return nil
}

func (m *mockRepository) DeleteLines(ctx context.Context, entryID int64) error {
	delete(m.lines, entryID)
	return nil
}

func (m *mockRepository) UpdateEntryHeader(ctx context.Context, entry *JournalEntry) error {
	if _, ok := m.entries[entry.ID]; !ok {
		return shared.ErrJournalNotFound
	}
	if entry.Reference != "" && m.references[entry.Reference] {
		current := m.entries[entry.ID]
		if current.Reference != entry.Reference {
			return shared.ErrNumberConflict
		}
	}
	m.entries[entry.ID] = *entry
	if entry.Reference != "" {
		m.references[entry.Reference] = true
	}
	return nil
}

func (m *mockRepository) LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error {
	key := module + "|" + ref.String()
	if _, ok := m.sources[key]; ok {
		return shared.ErrSourceConflict
	}
	m.sources[key] = entryID
	return nil
}

func (m *mockRepository) GetEntryWithLines(ctx context.Context, id int64) (JournalEntry, error) {
	entry, ok := m.entries[id]
	if !ok {
		return JournalEntry{}, shared.ErrJournalNotFound
	}
	entry.Lines = append([]JournalLine(nil), m.lines[id]...)
	return entry, nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id int64, status JournalStatus) error {
	entry, ok := m.entries[id]
	if !ok {
		return shared.ErrJournalNotFound
	}
	entry.Status = status
	m.entries[id] = entry
	return nil
}

func openMarch() periods.Period {
	return periods.Period{
		ID:        1,
		Name:      "2026-03",
		StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:    periods.PeriodStatusOpen,
	}
}

func openApril() periods.Period {
	return periods.Period{
		ID:        2,
		Name:      "2026-04",
		StartDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		Status:    periods.PeriodStatusOpen,
	}
}

func balancedCommand(t *testing.T, date time.Time) PostingCommand {
	t.Helper()
	return PostingCommand{
		Date:        date,
		Description: "office rent",
		Currency:    "USD",
		Lines: []LineCommand{
			{AccountID: 10, Side: shared.SideDebit, Amount: usd(t, "1500.00")},
			{AccountID: 20, Side: shared.SideCredit, Amount: usd(t, "1500.00")},
		},
	}
}

func TestCreateAndPostAssignsSequence(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openMarch())
	svc := NewService(repo, repo, nil, nil)

	first, err := svc.CreateAndPost(context.Background(), balancedCommand(t, testDate()))
	require.NoError(t, err)
	assert.Equal(t, "GL-202603-0001", first.Reference)
	assert.Equal(t, JournalStatusPosted, first.Status)
	assert.Equal(t, int64(1), first.PeriodID)

	second, err := svc.CreateAndPost(context.Background(), balancedCommand(t, testDate()))
	require.NoError(t, err)
	assert.Equal(t, "GL-202603-0002", second.Reference)
}

func TestCreateAndPostMonthScopedSequence(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openMarch())
	repo.addPeriod(openApril())
	svc := NewService(repo, repo, nil, nil)

	march, err := svc.CreateAndPost(context.Background(), balancedCommand(t, testDate()))
	require.NoError(t, err)
	assert.Equal(t, "GL-202603-0001", march.Reference)

	april, err := svc.CreateAndPost(context.Background(), balancedCommand(t, time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, "GL-202604-0001", april.Reference)
}

func TestCreateAndPostNoOpenPeriod(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, repo, nil, nil)

	_, err := svc.CreateAndPost(context.Background(), balancedCommand(t, testDate()))
	assert.ErrorIs(t, err, shared.ErrNoOpenPeriod)
	assert.Empty(t, repo.entries)
}

func TestCreateAndPostLockedRace(t *testing.T) {
	repo := newMockRepository()
	march := openMarch()
	repo.addPeriod(march)
	svc := NewService(repo, resolverFunc(func(ctx context.Context, date time.Time) (periods.Period, error) {
		// stale read: the period locked between resolve and the tx
		locked := march
		locked.Status = periods.PeriodStatusLocked
		repo.addPeriod(locked)
		return march, nil
	}), nil, nil)

	_, err := svc.CreateAndPost(context.Background(), balancedCommand(t, testDate()))
	assert.ErrorIs(t, err, shared.ErrPeriodLocked)
}

type resolverFunc func(ctx context.Context, date time.Time) (periods.Period, error)

func (f resolverFunc) FindOpenPeriodByDate(ctx context.Context, date time.Time) (periods.Period, error) {
	return f(ctx, date)
}

func TestCreateAndPostUnbalanced(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openMarch())
	svc := NewService(repo, repo, nil, nil)

	cmd := balancedCommand(t, testDate())
	cmd.Lines[1].Amount = usd(t, "1499.99")
	_, err := svc.CreateAndPost(context.Background(), cmd)

	var unbalanced *UnbalancedError
	require.ErrorAs(t, err, &unbalanced)
	assert.Empty(t, repo.entries)
}

func TestCreateAndPostSourceIdempotent(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openMarch())
	svc := NewService(repo, repo, nil, nil)

	cmd := balancedCommand(t, testDate())
	cmd.SourceModule = "invoicing"
	cmd.SourceID = uuid.MustParse("8b9c2f10-6db4-4a52-9a5f-0c6a1a2b3c4d")

	_, err := svc.CreateAndPost(context.Background(), cmd)
	require.NoError(t, err)

	_, err = svc.CreateAndPost(context.Background(), cmd)
	assert.ErrorIs(t, err, shared.ErrSourceAlreadyLinked)
}

func TestCreateAndPostRetriesNumberConflict(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openMarch())
	// a legacy import already holds the first slot of the month
	repo.references["GL-202603-0001"] = true
	svc := NewService(repo, repo, nil, nil)

	entry, err := svc.CreateAndPost(context.Background(), balancedCommand(t, testDate()))
	require.NoError(t, err)
	assert.Equal(t, "GL-202603-0002", entry.Reference)
}

func TestCreateAndPostFixedReference(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openMarch())
	svc := NewService(repo, repo, nil, nil)

	cmd := balancedCommand(t, testDate())
	cmd.Reference = OpeningReference(2026)
	entry, err := svc.CreateAndPost(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "BAL-INIT-2026", entry.Reference)

	// the fixed reference is once-only
	_, err = svc.CreateAndPost(context.Background(), cmd)
	assert.ErrorIs(t, err, shared.ErrNumberConflict)
}

func TestSaveAndPostDraft(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openMarch())
	svc := NewService(repo, repo, nil, nil)

	draft, err := svc.SaveDraft(context.Background(), 0, balancedCommand(t, testDate()))
	require.NoError(t, err)
	assert.Equal(t, JournalStatusDraft, draft.Status)
	assert.Empty(t, draft.Reference)

	// rewrite the lines before posting
	cmd := balancedCommand(t, testDate())
	cmd.Lines[0].Amount = usd(t, "1600.00")
	cmd.Lines[1].Amount = usd(t, "1600.00")
	updated, err := svc.SaveDraft(context.Background(), draft.ID, cmd)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, updated.ID)

	posted, err := svc.PostDraft(context.Background(), draft.ID, "", 7)
	require.NoError(t, err)
	assert.Equal(t, JournalStatusPosted, posted.Status)
	assert.Equal(t, "JE-202603-0001", posted.Reference)
	assert.Equal(t, int64(7), posted.PostedBy)
}

func TestSaveDraftRejectsPosted(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openMarch())
	svc := NewService(repo, repo, nil, nil)

	entry, err := svc.CreateAndPost(context.Background(), balancedCommand(t, testDate()))
	require.NoError(t, err)

	_, err = svc.SaveDraft(context.Background(), entry.ID, balancedCommand(t, testDate()))
	assert.ErrorIs(t, err, shared.ErrEntryNotDraft)
}

func TestVoidDraftOnly(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openMarch())
	svc := NewService(repo, repo, nil, nil)

	draft, err := svc.SaveDraft(context.Background(), 0, balancedCommand(t, testDate()))
	require.NoError(t, err)
	voided, err := svc.Void(context.Background(), draft.ID, 1, "duplicate")
	require.NoError(t, err)
	assert.Equal(t, JournalStatusVoid, voided.Status)

	posted, err := svc.CreateAndPost(context.Background(), balancedCommand(t, testDate()))
	require.NoError(t, err)
	_, err = svc.Void(context.Background(), posted.ID, 1, "oops")
	assert.ErrorIs(t, err, shared.ErrEntryPosted)
}

func TestReverseMirrorsLines(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openMarch())
	svc := NewService(repo, repo, nil, nil)

	original, err := svc.CreateAndPost(context.Background(), balancedCommand(t, testDate()))
	require.NoError(t, err)

	reversal, err := svc.Reverse(context.Background(), original.ID, 3, "")
	require.NoError(t, err)
	assert.Equal(t, "GL-202603-0002", reversal.Reference)
	assert.Equal(t, "Reversal of GL-202603-0001", reversal.Description)
	assert.Equal(t, original.Date, reversal.Date)
	require.Len(t, reversal.Lines, 2)
	assert.Equal(t, original.Lines[0].Debit.String(), reversal.Lines[0].Credit.String())
	assert.Equal(t, original.Lines[1].Credit.String(), reversal.Lines[1].Debit.String())
}

func TestReverseFallsToNextOpenPeriod(t *testing.T) {
	repo := newMockRepository()
	march := openMarch()
	repo.addPeriod(march)
	repo.addPeriod(openApril())
	svc := NewService(repo, repo, nil, nil)

	original, err := svc.CreateAndPost(context.Background(), balancedCommand(t, testDate()))
	require.NoError(t, err)

	march.Status = periods.PeriodStatusLocked
	repo.addPeriod(march)

	reversal, err := svc.Reverse(context.Background(), original.ID, 3, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), reversal.PeriodID)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), reversal.Date)
	assert.Equal(t, "GL-202604-0001", reversal.Reference)
}

func TestReverseRequiresPosted(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openMarch())
	svc := NewService(repo, repo, nil, nil)

	draft, err := svc.SaveDraft(context.Background(), 0, balancedCommand(t, testDate()))
	require.NoError(t, err)

	_, err = svc.Reverse(context.Background(), draft.ID, 3, "")
	assert.ErrorIs(t, err, shared.ErrEntryNotDraft)
}
