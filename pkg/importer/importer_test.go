package importer

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/asterhq/aster/pkg/database"
	"github.com/asterhq/aster/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// fakeTx tracks the per-record transaction lifecycle.
type fakeTx struct {
	database.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) IsOpen() bool { return !t.committed && !t.rolledBack }

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.IsOpen() {
		t.committed = true
	}
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.IsOpen() {
		t.rolledBack = true
	}
	return nil
}

// fakeDB hands out one fakeTx per GetTx call. Everything else panics, which
// is fine: the orchestrator only starts transactions, repositories are
// faked separately.
type fakeDB struct {
	database.DB
	txs []*fakeTx
}

func (db *fakeDB) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error) {
	tx := &fakeTx{}
	db.txs = append(db.txs, tx)
	return ctx, tx, nil
}

type fakeCities struct {
	nextID int
	byName map[string]*models.City
}

func newFakeCities() *fakeCities {
	return &fakeCities{byName: map[string]*models.City{}}
}

func (f *fakeCities) GetByID(ctx context.Context, id int) (*models.City, error) {
	for _, c := range f.byName {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeCities) GetByName(ctx context.Context, name string) (*models.City, error) {
	return f.byName[name], nil
}

func (f *fakeCities) FindOrCreate(ctx context.Context, name string) (*models.City, error) {
	if c, ok := f.byName[name]; ok {
		return c, nil
	}
	f.nextID++
	c := &models.City{ID: f.nextID, NameRU: name, NameEU: name}
	f.byName[name] = c
	return c, nil
}

func (f *fakeCities) ListUsage(ctx context.Context) ([]models.CityUsage, error) { return nil, nil }
func (f *fakeCities) Delete(ctx context.Context, id int) error                  { return nil }

type fakeTags struct {
	nextID   int
	byName   map[string]*models.Tag
	attached map[int][]int // account ID -> tag IDs
}

func newFakeTags() *fakeTags {
	return &fakeTags{byName: map[string]*models.Tag{}, attached: map[int][]int{}}
}

func (f *fakeTags) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	return f.byName[name], nil
}

func (f *fakeTags) FindOrCreate(ctx context.Context, name string) (*models.Tag, error) {
	if tg, ok := f.byName[name]; ok {
		return tg, nil
	}
	f.nextID++
	tg := &models.Tag{ID: f.nextID, NameRU: name, NameEU: name}
	f.byName[name] = tg
	return tg, nil
}

func (f *fakeTags) GetForAccount(ctx context.Context, accountID int) ([]models.Tag, error) {
	return nil, nil
}

// AttachToAccount mirrors the repository's ON CONFLICT DO NOTHING insert.
func (f *fakeTags) AttachToAccount(ctx context.Context, accountID, tagID int) error {
	for _, id := range f.attached[accountID] {
		if id == tagID {
			return nil
		}
	}
	f.attached[accountID] = append(f.attached[accountID], tagID)
	return nil
}

func (f *fakeTags) ReplaceForAccount(ctx context.Context, accountID int, tagIDs []int) error {
	f.attached[accountID] = tagIDs
	return nil
}

func (f *fakeTags) ListUsage(ctx context.Context) ([]models.TagUsage, error) { return nil, nil }
func (f *fakeTags) Delete(ctx context.Context, id int) error                 { return nil }

type fakeSocials struct {
	types    map[string]*models.SocialType
	nextID   int
	handles  map[string]*models.Social // "typeID|text"
	attached map[int][]int             // account ID -> social IDs
}

func newFakeSocials(identificators ...string) *fakeSocials {
	f := &fakeSocials{
		types:    map[string]*models.SocialType{},
		handles:  map[string]*models.Social{},
		attached: map[int][]int{},
	}
	for i, ident := range identificators {
		f.types[ident] = &models.SocialType{ID: i + 1, Name: ident, Identificator: ident}
	}
	return f
}

func (f *fakeSocials) ListTypes(ctx context.Context) ([]models.SocialType, error) { return nil, nil }

func (f *fakeSocials) GetTypeByIdentificator(ctx context.Context, identificator string) (*models.SocialType, error) {
	return f.types[identificator], nil
}

func (f *fakeSocials) FindOrCreate(ctx context.Context, typeID int, text string) (*models.Social, error) {
	key := fmt.Sprintf("%d|%s", typeID, text)
	if s, ok := f.handles[key]; ok {
		return s, nil
	}
	f.nextID++
	s := &models.Social{ID: f.nextID, TypeSocialID: typeID, Text: text}
	f.handles[key] = s
	return s, nil
}

func (f *fakeSocials) GetForAccount(ctx context.Context, accountID int) ([]models.Social, error) {
	return nil, nil
}

// AttachToAccount mirrors the repository's ON CONFLICT DO NOTHING insert.
func (f *fakeSocials) AttachToAccount(ctx context.Context, accountID, socialID int) error {
	for _, id := range f.attached[accountID] {
		if id == socialID {
			return nil
		}
	}
	f.attached[accountID] = append(f.attached[accountID], socialID)
	return nil
}

type fakeAccounts struct {
	nextID int
	byKey  map[string]*models.Account
	failOn string
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byKey: map[string]*models.Account{}}
}

func (f *fakeAccounts) GetByID(ctx context.Context, id int) (*models.Account, error) {
	for _, a := range f.byKey {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeAccounts) GetByIdentificator(ctx context.Context, identificator string) (*models.Account, error) {
	return f.byKey[identificator], nil
}

func (f *fakeAccounts) Upsert(ctx context.Context, account *models.Account) (*models.Account, error) {
	if account.Identificator == f.failOn {
		return nil, fmt.Errorf("forced upsert failure")
	}
	if existing, ok := f.byKey[account.Identificator]; ok {
		account.ID = existing.ID
	} else {
		f.nextID++
		account.ID = f.nextID
	}
	f.byKey[account.Identificator] = account
	return account, nil
}

func (f *fakeAccounts) List(ctx context.Context, filter models.AccountFilter) ([]models.AccountSummary, int, error) {
	return nil, 0, nil
}

func (f *fakeAccounts) Update(ctx context.Context, id int, name string, cityID *int) error {
	return nil
}

func (f *fakeAccounts) UpdateDate(ctx context.Context, id int, date *time.Time) error { return nil }
func (f *fakeAccounts) UpdatePhoto(ctx context.Context, id int, photo []byte) error   { return nil }
func (f *fakeAccounts) Delete(ctx context.Context, id int) error                      { return nil }

type fakeMedia struct {
	created []string
	err     error
}

func (f *fakeMedia) CreateDirectory(ctx context.Context, name string) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, name)
	return nil
}

type fakeEmitter struct {
	imported []string
}

func (f *fakeEmitter) AccountImported(ctx context.Context, account *models.Account) {
	f.imported = append(f.imported, account.Identificator)
}

type fixture struct {
	db       *fakeDB
	cities   *fakeCities
	tags     *fakeTags
	socials  *fakeSocials
	accounts *fakeAccounts
	media    *fakeMedia
	emitter  *fakeEmitter
	importer *Importer
}

func newFixture(socialTypes ...string) *fixture {
	logger := testLogger()

	f := &fixture{
		db:       &fakeDB{},
		cities:   newFakeCities(),
		tags:     newFakeTags(),
		socials:  newFakeSocials(socialTypes...),
		accounts: newFakeAccounts(),
		media:    &fakeMedia{},
		emitter:  &fakeEmitter{},
	}

	reconciler := NewReconciler(f.cities, f.tags, f.socials, logger)
	f.importer = NewImporter(f.db, f.accounts, f.tags, f.socials, reconciler, f.media, f.emitter, MissingDateNow, logger)
	return f
}

func TestImporter_Run_ImportsRecords(t *testing.T) {
	f := newFixture("skype", "tg")

	dump := `<title>Анна</title><id>anna-77</id><city>Москва</city><tags>блондинка, массаж</tags><skype>live:anna</skype><tg>@anna</tg><nvideo>1</nvideo>
<title>Мария</title><id>maria-12</id><city>Москва</city><tags>массаж</tags>`

	result, err := f.importer.Run(context.Background(), []byte(dump))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Failures)

	// Both records share one city row.
	assert.Len(t, f.cities.byName, 1)
	require.Contains(t, f.cities.byName, "Москва")

	anna := f.accounts.byKey["anna-77"]
	require.NotNil(t, anna)
	assert.Equal(t, "Анна", anna.Name)
	assert.Equal(t, 1, anna.CheckVideo)
	require.NotNil(t, anna.CityID)
	assert.Equal(t, f.cities.byName["Москва"].ID, *anna.CityID)

	assert.Len(t, f.tags.attached[anna.ID], 2)
	assert.Len(t, f.socials.attached[anna.ID], 2)

	maria := f.accounts.byKey["maria-12"]
	require.NotNil(t, maria)
	assert.Len(t, f.tags.attached[maria.ID], 1)
	assert.Empty(t, f.socials.attached[maria.ID])

	assert.Equal(t, []string{"anna-77", "maria-12"}, f.media.created)
	assert.Equal(t, []string{"anna-77", "maria-12"}, f.emitter.imported)

	require.Len(t, f.db.txs, 2)
	for _, tx := range f.db.txs {
		assert.True(t, tx.committed)
		assert.False(t, tx.rolledBack)
	}
}

func TestImporter_Run_SkipsRecordsWithoutID(t *testing.T) {
	f := newFixture()

	dump := `<title>Без айди</title><city>Киев</city>
<title>Мария</title><id>maria-12</id>`

	result, err := f.importer.Run(context.Background(), []byte(dump))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, result.Failures)

	// The skipped record never opened a transaction or touched storage.
	assert.Len(t, f.db.txs, 1)
	assert.NotContains(t, f.cities.byName, "Киев")
}

func TestImporter_Run_RecordFailureDoesNotAbortBatch(t *testing.T) {
	f := newFixture()
	f.accounts.failOn = "maria-12"

	dump := `<title>Анна</title><id>anna-77</id>
<title>Мария</title><id>maria-12</id>
<title>Ольга</title><id>olga-3</id>`

	result, err := f.importer.Run(context.Background(), []byte(dump))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 1, result.Failures[0].Index)
	assert.Equal(t, "maria-12", result.Failures[0].Identificator)

	// The failed record's transaction rolled back; its neighbours committed.
	require.Len(t, f.db.txs, 3)
	assert.True(t, f.db.txs[0].committed)
	assert.True(t, f.db.txs[1].rolledBack)
	assert.False(t, f.db.txs[1].committed)
	assert.True(t, f.db.txs[2].committed)

	assert.Equal(t, []string{"anna-77", "olga-3"}, f.media.created)
	assert.Equal(t, []string{"anna-77", "olga-3"}, f.emitter.imported)
}

func TestImporter_Run_UnseededSocialTypeIsSkipped(t *testing.T) {
	f := newFixture("tg") // icq deliberately not seeded

	dump := `<title>Анна</title><id>anna-77</id><icq>12345</icq><tg>@anna</tg>`

	result, err := f.importer.Run(context.Background(), []byte(dump))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Empty(t, result.Failures)

	anna := f.accounts.byKey["anna-77"]
	require.NotNil(t, anna)
	assert.Len(t, f.socials.attached[anna.ID], 1)
}

func TestImporter_Run_RepeatedSocialTagImportsEveryHandle(t *testing.T) {
	f := newFixture("tel")

	dump := `<title>Анна</title><id>anna-77</id><tel>+70000000001</tel><tel>+70000000002</tel>`

	result, err := f.importer.Run(context.Background(), []byte(dump))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Empty(t, result.Failures)

	anna := f.accounts.byKey["anna-77"]
	require.NotNil(t, anna)
	assert.Len(t, f.socials.handles, 2)
	assert.Len(t, f.socials.attached[anna.ID], 2)
}

func TestImporter_Run_DuplicateSocialValueCollapses(t *testing.T) {
	f := newFixture("tg")

	dump := `<title>Анна</title><id>anna-77</id><tg>@anna</tg><tg>@anna</tg>`

	result, err := f.importer.Run(context.Background(), []byte(dump))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	anna := f.accounts.byKey["anna-77"]
	require.NotNil(t, anna)
	assert.Len(t, f.socials.handles, 1)
	assert.Len(t, f.socials.attached[anna.ID], 1)
}

func TestImporter_Run_RerunIsIdempotent(t *testing.T) {
	f := newFixture("skype")

	dump := `<title>Анна</title><id>anna-77</id><city>Москва</city><tags>блондинка, массаж</tags><skype>live:anna</skype>`

	first, err := f.importer.Run(context.Background(), []byte(dump))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Imported)

	second, err := f.importer.Run(context.Background(), []byte(dump))
	require.NoError(t, err)
	assert.Equal(t, 1, second.Imported)
	assert.Empty(t, second.Failures)

	// The second pass reuses every row from the first: one account, one
	// city, two tags, one handle, and unchanged join state.
	assert.Len(t, f.accounts.byKey, 1)
	assert.Len(t, f.cities.byName, 1)
	assert.Len(t, f.tags.byName, 2)
	assert.Len(t, f.socials.handles, 1)

	anna := f.accounts.byKey["anna-77"]
	require.NotNil(t, anna)
	assert.Len(t, f.tags.attached[anna.ID], 2)
	assert.Len(t, f.socials.attached[anna.ID], 1)
}

func TestImporter_Run_MediaFailureIsBestEffort(t *testing.T) {
	f := newFixture()
	f.media.err = fmt.Errorf("sftp down")

	dump := `<title>Анна</title><id>anna-77</id>`

	result, err := f.importer.Run(context.Background(), []byte(dump))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Empty(t, result.Failures)

	// The account still landed and the event still went out.
	assert.Equal(t, []string{"anna-77"}, f.emitter.imported)
}

func TestImporter_Run_EmptyDump(t *testing.T) {
	f := newFixture()

	_, err := f.importer.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestImporter_Run_DumpWithoutRecords(t *testing.T) {
	f := newFixture()

	_, err := f.importer.Run(context.Background(), []byte("no anchors here"))
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestImporter_Run_Windows1251Dump(t *testing.T) {
	f := newFixture()

	// "<title>Аня</title><id>x</id>" with the title value in Windows-1251.
	dump := append([]byte("<title>"), 0xC0, 0xED, 0xFF)
	dump = append(dump, []byte("</title><id>x</id>")...)

	result, err := f.importer.Run(context.Background(), dump)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	account := f.accounts.byKey["x"]
	require.NotNil(t, account)
	assert.Equal(t, "Аня", account.Name)
}
