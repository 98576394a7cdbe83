package memory

import (
	"fmt"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
)

// Helper to create a test history repository
func newTestHistoryRepository(size int) *HistoryRepository {
	// Use Fyne's test app which provides an in-memory preferences backend
	app := test.NewApp()
	return NewHistoryRepository(app.Preferences(), size)
}

func TestHistoryRepository_Empty(t *testing.T) {
	repo := newTestHistoryRepository(0)

	recent, err := repo.Recent()
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestHistoryRepository_NewestFirst(t *testing.T) {
	repo := newTestHistoryRepository(0)

	require.NoError(t, repo.Record(domain.RecentAsset{URL: "a.wav", Title: "A"}))
	require.NoError(t, repo.Record(domain.RecentAsset{URL: "b.wav"}))

	recent, err := repo.Recent()
	require.NoError(t, err)
	assert.Equal(t, []domain.RecentAsset{{URL: "b.wav"}, {URL: "a.wav", Title: "A"}}, recent)
}

func TestHistoryRepository_MovesDuplicateToFront(t *testing.T) {
	repo := newTestHistoryRepository(0)

	require.NoError(t, repo.Record(domain.RecentAsset{URL: "a.wav"}))
	require.NoError(t, repo.Record(domain.RecentAsset{URL: "b.wav"}))
	require.NoError(t, repo.Record(domain.RecentAsset{URL: "a.wav", Title: "Retitled"}))

	recent, err := repo.Recent()
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "Retitled", recent[0].Title)
	assert.Equal(t, "b.wav", recent[1].URL)
}

func TestHistoryRepository_TrimsToSize(t *testing.T) {
	repo := newTestHistoryRepository(3)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Record(domain.RecentAsset{URL: fmt.Sprintf("%d.wav", i)}))
	}

	recent, err := repo.Recent()
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "4.wav", recent[0].URL)
	assert.Equal(t, "2.wav", recent[2].URL)
}

func TestHistoryRepository_RejectsEmptyURL(t *testing.T) {
	repo := newTestHistoryRepository(0)
	assert.Error(t, repo.Record(domain.RecentAsset{}))
}

func TestHistoryRepository_CorruptData(t *testing.T) {
	app := test.NewApp()
	app.Preferences().SetString(keyRecent, "{not json")
	repo := NewHistoryRepository(app.Preferences(), 0)

	_, err := repo.Recent()
	assert.Error(t, err)

	// Recording replaces the corrupt list.
	require.NoError(t, repo.Record(domain.RecentAsset{URL: "a.wav"}))
	recent, err := repo.Recent()
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestHistoryRepository_Clear(t *testing.T) {
	repo := newTestHistoryRepository(0)
	require.NoError(t, repo.Record(domain.RecentAsset{URL: "a.wav"}))
	require.NoError(t, repo.Clear())

	recent, err := repo.Recent()
	require.NoError(t, err)
	assert.Empty(t, recent)
}
