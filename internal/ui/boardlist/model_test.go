package boardlist

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/trakker/internal/keys"
	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/ui"
)

type fakeBoards struct {
	boards     []model.Board
	cached     bool
	listErr    error
	archived   []string
	unarchived []string
	deleted    []string
}

func (f *fakeBoards) List(context.Context) ([]model.Board, error) {
	return f.boards, f.listErr
}

func (f *fakeBoards) CachedList() ([]model.Board, bool) {
	return f.boards, f.cached
}

func (f *fakeBoards) Create(_ context.Context, req model.CreateBoardRequest) (model.Board, error) {
	return model.Board{ID: "new", Name: req.Name}, nil
}

func (f *fakeBoards) Update(_ context.Context, id string, _ model.UpdateBoardRequest) (model.Board, error) {
	return model.Board{ID: id}, nil
}

func (f *fakeBoards) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBoards) Archive(_ context.Context, id string) (model.Board, error) {
	f.archived = append(f.archived, id)
	return model.Board{ID: id}, nil
}

func (f *fakeBoards) Unarchive(_ context.Context, id string) (model.Board, error) {
	f.unarchived = append(f.unarchived, id)
	return model.Board{ID: id}, nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleBoards() []model.Board {
	archivedAt := model.NewTimestamp(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	return []model.Board{
		{ID: "b1", Name: "Work"},
		{ID: "b2", Name: "Home"},
		{ID: "b3", Name: "Old", ArchivedAt: &archivedAt},
		{ID: "temp-x", Name: "Pending"},
	}
}

func loaded(t *testing.T, f *fakeBoards) Model {
	t.Helper()
	m := New(f, keys.DefaultKeyMap(), 80, 24)
	cmd := m.Init()
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	return m
}

func TestInitShowsCachedBoardsWithoutSpinner(t *testing.T) {
	f := &fakeBoards{boards: sampleBoards(), cached: true}
	m := New(f, keys.DefaultKeyMap(), 80, 24)

	m.Init()
	assert.False(t, m.loading)
	assert.Len(t, m.visible, 3)
}

func TestLoadFiltersArchived(t *testing.T) {
	m := loaded(t, &fakeBoards{boards: sampleBoards()})

	assert.False(t, m.loading)
	require.Len(t, m.visible, 3)
	for _, b := range m.visible {
		assert.False(t, b.IsArchived())
	}

	m, _ = m.Update(runes("A"))
	assert.True(t, m.ShowingArchived())
	require.Len(t, m.visible, 1)
	assert.Equal(t, "b3", m.visible[0].ID)
	assert.Contains(t, m.View(), "archived 2024-03-01")
}

func TestLoadErrorIsShown(t *testing.T) {
	m := loaded(t, &fakeBoards{listErr: errors.New("network down")})

	assert.Equal(t, "network down", m.loadErr)
	assert.Contains(t, m.View(), "Failed to load boards")
}

func TestSelectionWraps(t *testing.T) {
	m := loaded(t, &fakeBoards{boards: sampleBoards()})

	m, _ = m.Update(runes("k"))
	assert.Equal(t, 2, m.selectedIdx)
	m, _ = m.Update(runes("j"))
	assert.Equal(t, 0, m.selectedIdx)
}

func TestEnterOpensBoard(t *testing.T) {
	m := loaded(t, &fakeBoards{boards: sampleBoards()})

	m, _ = m.Update(runes("j"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, OpenBoardMsg{BoardID: "b2", Name: "Home"}, cmd())
}

func TestTempBoardCannotBeOpened(t *testing.T) {
	m := loaded(t, &fakeBoards{boards: sampleBoards()})

	m, _ = m.Update(runes("k"))
	require.Equal(t, "temp-x", m.visible[m.selectedIdx].ID)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "(saving)")
}

func TestArchiveToggles(t *testing.T) {
	f := &fakeBoards{boards: sampleBoards()}
	m := loaded(t, f)

	_, cmd := m.Update(runes("a"))
	require.NotNil(t, cmd)
	assert.Equal(t, ui.ToastMsg{Text: "Board archived"}, cmd())
	assert.Equal(t, []string{"b1"}, f.archived)

	m, _ = m.Update(runes("A"))
	_, cmd = m.Update(runes("a"))
	require.NotNil(t, cmd)
	assert.Equal(t, ui.ToastMsg{Text: "Board restored"}, cmd())
	assert.Equal(t, []string{"b3"}, f.unarchived)
}

func TestFormOpensAndEscCancels(t *testing.T) {
	m := loaded(t, &fakeBoards{boards: sampleBoards()})

	m, _ = m.Update(runes("n"))
	assert.True(t, m.Editing())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Editing())
}

func TestEditPrefillsForm(t *testing.T) {
	desc := "day job"
	f := &fakeBoards{boards: []model.Board{{ID: "b1", Name: "Work", Description: &desc}}}
	m := loaded(t, f)

	m, _ = m.Update(runes("e"))
	assert.True(t, m.Editing())
	assert.Equal(t, "b1", m.editingID)
	assert.Equal(t, "Work", m.fb.name)
	assert.Equal(t, "day job", m.fb.description)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "a b", truncate("a\nb", 5))
}
