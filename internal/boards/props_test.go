package boards_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-pools/internal/boards"
	"github.com/hugh/go-pools/internal/database/models"
	"github.com/hugh/go-pools/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeOptions(t *testing.T) {
	assert.Equal(t, []string{"Yes", "No"}, boards.NormalizeOptions([]string{" Yes ", "", "   ", "No"}))

	many := make([]string, 60)
	for i := range many {
		many[i] = "option"
	}
	assert.Len(t, boards.NormalizeOptions(many), 50)
}

func TestCreateProp(t *testing.T) {
	svc, db := newService(t)
	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, "")
	player := testutil.CreateTestUser(t, db, "")
	board := testutil.CreateTestBoard(t, db, owner, models.BoardTypeProps)
	testutil.AddTestMember(t, db, board, player, models.BoardRoleMember)

	t.Run("persists question and ordered options", func(t *testing.T) {
		prop, err := svc.CreateProp(ctx, actorFor(owner), board.ID, " Who wins MVP? ", []string{"QB", " WR ", "", "Defense"})
		require.NoError(t, err)
		assert.Equal(t, "Who wins MVP?", prop.Question)
		require.Len(t, prop.Options, 3)
		assert.Equal(t, "WR", prop.Options[1].Label)
		assert.Equal(t, 2, prop.Options[2].Position)
	})

	t.Run("validates input", func(t *testing.T) {
		_, err := svc.CreateProp(ctx, actorFor(owner), board.ID, "", []string{"A", "B"})
		assert.ErrorIs(t, err, boards.ErrInvalidInput)

		_, err = svc.CreateProp(ctx, actorFor(owner), board.ID, "Only one?", []string{"A", "  "})
		assert.ErrorIs(t, err, boards.ErrTooFewOptions)
	})

	t.Run("members cannot create props", func(t *testing.T) {
		_, err := svc.CreateProp(ctx, actorFor(player), board.ID, "Q?", []string{"A", "B"})
		assert.ErrorIs(t, err, boards.ErrNotBoardAdmin)
	})

	t.Run("locked board rejects board admins", func(t *testing.T) {
		locked := testutil.CreateTestBoard(t, db, owner, models.BoardTypeProps)
		require.NoError(t, db.Model(locked).Update("is_editable", false).Error)

		_, err := svc.CreateProp(ctx, actorFor(owner), locked.ID, "Q?", []string{"A", "B"})
		assert.ErrorIs(t, err, boards.ErrBoardLocked)
	})

	t.Run("squares boards have no props", func(t *testing.T) {
		squares := testutil.CreateTestBoard(t, db, owner, models.BoardTypeSquares)
		_, err := svc.CreateProp(ctx, actorFor(owner), squares.ID, "Q?", []string{"A", "B"})
		assert.ErrorIs(t, err, boards.ErrNotProps)
	})
}

func TestSetPick_UpsertReplaces(t *testing.T) {
	svc, db := newService(t)
	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, "")
	player := testutil.CreateTestUser(t, db, "")
	board := testutil.CreateTestBoard(t, db, owner, models.BoardTypeProps)
	testutil.AddTestMember(t, db, board, player, models.BoardRoleMember)

	prop, err := svc.CreateProp(ctx, actorFor(owner), board.ID, "Overtime?", []string{"Yes", "No"})
	require.NoError(t, err)
	yes, no := prop.Options[0], prop.Options[1]

	first, err := svc.SetPick(ctx, actorFor(player), board.ID, prop.ID, yes.ID)
	require.NoError(t, err)
	assert.Equal(t, yes.ID, first.OptionID)

	second, err := svc.SetPick(ctx, actorFor(player), board.ID, prop.ID, no.ID)
	require.NoError(t, err)
	assert.Equal(t, no.ID, second.OptionID)
	assert.Equal(t, first.ID, second.ID)

	assert.Equal(t, int64(1), countRows(t, db, &models.PropPick{}, "prop_id = ? AND user_id = ?", prop.ID, player.ID))

	require.NoError(t, svc.ClearPick(ctx, actorFor(player), board.ID, prop.ID))
	assert.Zero(t, countRows(t, db, &models.PropPick{}, "prop_id = ?", prop.ID))
}

func TestSetPick_RejectsForeignOptions(t *testing.T) {
	svc, db := newService(t)
	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, "")
	board := testutil.CreateTestBoard(t, db, owner, models.BoardTypeProps)
	other := testutil.CreateTestBoard(t, db, owner, models.BoardTypeProps)

	prop, err := svc.CreateProp(ctx, actorFor(owner), board.ID, "Q1?", []string{"A", "B"})
	require.NoError(t, err)
	sibling, err := svc.CreateProp(ctx, actorFor(owner), board.ID, "Q2?", []string{"C", "D"})
	require.NoError(t, err)
	foreign, err := svc.CreateProp(ctx, actorFor(owner), other.ID, "Q3?", []string{"E", "F"})
	require.NoError(t, err)

	// Option from another prop on the same board
	_, err = svc.SetPick(ctx, actorFor(owner), board.ID, prop.ID, sibling.Options[0].ID)
	assert.ErrorIs(t, err, boards.ErrInvalidOption)

	// Prop and option from another board
	_, err = svc.SetPick(ctx, actorFor(owner), board.ID, foreign.ID, foreign.Options[0].ID)
	assert.ErrorIs(t, err, boards.ErrInvalidOption)

	_, err = svc.SetPick(ctx, actorFor(owner), board.ID, prop.ID, uuid.New())
	assert.ErrorIs(t, err, boards.ErrInvalidInput)
}

func TestSetPick_EditLock(t *testing.T) {
	svc, db := newService(t)
	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, "")
	admin := testutil.CreateTestAdmin(t, db)
	board := testutil.CreateTestBoard(t, db, owner, models.BoardTypeProps)

	prop, err := svc.CreateProp(ctx, actorFor(owner), board.ID, "Q?", []string{"A", "B"})
	require.NoError(t, err)

	kickoff := time.Date(2026, 2, 8, 23, 30, 0, 0, time.UTC)
	require.NoError(t, db.Model(board).Update("editable_until", kickoff).Error)
	svc.SetClock(func() time.Time { return kickoff.Add(time.Second) })

	_, err = svc.SetPick(ctx, actorFor(owner), board.ID, prop.ID, prop.Options[0].ID)
	assert.ErrorIs(t, err, boards.ErrBoardLocked)

	err = svc.ClearPick(ctx, actorFor(owner), board.ID, prop.ID)
	assert.ErrorIs(t, err, boards.ErrBoardLocked)

	_, err = svc.SetPick(ctx, actorFor(admin), board.ID, prop.ID, prop.Options[0].ID)
	assert.NoError(t, err)
}

func TestPropsScenario_OptionsLockedAfterPicks(t *testing.T) {
	svc, db := newService(t)
	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, "")
	player := testutil.CreateTestUser(t, db, "")
	board := testutil.CreateTestBoard(t, db, owner, models.BoardTypeProps)
	testutil.AddTestMember(t, db, board, player, models.BoardRoleMember)

	prop, err := svc.CreateProp(ctx, actorFor(owner), board.ID, "Safety scored?", []string{"Yes", "No"})
	require.NoError(t, err)

	// Before any picks the options can be replaced
	prop, err = svc.UpdateProp(ctx, actorFor(owner), board.ID, prop.ID, boards.PropUpdate{Options: []string{"Yes", "No", "Maybe"}})
	require.NoError(t, err)
	require.Len(t, prop.Options, 3)

	_, err = svc.UpdateProp(ctx, actorFor(owner), board.ID, prop.ID, boards.PropUpdate{Options: []string{"Only"}})
	assert.ErrorIs(t, err, boards.ErrTooFewOptions)

	_, err = svc.SetPick(ctx, actorFor(player), board.ID, prop.ID, prop.Options[0].ID)
	require.NoError(t, err)

	_, err = svc.UpdateProp(ctx, actorFor(owner), board.ID, prop.ID, boards.PropUpdate{Options: []string{"A", "B", "C"}})
	assert.ErrorIs(t, err, boards.ErrPicksExist)
	assert.ErrorIs(t, err, boards.ErrConflict)
	assert.Equal(t, int64(3), countRows(t, db, &models.PropOption{}, "prop_id = ?", prop.ID))

	// The question can still change
	question := "Will there be a safety?"
	updated, err := svc.UpdateProp(ctx, actorFor(owner), board.ID, prop.ID, boards.PropUpdate{Question: &question})
	require.NoError(t, err)
	assert.Equal(t, question, updated.Question)

	require.NoError(t, svc.DeleteProp(ctx, actorFor(owner), board.ID, prop.ID))
	assert.Zero(t, countRows(t, db, &models.Prop{}, "id = ?", prop.ID))
	assert.Zero(t, countRows(t, db, &models.PropOption{}, "prop_id = ?", prop.ID))
	assert.Zero(t, countRows(t, db, &models.PropPick{}, "prop_id = ?", prop.ID))

	err = svc.DeleteProp(ctx, actorFor(owner), board.ID, prop.ID)
	assert.ErrorIs(t, err, boards.ErrPropNotFound)
}

func TestSetPick_RacingOptionReplacement(t *testing.T) {
	svc, db := newService(t)
	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, "")
	player := testutil.CreateTestUser(t, db, "")
	board := testutil.CreateTestBoard(t, db, owner, models.BoardTypeProps)
	testutil.AddTestMember(t, db, board, player, models.BoardRoleMember)

	prop, err := svc.CreateProp(ctx, actorFor(owner), board.ID, "First score?", []string{"TD", "FG"})
	require.NoError(t, err)

	var (
		wg                 sync.WaitGroup
		pickErr, updateErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, pickErr = svc.SetPick(ctx, actorFor(player), board.ID, prop.ID, prop.Options[0].ID)
	}()
	go func() {
		defer wg.Done()
		_, updateErr = svc.UpdateProp(ctx, actorFor(owner), board.ID, prop.ID, boards.PropUpdate{Options: []string{"TD", "FG", "Safety"}})
	}()
	wg.Wait()

	// Exactly one side wins and the pick is never orphaned
	if pickErr == nil {
		assert.ErrorIs(t, updateErr, boards.ErrPicksExist)
		assert.Equal(t, int64(2), countRows(t, db, &models.PropOption{}, "prop_id = ?", prop.ID))
		assert.Equal(t, int64(1), countRows(t, db, &models.PropPick{}, "prop_id = ?", prop.ID))
	} else {
		assert.ErrorIs(t, pickErr, boards.ErrInvalidOption)
		require.NoError(t, updateErr)
		assert.Equal(t, int64(3), countRows(t, db, &models.PropOption{}, "prop_id = ?", prop.ID))
		assert.Zero(t, countRows(t, db, &models.PropPick{}, "prop_id = ?", prop.ID))
	}

	var dangling int64
	require.NoError(t, db.Model(&models.PropPick{}).
		Where("prop_id = ? AND option_id NOT IN (?)", prop.ID,
			db.Model(&models.PropOption{}).Select("id").Where("prop_id = ?", prop.ID)).
		Count(&dangling).Error)
	assert.Zero(t, dangling)
}

func TestSetPick_StaleOptionAfterReplacement(t *testing.T) {
	svc, db := newService(t)
	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, "")
	board := testutil.CreateTestBoard(t, db, owner, models.BoardTypeProps)

	prop, err := svc.CreateProp(ctx, actorFor(owner), board.ID, "Coin toss?", []string{"Heads", "Tails"})
	require.NoError(t, err)
	stale := prop.Options[0].ID

	_, err = svc.UpdateProp(ctx, actorFor(owner), board.ID, prop.ID, boards.PropUpdate{Options: []string{"Heads", "Tails", "Edge"}})
	require.NoError(t, err)

	_, err = svc.SetPick(ctx, actorFor(owner), board.ID, prop.ID, stale)
	assert.ErrorIs(t, err, boards.ErrInvalidOption)
	assert.Zero(t, countRows(t, db, &models.PropPick{}, "prop_id = ?", prop.ID))
}

func TestListProps_PickVisibility(t *testing.T) {
	svc, db := newService(t)
	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, "")
	alice := testutil.CreateTestUser(t, db, "")
	bob := testutil.CreateTestUser(t, db, "")
	board := testutil.CreateTestBoard(t, db, owner, models.BoardTypeProps)
	testutil.AddTestMember(t, db, board, alice, models.BoardRoleMember)
	testutil.AddTestMember(t, db, board, bob, models.BoardRoleMember)

	prop, err := svc.CreateProp(ctx, actorFor(owner), board.ID, "Q?", []string{"A", "B"})
	require.NoError(t, err)
	_, err = svc.SetPick(ctx, actorFor(alice), board.ID, prop.ID, prop.Options[0].ID)
	require.NoError(t, err)
	_, err = svc.SetPick(ctx, actorFor(bob), board.ID, prop.ID, prop.Options[1].ID)
	require.NoError(t, err)

	views, err := svc.ListProps(ctx, actorFor(alice), board.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.NotNil(t, views[0].MyPick)
	assert.Equal(t, prop.Options[0].ID, *views[0].MyPick)
	assert.Empty(t, views[0].Picks)
	require.Len(t, views[0].Options, 2)
	assert.Equal(t, "A", views[0].Options[0].Label)

	views, err = svc.ListProps(ctx, actorFor(owner), board.ID)
	require.NoError(t, err)
	assert.Nil(t, views[0].MyPick)
	assert.Len(t, views[0].Picks, 2)
}
