package boards_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hugh/go-pools/internal/boards"
	"github.com/hugh/go-pools/internal/database/models"
	"github.com/hugh/go-pools/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func squaresBoardWithMembers(t *testing.T, db *gorm.DB, n int) (*models.Board, *models.User, []*models.User) {
	t.Helper()
	owner := testutil.CreateTestUser(t, db, "")
	board := testutil.CreateTestBoard(t, db, owner, models.BoardTypeSquares)

	members := make([]*models.User, n)
	for i := range members {
		members[i] = testutil.CreateTestUser(t, db, "")
		testutil.AddTestMember(t, db, board, members[i], models.BoardRoleMember)
	}
	return board, owner, members
}

func TestClaimSquare(t *testing.T) {
	svc, db := newService(t)
	ctx := testutil.TestContext(t)
	board, owner, members := squaresBoardWithMembers(t, db, 1)
	player := members[0]

	t.Run("claims open square", func(t *testing.T) {
		sq, err := svc.ClaimSquare(ctx, actorFor(player), board.ID, 0, 0)
		require.NoError(t, err)
		require.NotNil(t, sq.UserID)
		assert.Equal(t, player.ID, *sq.UserID)
		require.NotNil(t, sq.User)
		assert.Equal(t, player.Email, sq.User.Email)
	})

	t.Run("never overwrites an existing owner", func(t *testing.T) {
		_, err := svc.ClaimSquare(ctx, actorFor(owner), board.ID, 0, 0)
		assert.ErrorIs(t, err, boards.ErrSquareTaken)
		assert.ErrorIs(t, err, boards.ErrConflict)

		// Claiming your own square again is also a conflict
		_, err = svc.ClaimSquare(ctx, actorFor(player), board.ID, 0, 0)
		assert.ErrorIs(t, err, boards.ErrSquareTaken)
	})

	t.Run("rejects cells outside the grid", func(t *testing.T) {
		for _, cell := range [][2]int{{-1, 0}, {0, 10}, {10, 10}} {
			_, err := svc.ClaimSquare(ctx, actorFor(player), board.ID, cell[0], cell[1])
			assert.ErrorIs(t, err, boards.ErrInvalidInput)
		}
	})

	t.Run("rejects non members", func(t *testing.T) {
		outsider := testutil.CreateTestUser(t, db, "")
		_, err := svc.ClaimSquare(ctx, actorFor(outsider), board.ID, 1, 1)
		assert.ErrorIs(t, err, boards.ErrNotMember)
	})

	t.Run("rejects props boards", func(t *testing.T) {
		propsBoard := testutil.CreateTestBoard(t, db, owner, models.BoardTypeProps)
		_, err := svc.ClaimSquare(ctx, actorFor(owner), propsBoard.ID, 1, 1)
		assert.ErrorIs(t, err, boards.ErrNotSquares)
	})
}

func TestClaimSquare_EditLock(t *testing.T) {
	svc, db := newService(t)
	ctx := testutil.TestContext(t)
	board, owner, members := squaresBoardWithMembers(t, db, 1)
	admin := testutil.CreateTestAdmin(t, db)

	deadline := time.Date(2026, 2, 8, 23, 30, 0, 0, time.UTC)
	require.NoError(t, db.Model(board).Update("editable_until", deadline).Error)

	svc.SetClock(func() time.Time { return deadline.Add(-time.Minute) })
	_, err := svc.ClaimSquare(ctx, actorFor(members[0]), board.ID, 5, 5)
	require.NoError(t, err)

	svc.SetClock(func() time.Time { return deadline })
	_, err = svc.ClaimSquare(ctx, actorFor(members[0]), board.ID, 5, 6)
	assert.ErrorIs(t, err, boards.ErrBoardLocked)

	// Board owners do not bypass the lock
	_, err = svc.ClaimSquare(ctx, actorFor(owner), board.ID, 5, 6)
	assert.ErrorIs(t, err, boards.ErrBoardLocked)

	err = svc.ReleaseSquare(ctx, actorFor(members[0]), board.ID, 5, 5)
	assert.ErrorIs(t, err, boards.ErrBoardLocked)

	// Global admins do
	_, err = svc.ClaimSquare(ctx, actorFor(admin), board.ID, 5, 6)
	assert.NoError(t, err)
}

func TestClaimSquare_ConcurrentSingleWinner(t *testing.T) {
	svc, db := newService(t)
	ctx := testutil.TestContext(t)
	board, _, members := squaresBoardWithMembers(t, db, 10)

	var wg sync.WaitGroup
	var wins, conflicts atomic.Int32

	for _, m := range members {
		wg.Add(1)
		go func(user *models.User) {
			defer wg.Done()
			_, err := svc.ClaimSquare(ctx, actorFor(user), board.ID, 7, 7)
			switch {
			case err == nil:
				wins.Add(1)
			case assert.ErrorIs(t, err, boards.ErrSquareTaken):
				conflicts.Add(1)
			}
		}(m)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(len(members)-1), conflicts.Load())
	assert.Equal(t, int64(1), countRows(t, db, &models.Square{}, "board_id = ? AND grid_row = 7 AND grid_col = 7 AND user_id IS NOT NULL", board.ID))
}

func TestSquaresScenario_LimitAndReset(t *testing.T) {
	svc, db := newService(t)
	ctx := testutil.TestContext(t)
	board, _, members := squaresBoardWithMembers(t, db, 1)
	player := members[0]
	admin := testutil.CreateTestAdmin(t, db)

	limit := 2
	require.NoError(t, db.Model(board).Update("max_squares_per_email", limit).Error)

	_, err := svc.ClaimSquare(ctx, actorFor(player), board.ID, 0, 0)
	require.NoError(t, err)
	_, err = svc.ClaimSquare(ctx, actorFor(player), board.ID, 0, 1)
	require.NoError(t, err)

	_, err = svc.ClaimSquare(ctx, actorFor(player), board.ID, 0, 2)
	assert.ErrorIs(t, err, boards.ErrSquareLimit)
	assert.ErrorIs(t, err, boards.ErrConflict)

	// Global admins are not capped
	for col := 0; col < 3; col++ {
		_, err = svc.ClaimSquare(ctx, actorFor(admin), board.ID, 1, col)
		require.NoError(t, err)
	}

	// Reset works even when the board is locked
	require.NoError(t, db.Model(board).Update("is_editable", false).Error)

	_, err = svc.ResetBoard(ctx, actorFor(player), board.ID)
	assert.ErrorIs(t, err, boards.ErrForbidden)

	released, err := svc.ResetBoard(ctx, actorFor(admin), board.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), released)
	assert.Zero(t, countRows(t, db, &models.Square{}, "board_id = ? AND user_id IS NOT NULL", board.ID))
}

func TestReleaseSquare(t *testing.T) {
	svc, db := newService(t)
	ctx := testutil.TestContext(t)
	board, owner, members := squaresBoardWithMembers(t, db, 1)
	player := members[0]
	admin := testutil.CreateTestAdmin(t, db)

	_, err := svc.ClaimSquare(ctx, actorFor(player), board.ID, 3, 3)
	require.NoError(t, err)

	t.Run("others cannot release", func(t *testing.T) {
		err := svc.ReleaseSquare(ctx, actorFor(owner), board.ID, 3, 3)
		assert.ErrorIs(t, err, boards.ErrSquareNotYours)
	})

	t.Run("owner of the square releases it", func(t *testing.T) {
		require.NoError(t, svc.ReleaseSquare(ctx, actorFor(player), board.ID, 3, 3))
		assert.Zero(t, countRows(t, db, &models.Square{}, "board_id = ? AND user_id IS NOT NULL", board.ID))

		err := svc.ReleaseSquare(ctx, actorFor(player), board.ID, 3, 3)
		assert.ErrorIs(t, err, boards.ErrSquareNotYours)
	})

	t.Run("global admin releases any square on a locked board", func(t *testing.T) {
		_, err := svc.ClaimSquare(ctx, actorFor(player), board.ID, 4, 4)
		require.NoError(t, err)
		require.NoError(t, db.Model(board).Update("is_editable", false).Error)

		require.NoError(t, svc.ReleaseSquare(ctx, actorFor(admin), board.ID, 4, 4))
		assert.Zero(t, countRows(t, db, &models.Square{}, "board_id = ? AND user_id IS NOT NULL", board.ID))
	})
}
