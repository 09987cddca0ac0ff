package boards_test

import (
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-pools/internal/boards"
	"github.com/hugh/go-pools/internal/database/models"
	"github.com/hugh/go-pools/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInviteToken(t *testing.T) {
	hex64 := regexp.MustCompile(`^[0-9a-f]{64}$`)
	seen := map[string]bool{}

	for i := 0; i < 50; i++ {
		token, err := boards.GenerateInviteToken()
		require.NoError(t, err)
		assert.Regexp(t, hex64, token)
		assert.False(t, seen[token])
		seen[token] = true
	}
}

func TestCreateInvite(t *testing.T) {
	svc, db := newService(t)
	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, "")
	member := testutil.CreateTestUser(t, db, "")
	board := testutil.CreateTestBoard(t, db, owner, models.BoardTypeSquares)
	testutil.AddTestMember(t, db, board, member, models.BoardRoleMember)

	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return now })

	invite, err := svc.CreateInvite(ctx, actorFor(owner), board.ID, "  Friend@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "friend@example.com", invite.Email)
	assert.Len(t, invite.Token, 64)
	assert.True(t, now.Add(7*24*time.Hour).Equal(invite.ExpiresAt))

	_, err = svc.CreateInvite(ctx, actorFor(owner), board.ID, "not-an-email")
	assert.ErrorIs(t, err, boards.ErrInvalidInput)

	_, err = svc.CreateInvite(ctx, actorFor(member), board.ID, "other@example.com")
	assert.ErrorIs(t, err, boards.ErrNotBoardAdmin)
}

func TestAcceptInvite(t *testing.T) {
	svc, db := newService(t)
	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, "")
	guest := testutil.CreateTestUser(t, db, "guest@example.com")
	board := testutil.CreateTestBoard(t, db, owner, models.BoardTypeSquares)

	invite, err := svc.CreateInvite(ctx, actorFor(owner), board.ID, "GUEST@example.com")
	require.NoError(t, err)

	t.Run("email mismatch is forbidden", func(t *testing.T) {
		stranger := testutil.CreateTestUser(t, db, "")
		_, err := svc.AcceptInvite(ctx, actorFor(stranger), invite.Token)
		assert.ErrorIs(t, err, boards.ErrInviteEmailMismatch)
		assert.ErrorIs(t, err, boards.ErrForbidden)
	})

	t.Run("accept adds member and materializes grid", func(t *testing.T) {
		actor := actorFor(guest)
		actor.Email = "Guest@Example.com"

		boardID, err := svc.AcceptInvite(ctx, actor, invite.Token)
		require.NoError(t, err)
		assert.Equal(t, board.ID, boardID)

		access, err := svc.ResolveRole(ctx, guest.ID, board.ID)
		require.NoError(t, err)
		require.NotNil(t, access)
		assert.Equal(t, models.BoardRoleMember, access.Role)
		assert.Equal(t, int64(models.TotalSquares), countRows(t, db, &models.Square{}, "board_id = ?", board.ID))

		var used models.BoardInvite
		require.NoError(t, db.First(&used, "id = ?", invite.ID).Error)
		assert.NotNil(t, used.UsedAt)
		require.NotNil(t, used.UsedByUserID)
		assert.Equal(t, guest.ID, *used.UsedByUserID)
	})

	t.Run("second accept is not found", func(t *testing.T) {
		_, err := svc.AcceptInvite(ctx, actorFor(guest), invite.Token)
		assert.ErrorIs(t, err, boards.ErrNotFound)
	})

	t.Run("unknown and short tokens are not found", func(t *testing.T) {
		_, err := svc.AcceptInvite(ctx, actorFor(guest), "short")
		assert.ErrorIs(t, err, boards.ErrNotFound)

		token, err := boards.GenerateInviteToken()
		require.NoError(t, err)
		_, err = svc.AcceptInvite(ctx, actorFor(guest), token)
		assert.ErrorIs(t, err, boards.ErrNotFound)
	})

	t.Run("expired invite is not found", func(t *testing.T) {
		late := testutil.CreateTestUser(t, db, "late@example.com")
		expired, err := svc.CreateInvite(ctx, actorFor(owner), board.ID, late.Email)
		require.NoError(t, err)
		require.NoError(t, db.Model(expired).Update("expires_at", time.Now().Add(-time.Minute)).Error)

		_, err = svc.AcceptInvite(ctx, actorFor(late), expired.Token)
		assert.ErrorIs(t, err, boards.ErrInviteInvalid)

		access, err := svc.ResolveRole(ctx, late.ID, board.ID)
		require.NoError(t, err)
		assert.Nil(t, access)
	})

	t.Run("existing member accepting keeps their role", func(t *testing.T) {
		again, err := svc.CreateInvite(ctx, actorFor(owner), board.ID, owner.Email)
		require.NoError(t, err)

		_, err = svc.AcceptInvite(ctx, actorFor(owner), again.Token)
		require.NoError(t, err)

		access, err := svc.ResolveRole(ctx, owner.ID, board.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BoardRoleOwner, access.Role)
	})
}

func TestAcceptInvite_ConcurrentSingleUse(t *testing.T) {
	svc, db := newService(t)
	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, "")
	guest := testutil.CreateTestUser(t, db, "")
	board := testutil.CreateTestBoard(t, db, owner, models.BoardTypeProps)

	invite, err := svc.CreateInvite(ctx, actorFor(owner), board.ID, guest.Email)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var accepted atomic.Int32
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AcceptInvite(ctx, actorFor(guest), invite.Token); err == nil {
				accepted.Add(1)
			} else {
				assert.ErrorIs(t, err, boards.ErrNotFound)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
	assert.Equal(t, int64(1), countRows(t, db, &models.BoardMember{}, "board_id = ? AND user_id = ?", board.ID, guest.ID))
}

func TestRevokeAndListInvites(t *testing.T) {
	svc, db := newService(t)
	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, "")
	guest := testutil.CreateTestUser(t, db, "")
	board := testutil.CreateTestBoard(t, db, owner, models.BoardTypeProps)
	other := testutil.CreateTestBoard(t, db, owner, models.BoardTypeProps)

	pending, err := svc.CreateInvite(ctx, actorFor(owner), board.ID, "pending@example.com")
	require.NoError(t, err)
	used, err := svc.CreateInvite(ctx, actorFor(owner), board.ID, guest.Email)
	require.NoError(t, err)
	_, err = svc.AcceptInvite(ctx, actorFor(guest), used.Token)
	require.NoError(t, err)

	invites, err := svc.ListInvites(ctx, actorFor(owner), board.ID)
	require.NoError(t, err)
	require.Len(t, invites, 1)
	assert.Equal(t, pending.ID, invites[0].ID)

	err = svc.RevokeInvite(ctx, actorFor(owner), board.ID, used.ID)
	assert.ErrorIs(t, err, boards.ErrInviteNotFound)

	err = svc.RevokeInvite(ctx, actorFor(owner), other.ID, pending.ID)
	assert.ErrorIs(t, err, boards.ErrNotFound)

	err = svc.RevokeInvite(ctx, actorFor(guest), board.ID, pending.ID)
	assert.ErrorIs(t, err, boards.ErrNotBoardAdmin)

	require.NoError(t, svc.RevokeInvite(ctx, actorFor(owner), board.ID, pending.ID))
	assert.Zero(t, countRows(t, db, &models.BoardInvite{}, "id = ?", pending.ID))

	err = svc.RevokeInvite(ctx, actorFor(owner), board.ID, uuid.New())
	assert.ErrorIs(t, err, boards.ErrInviteNotFound)
}

func TestPurgeExpiredInvites(t *testing.T) {
	svc, db := newService(t)
	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, "")
	board := testutil.CreateTestBoard(t, db, owner, models.BoardTypeProps)

	stale, err := svc.CreateInvite(ctx, actorFor(owner), board.ID, "stale@example.com")
	require.NoError(t, err)
	_, err = svc.CreateInvite(ctx, actorFor(owner), board.ID, "fresh@example.com")
	require.NoError(t, err)
	require.NoError(t, db.Model(stale).Update("expires_at", time.Now().Add(-time.Hour)).Error)

	removed, err := svc.PurgeExpiredInvites(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, int64(1), countRows(t, db, &models.BoardInvite{}, "board_id = ?", board.ID))
}
