package handlers_test

import (
	"net/http"
	"testing"

	"github.com/hugh/go-pools/internal/api/dto"
	"github.com/hugh/go-pools/internal/database/models"
	"github.com/hugh/go-pools/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropHandler_Lifecycle(t *testing.T) {
	router, tc := setupBoardTestRouter(t)
	board := testutil.CreateTestBoard(t, tc.DB, tc.User, models.BoardTypeProps)

	member := testutil.CreateTestUser(t, tc.DB, "")
	testutil.AddTestMember(t, tc.DB, board, member, models.BoardRoleMember)
	memberToken := tc.TokenFor(t, member)

	rr := do(t, router, "POST", boardPath(board, "/props"), map[string]interface{}{
		"question": "Coin toss?",
		"options":  []string{" Heads ", "Tails", ""},
	}, tc.Token)
	testutil.AssertStatus(t, rr, http.StatusCreated)

	var prop dto.PropResponse
	testutil.ParseJSONResponse(t, rr, &prop)
	require.Len(t, prop.Options, 2)
	assert.Equal(t, "Heads", prop.Options[0].Label)

	t.Run("member cannot create", func(t *testing.T) {
		rr := do(t, router, "POST", boardPath(board, "/props"), map[string]interface{}{
			"question": "MVP?",
			"options":  []string{"A", "B"},
		}, memberToken)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("member picks and sees only own pick", func(t *testing.T) {
		rr := do(t, router, "PUT", boardPath(board, "/props/"+prop.ID+"/pick"),
			map[string]string{"option_id": prop.Options[1].ID}, memberToken)
		testutil.AssertStatus(t, rr, http.StatusOK)

		var pick dto.PickResponse
		testutil.ParseJSONResponse(t, rr, &pick)
		assert.Equal(t, prop.Options[1].ID, pick.OptionID)

		rr = do(t, router, "GET", boardPath(board, "/props"), nil, memberToken)
		testutil.AssertStatus(t, rr, http.StatusOK)

		var list []dto.PropResponse
		testutil.ParseJSONResponse(t, rr, &list)
		require.Len(t, list, 1)
		assert.Equal(t, prop.Options[1].ID, list[0].MyPick)
		assert.Empty(t, list[0].Picks)
	})

	t.Run("admin sees every pick", func(t *testing.T) {
		rr := do(t, router, "GET", boardPath(board, "/props"), nil, tc.Token)
		testutil.AssertStatus(t, rr, http.StatusOK)

		var list []dto.PropResponse
		testutil.ParseJSONResponse(t, rr, &list)
		require.Len(t, list, 1)
		require.Len(t, list[0].Picks, 1)
		assert.Equal(t, member.ID.String(), list[0].Picks[0].UserID)
	})

	t.Run("options frozen once picked", func(t *testing.T) {
		rr := do(t, router, "PUT", boardPath(board, "/props/"+prop.ID), map[string]interface{}{
			"options": []string{"Up", "Down"},
		}, tc.Token)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("question still editable", func(t *testing.T) {
		rr := do(t, router, "PUT", boardPath(board, "/props/"+prop.ID), map[string]interface{}{
			"question": "Opening coin toss?",
		}, tc.Token)
		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp dto.PropResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, "Opening coin toss?", resp.Question)
	})

	t.Run("invalid option id", func(t *testing.T) {
		rr := do(t, router, "PUT", boardPath(board, "/props/"+prop.ID+"/pick"),
			map[string]string{"option_id": "nope"}, memberToken)
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		rr = do(t, router, "PUT", boardPath(board, "/props/"+prop.ID+"/pick"),
			map[string]string{"option_id": prop.ID}, memberToken)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("clear pick is idempotent", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			rr := do(t, router, "DELETE", boardPath(board, "/props/"+prop.ID+"/pick"), nil, memberToken)
			assert.Equal(t, http.StatusNoContent, rr.Code)
		}
	})

	t.Run("delete prop", func(t *testing.T) {
		rr := do(t, router, "DELETE", boardPath(board, "/props/"+prop.ID), nil, tc.Token)
		assert.Equal(t, http.StatusNoContent, rr.Code)

		rr = do(t, router, "GET", boardPath(board, "/props"), nil, tc.Token)
		var list []dto.PropResponse
		testutil.ParseJSONResponse(t, rr, &list)
		assert.Empty(t, list)
	})
}

func TestPropHandler_WrongBoardType(t *testing.T) {
	router, tc := setupBoardTestRouter(t)
	board := testutil.CreateTestBoard(t, tc.DB, tc.User, models.BoardTypeSquares)

	rr := do(t, router, "GET", boardPath(board, "/props"), nil, tc.Token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
