package boards

import (
	"time"

	"github.com/hugh/go-pools/internal/database/models"
)

// CanEditNow reports whether a board with the given lock settings accepts
// mutations at now. The editableUntil instant itself is already locked.
func CanEditNow(isEditable bool, editableUntil *time.Time, now time.Time) bool {
	if !isEditable {
		return false
	}
	if editableUntil == nil {
		return true
	}
	return now.Before(*editableUntil)
}

func boardEditable(board *models.Board, now time.Time) bool {
	return CanEditNow(board.IsEditable, board.EditableUntil, now)
}

// lockApplies reports whether the edit lock constrains actor. Only global
// admins are exempt; board owners and admins are not.
func lockApplies(actor Actor) bool {
	return !actor.GlobalAdmin
}

// checkEditable returns ErrBoardLocked if board is locked for actor.
func (s *Service) checkEditable(actor Actor, board *models.Board) error {
	if lockApplies(actor) && !boardEditable(board, s.now()) {
		return ErrBoardLocked
	}
	return nil
}
