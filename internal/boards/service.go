package boards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-pools/internal/database/models"
	"gorm.io/gorm"
)

const maxBoardNameLength = 120

type Service struct {
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock replaces the clock used for edit-lock and invite expiry checks.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// BoardWithRole is a board together with the caller's view of it.
type BoardWithRole struct {
	models.Board
	Role    models.BoardRole `json:"role,omitempty"`
	CanEdit bool             `json:"can_edit"`
}

// BoardUpdate holds optional settings changes. Nil fields are left alone;
// the Clear flags reset the nullable settings.
type BoardUpdate struct {
	Name               *string
	IsEditable         *bool
	EditableUntil      *time.Time
	ClearEditableUntil bool
	MaxSquaresPerEmail *int
	ClearMaxSquares    bool
}

func loadBoard(db *gorm.DB, boardID uuid.UUID) (*models.Board, error) {
	var board models.Board
	if err := db.First(&board, "id = ?", boardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoardNotFound
		}
		return nil, fmt.Errorf("loading board: %w", err)
	}
	return &board, nil
}

func normalizeBoardName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name is required")
	}
	if len(name) > maxBoardNameLength {
		return "", invalid(fmt.Sprintf("name must be at most %d characters", maxBoardNameLength))
	}
	return name, nil
}

// CreateBoard creates a board with the actor as its OWNER. Squares boards get
// their grid materialized in the same transaction.
func (s *Service) CreateBoard(ctx context.Context, actor Actor, name string, boardType models.BoardType) (*models.Board, error) {
	name, err := normalizeBoardName(name)
	if err != nil {
		return nil, err
	}
	if boardType == "" {
		boardType = models.BoardTypeSquares
	}
	if !boardType.Valid() {
		return nil, invalid("type must be SQUARES or PROPS")
	}

	board := models.Board{
		Name:            name,
		Type:            boardType,
		CreatedByUserID: actor.UserID,
		IsEditable:      true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&board).Error; err != nil {
			return err
		}
		owner := models.BoardMember{
			BoardID: board.ID,
			UserID:  actor.UserID,
			Role:    models.BoardRoleOwner,
		}
		if err := tx.Create(&owner).Error; err != nil {
			return err
		}
		if board.Type == models.BoardTypeSquares {
			return ensureGrid(tx, board.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating board: %w", err)
	}

	s.logger.Info("board created", "board_id", board.ID, "user_id", actor.UserID, "type", board.Type)
	return &board, nil
}

func (s *Service) GetBoard(ctx context.Context, actor Actor, boardID uuid.UUID) (*BoardWithRole, error) {
	board, err := loadBoard(s.db.WithContext(ctx), boardID)
	if err != nil {
		return nil, err
	}
	access, err := s.RequireMember(ctx, actor, boardID)
	if err != nil {
		return nil, err
	}
	return &BoardWithRole{
		Board:   *board,
		Role:    access.Role,
		CanEdit: boardEditable(board, s.now()),
	}, nil
}

// ListBoards returns the boards the actor belongs to, newest first.
func (s *Service) ListBoards(ctx context.Context, actor Actor) ([]BoardWithRole, error) {
	var memberships []models.BoardMember
	if err := s.db.WithContext(ctx).
		Preload("Board").
		Where("user_id = ?", actor.UserID).
		Order("created_at DESC").
		Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("listing boards: %w", err)
	}

	now := s.now()
	out := make([]BoardWithRole, 0, len(memberships))
	for _, m := range memberships {
		if m.Board == nil {
			continue
		}
		out = append(out, BoardWithRole{
			Board:   *m.Board,
			Role:    m.Role,
			CanEdit: boardEditable(m.Board, now),
		})
	}
	return out, nil
}

// ListAllBoards pages through every board. Global admins only.
func (s *Service) ListAllBoards(ctx context.Context, actor Actor, page, perPage int) ([]BoardWithRole, int64, error) {
	if err := requireGlobalAdmin(actor); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Board{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting boards: %w", err)
	}

	var boards []models.Board
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&boards).Error; err != nil {
		return nil, 0, fmt.Errorf("listing all boards: %w", err)
	}

	now := s.now()
	out := make([]BoardWithRole, 0, len(boards))
	for i := range boards {
		out = append(out, BoardWithRole{
			Board:   boards[i],
			CanEdit: boardEditable(&boards[i], now),
		})
	}
	return out, total, nil
}

// UpdateBoard changes board settings. Lock settings can be changed while the
// board is locked, otherwise a locked board could never be reopened.
func (s *Service) UpdateBoard(ctx context.Context, actor Actor, boardID uuid.UUID, in BoardUpdate) (*models.Board, error) {
	if _, err := s.RequireAdmin(ctx, actor, boardID); err != nil {
		return nil, err
	}
	board, err := loadBoard(s.db.WithContext(ctx), boardID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name, err := normalizeBoardName(*in.Name)
		if err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if in.IsEditable != nil {
		updates["is_editable"] = *in.IsEditable
	}
	switch {
	case in.ClearEditableUntil:
		updates["editable_until"] = nil
	case in.EditableUntil != nil:
		updates["editable_until"] = in.EditableUntil.UTC()
	}
	switch {
	case in.ClearMaxSquares:
		updates["max_squares_per_email"] = nil
	case in.MaxSquaresPerEmail != nil:
		limit := *in.MaxSquaresPerEmail
		if limit < 1 || limit > models.TotalSquares {
			return nil, invalid("max squares per email must be between 1 and 100")
		}
		updates["max_squares_per_email"] = limit
	}

	if len(updates) == 0 {
		return board, nil
	}

	if err := s.db.WithContext(ctx).Model(board).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("updating board: %w", err)
	}

	s.logger.Info("board updated", "board_id", boardID, "user_id", actor.UserID)
	return loadBoard(s.db.WithContext(ctx), boardID)
}

// DeleteBoard removes a board and everything hanging off it. Allowed for
// board OWNERs, the creator and global admins.
func (s *Service) DeleteBoard(ctx context.Context, actor Actor, boardID uuid.UUID) error {
	board, err := loadBoard(s.db.WithContext(ctx), boardID)
	if err != nil {
		return err
	}

	if !actor.GlobalAdmin && board.CreatedByUserID != actor.UserID {
		access, err := s.ResolveRole(ctx, actor.UserID, boardID)
		if err != nil {
			return err
		}
		if access == nil {
			return ErrNotMember
		}
		if access.Role != models.BoardRoleOwner {
			return forbidden("only an owner can delete the board")
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		propIDs := tx.Model(&models.Prop{}).Select("id").Where("board_id = ?", boardID)

		steps := []struct {
			model interface{}
			query *gorm.DB
		}{
			{&models.PropPick{}, tx.Where("board_id = ?", boardID)},
			{&models.PropOption{}, tx.Where("prop_id IN (?)", propIDs)},
			{&models.Prop{}, tx.Where("board_id = ?", boardID)},
			{&models.Square{}, tx.Where("board_id = ?", boardID)},
			{&models.BoardInvite{}, tx.Where("board_id = ?", boardID)},
			{&models.BoardMember{}, tx.Where("board_id = ?", boardID)},
		}
		for _, step := range steps {
			if err := step.query.Delete(step.model).Error; err != nil {
				return err
			}
		}

		result := tx.Delete(&models.Board{}, "id = ?", boardID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrBoardNotFound
		}
		return nil
	})
	if err != nil {
		return wrapTx(err, "deleting board")
	}

	s.logger.Info("board deleted", "board_id", boardID, "user_id", actor.UserID)
	return nil
}
