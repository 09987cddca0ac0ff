package boards

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/go-pools/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	maxPropOptions   = 50
	minPropOptions   = 2
	maxQuestionChars = 500
)

// PropUpdate carries optional changes to a prop. A nil Options slice leaves
// the options untouched; a non-nil one replaces them.
type PropUpdate struct {
	Question *string
	Options  []string
}

// PropView is a prop with the picks visible to the caller.
type PropView struct {
	models.Prop
	MyPick *uuid.UUID        `json:"my_pick,omitempty"`
	Picks  []models.PropPick `json:"picks,omitempty"`
}

// NormalizeOptions trims labels, drops empty ones and keeps at most 50.
func NormalizeOptions(options []string) []string {
	out := make([]string, 0, len(options))
	for _, opt := range options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		out = append(out, opt)
		if len(out) == maxPropOptions {
			break
		}
	}
	return out
}

func normalizeQuestion(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", invalid("question is required")
	}
	if len(q) > maxQuestionChars {
		return "", invalid(fmt.Sprintf("question must be at most %d characters", maxQuestionChars))
	}
	return q, nil
}

func buildOptions(propID uuid.UUID, labels []string) []models.PropOption {
	options := make([]models.PropOption, len(labels))
	for i, label := range labels {
		options[i] = models.PropOption{PropID: propID, Label: label, Position: i}
	}
	return options
}

func loadPropsBoard(db *gorm.DB, boardID uuid.UUID) (*models.Board, error) {
	board, err := loadBoard(db, boardID)
	if err != nil {
		return nil, err
	}
	if board.Type != models.BoardTypeProps {
		return nil, ErrNotProps
	}
	return board, nil
}

// adminPropsBoard runs the checks shared by prop mutations.
func (s *Service) adminPropsBoard(ctx context.Context, actor Actor, boardID uuid.UUID) (*models.Board, error) {
	if _, err := s.RequireAdmin(ctx, actor, boardID); err != nil {
		return nil, err
	}
	board, err := loadPropsBoard(s.db.WithContext(ctx), boardID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEditable(actor, board); err != nil {
		return nil, err
	}
	return board, nil
}

func loadProp(tx *gorm.DB, boardID, propID uuid.UUID) (*models.Prop, error) {
	var prop models.Prop
	if err := lockForUpdate(tx).
		Where("id = ? AND board_id = ?", propID, boardID).
		First(&prop).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPropNotFound
		}
		return nil, err
	}
	return &prop, nil
}

func preloadOptions(db *gorm.DB) *gorm.DB {
	return db.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
}

func (s *Service) CreateProp(ctx context.Context, actor Actor, boardID uuid.UUID, question string, options []string) (*models.Prop, error) {
	if _, err := s.adminPropsBoard(ctx, actor, boardID); err != nil {
		return nil, err
	}

	question, err := normalizeQuestion(question)
	if err != nil {
		return nil, err
	}
	labels := NormalizeOptions(options)
	if len(labels) < minPropOptions {
		return nil, ErrTooFewOptions
	}

	prop := models.Prop{BoardID: boardID, Question: question}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&prop).Error; err != nil {
			return err
		}
		prop.Options = buildOptions(prop.ID, labels)
		return tx.Create(&prop.Options).Error
	})
	if err != nil {
		return nil, fmt.Errorf("creating prop: %w", err)
	}

	s.logger.Info("prop created", "board_id", boardID, "prop_id", prop.ID, "user_id", actor.UserID)
	return &prop, nil
}

// UpdateProp edits a prop's question and, while nobody has picked yet, its
// options. The pick check and option swap share one transaction.
func (s *Service) UpdateProp(ctx context.Context, actor Actor, boardID, propID uuid.UUID, in PropUpdate) (*models.Prop, error) {
	if _, err := s.adminPropsBoard(ctx, actor, boardID); err != nil {
		return nil, err
	}

	var question string
	if in.Question != nil {
		var err error
		if question, err = normalizeQuestion(*in.Question); err != nil {
			return nil, err
		}
	}
	var labels []string
	if in.Options != nil {
		labels = NormalizeOptions(in.Options)
		if len(labels) < minPropOptions {
			return nil, ErrTooFewOptions
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prop, err := loadProp(tx, boardID, propID)
		if err != nil {
			return err
		}

		if in.Question != nil {
			if err := tx.Model(prop).Update("question", question).Error; err != nil {
				return err
			}
		}

		if labels == nil {
			return nil
		}

		var picks int64
		if err := tx.Model(&models.PropPick{}).Where("prop_id = ?", propID).Count(&picks).Error; err != nil {
			return err
		}
		if picks > 0 {
			return ErrPicksExist
		}

		if err := tx.Where("prop_id = ?", propID).Delete(&models.PropOption{}).Error; err != nil {
			return err
		}
		options := buildOptions(propID, labels)
		return tx.Create(&options).Error
	})
	if err != nil {
		return nil, wrapTx(err, "updating prop")
	}

	var prop models.Prop
	if err := preloadOptions(s.db.WithContext(ctx)).First(&prop, "id = ?", propID).Error; err != nil {
		return nil, fmt.Errorf("loading prop: %w", err)
	}

	s.logger.Info("prop updated", "board_id", boardID, "prop_id", propID, "user_id", actor.UserID)
	return &prop, nil
}

// DeleteProp removes a prop with its options and picks.
func (s *Service) DeleteProp(ctx context.Context, actor Actor, boardID, propID uuid.UUID) error {
	if _, err := s.adminPropsBoard(ctx, actor, boardID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prop, err := loadProp(tx, boardID, propID)
		if err != nil {
			return err
		}
		if err := tx.Where("prop_id = ?", prop.ID).Delete(&models.PropPick{}).Error; err != nil {
			return err
		}
		if err := tx.Where("prop_id = ?", prop.ID).Delete(&models.PropOption{}).Error; err != nil {
			return err
		}
		return tx.Delete(prop).Error
	})
	if err != nil {
		return wrapTx(err, "deleting prop")
	}

	s.logger.Info("prop deleted", "board_id", boardID, "prop_id", propID, "user_id", actor.UserID)
	return nil
}

// SetPick records the actor's choice for a prop, replacing any earlier one.
func (s *Service) SetPick(ctx context.Context, actor Actor, boardID, propID, optionID uuid.UUID) (*models.PropPick, error) {
	db := s.db.WithContext(ctx)

	board, err := loadPropsBoard(db, boardID)
	if err != nil {
		return nil, err
	}
	if _, err := s.RequireMember(ctx, actor, boardID); err != nil {
		return nil, err
	}
	if err := s.checkEditable(actor, board); err != nil {
		return nil, err
	}

	pick := models.PropPick{
		BoardID:  boardID,
		PropID:   propID,
		UserID:   actor.UserID,
		OptionID: optionID,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		// Holding the prop row keeps UpdateProp from swapping options
		// between the check and the write.
		var prop models.Prop
		if err := lockForShare(tx).
			Where("id = ? AND board_id = ?", propID, boardID).
			First(&prop).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidOption
			}
			return err
		}

		var matches int64
		if err := tx.Model(&models.PropOption{}).
			Where("id = ? AND prop_id = ?", optionID, propID).
			Count(&matches).Error; err != nil {
			return err
		}
		if matches == 0 {
			return ErrInvalidOption
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "prop_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"option_id": optionID, "updated_at": s.now()}),
		}).Create(&pick).Error
	})
	if err != nil {
		return nil, wrapTx(err, "saving pick")
	}

	var saved models.PropPick
	if err := db.Where("prop_id = ? AND user_id = ?", propID, actor.UserID).First(&saved).Error; err != nil {
		return nil, fmt.Errorf("loading pick: %w", err)
	}

	s.logger.Debug("pick saved", "board_id", boardID, "prop_id", propID, "user_id", actor.UserID)
	return &saved, nil
}

// ClearPick removes the actor's pick for a prop. Clearing a missing pick is
// not an error.
func (s *Service) ClearPick(ctx context.Context, actor Actor, boardID, propID uuid.UUID) error {
	db := s.db.WithContext(ctx)

	board, err := loadPropsBoard(db, boardID)
	if err != nil {
		return err
	}
	if _, err := s.RequireMember(ctx, actor, boardID); err != nil {
		return err
	}
	if err := s.checkEditable(actor, board); err != nil {
		return err
	}

	if err := db.Where("board_id = ? AND prop_id = ? AND user_id = ?", boardID, propID, actor.UserID).
		Delete(&models.PropPick{}).Error; err != nil {
		return fmt.Errorf("clearing pick: %w", err)
	}
	return nil
}

// ListProps returns the board's props in creation order. Board admins and
// global admins see every pick; members see only their own.
func (s *Service) ListProps(ctx context.Context, actor Actor, boardID uuid.UUID) ([]PropView, error) {
	db := s.db.WithContext(ctx)

	if _, err := loadPropsBoard(db, boardID); err != nil {
		return nil, err
	}
	access, err := s.RequireMember(ctx, actor, boardID)
	if err != nil {
		return nil, err
	}

	var props []models.Prop
	if err := preloadOptions(db).
		Where("board_id = ?", boardID).
		Order("created_at").
		Find(&props).Error; err != nil {
		return nil, fmt.Errorf("listing props: %w", err)
	}

	seeAll := actor.GlobalAdmin || access.IsAdmin()
	picksQuery := db.Where("board_id = ?", boardID)
	if seeAll {
		picksQuery = picksQuery.Preload("User")
	} else {
		picksQuery = picksQuery.Where("user_id = ?", actor.UserID)
	}
	var picks []models.PropPick
	if err := picksQuery.Order("created_at").Find(&picks).Error; err != nil {
		return nil, fmt.Errorf("listing picks: %w", err)
	}

	byProp := make(map[uuid.UUID][]models.PropPick, len(props))
	for _, p := range picks {
		byProp[p.PropID] = append(byProp[p.PropID], p)
	}

	views := make([]PropView, 0, len(props))
	for _, prop := range props {
		view := PropView{Prop: prop}
		for _, p := range byProp[prop.ID] {
			if p.UserID == actor.UserID {
				optionID := p.OptionID
				view.MyPick = &optionID
			}
		}
		if seeAll {
			view.Picks = byProp[prop.ID]
		}
		views = append(views, view)
	}
	return views, nil
}
