package services

import (
	"errors"
	"fmt"
	"strings"

	"featboard/internal/db"
	"featboard/internal/models"

	"gorm.io/gorm"
)

// Vote actions reported back to the caller.
const (
	ActionAdded   = "added"
	ActionChanged = "changed"
	ActionRemoved = "removed"
)

// VoteResult describes what a vote operation did.
type VoteResult struct {
	Message  string `json:"message"`
	Action   string `json:"action"`
	VoteType string `json:"vote_type"`
}

// SubmitVote runs the vote state machine for (userID, feature, requestedType):
//
//   - no existing vote            -> create it            (added)
//   - existing vote, same type    -> delete it            (removed)
//   - existing vote, other type   -> flip vote_type       (changed)
//
// Each transition runs in a single transaction, so a change is never
// observable as a delete plus a create. The unique index over
// (user_id, feature_id) is the source of truth for the one-vote invariant:
// if two concurrent calls race on the create path, the loser's insert fails
// with a duplicate key and is retried once, landing on the change/remove path
// against the winner's row.
func SubmitVote(userID uint, fid string, requestedType string) (*VoteResult, error) {
	if !models.ValidVoteType(requestedType) {
		return nil, fmt.Errorf("%w: vote_type must be 'upvote' or 'downvote'", ErrValidation)
	}

	var feature models.Feature
	err := db.DB.Where("fid = ? AND status = ?", fid, models.FeatureStatusActive).
		First(&feature).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	result, err := applyVote(userID, feature.ID, requestedType)
	if err != nil && isDuplicateKey(err) {
		// Lost a create race; the row now exists, so the lookup will see it.
		result, err = applyVote(userID, feature.ID, requestedType)
		if err != nil && isDuplicateKey(err) {
			return nil, ErrConflict
		}
	}
	return result, err
}

// applyVote is a variable so tests can interleave a competing write into the
// window between the existing-vote lookup and the insert.
var applyVote = applyVoteTx

func applyVoteTx(userID, featureID uint, requestedType string) (*VoteResult, error) {
	var result VoteResult
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.Vote
		err := tx.Where("user_id = ? AND feature_id = ?", userID, featureID).
			First(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.Vote{
				UserID:    userID,
				FeatureID: featureID,
				VoteType:  requestedType,
			}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			result = VoteResult{
				Message:  capitalize(requestedType) + " added",
				Action:   ActionAdded,
				VoteType: requestedType,
			}
			return nil

		case err != nil:
			return err

		case existing.VoteType == requestedType:
			// Toggle off
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			result = VoteResult{
				Message:  capitalize(requestedType) + " removed",
				Action:   ActionRemoved,
				VoteType: requestedType,
			}
			return nil

		default:
			if err := tx.Model(&existing).Update("vote_type", requestedType).Error; err != nil {
				return err
			}
			result = VoteResult{
				Message:  "Vote changed to " + requestedType,
				Action:   ActionChanged,
				VoteType: requestedType,
			}
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RetractVote unconditionally removes the user's vote on a feature.
// ErrNoVote when the user never voted there; ErrNotFound when the feature
// is absent or deleted.
func RetractVote(userID uint, fid string) (*VoteResult, error) {
	var feature models.Feature
	err := db.DB.Where("fid = ? AND status = ?", fid, models.FeatureStatusActive).
		First(&feature).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var result VoteResult
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		var vote models.Vote
		err := tx.Where("user_id = ? AND feature_id = ?", userID, feature.ID).
			First(&vote).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoVote
		}
		if err != nil {
			return err
		}
		if err := tx.Delete(&vote).Error; err != nil {
			return err
		}
		result = VoteResult{
			Message:  capitalize(vote.VoteType) + " removed",
			Action:   ActionRemoved,
			VoteType: vote.VoteType,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// isDuplicateKey reports whether err is a uniqueness violation from the
// store. GORM translates these for the postgres and sqlite drivers; the
// string checks cover drivers that don't.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
