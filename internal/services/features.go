package services

import (
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"

	"featboard/internal/db"
	"featboard/internal/models"
	"featboard/internal/utils"

	"gorm.io/gorm"
)

const (
	// MaxDescriptionLen bounds feature descriptions to prevent abuse.
	MaxDescriptionLen = 1000

	// PerPage is the page size for the recent listing.
	PerPage = 30

	// ScoreSortLimit caps how many active features the score sort will pull
	// into memory. Scores are derived from vote rows, so sorting by score in
	// SQL would need a denormalized column; bounding the set keeps the
	// in-memory computation cheap.
	ScoreSortLimit = 100
)

// Sort modes accepted by ListFeatures. Anything else falls back to recent.
const (
	SortRecent = "recent"
	SortScore  = "score"
)

func validateFeatureInput(title, description string) error {
	if title == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrValidation)
	}
	// Character limits, not byte limits; multibyte input counts by rune.
	if utf8.RuneCountInString(title) > 200 {
		return fmt.Errorf("%w: title cannot exceed 200 characters", ErrValidation)
	}
	if description == "" {
		return fmt.Errorf("%w: description cannot be empty", ErrValidation)
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLen {
		return fmt.Errorf("%w: description cannot exceed %d characters", ErrValidation, MaxDescriptionLen)
	}
	return nil
}

// newFid generates a public feature id. A variable so tests can pin the
// generator and force collisions.
var newFid = func() string {
	return utils.RandStringBytesMaskImpr(8)
}

// createAttempts bounds how often CreateFeature regenerates a colliding fid.
const createAttempts = 3

// CreateFeature stores a new active feature and records the author's own
// upvote in the same transaction. Creators always start their proposal at +1;
// a half-created feature without that vote is never observable.
func CreateFeature(userID uint, title, description string) (*models.Feature, error) {
	if err := validateFeatureInput(title, description); err != nil {
		return nil, err
	}

	var feature models.Feature
	var err error
	for attempt := 0; attempt < createAttempts; attempt++ {
		feature = models.Feature{
			Fid:         newFid(),
			UserID:      userID,
			Title:       title,
			Description: description,
			Status:      models.FeatureStatusActive,
		}

		err = db.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&feature).Error; err != nil {
				return err
			}
			vote := models.Vote{
				UserID:    userID,
				FeatureID: feature.ID,
				VoteType:  models.VoteTypeUp,
			}
			return tx.Create(&vote).Error
		})
		if err == nil {
			break
		}
		// The fid index is the only constraint a fresh feature can hit;
		// regenerate and try again.
		if !isDuplicateKey(err) {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}

	if err := db.DB.Preload("User").First(&feature, feature.ID).Error; err != nil {
		return nil, err
	}
	FillVoteCounts([]*models.Feature{&feature}, userID)
	feature.DescriptionHTML = utils.RenderMarkdown(feature.Description)
	return &feature, nil
}

// GetFeature returns an active feature by its public id with derived counts
// filled in. viewerID 0 means anonymous.
func GetFeature(fid string, viewerID uint) (*models.Feature, error) {
	var feature models.Feature
	err := db.DB.Preload("User").
		Where("fid = ? AND status = ?", fid, models.FeatureStatusActive).
		First(&feature).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	FillVoteCounts([]*models.Feature{&feature}, viewerID)
	feature.DescriptionHTML = utils.RenderMarkdown(feature.Description)
	return &feature, nil
}

// UpdateFeature mutates title/description. Only the author may edit; a nil
// field is left unchanged.
func UpdateFeature(fid string, userID uint, title, description *string) (*models.Feature, error) {
	var feature models.Feature
	err := db.DB.Where("fid = ? AND status = ?", fid, models.FeatureStatusActive).
		First(&feature).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if feature.UserID != userID {
		return nil, fmt.Errorf("%w: you can only edit your own features", ErrPermissionDenied)
	}

	newTitle := feature.Title
	newDescription := feature.Description
	if title != nil {
		newTitle = *title
	}
	if description != nil {
		newDescription = *description
	}
	if err := validateFeatureInput(newTitle, newDescription); err != nil {
		return nil, err
	}

	feature.Title = newTitle
	feature.Description = newDescription
	if err := db.DB.Save(&feature).Error; err != nil {
		return nil, err
	}

	FillVoteCounts([]*models.Feature{&feature}, userID)
	feature.DescriptionHTML = utils.RenderMarkdown(feature.Description)
	return &feature, nil
}

// SoftDeleteFeature flips status to deleted. The row and its votes stay put,
// the feature just disappears from queries. Author only.
func SoftDeleteFeature(fid string, userID uint) error {
	var feature models.Feature
	err := db.DB.Where("fid = ? AND status = ?", fid, models.FeatureStatusActive).
		First(&feature).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if feature.UserID != userID {
		return fmt.Errorf("%w: you can only delete your own features", ErrPermissionDenied)
	}

	return db.DB.Model(&feature).Update("status", models.FeatureStatusDeleted).Error
}

// ListFeatures returns active features. sort=recent pages by created_at
// descending; sort=score pulls at most ScoreSortLimit of the most recent
// active features and orders them by total score in memory, ties broken by
// creation time descending.
func ListFeatures(sortBy string, page int, viewerID uint) ([]models.Feature, error) {
	if page < 1 {
		page = 1
	}

	if sortBy == SortScore {
		var features []models.Feature
		err := db.DB.Preload("User").
			Where("status = ?", models.FeatureStatusActive).
			Order("created_at DESC").
			Limit(ScoreSortLimit).
			Find(&features).Error
		if err != nil {
			return nil, err
		}
		fillSlice(features, viewerID)
		// Input is already created_at descending, so a stable sort on score
		// alone keeps the tie-break order.
		sort.SliceStable(features, func(i, j int) bool {
			return features[i].TotalScore > features[j].TotalScore
		})
		return features, nil
	}

	// Default: recent. Unrecognized sort values land here too.
	var features []models.Feature
	err := db.DB.Preload("User").
		Where("status = ?", models.FeatureStatusActive).
		Order("created_at DESC").
		Offset((page - 1) * PerPage).
		Limit(PerPage).
		Find(&features).Error
	if err != nil {
		return nil, err
	}
	fillSlice(features, viewerID)
	return features, nil
}

func fillSlice(features []models.Feature, viewerID uint) {
	ptrs := make([]*models.Feature, len(features))
	for i := range features {
		ptrs[i] = &features[i]
	}
	FillVoteCounts(ptrs, viewerID)
	for i := range features {
		features[i].DescriptionHTML = utils.RenderMarkdown(features[i].Description)
	}
}

// FillVoteCounts batch-fills the derived aggregates (upvotes, downvotes,
// total score, viewer's own vote) for a set of features. Counts come from
// live vote rows on every call; nothing is cached in the feature row, so the
// aggregates can never drift from the vote set.
func FillVoteCounts(features []*models.Feature, viewerID uint) {
	if len(features) == 0 {
		return
	}

	ids := make([]uint, len(features))
	byID := make(map[uint]*models.Feature, len(features))
	for i, f := range features {
		ids[i] = f.ID
		byID[f.ID] = f
		f.UpvoteCount = 0
		f.DownvoteCount = 0
		f.TotalScore = 0
		f.UserVote = nil
	}

	type countRow struct {
		FeatureID uint
		VoteType  string
		Count     int
	}
	var rows []countRow
	db.DB.Model(&models.Vote{}).
		Select("feature_id, vote_type, COUNT(*) as count").
		Where("feature_id IN ?", ids).
		Group("feature_id, vote_type").
		Scan(&rows)

	for _, r := range rows {
		f, ok := byID[r.FeatureID]
		if !ok {
			continue
		}
		switch r.VoteType {
		case models.VoteTypeUp:
			f.UpvoteCount = r.Count
		case models.VoteTypeDown:
			f.DownvoteCount = r.Count
		}
	}
	for _, f := range features {
		f.TotalScore = f.UpvoteCount - f.DownvoteCount
	}

	if viewerID == 0 {
		return
	}
	var own []models.Vote
	db.DB.Where("user_id = ? AND feature_id IN ?", viewerID, ids).Find(&own)
	for _, v := range own {
		if f, ok := byID[v.FeatureID]; ok {
			vt := v.VoteType
			f.UserVote = &vt
		}
	}
}

// VotersResult is the payload of the voters listing: every vote on a feature
// plus the live aggregates.
type VotersResult struct {
	FeatureID    string        `json:"feature_id"`
	FeatureTitle string        `json:"feature_title"`
	Votes        []models.Vote `json:"votes"`
	TotalVotes   int           `json:"total_votes"`
	Upvotes      int           `json:"upvotes"`
	Downvotes    int           `json:"downvotes"`
}

// FeatureVoters lists all votes on a feature, newest first.
func FeatureVoters(fid string) (*VotersResult, error) {
	var feature models.Feature
	err := db.DB.Where("fid = ? AND status = ?", fid, models.FeatureStatusActive).
		First(&feature).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var votes []models.Vote
	if err := db.DB.Preload("User").
		Where("feature_id = ?", feature.ID).
		Order("created_at DESC").
		Find(&votes).Error; err != nil {
		return nil, err
	}

	result := &VotersResult{
		FeatureID:    feature.Fid,
		FeatureTitle: feature.Title,
		Votes:        votes,
		TotalVotes:   len(votes),
	}
	for _, v := range votes {
		switch v.VoteType {
		case models.VoteTypeUp:
			result.Upvotes++
		case models.VoteTypeDown:
			result.Downvotes++
		}
	}
	return result, nil
}
