package repositories

import (
	"time"

	"gorm.io/gorm"

	"github.com/hanneswrnr/glasschadenmelden/internal/models"
)

type ClaimRepository struct {
	DB *gorm.DB
}

func NewClaimRepository(db *gorm.DB) *ClaimRepository {
	return &ClaimRepository{DB: db}
}

// GetByID returns one claim by ID. Soft-deleted claims are excluded.
func (r *ClaimRepository) GetByID(id string) (*models.Claim, error) {
	var claim models.Claim
	err := r.DB.First(&claim, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// IsParticipant reports whether the user belongs to the claim, either as the
// insurer or the assigned workshop. Admins are resolved at the handler level.
func (r *ClaimRepository) IsParticipant(userID, claimID string) (bool, error) {
	var count int64
	err := r.DB.Model(&models.Claim{}).
		Where("id = ? AND (insurer_id = ? OR workshop_id = ?)", claimID, userID, userID).
		Count(&count).Error
	return count > 0, err
}

// CompletedBefore returns the IDs of claims completed before the cutoff.
// Used by the retention worker to find conversations due for purging.
func (r *ClaimRepository) CompletedBefore(cutoff time.Time) ([]string, error) {
	var ids []string
	err := r.DB.Model(&models.Claim{}).Unscoped().
		Where("status = ? AND completed_at IS NOT NULL AND completed_at < ?", models.ClaimStatusCompleted, cutoff).
		Pluck("id", &ids).Error
	return ids, err
}
