package repositories

import (
	"gorm.io/gorm"

	"github.com/hanneswrnr/glasschadenmelden/internal/models"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// GetByID returns one user by ID.
func (r *UserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	err := r.DB.First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIDs returns all users for the given ID set in one query.
func (r *UserRepository) GetByIDs(ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.DB.Where("id IN ?", ids).Find(&users).Error
	return users, err
}
