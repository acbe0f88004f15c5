package repository

import (
	"context"
	"errors"

	"github.com/revinity/pacing-targets/models"
	"gorm.io/gorm"
)

// ClientSubgroupRepositoryImpl implements ClientSubgroupRepository interface
type ClientSubgroupRepositoryImpl struct {
	*BaseRepository[models.ClientSubgroup, models.ClientSubgroupFilter]
}

// NewClientSubgroupRepository creates a new client subgroup repository
func NewClientSubgroupRepository(db *gorm.DB) ClientSubgroupRepository {
	return &ClientSubgroupRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ClientSubgroup, models.ClientSubgroupFilter](db),
	}
}

// ByID retrieves a client subgroup by its id
func (r *ClientSubgroupRepositoryImpl) ByID(ctx context.Context, id int64) (*models.ClientSubgroup, error) {
	db := r.getDB(ctx)
	var row models.ClientSubgroup
	if err := db.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListAll retrieves every client subgroup ordered by name
func (r *ClientSubgroupRepositoryImpl) ListAll(ctx context.Context) ([]*models.ClientSubgroup, error) {
	db := r.getDB(ctx)
	var rows []*models.ClientSubgroup
	if err := db.Model(&models.ClientSubgroup{}).Order("client_subgroup_name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
