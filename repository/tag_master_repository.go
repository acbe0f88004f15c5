package repository

import (
	"context"
	"errors"

	"github.com/revinity/pacing-targets/models"
	"github.com/revinity/pacing-targets/utils"
	"gorm.io/gorm"
)

// TagMasterRepositoryImpl implements TagMasterRepository interface
type TagMasterRepositoryImpl struct {
	*BaseRepository[models.TagMaster, models.TagMasterFilter]
}

// NewTagMasterRepository creates a new tag master repository
func NewTagMasterRepository(db *gorm.DB) TagMasterRepository {
	return &TagMasterRepositoryImpl{
		BaseRepository: NewBaseRepository[models.TagMaster, models.TagMasterFilter](db),
	}
}

// applyFilter applies filter criteria to a GORM query
func (r *TagMasterRepositoryImpl) applyFilter(query *gorm.DB, filter models.TagMasterFilter) *gorm.DB {
	if filter.ClientSubgroupID != nil {
		query = query.Where("client_subgroup_id = ?", *filter.ClientSubgroupID)
	}
	if filter.TagID != nil {
		query = query.Where("tag_id = ?", *filter.TagID)
	}
	if filter.TagTypeID != nil {
		query = query.Where("tag_type_id = ?", *filter.TagTypeID)
	}
	if len(filter.TagTypeIDs) > 0 {
		query = query.Where("tag_type_id IN ?", filter.TagTypeIDs)
	}
	if filter.TagName != nil {
		query = query.Where("tag_name = ?", *filter.TagName)
	}
	if filter.NameContains != nil {
		query = query.Where("tag_name ILIKE ?", "%"+*filter.NameContains+"%")
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	return query
}

// ByFilter retrieves tag master rows based on filter criteria
func (r *TagMasterRepositoryImpl) ByFilter(ctx context.Context, filter models.TagMasterFilter, orderBy string, limit, offset int) ([]*models.TagMaster, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.TagMaster{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "tag_type_id, tag_name"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.TagMaster
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of tag master rows matching the filter
func (r *TagMasterRepositoryImpl) Count(ctx context.Context, filter models.TagMasterFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.TagMaster{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ActiveTag retrieves an active Category or Sub Category tag by client
// subgroup and tag id. Rows with other type ids are not pacing tags.
func (r *TagMasterRepositoryImpl) ActiveTag(ctx context.Context, clientSubgroupID, tagID int64) (*models.TagMaster, error) {
	db := r.getDB(ctx)
	var row models.TagMaster
	err := db.Where("client_subgroup_id = ? AND tag_id = ? AND tag_type_id IN ? AND is_active = ?",
		clientSubgroupID, tagID, []int{models.TagTypeIDCategory, models.TagTypeIDSubCategory}, true).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ActiveTagByID retrieves an active tag by tag id alone
func (r *TagMasterRepositoryImpl) ActiveTagByID(ctx context.Context, tagID int64) (*models.TagMaster, error) {
	db := r.getDB(ctx)
	var row models.TagMaster
	err := db.Where("tag_id = ? AND is_active = ?", tagID, true).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListActiveByClient retrieves active tags for a client subgroup, optionally
// restricted to the given tag type ids
func (r *TagMasterRepositoryImpl) ListActiveByClient(ctx context.Context, clientSubgroupID int64, tagTypeIDs []int) ([]*models.TagMaster, error) {
	if len(tagTypeIDs) == 0 {
		tagTypeIDs = []int{models.TagTypeIDCategory, models.TagTypeIDSubCategory}
	}
	filter := models.TagMasterFilter{
		ClientSubgroupID: &clientSubgroupID,
		TagTypeIDs:       tagTypeIDs,
		IsActive:         utils.ToPtr(true),
	}
	return r.ByFilter(ctx, filter, "", 0, 0)
}

// SearchByName retrieves active tags whose name contains the query, case-insensitively
func (r *TagMasterRepositoryImpl) SearchByName(ctx context.Context, clientSubgroupID int64, query string, limit int) ([]*models.TagMaster, error) {
	filter := models.TagMasterFilter{
		ClientSubgroupID: &clientSubgroupID,
		TagTypeIDs:       []int{models.TagTypeIDCategory, models.TagTypeIDSubCategory},
		NameContains:     &query,
		IsActive:         utils.ToPtr(true),
	}
	return r.ByFilter(ctx, filter, "", limit, 0)
}
