// Package businessflow contains the core business logic and use cases for reference data lookups
package businessflow

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/revinity/pacing-targets/app/dto"
	"github.com/revinity/pacing-targets/config"
	"github.com/revinity/pacing-targets/models"
	"github.com/revinity/pacing-targets/repository"
	"github.com/revinity/pacing-targets/utils"
)

// Tag search constraints
const (
	MinSearchQueryLength = 2
	SearchResultLimit    = 20
)

// TagFlow provides use cases for browsing the reference tag and client data
type TagFlow interface {
	ClientTags(ctx context.Context, clientSubgroupID int64) (*dto.TagListData, error)
	Clients(ctx context.Context) (*dto.ClientListData, error)
	Search(ctx context.Context, clientSubgroupID int64, query string) (*dto.TagListData, error)
	Filtered(ctx context.Context, clientSubgroupID int64, tagType string) (*dto.TagListData, error)
	TagByID(ctx context.Context, tagID int64) (*dto.TagDTO, error)
}

// TagFlowImpl implements the tag lookup business flow
type TagFlowImpl struct {
	tagRepo     repository.TagMasterRepository
	clientRepo  repository.ClientSubgroupRepository
	cacheConfig *config.CacheConfig
	rc          *redis.Client
}

// NewTagFlow creates a new tag flow instance
func NewTagFlow(
	tagRepo repository.TagMasterRepository,
	clientRepo repository.ClientSubgroupRepository,
	cacheConfig *config.CacheConfig,
	rc *redis.Client,
) TagFlow {
	return &TagFlowImpl{
		tagRepo:     tagRepo,
		clientRepo:  clientRepo,
		cacheConfig: cacheConfig,
		rc:          rc,
	}
}

// ClientTags returns the active Category and Sub Category tags of a client
func (tf *TagFlowImpl) ClientTags(ctx context.Context, clientSubgroupID int64) (*dto.TagListData, error) {
	tags, err := tf.tagRepo.ListActiveByClient(ctx, clientSubgroupID, nil)
	if err != nil {
		return nil, NewBusinessError("LIST_TAGS_FAILED", "Failed to list tags for client", err)
	}

	return toTagListData(tags), nil
}

// Clients returns all client subgroups, served from cache when possible
func (tf *TagFlowImpl) Clients(ctx context.Context) (*dto.ClientListData, error) {
	cacheKey := redisKey(*tf.cacheConfig, utils.ClientListCacheKey)

	if tf.cacheEnabled() {
		if bs, err := tf.rc.Get(ctx, cacheKey).Bytes(); err == nil && len(bs) > 0 {
			var out dto.ClientListData
			if err := json.Unmarshal(bs, &out); err == nil {
				return &out, nil
			}
		}
	}

	clients, err := tf.clientRepo.ListAll(ctx)
	if err != nil {
		return nil, NewBusinessError("LIST_CLIENTS_FAILED", "Failed to list clients", err)
	}

	items := make([]dto.ClientDTO, 0, len(clients))
	for _, c := range clients {
		items = append(items, ToClientDTO(*c))
	}
	out := &dto.ClientListData{Clients: items, Total: len(items)}

	if tf.cacheEnabled() {
		if bs, err := json.Marshal(out); err == nil {
			_ = tf.rc.Set(ctx, cacheKey, bs, tf.cacheConfig.DefaultTTL).Err()
		}
	}

	return out, nil
}

// Search finds active tags of a client by case-insensitive name substring
func (tf *TagFlowImpl) Search(ctx context.Context, clientSubgroupID int64, query string) (*dto.TagListData, error) {
	query = strings.TrimSpace(query)
	if len(query) < MinSearchQueryLength {
		return nil, NewBusinessError("SEARCH_QUERY_TOO_SHORT", "Search query must be at least 2 characters", ErrSearchQueryTooShort)
	}

	tags, err := tf.tagRepo.SearchByName(ctx, clientSubgroupID, query, SearchResultLimit)
	if err != nil {
		return nil, NewBusinessError("SEARCH_TAGS_FAILED", "Failed to search tags", err)
	}

	return toTagListData(tags), nil
}

// Filtered returns a client's tags of one tag type. The Account type has
// no backing reference rows, so it yields a single synthetic entry.
func (tf *TagFlowImpl) Filtered(ctx context.Context, clientSubgroupID int64, tagType string) (*dto.TagListData, error) {
	if !models.IsValidTagType(tagType) {
		return nil, NewBusinessError("INVALID_TAG_TYPE", "Invalid tag type", ErrInvalidTagType)
	}

	if tagType == models.TagTypeAccount {
		account := dto.TagDTO{
			ClientSubgroupID: clientSubgroupID,
			TagID:            models.AccountTagID,
			TagName:          models.TagTypeAccount,
			TagHeader:        models.TagTypeAccount,
		}
		return &dto.TagListData{Tags: []dto.TagDTO{account}, Total: 1}, nil
	}

	typeID := models.TagTypeIDCategory
	if tagType == models.TagTypeSubCategory {
		typeID = models.TagTypeIDSubCategory
	}

	tags, err := tf.tagRepo.ListActiveByClient(ctx, clientSubgroupID, []int{typeID})
	if err != nil {
		return nil, NewBusinessError("LIST_TAGS_FAILED", "Failed to list tags for client", err)
	}

	return toTagListData(tags), nil
}

// TagByID returns a single active tag regardless of client
func (tf *TagFlowImpl) TagByID(ctx context.Context, tagID int64) (*dto.TagDTO, error) {
	tag, err := tf.tagRepo.ActiveTagByID(ctx, tagID)
	if err != nil {
		return nil, NewBusinessError("GET_TAG_FAILED", "Failed to get tag", err)
	}
	if tag == nil {
		return nil, NewBusinessError("TAG_NOT_FOUND", "Tag not found", ErrTagNotFound)
	}

	result := ToTagDTO(*tag)
	return &result, nil
}

func (tf *TagFlowImpl) cacheEnabled() bool {
	return tf.rc != nil && tf.cacheConfig != nil && tf.cacheConfig.Enabled
}

func toTagListData(tags []*models.TagMaster) *dto.TagListData {
	items := make([]dto.TagDTO, 0, len(tags))
	for _, t := range tags {
		items = append(items, ToTagDTO(*t))
	}
	return &dto.TagListData{Tags: items, Total: len(items)}
}

// redisKey prefixes a cache key with the configured namespace.
func redisKey(cfg config.CacheConfig, key string) string {
	return cfg.RedisPrefix + key
}
