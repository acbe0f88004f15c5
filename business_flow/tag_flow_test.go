package businessflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	businessflow "github.com/revinity/pacing-targets/business_flow"
	"github.com/revinity/pacing-targets/config"
	"github.com/revinity/pacing-targets/models"
	apptest "github.com/revinity/pacing-targets/testing"
)

func newTagFixture(t *testing.T) businessflow.TagFlow {
	t.Helper()

	tagRepo := apptest.NewFakeTagMasterRepository(
		apptest.SeedTag(5, 10, models.TagTypeIDCategory, "Search"),
		apptest.SeedTag(5, 11, models.TagTypeIDSubCategory, "Paid Social"),
		apptest.SeedTag(5, 12, models.TagTypeIDCategory, "Paid Search"),
		apptest.SeedTag(7, 20, models.TagTypeIDCategory, "Display"),
	)
	clientRepo := apptest.NewFakeClientSubgroupRepository(
		apptest.SeedClient(5, "Acme Retail"),
		apptest.SeedClient(7, "Globex Media"),
	)

	// Cache disabled: lookups always hit the repositories
	return businessflow.NewTagFlow(tagRepo, clientRepo, &config.CacheConfig{}, nil)
}

func TestTagFlowClientTags(t *testing.T) {
	flow := newTagFixture(t)

	data, err := flow.ClientTags(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 3, data.Total)
	for _, tag := range data.Tags {
		assert.Equal(t, int64(5), tag.ClientSubgroupID)
	}
}

func TestTagFlowClients(t *testing.T) {
	flow := newTagFixture(t)

	data, err := flow.Clients(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, data.Total)
	assert.Equal(t, "Acme Retail", data.Clients[0].Name)
	assert.Equal(t, "Globex Media", data.Clients[1].Name)
}

func TestTagFlowSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("matches by name substring", func(t *testing.T) {
		flow := newTagFixture(t)

		data, err := flow.Search(ctx, 5, "paid")
		require.NoError(t, err)

		assert.Equal(t, 2, data.Total)
	})

	t.Run("does not leak other clients' tags", func(t *testing.T) {
		flow := newTagFixture(t)

		data, err := flow.Search(ctx, 5, "Display")
		require.NoError(t, err)
		assert.Equal(t, 0, data.Total)
	})

	t.Run("rejects short queries", func(t *testing.T) {
		flow := newTagFixture(t)

		_, err := flow.Search(ctx, 5, " s ")
		require.Error(t, err)
		assert.True(t, businessflow.IsSearchQueryTooShort(err))
	})
}

func TestTagFlowFiltered(t *testing.T) {
	ctx := context.Background()

	t.Run("category tags only", func(t *testing.T) {
		flow := newTagFixture(t)

		data, err := flow.Filtered(ctx, 5, models.TagTypeCategory)
		require.NoError(t, err)

		assert.Equal(t, 2, data.Total)
		for _, tag := range data.Tags {
			assert.Equal(t, "Category", tag.TagHeader)
		}
	})

	t.Run("sub category tags only", func(t *testing.T) {
		flow := newTagFixture(t)

		data, err := flow.Filtered(ctx, 5, models.TagTypeSubCategory)
		require.NoError(t, err)

		require.Equal(t, 1, data.Total)
		assert.Equal(t, "Paid Social", data.Tags[0].TagName)
	})

	t.Run("account type yields one synthetic tag", func(t *testing.T) {
		flow := newTagFixture(t)

		data, err := flow.Filtered(ctx, 5, models.TagTypeAccount)
		require.NoError(t, err)

		require.Equal(t, 1, data.Total)
		assert.Equal(t, int64(models.AccountTagID), data.Tags[0].TagID)
		assert.Equal(t, "Account", data.Tags[0].TagName)
		assert.Equal(t, "Account", data.Tags[0].TagHeader)
	})

	t.Run("unknown tag type", func(t *testing.T) {
		flow := newTagFixture(t)

		_, err := flow.Filtered(ctx, 5, "Brand")
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidTagType(err))
	})
}

func TestTagFlowTagByID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the tag with its header", func(t *testing.T) {
		flow := newTagFixture(t)

		tag, err := flow.TagByID(ctx, 10)
		require.NoError(t, err)

		assert.Equal(t, "Search", tag.TagName)
		assert.Equal(t, "Category", tag.TagHeader)
	})

	t.Run("unknown tag", func(t *testing.T) {
		flow := newTagFixture(t)

		_, err := flow.TagByID(ctx, 404)
		require.Error(t, err)
		assert.True(t, businessflow.IsTagNotFound(err))
	})
}
