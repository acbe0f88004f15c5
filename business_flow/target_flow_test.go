package businessflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revinity/pacing-targets/app/dto"
	businessflow "github.com/revinity/pacing-targets/business_flow"
	"github.com/revinity/pacing-targets/models"
	apptest "github.com/revinity/pacing-targets/testing"
)

const testUserID = "64f1a2b3c4d5e6f7a8b9c0d1"

func newTargetFixture(t *testing.T) (*apptest.FakePacingTargetRepository, businessflow.TargetFlow) {
	t.Helper()

	targetRepo := apptest.NewFakePacingTargetRepository()
	clientRepo := apptest.NewFakeClientSubgroupRepository(
		apptest.SeedClient(5, "Acme Retail"),
	)
	tagRepo := apptest.NewFakeTagMasterRepository(
		apptest.SeedTag(5, 10, models.TagTypeIDCategory, "Search"),
		apptest.SeedTag(5, 11, models.TagTypeIDSubCategory, "Paid Social"),
	)

	return targetRepo, businessflow.NewTargetFlow(targetRepo, clientRepo, tagRepo)
}

func seedTarget(repo *apptest.FakePacingTargetRepository, clientSubgroupID int64, channel int, tagType string, tagID int64, month, tagName string) *models.PacingTarget {
	target := &models.PacingTarget{
		ClientName:       "Acme Retail",
		ClientSubgroupID: clientSubgroupID,
		TagName:          tagName,
		Channel:          channel,
		TagType:          tagType,
		TagID:            tagID,
		Month:            month,
		SpendsTarget:     1000,
		Status:           true,
	}
	repo.Seed(target)
	return target
}

func TestTargetFlowList(t *testing.T) {
	ctx := context.Background()

	t.Run("newest targets come first", func(t *testing.T) {
		targetRepo, flow := newTargetFixture(t)
		seedTarget(targetRepo, 5, 1, models.TagTypeCategory, 10, "2025-08", "Search")
		seedTarget(targetRepo, 5, 2, models.TagTypeSubCategory, 11, "2025-08", "Paid Social")

		data, err := flow.List(ctx, &dto.ListTargetsRequest{})
		require.NoError(t, err)

		assert.Equal(t, 2, data.Total)
		require.Len(t, data.Targets, 2)
		assert.Equal(t, "Paid Social", data.Targets[0].TagName)
		assert.Equal(t, "Search", data.Targets[1].TagName)
	})

	t.Run("month filter is canonicalized", func(t *testing.T) {
		targetRepo, flow := newTargetFixture(t)
		seedTarget(targetRepo, 5, 1, models.TagTypeCategory, 10, "2025-08", "Search")
		seedTarget(targetRepo, 5, 1, models.TagTypeCategory, 10, "2025-09", "Search")

		data, err := flow.List(ctx, &dto.ListTargetsRequest{Month: "2025-08"})
		require.NoError(t, err)
		assert.Equal(t, 1, data.Total)
		assert.Equal(t, "2025-08", data.Targets[0].Month)
	})

	t.Run("bad month format is rejected", func(t *testing.T) {
		_, flow := newTargetFixture(t)

		_, err := flow.List(ctx, &dto.ListTargetsRequest{Month: "August 2025"})
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidMonthFormat(err))
	})

	t.Run("client filter all matches everything", func(t *testing.T) {
		targetRepo, flow := newTargetFixture(t)
		seedTarget(targetRepo, 5, 1, models.TagTypeCategory, 10, "2025-08", "Search")
		seedTarget(targetRepo, 7, 1, models.TagTypeCategory, 20, "2025-08", "Display")

		data, err := flow.List(ctx, &dto.ListTargetsRequest{ClientSubgroupID: "all"})
		require.NoError(t, err)
		assert.Equal(t, 2, data.Total)
	})

	t.Run("client filter narrows to one subgroup", func(t *testing.T) {
		targetRepo, flow := newTargetFixture(t)
		seedTarget(targetRepo, 5, 1, models.TagTypeCategory, 10, "2025-08", "Search")
		seedTarget(targetRepo, 7, 1, models.TagTypeCategory, 20, "2025-08", "Display")

		data, err := flow.List(ctx, &dto.ListTargetsRequest{ClientSubgroupID: "7"})
		require.NoError(t, err)
		require.Equal(t, 1, data.Total)
		assert.Equal(t, int64(7), data.Targets[0].ClientSubgroupID)
	})

	t.Run("non-numeric client filter is rejected", func(t *testing.T) {
		_, flow := newTargetFixture(t)

		_, err := flow.List(ctx, &dto.ListTargetsRequest{ClientSubgroupID: "acme"})
		require.Error(t, err)
		assert.True(t, businessflow.IsClientNotFound(err))
	})

	t.Run("search matches tag names case-insensitively", func(t *testing.T) {
		targetRepo, flow := newTargetFixture(t)
		seedTarget(targetRepo, 5, 1, models.TagTypeCategory, 10, "2025-08", "Search")
		seedTarget(targetRepo, 5, 2, models.TagTypeSubCategory, 11, "2025-08", "Paid Social")

		data, err := flow.List(ctx, &dto.ListTargetsRequest{Search: "paid"})
		require.NoError(t, err)
		require.Equal(t, 1, data.Total)
		assert.Equal(t, "Paid Social", data.Targets[0].TagName)
	})
}

func TestTargetFlowGet(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the target by id", func(t *testing.T) {
		targetRepo, flow := newTargetFixture(t)
		target := seedTarget(targetRepo, 5, 1, models.TagTypeCategory, 10, "2025-08", "Search")

		got, err := flow.Get(ctx, target.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, target.ID.Hex(), got.ID)
		assert.Equal(t, "Search", got.TagName)
	})

	t.Run("malformed id", func(t *testing.T) {
		_, flow := newTargetFixture(t)

		_, err := flow.Get(ctx, "not-an-object-id")
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidTargetID(err))
	})

	t.Run("unknown id", func(t *testing.T) {
		_, flow := newTargetFixture(t)

		_, err := flow.Get(ctx, "64f1a2b3c4d5e6f7a8b9c0ff")
		require.Error(t, err)
		assert.True(t, businessflow.IsTargetNotFound(err))
	})
}

func TestTargetFlowCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("category target uses the reference tag name", func(t *testing.T) {
		targetRepo, flow := newTargetFixture(t)

		created, err := flow.Create(ctx, &dto.CreateTargetRequest{
			ClientSubgroupID: 5,
			TagName:          "whatever the client typed",
			Channel:          1,
			TagType:          models.TagTypeCategory,
			TagID:            10,
			Month:            "2025-08",
			SpendsTarget:     1000,
		}, testUserID)
		require.NoError(t, err)

		assert.Equal(t, "Search", created.TagName)
		assert.Equal(t, "Acme Retail", created.ClientName)
		assert.True(t, created.Status)
		assert.Equal(t, testUserID, created.CreatedBy)
		require.Len(t, targetRepo.All(), 1)
	})

	t.Run("account target coerces tag id and name", func(t *testing.T) {
		_, flow := newTargetFixture(t)

		created, err := flow.Create(ctx, &dto.CreateTargetRequest{
			ClientSubgroupID: 5,
			TagName:          "ignored",
			Channel:          1,
			TagType:          models.TagTypeAccount,
			TagID:            999,
			Month:            "2025-08",
			SpendsTarget:     1000,
		}, testUserID)
		require.NoError(t, err)

		assert.Equal(t, int64(models.AccountTagID), created.TagID)
		assert.Equal(t, "Account", created.TagName)
	})

	t.Run("invalid tag type", func(t *testing.T) {
		_, flow := newTargetFixture(t)

		_, err := flow.Create(ctx, &dto.CreateTargetRequest{
			ClientSubgroupID: 5, TagName: "Search", Channel: 1,
			TagType: "Brand", TagID: 10, Month: "2025-08", SpendsTarget: 1000,
		}, testUserID)
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidTagType(err))
	})

	t.Run("invalid channel", func(t *testing.T) {
		_, flow := newTargetFixture(t)

		_, err := flow.Create(ctx, &dto.CreateTargetRequest{
			ClientSubgroupID: 5, TagName: "Search", Channel: 3,
			TagType: models.TagTypeCategory, TagID: 10, Month: "2025-08", SpendsTarget: 1000,
		}, testUserID)
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidChannel(err))
	})

	t.Run("invalid month format", func(t *testing.T) {
		_, flow := newTargetFixture(t)

		_, err := flow.Create(ctx, &dto.CreateTargetRequest{
			ClientSubgroupID: 5, TagName: "Search", Channel: 1,
			TagType: models.TagTypeCategory, TagID: 10, Month: "08-2025", SpendsTarget: 1000,
		}, testUserID)
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidMonthFormat(err))
	})

	t.Run("unknown reference tag", func(t *testing.T) {
		_, flow := newTargetFixture(t)

		_, err := flow.Create(ctx, &dto.CreateTargetRequest{
			ClientSubgroupID: 5, TagName: "Search", Channel: 1,
			TagType: models.TagTypeCategory, TagID: 99, Month: "2025-08", SpendsTarget: 1000,
		}, testUserID)
		require.Error(t, err)
		assert.True(t, businessflow.IsTagNotFound(err))
	})

	t.Run("duplicate tuple is rejected", func(t *testing.T) {
		targetRepo, flow := newTargetFixture(t)
		seedTarget(targetRepo, 5, 1, models.TagTypeCategory, 10, "2025-08", "Search")

		_, err := flow.Create(ctx, &dto.CreateTargetRequest{
			ClientSubgroupID: 5, TagName: "Search", Channel: 1,
			TagType: models.TagTypeCategory, TagID: 10, Month: "2025-08", SpendsTarget: 1000,
		}, testUserID)
		require.Error(t, err)
		assert.True(t, businessflow.IsTargetAlreadyExists(err))
	})

	t.Run("unreachable store fails the existence check", func(t *testing.T) {
		targetRepo, flow := newTargetFixture(t)
		targetRepo.FailExists = true

		_, err := flow.Create(ctx, &dto.CreateTargetRequest{
			ClientSubgroupID: 5, TagName: "Search", Channel: 1,
			TagType: models.TagTypeCategory, TagID: 10, Month: "2025-08", SpendsTarget: 1000,
		}, testUserID)
		require.Error(t, err)
		assert.False(t, businessflow.IsTargetAlreadyExists(err))
	})
}

func TestTargetFlowUpdateSpendsTarget(t *testing.T) {
	ctx := context.Background()

	t.Run("updates the spend goal and audit fields", func(t *testing.T) {
		targetRepo, flow := newTargetFixture(t)
		target := seedTarget(targetRepo, 5, 1, models.TagTypeCategory, 10, "2025-08", "Search")

		updated, err := flow.UpdateSpendsTarget(ctx, target.ID.Hex(), &dto.UpdateTargetRequest{SpendsTarget: 2500}, testUserID)
		require.NoError(t, err)

		assert.Equal(t, 2500.0, updated.SpendsTarget)
		assert.Equal(t, testUserID, updated.ModifiedBy)
		assert.False(t, updated.LastModified.IsZero())
	})

	t.Run("unknown target", func(t *testing.T) {
		_, flow := newTargetFixture(t)

		_, err := flow.UpdateSpendsTarget(ctx, "64f1a2b3c4d5e6f7a8b9c0ff", &dto.UpdateTargetRequest{SpendsTarget: 2500}, testUserID)
		require.Error(t, err)
		assert.True(t, businessflow.IsTargetNotFound(err))
	})
}

func TestTargetFlowToggleStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("flips the status both ways", func(t *testing.T) {
		targetRepo, flow := newTargetFixture(t)
		target := seedTarget(targetRepo, 5, 1, models.TagTypeCategory, 10, "2025-08", "Search")

		data, err := flow.ToggleStatus(ctx, target.ID.Hex(), testUserID)
		require.NoError(t, err)
		assert.False(t, data.Status)

		data, err = flow.ToggleStatus(ctx, target.ID.Hex(), testUserID)
		require.NoError(t, err)
		assert.True(t, data.Status)
	})

	t.Run("malformed id", func(t *testing.T) {
		_, flow := newTargetFixture(t)

		_, err := flow.ToggleStatus(ctx, "nope", testUserID)
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidTargetID(err))
	})
}

func TestTargetFlowDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the target", func(t *testing.T) {
		targetRepo, flow := newTargetFixture(t)
		target := seedTarget(targetRepo, 5, 1, models.TagTypeCategory, 10, "2025-08", "Search")

		require.NoError(t, flow.Delete(ctx, target.ID.Hex()))
		assert.Empty(t, targetRepo.All())
	})

	t.Run("unknown target", func(t *testing.T) {
		_, flow := newTargetFixture(t)

		err := flow.Delete(ctx, "64f1a2b3c4d5e6f7a8b9c0ff")
		require.Error(t, err)
		assert.True(t, businessflow.IsTargetNotFound(err))
	})
}

func TestTargetFlowExport(t *testing.T) {
	ctx := context.Background()

	t.Run("produces a dated workbook", func(t *testing.T) {
		targetRepo, flow := newTargetFixture(t)
		seedTarget(targetRepo, 5, 1, models.TagTypeCategory, 10, "2025-08", "Search")

		filename, content, err := flow.Export(ctx, &dto.ListTargetsRequest{})
		require.NoError(t, err)

		assert.Regexp(t, `^pacing-targets-\d{4}-\d{2}-\d{2}\.xlsx$`, filename)
		assert.NotEmpty(t, content)
	})

	t.Run("bad filter fails before rendering", func(t *testing.T) {
		_, flow := newTargetFixture(t)

		_, _, err := flow.Export(ctx, &dto.ListTargetsRequest{Month: "nope"})
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidMonthFormat(err))
	})
}
