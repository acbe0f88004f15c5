package businessflow_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	businessflow "github.com/revinity/pacing-targets/business_flow"
	"github.com/revinity/pacing-targets/models"
	apptest "github.com/revinity/pacing-targets/testing"
)

func newImportFixture(t *testing.T) (*apptest.FakePacingTargetRepository, *apptest.FakeTagMasterRepository, *apptest.FakeClientSubgroupRepository, businessflow.ImportFlow) {
	t.Helper()

	targetRepo := apptest.NewFakePacingTargetRepository()
	tagRepo := apptest.NewFakeTagMasterRepository(
		apptest.SeedTag(5, 10, models.TagTypeIDCategory, "Search"),
		apptest.SeedTag(5, 11, models.TagTypeIDSubCategory, "Paid Social"),
		apptest.SeedTag(7, 20, models.TagTypeIDCategory, "Display"),
	)
	clientRepo := apptest.NewFakeClientSubgroupRepository(
		apptest.SeedClient(5, "Acme Retail"),
	)

	flow := businessflow.NewImportFlow(targetRepo, tagRepo, clientRepo, 0)
	return targetRepo, tagRepo, clientRepo, flow
}

func TestValidateCSV(t *testing.T) {
	ctx := context.Background()

	t.Run("valid rows can be imported", func(t *testing.T) {
		_, _, _, flow := newImportFixture(t)

		csv := apptest.NewCSVBuilder().
			Row("5", "10", "Search", "Category", "1", "8", "2025", "1000").
			Row("5", "11", "Paid Social", "Sub Category", "2", "8", "2025", "500.50")

		report, err := flow.ValidateCSV(ctx, csv.Reader())
		require.NoError(t, err)

		assert.Equal(t, "CSV validation successful! You can now import the data.", report.Message)
		assert.Equal(t, 2, report.TotalRows)
		assert.Equal(t, 2, report.ValidRows)
		assert.Equal(t, 0, report.ErrorRows)
		assert.Equal(t, 0, report.EmptyRows)
		assert.Empty(t, report.Errors)
		assert.True(t, report.CanImport)
	})

	t.Run("header-only file validates clean", func(t *testing.T) {
		_, _, _, flow := newImportFixture(t)

		report, err := flow.ValidateCSV(ctx, apptest.NewCSVBuilder().Reader())
		require.NoError(t, err)

		assert.Equal(t, 0, report.TotalRows)
		assert.Equal(t, 0, report.ValidRows)
		assert.True(t, report.CanImport)
	})

	t.Run("empty rows are skipped and counted", func(t *testing.T) {
		_, _, _, flow := newImportFixture(t)

		csv := apptest.NewCSVBuilder().
			Row("5", "10", "Search", "Category", "1", "8", "2025", "1000").
			EmptyRow().
			EmptyRow()

		report, err := flow.ValidateCSV(ctx, csv.Reader())
		require.NoError(t, err)

		assert.Equal(t, 3, report.TotalRows)
		assert.Equal(t, 1, report.ValidRows)
		assert.Equal(t, 2, report.EmptyRows)
		assert.True(t, report.CanImport)
	})

	t.Run("row numbers account for the header", func(t *testing.T) {
		_, _, _, flow := newImportFixture(t)

		csv := apptest.NewCSVBuilder().
			Row("5", "10", "Search", "Category", "1", "8", "2025", "1000").
			Row("bad", "10", "Search", "Category", "1", "8", "2025", "1000")

		report, err := flow.ValidateCSV(ctx, csv.Reader())
		require.NoError(t, err)

		require.Len(t, report.Errors, 1)
		assert.Equal(t, 3, report.Errors[0].Row)
		assert.Equal(t, "INVALID_CLIENT_ID", report.Errors[0].Error)
		assert.False(t, report.CanImport)
	})

	t.Run("missing fields win over later checks", func(t *testing.T) {
		_, _, _, flow := newImportFixture(t)

		csv := apptest.NewCSVBuilder().
			Row("5", "", "Search", "Category", "1", "8", "2025", "1000")

		report, err := flow.ValidateCSV(ctx, csv.Reader())
		require.NoError(t, err)

		require.Len(t, report.Errors, 1)
		assert.Equal(t, "MISSING_FIELDS", report.Errors[0].Error)
	})

	t.Run("account rows do not require a tag id", func(t *testing.T) {
		_, _, _, flow := newImportFixture(t)

		csv := apptest.NewCSVBuilder().
			Row("5", "anything", "Account", "Account", "1", "8", "2025", "1000")

		report, err := flow.ValidateCSV(ctx, csv.Reader())
		require.NoError(t, err)

		assert.Empty(t, report.Errors)
		assert.Equal(t, 1, report.ValidRows)
	})

	t.Run("account rows must be named Account", func(t *testing.T) {
		_, _, _, flow := newImportFixture(t)

		csv := apptest.NewCSVBuilder().
			Row("5", "0", "My Account", "Account", "1", "8", "2025", "1000")

		report, err := flow.ValidateCSV(ctx, csv.Reader())
		require.NoError(t, err)

		require.Len(t, report.Errors, 1)
		assert.Equal(t, "INVALID_ACCOUNT_NAME", report.Errors[0].Error)
	})

	t.Run("channel outside the allow-list is rejected", func(t *testing.T) {
		_, _, _, flow := newImportFixture(t)

		csv := apptest.NewCSVBuilder().
			Row("5", "10", "Search", "Category", "3", "8", "2025", "1000")

		report, err := flow.ValidateCSV(ctx, csv.Reader())
		require.NoError(t, err)

		require.Len(t, report.Errors, 1)
		assert.Equal(t, "INVALID_CHANNEL", report.Errors[0].Error)
		assert.Contains(t, report.Errors[0].Details, "1, 2, 27, 65, 109")
	})

	t.Run("negative spends target is rejected", func(t *testing.T) {
		_, _, _, flow := newImportFixture(t)

		csv := apptest.NewCSVBuilder().
			Row("5", "10", "Search", "Category", "1", "8", "2025", "-1")

		report, err := flow.ValidateCSV(ctx, csv.Reader())
		require.NoError(t, err)

		require.Len(t, report.Errors, 1)
		assert.Equal(t, "INVALID_SPENDS_TARGET", report.Errors[0].Error)
	})

	t.Run("zero spends target is allowed", func(t *testing.T) {
		_, _, _, flow := newImportFixture(t)

		csv := apptest.NewCSVBuilder().
			Row("5", "10", "Search", "Category", "1", "8", "2025", "0")

		report, err := flow.ValidateCSV(ctx, csv.Reader())
		require.NoError(t, err)

		assert.Empty(t, report.Errors)
	})

	t.Run("unknown tag header is rejected", func(t *testing.T) {
		_, _, _, flow := newImportFixture(t)

		csv := apptest.NewCSVBuilder().
			Row("5", "10", "Search", "Brand", "1", "8", "2025", "1000")

		report, err := flow.ValidateCSV(ctx, csv.Reader())
		require.NoError(t, err)

		require.Len(t, report.Errors, 1)
		assert.Equal(t, "INVALID_TAG_HEADER", report.Errors[0].Error)
	})

	t.Run("month outside 1-12 is rejected", func(t *testing.T) {
		_, _, _, flow := newImportFixture(t)

		csv := apptest.NewCSVBuilder().
			Row("5", "10", "Search", "Category", "1", "13", "2025", "1000")

		report, err := flow.ValidateCSV(ctx, csv.Reader())
		require.NoError(t, err)

		require.Len(t, report.Errors, 1)
		assert.Equal(t, "INVALID_MONTH", report.Errors[0].Error)
	})

	t.Run("all intra-file duplicates are flagged", func(t *testing.T) {
		_, _, _, flow := newImportFixture(t)

		csv := apptest.NewCSVBuilder().
			Row("5", "10", "Search", "Category", "1", "8", "2025", "1000").
			Row("5", "10", "Search", "Category", "1", "08", "2025", "2000")

		report, err := flow.ValidateCSV(ctx, csv.Reader())
		require.NoError(t, err)

		// "8" and "08" canonicalize to the same month, so both rows collide
		require.Len(t, report.Errors, 2)
		assert.Equal(t, "DUPLICATE_IN_CSV", report.Errors[0].Error)
		assert.Equal(t, "DUPLICATE_IN_CSV", report.Errors[1].Error)
		assert.Equal(t, 0, report.ValidRows)
	})

	t.Run("account rows collide regardless of raw tag id", func(t *testing.T) {
		_, _, _, flow := newImportFixture(t)

		csv := apptest.NewCSVBuilder().
			Row("5", "1", "Account", "Account", "1", "8", "2025", "1000").
			Row("5", "2", "Account", "Account", "1", "8", "2025", "2000")

		report, err := flow.ValidateCSV(ctx, csv.Reader())
		require.NoError(t, err)

		// Both rows coerce to tag id 0, so they share the uniqueness tuple
		require.Len(t, report.Errors, 2)
		assert.Equal(t, "DUPLICATE_IN_CSV", report.Errors[0].Error)
		assert.Equal(t, "DUPLICATE_IN_CSV", report.Errors[1].Error)
		assert.False(t, report.CanImport)
	})

	t.Run("zero-padded tag ids collide", func(t *testing.T) {
		_, _, _, flow := newImportFixture(t)

		csv := apptest.NewCSVBuilder().
			Row("5", "10", "Search", "Category", "1", "8", "2025", "1000").
			Row("5", "010", "Search", "Category", "1", "8", "2025", "2000")

		report, err := flow.ValidateCSV(ctx, csv.Reader())
		require.NoError(t, err)

		require.Len(t, report.Errors, 2)
		assert.Equal(t, "DUPLICATE_IN_CSV", report.Errors[0].Error)
		assert.Equal(t, "DUPLICATE_IN_CSV", report.Errors[1].Error)
	})

	t.Run("existing target in the store is rejected", func(t *testing.T) {
		targetRepo, _, _, flow := newImportFixture(t)
		targetRepo.Seed(&models.PacingTarget{
			ClientSubgroupID: 5,
			Channel:          1,
			TagType:          models.TagTypeCategory,
			TagID:            10,
			Month:            "2025-08",
		})

		csv := apptest.NewCSVBuilder().
			Row("5", "10", "Search", "Category", "1", "8", "2025", "1000")

		report, err := flow.ValidateCSV(ctx, csv.Reader())
		require.NoError(t, err)

		require.Len(t, report.Errors, 1)
		assert.Equal(t, "ALREADY_EXISTS", report.Errors[0].Error)
		assert.Contains(t, report.Errors[0].Details, "month=2025-08")
	})

	t.Run("unreachable store passes the row with a warning", func(t *testing.T) {
		targetRepo, _, _, flow := newImportFixture(t)
		targetRepo.FailExists = true

		csv := apptest.NewCSVBuilder().
			Row("5", "10", "Search", "Category", "1", "8", "2025", "1000")

		report, err := flow.ValidateCSV(ctx, csv.Reader())
		require.NoError(t, err)

		assert.Empty(t, report.Errors)
		assert.True(t, report.CanImport)
		require.Len(t, report.Warnings, 1)
		assert.Equal(t, "STORE_UNAVAILABLE", report.Warnings[0].Warning)
		assert.Equal(t, 2, report.Warnings[0].Row)
	})

	t.Run("unknown reference tag is rejected", func(t *testing.T) {
		_, _, _, flow := newImportFixture(t)

		csv := apptest.NewCSVBuilder().
			Row("5", "99", "Search", "Category", "1", "8", "2025", "1000")

		report, err := flow.ValidateCSV(ctx, csv.Reader())
		require.NoError(t, err)

		require.Len(t, report.Errors, 1)
		assert.Equal(t, "TAG_NOT_FOUND", report.Errors[0].Error)
	})

	t.Run("reference tag of a non-pacing type is not found", func(t *testing.T) {
		targetRepo := apptest.NewFakePacingTargetRepository()
		tagRepo := apptest.NewFakeTagMasterRepository(
			apptest.SeedTag(5, 30, 3, "Creative"),
		)
		clientRepo := apptest.NewFakeClientSubgroupRepository()
		flow := businessflow.NewImportFlow(targetRepo, tagRepo, clientRepo, 0)

		csv := apptest.NewCSVBuilder().
			Row("5", "30", "Creative", "Category", "1", "8", "2025", "1000")

		report, err := flow.ValidateCSV(ctx, csv.Reader())
		require.NoError(t, err)

		require.Len(t, report.Errors, 1)
		assert.Equal(t, "TAG_NOT_FOUND", report.Errors[0].Error)
	})

	t.Run("tag name mismatch is rejected", func(t *testing.T) {
		_, _, _, flow := newImportFixture(t)

		csv := apptest.NewCSVBuilder().
			Row("5", "10", "Serach", "Category", "1", "8", "2025", "1000")

		report, err := flow.ValidateCSV(ctx, csv.Reader())
		require.NoError(t, err)

		require.Len(t, report.Errors, 1)
		assert.Equal(t, "TAG_NAME_MISMATCH", report.Errors[0].Error)
		assert.Contains(t, report.Errors[0].Details, "'Search'")
	})

	t.Run("tag header mismatch is rejected", func(t *testing.T) {
		_, _, _, flow := newImportFixture(t)

		// Tag 11 is a Sub Category tag
		csv := apptest.NewCSVBuilder().
			Row("5", "11", "Paid Social", "Category", "1", "8", "2025", "1000")

		report, err := flow.ValidateCSV(ctx, csv.Reader())
		require.NoError(t, err)

		require.Len(t, report.Errors, 1)
		assert.Equal(t, "TAG_HEADER_MISMATCH", report.Errors[0].Error)
	})

	t.Run("failing row keeps its raw data", func(t *testing.T) {
		_, _, _, flow := newImportFixture(t)

		csv := apptest.NewCSVBuilder().
			Row("5", "99", "Search", "Category", "1", "8", "2025", "1000")

		report, err := flow.ValidateCSV(ctx, csv.Reader())
		require.NoError(t, err)

		require.Len(t, report.Errors, 1)
		assert.Equal(t, "99", report.Errors[0].Data["tag_id"])
		assert.Equal(t, "5", report.Errors[0].Data["client_subgroup_id"])
	})

	t.Run("row limit aborts parsing", func(t *testing.T) {
		targetRepo := apptest.NewFakePacingTargetRepository()
		tagRepo := apptest.NewFakeTagMasterRepository()
		clientRepo := apptest.NewFakeClientSubgroupRepository()
		flow := businessflow.NewImportFlow(targetRepo, tagRepo, clientRepo, 2)

		csv := apptest.NewCSVBuilder().
			Row("5", "10", "Search", "Category", "1", "8", "2025", "1000").
			Row("5", "10", "Search", "Category", "2", "8", "2025", "1000").
			Row("5", "10", "Search", "Category", "27", "8", "2025", "1000")

		_, err := flow.ValidateCSV(context.Background(), csv.Reader())
		require.Error(t, err)
		assert.True(t, businessflow.IsFileTooLarge(err))
	})

	t.Run("byte order mark on the header is tolerated", func(t *testing.T) {
		_, _, _, flow := newImportFixture(t)

		content := "\uFEFF" + apptest.NewCSVBuilder().
			Row("5", "10", "Search", "Category", "1", "8", "2025", "1000").
			String()

		report, err := flow.ValidateCSV(ctx, strings.NewReader(content))
		require.NoError(t, err)
		assert.Equal(t, 1, report.ValidRows)
	})
}

func TestImportCSV(t *testing.T) {
	ctx := context.Background()
	const userID = "64f1a2b3c4d5e6f7a8b9c0d1"

	t.Run("clean file persists every row", func(t *testing.T) {
		targetRepo, _, _, flow := newImportFixture(t)

		csv := apptest.NewCSVBuilder().
			Row("5", "10", "Search", "Category", "1", "8", "2025", "1000").
			Row("7", "20", "Display", "Category", "2", "9", "2025", "750")

		result, err := flow.ImportCSV(ctx, csv.Reader(), userID)
		require.NoError(t, err)

		assert.Equal(t, "CSV processed successfully", result.Message)
		assert.Equal(t, 2, result.TotalRows)
		assert.Equal(t, 2, result.ValidRows)
		assert.Equal(t, 2, result.SavedTargets)
		assert.Empty(t, result.Errors)

		saved := targetRepo.All()
		require.Len(t, saved, 2)
		assert.Equal(t, "Acme Retail", saved[0].ClientName)
		assert.Equal(t, "2025-08", saved[0].Month)
		assert.True(t, saved[0].Status)
		assert.Equal(t, userID, saved[0].CreatedBy)
		assert.Equal(t, userID, saved[0].ModifiedBy)
		// Client 7 has no reference row, so it gets the fallback name
		assert.Equal(t, "Client 7", saved[1].ClientName)
	})

	t.Run("any invalid row blocks the whole import", func(t *testing.T) {
		targetRepo, _, _, flow := newImportFixture(t)

		csv := apptest.NewCSVBuilder().
			Row("5", "10", "Search", "Category", "1", "8", "2025", "1000").
			Row("5", "99", "Search", "Category", "2", "8", "2025", "1000")

		result, err := flow.ImportCSV(ctx, csv.Reader(), userID)
		require.Error(t, err)
		assert.True(t, businessflow.IsImportBlocked(err))

		require.NotNil(t, result)
		assert.Equal(t, "CSV validation failed. Please fix the errors and try again.", result.Message)
		assert.Equal(t, 0, result.ValidRows)
		assert.Equal(t, 1, result.ErrorRows)
		assert.Equal(t, 0, result.SavedTargets)
		assert.Empty(t, targetRepo.All())
	})

	t.Run("file with only empty rows has no valid data", func(t *testing.T) {
		_, _, _, flow := newImportFixture(t)

		csv := apptest.NewCSVBuilder().EmptyRow().EmptyRow()

		result, err := flow.ImportCSV(ctx, csv.Reader(), userID)
		require.Error(t, err)
		assert.True(t, businessflow.IsNoValidData(err))

		require.NotNil(t, result)
		assert.Equal(t, "No valid data found in CSV", result.Message)
		assert.Equal(t, 0, result.SavedTargets)
	})

	t.Run("store failure reports nothing saved", func(t *testing.T) {
		targetRepo, _, _, flow := newImportFixture(t)
		targetRepo.FailExists = true // uniqueness check degrades to a warning
		targetRepo.FailSave = true

		csv := apptest.NewCSVBuilder().
			Row("5", "10", "Search", "Category", "1", "8", "2025", "1000")

		result, err := flow.ImportCSV(ctx, csv.Reader(), userID)
		require.Error(t, err)
		assert.False(t, businessflow.IsImportBlocked(err))

		require.NotNil(t, result)
		assert.Equal(t, "Error saving data to database", result.Message)
		assert.Equal(t, 1, result.ValidRows)
		assert.Equal(t, 0, result.SavedTargets)
	})

	t.Run("concurrent duplicate surfaces as already exists", func(t *testing.T) {
		targetRepo, _, _, flow := newImportFixture(t)
		targetRepo.FailExists = true // skip the per-row check so the batch write collides
		targetRepo.Seed(&models.PacingTarget{
			ClientSubgroupID: 5,
			Channel:          1,
			TagType:          models.TagTypeCategory,
			TagID:            10,
			Month:            "2025-08",
		})

		csv := apptest.NewCSVBuilder().
			Row("5", "10", "Search", "Category", "1", "8", "2025", "1000")

		result, err := flow.ImportCSV(ctx, csv.Reader(), userID)
		require.Error(t, err)
		assert.True(t, businessflow.IsTargetAlreadyExists(err))
		assert.Equal(t, 0, result.SavedTargets)
	})
}

func TestTemplate(t *testing.T) {
	_, _, _, flow := newImportFixture(t)

	filename, content := flow.Template()
	assert.Equal(t, "pacing-targets-template.csv", filename)
	assert.Equal(t, "client_subgroup_id,tag_id,tag_name,tag_header,channel_id,month,year,spends_target\n", content)
}
