// Package businessflow contains the core business logic and use cases for pacing target management
package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/revinity/pacing-targets/app/dto"
	"github.com/revinity/pacing-targets/models"
	"github.com/revinity/pacing-targets/repository"
	"github.com/revinity/pacing-targets/utils"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// TargetFlow provides use cases for managing pacing targets
type TargetFlow interface {
	List(ctx context.Context, request *dto.ListTargetsRequest) (*dto.ListTargetsData, error)
	Get(ctx context.Context, id string) (*dto.PacingTargetDTO, error)
	Create(ctx context.Context, request *dto.CreateTargetRequest, userID string) (*dto.PacingTargetDTO, error)
	UpdateSpendsTarget(ctx context.Context, id string, request *dto.UpdateTargetRequest, userID string) (*dto.PacingTargetDTO, error)
	ToggleStatus(ctx context.Context, id string, userID string) (*dto.ToggleStatusData, error)
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context, request *dto.ListTargetsRequest) (filename string, content []byte, err error)
}

// TargetFlowImpl implements the target business flow
type TargetFlowImpl struct {
	targetRepo repository.PacingTargetRepository
	clientRepo repository.ClientSubgroupRepository
	tagRepo    repository.TagMasterRepository
}

// NewTargetFlow creates a new target flow instance
func NewTargetFlow(
	targetRepo repository.PacingTargetRepository,
	clientRepo repository.ClientSubgroupRepository,
	tagRepo repository.TagMasterRepository,
) TargetFlow {
	return &TargetFlowImpl{
		targetRepo: targetRepo,
		clientRepo: clientRepo,
		tagRepo:    tagRepo,
	}
}

// List returns targets matching the request filters, newest first
func (tf *TargetFlowImpl) List(ctx context.Context, request *dto.ListTargetsRequest) (*dto.ListTargetsData, error) {
	filter, err := tf.buildFilter(request)
	if err != nil {
		return nil, err
	}

	targets, err := tf.targetRepo.ByFilter(ctx, *filter, "createdAt DESC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_TARGETS_FAILED", "Failed to list targets", err)
	}

	items := make([]dto.PacingTargetDTO, 0, len(targets))
	for _, t := range targets {
		items = append(items, ToPacingTargetDTO(*t))
	}

	return &dto.ListTargetsData{Targets: items, Total: len(items)}, nil
}

// Get returns a single target by id
func (tf *TargetFlowImpl) Get(ctx context.Context, id string) (*dto.PacingTargetDTO, error) {
	objectID, err := bson.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, NewBusinessError("INVALID_TARGET_ID", "Invalid target id", ErrInvalidTargetID)
	}

	target, err := tf.targetRepo.ByID(ctx, objectID)
	if err != nil {
		return nil, NewBusinessError("GET_TARGET_FAILED", "Failed to get target", err)
	}
	if target == nil {
		return nil, NewBusinessError("TARGET_NOT_FOUND", "Target not found", ErrTargetNotFound)
	}

	result := ToPacingTargetDTO(*target)
	return &result, nil
}

// Create inserts a new target after checking the uniqueness tuple
func (tf *TargetFlowImpl) Create(ctx context.Context, request *dto.CreateTargetRequest, userID string) (*dto.PacingTargetDTO, error) {
	if !models.IsValidTagType(request.TagType) {
		return nil, NewBusinessError("INVALID_TAG_TYPE", "Invalid tag type", ErrInvalidTagType)
	}
	if !models.IsValidChannel(request.Channel) {
		return nil, NewBusinessError("INVALID_CHANNEL", fmt.Sprintf("Channel must be one of %v", models.ValidChannels), ErrInvalidChannel)
	}

	month, err := canonicalizeMonth(request.Month)
	if err != nil {
		return nil, NewBusinessError("INVALID_MONTH_FORMAT", "Month must be in YYYY-MM format", ErrInvalidMonthFormat)
	}

	tagID := request.TagID
	tagName := strings.TrimSpace(request.TagName)
	if request.TagType == models.TagTypeAccount {
		tagID = models.AccountTagID
		tagName = models.TagTypeAccount
	} else {
		// Category and Sub Category targets must match an active reference tag
		tag, err := tf.tagRepo.ActiveTag(ctx, request.ClientSubgroupID, tagID)
		if err != nil {
			return nil, NewBusinessError("CREATE_TARGET_FAILED", "Failed to verify reference tag", err)
		}
		if tag == nil {
			return nil, NewBusinessError("TAG_NOT_FOUND", "Tag not found for client", ErrTagNotFound)
		}
		tagName = tag.TagName
	}

	key := models.UniquenessKey{
		ClientSubgroupID: request.ClientSubgroupID,
		Channel:          request.Channel,
		TagType:          request.TagType,
		TagID:            tagID,
		Month:            month,
	}

	exists, err := tf.targetRepo.ExistsByKey(ctx, key)
	if err != nil {
		return nil, NewBusinessError("CREATE_TARGET_FAILED", "Failed to check for existing target", err)
	}
	if exists {
		return nil, NewBusinessError("TARGET_ALREADY_EXISTS", "A target already exists for this client, channel, tag and month", ErrTargetAlreadyExists)
	}

	status := true
	if request.Status != nil {
		status = *request.Status
	}

	target := &models.PacingTarget{
		ClientName:       tf.resolveClientName(ctx, request.ClientSubgroupID),
		ClientSubgroupID: request.ClientSubgroupID,
		TagName:          tagName,
		Channel:          request.Channel,
		TagType:          request.TagType,
		TagID:            tagID,
		Month:            month,
		SpendsTarget:     request.SpendsTarget,
		Status:           status,
		CreatedBy:        userID,
		ModifiedBy:       userID,
		LastModified:     utils.UTCNow(),
	}

	if err := tf.targetRepo.Save(ctx, target); err != nil {
		// The unique index closes the race between the existence check
		// and the insert.
		if repository.IsDuplicateKey(err) {
			return nil, NewBusinessError("TARGET_ALREADY_EXISTS", "A target already exists for this client, channel, tag and month", ErrTargetAlreadyExists)
		}
		return nil, NewBusinessError("CREATE_TARGET_FAILED", "Failed to create target", err)
	}

	result := ToPacingTargetDTO(*target)
	return &result, nil
}

// UpdateSpendsTarget updates the spend goal of an existing target
func (tf *TargetFlowImpl) UpdateSpendsTarget(ctx context.Context, id string, request *dto.UpdateTargetRequest, userID string) (*dto.PacingTargetDTO, error) {
	target, err := tf.load(ctx, id)
	if err != nil {
		return nil, err
	}

	target.SpendsTarget = request.SpendsTarget
	target.ModifiedBy = userID
	target.LastModified = utils.UTCNow()

	if err := tf.targetRepo.Update(ctx, target); err != nil {
		return nil, NewBusinessError("UPDATE_TARGET_FAILED", "Failed to update target", err)
	}

	result := ToPacingTargetDTO(*target)
	return &result, nil
}

// ToggleStatus flips the enabled flag of a target
func (tf *TargetFlowImpl) ToggleStatus(ctx context.Context, id string, userID string) (*dto.ToggleStatusData, error) {
	target, err := tf.load(ctx, id)
	if err != nil {
		return nil, err
	}

	target.Status = !target.Status
	target.ModifiedBy = userID
	target.LastModified = utils.UTCNow()

	if err := tf.targetRepo.Update(ctx, target); err != nil {
		return nil, NewBusinessError("TOGGLE_STATUS_FAILED", "Failed to toggle target status", err)
	}

	return &dto.ToggleStatusData{ID: target.ID.Hex(), Status: target.Status}, nil
}

// Delete removes a target
func (tf *TargetFlowImpl) Delete(ctx context.Context, id string) error {
	target, err := tf.load(ctx, id)
	if err != nil {
		return err
	}

	if err := tf.targetRepo.Delete(ctx, target.ID); err != nil {
		return NewBusinessError("DELETE_TARGET_FAILED", "Failed to delete target", err)
	}

	return nil
}

// Export renders the filtered target list as an XLSX workbook
func (tf *TargetFlowImpl) Export(ctx context.Context, request *dto.ListTargetsRequest) (string, []byte, error) {
	filter, err := tf.buildFilter(request)
	if err != nil {
		return "", nil, err
	}

	targets, err := tf.targetRepo.ByFilter(ctx, *filter, "createdAt DESC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_TARGETS_FAILED", "Failed to fetch targets for export", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := xl.GetSheetName(0)
	header := []string{"client_name", "client_subgroup_id", "tag_name", "tag_header", "channel", "tag_id", "month", "spends_target", "status", "last_modified"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for ri, t := range targets {
		record := []string{
			t.ClientName,
			strconv.FormatInt(t.ClientSubgroupID, 10),
			t.TagName,
			t.TagType,
			strconv.Itoa(t.Channel),
			strconv.FormatInt(t.TagID, 10),
			t.Month,
			strconv.FormatFloat(t.SpendsTarget, 'f', -1, 64),
			strconv.FormatBool(t.Status),
			t.LastModified.UTC().Format(time.RFC3339),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}

	filename := fmt.Sprintf("pacing-targets-%s.xlsx", utils.UTCNow().Format("2006-01-02"))
	return filename, buf.Bytes(), nil
}

func (tf *TargetFlowImpl) load(ctx context.Context, id string) (*models.PacingTarget, error) {
	objectID, err := bson.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, NewBusinessError("INVALID_TARGET_ID", "Invalid target id", ErrInvalidTargetID)
	}

	target, err := tf.targetRepo.ByID(ctx, objectID)
	if err != nil {
		return nil, NewBusinessError("GET_TARGET_FAILED", "Failed to get target", err)
	}
	if target == nil {
		return nil, NewBusinessError("TARGET_NOT_FOUND", "Target not found", ErrTargetNotFound)
	}

	return target, nil
}

func (tf *TargetFlowImpl) buildFilter(request *dto.ListTargetsRequest) (*models.PacingTargetFilter, error) {
	filter := &models.PacingTargetFilter{}

	if month := strings.TrimSpace(request.Month); month != "" {
		canonical, err := canonicalizeMonth(month)
		if err != nil {
			return nil, NewBusinessError("INVALID_MONTH_FORMAT", "Month must be in YYYY-MM format", ErrInvalidMonthFormat)
		}
		filter.Month = &canonical
	}

	// "all" disables the client filter
	if raw := strings.TrimSpace(request.ClientSubgroupID); raw != "" && raw != "all" {
		clientID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, NewBusinessError("INVALID_CLIENT_ID", "Client subgroup id must be an integer", ErrClientNotFound)
		}
		filter.ClientSubgroupID = &clientID
	}

	if search := strings.TrimSpace(request.Search); search != "" {
		filter.Search = &search
	}

	return filter, nil
}

func (tf *TargetFlowImpl) resolveClientName(ctx context.Context, clientSubgroupID int64) string {
	client, err := tf.clientRepo.ByID(ctx, clientSubgroupID)
	if err != nil || client == nil {
		return fmt.Sprintf("Client %d", clientSubgroupID)
	}
	return client.ClientSubgroupName
}

// canonicalizeMonth validates a "YYYY-MM" string and returns it in
// canonical zero-padded form.
func canonicalizeMonth(month string) (string, error) {
	parsed, err := time.Parse(utils.MonthLayout, strings.TrimSpace(month))
	if err != nil {
		return "", err
	}
	return parsed.Format(utils.MonthLayout), nil
}
