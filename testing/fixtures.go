// Package testing provides in-memory repository fakes and data builders for testing the pacing targets service
package testing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/revinity/pacing-targets/models"
	"github.com/revinity/pacing-targets/repository"
	"github.com/revinity/pacing-targets/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// FakePacingTargetRepository is an in-memory PacingTargetRepository. It
// enforces the same uniqueness tuple as the real unique index, so duplicate
// writes surface repository.ErrDuplicateKey the way the store would.
type FakePacingTargetRepository struct {
	mu      sync.Mutex
	targets []*models.PacingTarget

	// FailExists makes ExistsByKey return an error, simulating an
	// unreachable store during the per-row uniqueness check.
	FailExists bool
	// FailSave makes Save and SaveBatch return a non-duplicate error.
	FailSave bool
}

// NewFakePacingTargetRepository creates an empty in-memory target repository
func NewFakePacingTargetRepository() *FakePacingTargetRepository {
	return &FakePacingTargetRepository{}
}

// Seed inserts targets without uniqueness checks
func (f *FakePacingTargetRepository) Seed(targets ...*models.PacingTarget) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range targets {
		if t.ID.IsZero() {
			t.ID = bson.NewObjectID()
		}
		f.targets = append(f.targets, t)
	}
}

// All returns a copy of the stored targets
func (f *FakePacingTargetRepository) All() []*models.PacingTarget {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.PacingTarget, len(f.targets))
	copy(out, f.targets)
	return out
}

func (f *FakePacingTargetRepository) matches(t *models.PacingTarget, filter models.PacingTargetFilter) bool {
	if filter.ID != nil && t.ID != *filter.ID {
		return false
	}
	if filter.ClientSubgroupID != nil && t.ClientSubgroupID != *filter.ClientSubgroupID {
		return false
	}
	if filter.Channel != nil && t.Channel != *filter.Channel {
		return false
	}
	if filter.TagType != nil && t.TagType != *filter.TagType {
		return false
	}
	if filter.TagID != nil && t.TagID != *filter.TagID {
		return false
	}
	if filter.Month != nil && t.Month != *filter.Month {
		return false
	}
	if filter.Status != nil && t.Status != *filter.Status {
		return false
	}
	if filter.Search != nil && !strings.Contains(strings.ToLower(t.TagName), strings.ToLower(*filter.Search)) {
		return false
	}
	return true
}

// ByFilter retrieves pacing targets based on filter criteria, newest first
func (f *FakePacingTargetRepository) ByFilter(_ context.Context, filter models.PacingTargetFilter, _ string, limit, offset int) ([]*models.PacingTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var rows []*models.PacingTarget
	for i := len(f.targets) - 1; i >= 0; i-- {
		if f.matches(f.targets[i], filter) {
			rows = append(rows, f.targets[i])
		}
	}
	if offset > 0 {
		if offset >= len(rows) {
			return nil, nil
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, nil
}

// ByID retrieves a pacing target by its id
func (f *FakePacingTargetRepository) ByID(_ context.Context, id bson.ObjectID) (*models.PacingTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.targets {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

// Save inserts a new pacing target, enforcing the uniqueness tuple
func (f *FakePacingTargetRepository) Save(_ context.Context, target *models.PacingTarget) error {
	if f.FailSave {
		return errors.New("store unavailable")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.targets {
		if t.Key() == target.Key() {
			return fmt.Errorf("pacing target already exists: %w", repository.ErrDuplicateKey)
		}
	}
	if target.ID.IsZero() {
		target.ID = bson.NewObjectID()
	}
	now := utils.UTCNow()
	if target.CreatedAt.IsZero() {
		target.CreatedAt = now
	}
	target.UpdatedAt = now
	if target.LastModified.IsZero() {
		target.LastModified = now
	}
	f.targets = append(f.targets, target)
	return nil
}

// SaveBatch inserts multiple pacing targets, all or nothing
func (f *FakePacingTargetRepository) SaveBatch(_ context.Context, targets []*models.PacingTarget) error {
	if f.FailSave {
		return errors.New("store unavailable")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[models.UniquenessKey]bool, len(f.targets)+len(targets))
	for _, t := range f.targets {
		seen[t.Key()] = true
	}
	for _, t := range targets {
		if seen[t.Key()] {
			return fmt.Errorf("pacing target batch collided with existing target: %w", repository.ErrDuplicateKey)
		}
		seen[t.Key()] = true
	}

	now := utils.UTCNow()
	for _, t := range targets {
		if t.ID.IsZero() {
			t.ID = bson.NewObjectID()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		t.UpdatedAt = now
		if t.LastModified.IsZero() {
			t.LastModified = now
		}
		f.targets = append(f.targets, t)
	}
	return nil
}

// Count returns the number of pacing targets matching the filter
func (f *FakePacingTargetRepository) Count(ctx context.Context, filter models.PacingTargetFilter) (int64, error) {
	rows, err := f.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

// Exists checks if any pacing target matching the filter exists
func (f *FakePacingTargetRepository) Exists(ctx context.Context, filter models.PacingTargetFilter) (bool, error) {
	c, err := f.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// ExistsByKey checks whether a target with the given uniqueness tuple exists
func (f *FakePacingTargetRepository) ExistsByKey(_ context.Context, key models.UniquenessKey) (bool, error) {
	if f.FailExists {
		return false, errors.New("store unavailable")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.targets {
		if t.Key() == key {
			return true, nil
		}
	}
	return false, nil
}

// Update replaces a pacing target document by id
func (f *FakePacingTargetRepository) Update(_ context.Context, target *models.PacingTarget) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.targets {
		if t.ID == target.ID {
			target.UpdatedAt = utils.UTCNow()
			f.targets[i] = target
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

// Delete removes a pacing target by id
func (f *FakePacingTargetRepository) Delete(_ context.Context, id bson.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.targets {
		if t.ID == id {
			f.targets = append(f.targets[:i], f.targets[i+1:]...)
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

// EnsureIndexes is a no-op for the in-memory fake
func (f *FakePacingTargetRepository) EnsureIndexes(context.Context) error { return nil }

// FakeTagMasterRepository is an in-memory TagMasterRepository seeded with
// reference tag rows.
type FakeTagMasterRepository struct {
	Tags []*models.TagMaster

	// FailLookups makes every query return an error
	FailLookups bool
}

// NewFakeTagMasterRepository creates a tag repository seeded with the given rows
func NewFakeTagMasterRepository(tags ...*models.TagMaster) *FakeTagMasterRepository {
	return &FakeTagMasterRepository{Tags: tags}
}

func (f *FakeTagMasterRepository) matchesTag(t *models.TagMaster, filter models.TagMasterFilter) bool {
	if filter.ClientSubgroupID != nil && t.ClientSubgroupID != *filter.ClientSubgroupID {
		return false
	}
	if filter.TagID != nil && t.TagID != *filter.TagID {
		return false
	}
	if filter.TagTypeID != nil && t.TagTypeID != *filter.TagTypeID {
		return false
	}
	if len(filter.TagTypeIDs) > 0 {
		found := false
		for _, id := range filter.TagTypeIDs {
			if t.TagTypeID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.TagName != nil && t.TagName != *filter.TagName {
		return false
	}
	if filter.NameContains != nil && !strings.Contains(strings.ToLower(t.TagName), strings.ToLower(*filter.NameContains)) {
		return false
	}
	if filter.IsActive != nil && t.IsActive != *filter.IsActive {
		return false
	}
	return true
}

// ByFilter retrieves tag master rows based on filter criteria
func (f *FakeTagMasterRepository) ByFilter(_ context.Context, filter models.TagMasterFilter, _ string, limit, offset int) ([]*models.TagMaster, error) {
	if f.FailLookups {
		return nil, errors.New("reference store unavailable")
	}

	var rows []*models.TagMaster
	for _, t := range f.Tags {
		if f.matchesTag(t, filter) {
			rows = append(rows, t)
		}
	}
	if offset > 0 {
		if offset >= len(rows) {
			return nil, nil
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, nil
}

// Count returns the number of tag master rows matching the filter
func (f *FakeTagMasterRepository) Count(ctx context.Context, filter models.TagMasterFilter) (int64, error) {
	rows, err := f.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

// ActiveTag retrieves an active Category or Sub Category tag by client
// subgroup and tag id
func (f *FakeTagMasterRepository) ActiveTag(ctx context.Context, clientSubgroupID, tagID int64) (*models.TagMaster, error) {
	rows, err := f.ByFilter(ctx, models.TagMasterFilter{
		ClientSubgroupID: &clientSubgroupID,
		TagID:            &tagID,
		TagTypeIDs:       []int{models.TagTypeIDCategory, models.TagTypeIDSubCategory},
		IsActive:         utils.ToPtr(true),
	}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ActiveTagByID retrieves an active tag by tag id alone
func (f *FakeTagMasterRepository) ActiveTagByID(ctx context.Context, tagID int64) (*models.TagMaster, error) {
	rows, err := f.ByFilter(ctx, models.TagMasterFilter{
		TagID:    &tagID,
		IsActive: utils.ToPtr(true),
	}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ListActiveByClient retrieves active tags of the given types for a client subgroup
func (f *FakeTagMasterRepository) ListActiveByClient(ctx context.Context, clientSubgroupID int64, tagTypeIDs []int) ([]*models.TagMaster, error) {
	return f.ByFilter(ctx, models.TagMasterFilter{
		ClientSubgroupID: &clientSubgroupID,
		TagTypeIDs:       tagTypeIDs,
		IsActive:         utils.ToPtr(true),
	}, "", 0, 0)
}

// SearchByName finds active tags whose name contains the query
func (f *FakeTagMasterRepository) SearchByName(ctx context.Context, clientSubgroupID int64, query string, limit int) ([]*models.TagMaster, error) {
	return f.ByFilter(ctx, models.TagMasterFilter{
		ClientSubgroupID: &clientSubgroupID,
		NameContains:     &query,
		IsActive:         utils.ToPtr(true),
	}, "", limit, 0)
}

// FakeClientSubgroupRepository is an in-memory ClientSubgroupRepository
type FakeClientSubgroupRepository struct {
	Clients []*models.ClientSubgroup

	// FailLookups makes every query return an error
	FailLookups bool
}

// NewFakeClientSubgroupRepository creates a client repository seeded with the given rows
func NewFakeClientSubgroupRepository(clients ...*models.ClientSubgroup) *FakeClientSubgroupRepository {
	return &FakeClientSubgroupRepository{Clients: clients}
}

// ByID retrieves a client subgroup by its id
func (f *FakeClientSubgroupRepository) ByID(_ context.Context, id int64) (*models.ClientSubgroup, error) {
	if f.FailLookups {
		return nil, errors.New("reference store unavailable")
	}
	for _, c := range f.Clients {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

// ListAll retrieves every client subgroup
func (f *FakeClientSubgroupRepository) ListAll(_ context.Context) ([]*models.ClientSubgroup, error) {
	if f.FailLookups {
		return nil, errors.New("reference store unavailable")
	}
	return f.Clients, nil
}

// FakeUserRepository is an in-memory UserRepository enforcing username and
// email uniqueness.
type FakeUserRepository struct {
	mu    sync.Mutex
	users []*models.User
}

// NewFakeUserRepository creates an empty in-memory user repository
func NewFakeUserRepository() *FakeUserRepository {
	return &FakeUserRepository{}
}

// ByID retrieves a user by id
func (f *FakeUserRepository) ByID(_ context.Context, id bson.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

// ByUsername retrieves a user by username
func (f *FakeUserRepository) ByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

// ByUsernameOrEmail retrieves a user matching either the username or the email
func (f *FakeUserRepository) ByUsernameOrEmail(_ context.Context, username, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username || u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

// Save inserts a new user, enforcing username and email uniqueness
func (f *FakeUserRepository) Save(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return fmt.Errorf("user already exists: %w", repository.ErrDuplicateKey)
		}
	}
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	now := utils.UTCNow()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	f.users = append(f.users, user)
	return nil
}

// EnsureIndexes is a no-op for the in-memory fake
func (f *FakeUserRepository) EnsureIndexes(context.Context) error { return nil }

// CSVBuilder assembles CSV upload content row by row in the template's
// column order.
type CSVBuilder struct {
	sb strings.Builder
}

// NewCSVBuilder creates a builder starting with the template header row
func NewCSVBuilder() *CSVBuilder {
	b := &CSVBuilder{}
	b.sb.WriteString("client_subgroup_id,tag_id,tag_name,tag_header,channel_id,month,year,spends_target\n")
	return b
}

// Row appends a data row from raw field values
func (b *CSVBuilder) Row(clientSubgroupID, tagID, tagName, tagHeader, channelID, month, year, spendsTarget string) *CSVBuilder {
	b.sb.WriteString(strings.Join([]string{clientSubgroupID, tagID, tagName, tagHeader, channelID, month, year, spendsTarget}, ","))
	b.sb.WriteString("\n")
	return b
}

// EmptyRow appends a row with every field blank
func (b *CSVBuilder) EmptyRow() *CSVBuilder {
	b.sb.WriteString(",,,,,,,\n")
	return b
}

// Raw appends an arbitrary line verbatim
func (b *CSVBuilder) Raw(line string) *CSVBuilder {
	b.sb.WriteString(line)
	b.sb.WriteString("\n")
	return b
}

// Reader returns the assembled CSV content as a reader
func (b *CSVBuilder) Reader() *strings.Reader {
	return strings.NewReader(b.sb.String())
}

// String returns the assembled CSV content
func (b *CSVBuilder) String() string {
	return b.sb.String()
}

// SeedTag creates a reference tag row
func SeedTag(clientSubgroupID, tagID int64, tagTypeID int, name string) *models.TagMaster {
	return &models.TagMaster{
		ClientSubgroupID: clientSubgroupID,
		TagID:            tagID,
		TagTypeID:        tagTypeID,
		TagName:          name,
		IsActive:         true,
	}
}

// SeedClient creates a client subgroup reference row
func SeedClient(id int64, name string) *models.ClientSubgroup {
	return &models.ClientSubgroup{ID: id, ClientSubgroupName: name}
}
