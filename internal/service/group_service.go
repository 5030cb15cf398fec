package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

// GroupService manages groups and their membership.
type GroupService struct {
	store  storage.Store
	logger *slog.Logger
}

// NewGroupService creates a new group service.
func NewGroupService(store storage.Store, logger *slog.Logger) *GroupService {
	return &GroupService{
		store:  store,
		logger: logger,
	}
}

// CreateGroup creates a group with the given members. The creator is always
// a member.
func (s *GroupService) CreateGroup(ctx context.Context, userID, name string, memberIDs []string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrInvalidInput)
	}

	seen := map[string]bool{userID: true}
	members := []models.GroupMember{{UserID: userID}}
	for _, id := range memberIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, models.GroupMember{UserID: id})
	}

	group := &models.Group{
		Name:      name,
		CreatedBy: userID,
		Members:   members,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	s.logger.Info("Group created", "group_id", group.ID, "user_id", userID, "members", len(members))
	return group, nil
}

// GetGroup retrieves a group the user belongs to.
func (s *GroupService) GetGroup(ctx context.Context, userID, id string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, ErrForbidden
	}
	return group, nil
}

// ListGroups retrieves every group the user is currently a member of.
func (s *GroupService) ListGroups(ctx context.Context, userID string) ([]*models.Group, error) {
	return s.store.ListGroupsForUser(ctx, userID)
}

// RenameGroup changes a group's name. Any member may rename.
func (s *GroupService) RenameGroup(ctx context.Context, userID, id, name string) (*models.Group, error) {
	group, err := s.GetGroup(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrInvalidInput)
	}

	group.Name = name
	if err := s.store.UpdateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to rename group: %w", err)
	}
	return group, nil
}

// DeleteGroup removes a group. Only the creator may delete; the group's
// expenses survive as direct history.
func (s *GroupService) DeleteGroup(ctx context.Context, userID, id string) error {
	group, err := s.store.GetGroup(ctx, id)
	if err != nil {
		return err
	}
	if group.CreatedBy != userID {
		return ErrForbidden
	}

	if err := s.store.DeleteGroup(ctx, id); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	s.logger.Info("Group deleted", "group_id", id, "user_id", userID)
	return nil
}

// AddMembers adds users to a group. Any member may invite.
func (s *GroupService) AddMembers(ctx context.Context, userID, groupID string, memberIDs []string) (*models.Group, error) {
	if _, err := s.GetGroup(ctx, userID, groupID); err != nil {
		return nil, err
	}
	if len(memberIDs) == 0 {
		return nil, fmt.Errorf("%w: no members given", ErrInvalidInput)
	}

	if err := s.store.AddGroupMembers(ctx, groupID, memberIDs); err != nil {
		return nil, fmt.Errorf("failed to add members: %w", err)
	}
	s.logger.Info("Group members added", "group_id", groupID, "user_id", userID, "members", len(memberIDs))
	return s.store.GetGroup(ctx, groupID)
}

// RemoveMember removes a user from a group. Members may leave on their own;
// only the creator removes others. Their historical balances stay in the
// ledger but stop counting toward group totals.
func (s *GroupService) RemoveMember(ctx context.Context, userID, groupID, memberID string) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if memberID != userID && group.CreatedBy != userID {
		return ErrForbidden
	}
	if !group.HasMember(memberID) {
		return storage.ErrNotFound
	}

	if err := s.store.RemoveGroupMember(ctx, groupID, memberID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	s.logger.Info("Group member removed", "group_id", groupID, "user_id", userID, "member_id", memberID)
	return nil
}
