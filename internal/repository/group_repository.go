package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fitgroup-api/internal/models"
)

// GroupRepository reads the membership collaborator's tables.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository creates a new instance of GroupRepository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// GetGroup returns a group by identifier. A missing group yields sql.ErrNoRows.
func (r *GroupRepository) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	const query = `SELECT id, name, group_type, created_at FROM groups WHERE id = $1`
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	return &group, nil
}

// ListGroupIDs returns group identifiers of the given type, or every group when groupType is empty.
func (r *GroupRepository) ListGroupIDs(ctx context.Context, groupType models.GroupType) ([]string, error) {
	query := `SELECT id FROM groups`
	var args []interface{}
	if groupType != "" {
		query += ` WHERE group_type = $1`
		args = append(args, groupType)
	}
	query += ` ORDER BY id`

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list group ids: %w", err)
	}
	return ids, nil
}

// ListMembers returns the current members of a group with their profile fields.
func (r *GroupRepository) ListMembers(ctx context.Context, groupID string) ([]models.Member, error) {
	const query = `SELECT u.id AS user_id, u.birth_date, u.height_cm, u.weight_kg
FROM group_members gm
JOIN users u ON u.id = gm.user_id
WHERE gm.group_id = $1
ORDER BY u.id`
	var members []models.Member
	if err := r.db.SelectContext(ctx, &members, query, groupID); err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	return members, nil
}

// IsMember reports whether the user currently belongs to the group.
func (r *GroupRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, groupID, userID); err != nil {
		return false, fmt.Errorf("check group membership: %w", err)
	}
	return exists, nil
}

// GetCriteria returns the group's goal floors, or nil when none are configured.
func (r *GroupRepository) GetCriteria(ctx context.Context, groupID string) (*models.GoalCriteria, error) {
	const query = `SELECT group_id, min_steps, min_kcal, min_duration, min_distance FROM goal_criteria WHERE group_id = $1`
	var criteria models.GoalCriteria
	if err := r.db.GetContext(ctx, &criteria, query, groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get goal criteria: %w", err)
	}
	return &criteria, nil
}
