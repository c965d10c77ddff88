// Package coa manages the chart of accounts hierarchy: main groups,
// element groups, sub-element groups, detailed groups and the accounts
// beneath them.
package coa

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/statements"
)

// ErrNotFound indicates a missing group or account.
var ErrNotFound = errors.New("coa: not found")

// GroupLevel enumerates the four grouping levels above accounts.
type GroupLevel string

const (
	LevelMainGroup       GroupLevel = "main_group"
	LevelElementGroup    GroupLevel = "element_group"
	LevelSubElementGroup GroupLevel = "sub_element_group"
	LevelDetailedGroup   GroupLevel = "detailed_group"
)

// parentLevel returns the level a group's parent must carry.
func parentLevel(level GroupLevel) (GroupLevel, bool) {
	switch level {
	case LevelElementGroup:
		return LevelMainGroup, true
	case LevelSubElementGroup:
		return LevelElementGroup, true
	case LevelDetailedGroup:
		return LevelSubElementGroup, true
	}
	return "", false
}

// Group models one node of the grouping hierarchy. StatementKind is
// set on main groups only and routes the subtree to a statement.
type Group struct {
	ID            uuid.UUID  `json:"id"`
	TenantID      uuid.UUID  `json:"tenantId"`
	ParentID      *uuid.UUID `json:"parentId,omitempty"`
	Level         GroupLevel `json:"level"`
	Name          string     `json:"name"`
	StatementKind string     `json:"statementKind,omitempty"`
	SortOrder     int        `json:"sortOrder"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Account models one postable account under a detailed group.
type Account struct {
	ID              uuid.UUID              `json:"id"`
	TenantID        uuid.UUID              `json:"tenantId"`
	DetailedGroupID uuid.UUID              `json:"detailedGroupId"`
	Code            string                 `json:"code"`
	Name            string                 `json:"name"`
	Type            statements.AccountType `json:"type"`
	IsActive        bool                   `json:"isActive"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// TreeNode is one group with its children and accounts, preserving
// the configured ordering.
type TreeNode struct {
	Group    Group       `json:"group"`
	Children []*TreeNode `json:"children,omitempty"`
	Accounts []Account   `json:"accounts,omitempty"`
}
