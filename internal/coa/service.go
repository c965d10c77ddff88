package coa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/statements"
)

// ErrInvalidInput marks validation failures on create operations.
var ErrInvalidInput = errors.New("coa: invalid input")

// CacheBumper invalidates cached statements after hierarchy changes.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// CreateGroupInput describes a new grouping node.
type CreateGroupInput struct {
	ParentID      *uuid.UUID `json:"parentId"`
	Level         GroupLevel `json:"level" validate:"required,oneof=main_group element_group sub_element_group detailed_group"`
	Name          string     `json:"name" validate:"required,min=1,max=120"`
	StatementKind string     `json:"statementKind" validate:"omitempty,oneof=balance_sheet profit_and_loss"`
	SortOrder     int        `json:"sortOrder" validate:"gte=0"`
}

// CreateAccountInput describes a new postable account.
type CreateAccountInput struct {
	DetailedGroupID uuid.UUID              `json:"detailedGroupId" validate:"required"`
	Code            string                 `json:"code" validate:"required,min=1,max=32"`
	Name            string                 `json:"name" validate:"required,min=1,max=120"`
	Type            statements.AccountType `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
}

// Service validates and persists chart of accounts changes. Every
// mutation bumps the statement cache so reports rebuild against the
// new hierarchy.
type Service struct {
	repo     Repository
	cache    CacheBumper
	logger   *slog.Logger
	validate *validator.Validate
}

// NewService constructs the chart of accounts service.
func NewService(logger *slog.Logger, repo Repository, cache CacheBumper) *Service {
	return &Service{repo: repo, cache: cache, logger: logger, validate: validator.New()}
}

// Tree assembles the full grouping hierarchy for one tenant, children
// and accounts in configured order.
func (s *Service) Tree(ctx context.Context, tenantID uuid.UUID) ([]*TreeNode, error) {
	groups, err := s.repo.ListGroups(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("coa: list groups: %w", err)
	}
	accounts, err := s.repo.ListAccounts(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("coa: list accounts: %w", err)
	}

	nodes := make(map[uuid.UUID]*TreeNode, len(groups))
	var roots []*TreeNode
	for _, g := range groups {
		nodes[g.ID] = &TreeNode{Group: g}
	}
	for _, g := range groups {
		node := nodes[g.ID]
		if g.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*g.ParentID]
		if !ok {
			return nil, fmt.Errorf("coa: group %s references missing parent %s", g.ID, *g.ParentID)
		}
		parent.Children = append(parent.Children, node)
	}
	for _, a := range accounts {
		node, ok := nodes[a.DetailedGroupID]
		if !ok {
			return nil, fmt.Errorf("coa: account %s references missing detailed group %s", a.Code, a.DetailedGroupID)
		}
		node.Accounts = append(node.Accounts, a)
	}
	return roots, nil
}

// CreateGroup validates level chaining and persists the group.
func (s *Service) CreateGroup(ctx context.Context, tenantID uuid.UUID, in CreateGroupInput) (Group, error) {
	if err := s.validate.Struct(in); err != nil {
		return Group{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if in.Level == LevelMainGroup {
		if in.ParentID != nil {
			return Group{}, fmt.Errorf("%w: main groups cannot have a parent", ErrInvalidInput)
		}
		if in.StatementKind == "" {
			return Group{}, fmt.Errorf("%w: main groups require a statement kind", ErrInvalidInput)
		}
	} else {
		if in.ParentID == nil {
			return Group{}, fmt.Errorf("%w: %s requires a parent", ErrInvalidInput, in.Level)
		}
		if in.StatementKind != "" {
			return Group{}, fmt.Errorf("%w: statement kind is set on main groups only", ErrInvalidInput)
		}
		want, _ := parentLevel(in.Level)
		parent, err := s.repo.GetGroup(ctx, tenantID, *in.ParentID)
		if err != nil {
			return Group{}, fmt.Errorf("coa: resolve parent: %w", err)
		}
		if parent.Level != want {
			return Group{}, fmt.Errorf("%w: %s must attach to a %s, parent is %s", ErrInvalidInput, in.Level, want, parent.Level)
		}
	}

	group, err := s.repo.CreateGroup(ctx, Group{
		ID:            uuid.New(),
		TenantID:      tenantID,
		ParentID:      in.ParentID,
		Level:         in.Level,
		Name:          in.Name,
		StatementKind: in.StatementKind,
		SortOrder:     in.SortOrder,
	})
	if err != nil {
		return Group{}, fmt.Errorf("coa: create group: %w", err)
	}
	s.bump(ctx)
	return group, nil
}

// CreateAccount validates the detailed-group attachment and persists
// the account.
func (s *Service) CreateAccount(ctx context.Context, tenantID uuid.UUID, in CreateAccountInput) (Account, error) {
	if err := s.validate.Struct(in); err != nil {
		return Account{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	parent, err := s.repo.GetGroup(ctx, tenantID, in.DetailedGroupID)
	if err != nil {
		return Account{}, fmt.Errorf("coa: resolve detailed group: %w", err)
	}
	if parent.Level != LevelDetailedGroup {
		return Account{}, fmt.Errorf("%w: accounts attach to detailed groups, got %s", ErrInvalidInput, parent.Level)
	}

	account, err := s.repo.CreateAccount(ctx, Account{
		ID:              uuid.New(),
		TenantID:        tenantID,
		DetailedGroupID: in.DetailedGroupID,
		Code:            in.Code,
		Name:            in.Name,
		Type:            in.Type,
		IsActive:        true,
	})
	if err != nil {
		return Account{}, fmt.Errorf("coa: create account: %w", err)
	}
	s.bump(ctx)
	return account, nil
}

func (s *Service) bump(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("bump statement cache", slog.Any("error", err))
	}
}
