package accounts

import (
	"context"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and persists a new chart of accounts node.
func (s *Service) Create(ctx context.Context, code, name string, parentID *int64, isCash bool) (Account, error) {
	account, err := NewAccount(code, name, parentID, isCash)
	if err != nil {
		return Account{}, err
	}
	if parentID != nil {
		if _, err := s.repo.Get(ctx, *parentID); err != nil {
			return Account{}, fmt.Errorf("ledger: parent account: %w", err)
		}
	}
	return s.repo.Create(ctx, account)
}

// Rename updates the account display name.
func (s *Service) Rename(ctx context.Context, id int64, name string) (Account, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if err := account.Rename(name); err != nil {
		return Account{}, err
	}
	return s.repo.Update(ctx, account)
}

// SetParent moves the account under a new parent, rejecting cycles.
func (s *Service) SetParent(ctx context.Context, id int64, parentID *int64) (Account, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if parentID != nil {
		if err := s.ensureNotAncestor(ctx, id, *parentID); err != nil {
			return Account{}, err
		}
	}
	account.ParentID = parentID
	return s.repo.Update(ctx, account)
}

// ensureNotAncestor walks up from candidate and fails if it reaches id.
// Hierarchies are shallow (display grouping only) so the walk is cheap.
func (s *Service) ensureNotAncestor(ctx context.Context, id, candidate int64) error {
	for current := &candidate; current != nil; {
		if *current == id {
			return ErrCyclicParent
		}
		node, err := s.repo.Get(ctx, *current)
		if err != nil {
			return fmt.Errorf("ledger: parent account: %w", err)
		}
		current = node.ParentID
	}
	return nil
}

// Activate re-enables the account; redundant activation is an error.
func (s *Service) Activate(ctx context.Context, id int64) (Account, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if err := account.Activate(); err != nil {
		return Account{}, err
	}
	return s.repo.Update(ctx, account)
}

// Deactivate disables the account; redundant deactivation is an error.
func (s *Service) Deactivate(ctx context.Context, id int64) (Account, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if err := account.Deactivate(); err != nil {
		return Account{}, err
	}
	return s.repo.Update(ctx, account)
}
