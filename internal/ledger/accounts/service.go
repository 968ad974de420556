package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Service implements chart of accounts operations. Account balances are never
// mutated here; only the journal engine applies balance deltas.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService constructs the account service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateInput describes an operator-created account.
type CreateInput struct {
	Number         string
	Name           string
	NameAr         string
	Type           AccountType
	ParentNumber   string
	OpeningBalance float64
	IsBankAccount  bool
}

// InitializeChart seeds the fixed default hierarchy for a tenant. Idempotent:
// a tenant that already has any accounts is returned unchanged.
func (s *Service) InitializeChart(ctx context.Context, tenantID int64) ([]Account, error) {
	existing, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	var created []Account
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		count, err := tx.Count(ctx, tenantID)
		if err != nil {
			return err
		}
		if count > 0 {
			// Lost the race to another initialisation; treat as already seeded.
			created = nil
			return nil
		}
		byNumber := make(map[string]Account, len(DefaultChart))
		for _, entry := range DefaultChart {
			account := Account{
				TenantID:        tenantID,
				Number:          entry.Number,
				Name:            entry.Name,
				NameAr:          entry.NameAr,
				Type:            entry.Type,
				NormalBalance:   NormalSideFor(entry.Type),
				Level:           1,
				Path:            entry.Number,
				IsSystemAccount: entry.System,
				IsBankAccount:   entry.Bank,
				IsActive:        true,
			}
			if entry.Parent != "" {
				parent, ok := byNumber[entry.Parent]
				if !ok {
					return fmt.Errorf("ledger: chart entry %s references unknown parent %s", entry.Number, entry.Parent)
				}
				parentID := parent.ID
				account.ParentID = &parentID
				account.Level = parent.Level + 1
				account.Path = parent.Path + "/" + entry.Number
			}
			inserted, err := tx.Insert(ctx, account)
			if err != nil {
				return err
			}
			byNumber[entry.Number] = inserted
			created = append(created, inserted)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if created == nil {
		return s.repo.List(ctx, tenantID)
	}
	if s.logger != nil {
		s.logger.Info("chart of accounts seeded",
			slog.Int64("tenant_id", tenantID),
			slog.Int("accounts", len(created)))
	}
	return created, nil
}

// Create adds an ad hoc account, deriving level and path from the named
// parent. Without a parent the account becomes a root at level 1.
func (s *Service) Create(ctx context.Context, tenantID int64, input CreateInput) (Account, error) {
	input.Number = strings.TrimSpace(input.Number)
	if input.Number == "" {
		return Account{}, errors.New("ledger: account number required")
	}
	if input.Name == "" {
		return Account{}, errors.New("ledger: account name required")
	}
	switch input.Type {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
	default:
		return Account{}, fmt.Errorf("ledger: unknown account type %q", input.Type)
	}

	account := Account{
		TenantID:       tenantID,
		Number:         input.Number,
		Name:           input.Name,
		NameAr:         input.NameAr,
		Type:           input.Type,
		NormalBalance:  NormalSideFor(input.Type),
		Level:          1,
		Path:           input.Number,
		OpeningBalance: input.OpeningBalance,
		CurrentBalance: input.OpeningBalance,
		IsBankAccount:  input.IsBankAccount,
		IsActive:       true,
	}

	var created Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if input.ParentNumber != "" {
			parent, err := tx.GetByNumber(ctx, tenantID, input.ParentNumber)
			if err != nil {
				if errors.Is(err, ErrAccountNotFound) {
					return ErrParentNotFound
				}
				return err
			}
			parentID := parent.ID
			account.ParentID = &parentID
			account.Level = parent.Level + 1
			account.Path = parent.Path + "/" + account.Number
		}
		var err error
		created, err = tx.Insert(ctx, account)
		return err
	})
	if err != nil {
		return Account{}, err
	}
	return created, nil
}

// List returns all accounts for the tenant ordered by number.
func (s *Service) List(ctx context.Context, tenantID int64) ([]Account, error) {
	return s.repo.List(ctx, tenantID)
}

// Get returns one account by internal id.
func (s *Service) Get(ctx context.Context, tenantID, id int64) (Account, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

// GetByNumber returns one account by tenant-scoped number.
func (s *Service) GetByNumber(ctx context.Context, tenantID int64, number string) (Account, error) {
	return s.repo.GetByNumber(ctx, tenantID, number)
}

// Tree reconstructs the parent-child hierarchy from flat storage in O(n).
func (s *Service) Tree(ctx context.Context, tenantID int64) ([]*TreeNode, error) {
	flat, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return BuildTree(flat), nil
}

// Deactivate soft-deletes an account. System accounts are protected.
func (s *Service) Deactivate(ctx context.Context, tenantID, id int64) error {
	account, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if account.IsSystemAccount {
		return ErrSystemAccount
	}
	return s.repo.Deactivate(ctx, tenantID, id)
}

// BuildTree links flat accounts into root nodes via an id map.
func BuildTree(flat []Account) []*TreeNode {
	nodes := make(map[int64]*TreeNode, len(flat))
	for _, a := range flat {
		nodes[a.ID] = &TreeNode{Account: a}
	}
	var roots []*TreeNode
	for _, a := range flat {
		node := nodes[a.ID]
		if a.ParentID != nil {
			if parent, ok := nodes[*a.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}
