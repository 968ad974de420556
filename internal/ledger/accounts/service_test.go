package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	nextID   int64
	accounts []Account
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) Count(ctx context.Context, tenantID int64) (int64, error) {
	var n int64
	for _, a := range m.accounts {
		if a.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (m *memoryRepo) Insert(ctx context.Context, a Account) (Account, error) {
	for _, existing := range m.accounts {
		if existing.TenantID == a.TenantID && existing.Number == a.Number {
			return Account{}, ErrDuplicateNumber
		}
	}
	a.ID = m.nextID
	m.nextID++
	m.accounts = append(m.accounts, a)
	return a, nil
}

func (m *memoryRepo) List(ctx context.Context, tenantID int64) ([]Account, error) {
	var out []Account
	for _, a := range m.accounts {
		if a.TenantID == tenantID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryRepo) ListActive(ctx context.Context, tenantID int64) ([]Account, error) {
	var out []Account
	for _, a := range m.accounts {
		if a.TenantID == tenantID && a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryRepo) GetByID(ctx context.Context, tenantID, id int64) (Account, error) {
	for _, a := range m.accounts {
		if a.TenantID == tenantID && a.ID == id {
			return a, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (m *memoryRepo) GetByNumber(ctx context.Context, tenantID int64, number string) (Account, error) {
	for _, a := range m.accounts {
		if a.TenantID == tenantID && a.Number == number {
			return a, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (m *memoryRepo) Deactivate(ctx context.Context, tenantID, id int64) error {
	for i := range m.accounts {
		if m.accounts[i].TenantID == tenantID && m.accounts[i].ID == id {
			m.accounts[i].IsActive = false
			return nil
		}
	}
	return ErrAccountNotFound
}

func TestInitializeChartSeedsDefaultsOnce(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, nil)

	first, err := service.InitializeChart(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, first, len(DefaultChart))

	second, err := service.InitializeChart(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, second, len(DefaultChart))

	count, _ := repo.Count(context.Background(), 1)
	assert.Equal(t, int64(len(DefaultChart)), count)
}

func TestInitializeChartDerivesLevelsAndPaths(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, nil)

	_, err := service.InitializeChart(context.Background(), 1)
	require.NoError(t, err)

	cash, err := repo.GetByNumber(context.Background(), 1, NumberCash)
	require.NoError(t, err)
	assert.Equal(t, 3, cash.Level)
	assert.Equal(t, "1000/1100/1111", cash.Path)
	assert.Equal(t, SideDebit, cash.NormalBalance)
	assert.True(t, cash.IsSystemAccount)

	vat, err := repo.GetByNumber(context.Background(), 1, NumberVATPayable)
	require.NoError(t, err)
	assert.Equal(t, SideCredit, vat.NormalBalance)
	assert.Equal(t, "2000/2100/2121", vat.Path)

	root, err := repo.GetByNumber(context.Background(), 1, "1000")
	require.NoError(t, err)
	assert.Equal(t, 1, root.Level)
	assert.Nil(t, root.ParentID)

	// equity leaves sit at level 3 so the balance sheet picks them up
	capital, err := repo.GetByNumber(context.Background(), 1, "3110")
	require.NoError(t, err)
	assert.Equal(t, 3, capital.Level)
	assert.Equal(t, "3000/3100/3110", capital.Path)

	retained, err := repo.GetByNumber(context.Background(), 1, "3120")
	require.NoError(t, err)
	assert.Equal(t, 3, retained.Level)
}

func TestInitializeChartScopedPerTenant(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, nil)

	_, err := service.InitializeChart(context.Background(), 1)
	require.NoError(t, err)
	_, err = service.InitializeChart(context.Background(), 2)
	require.NoError(t, err)

	one, _ := repo.Count(context.Background(), 1)
	two, _ := repo.Count(context.Background(), 2)
	assert.Equal(t, one, two)
}

func TestCreateDerivesFromParent(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, nil)
	_, err := service.InitializeChart(context.Background(), 1)
	require.NoError(t, err)

	created, err := service.Create(context.Background(), 1, CreateInput{
		Number:       "1113",
		Name:         "Petty Cash",
		Type:         AccountTypeAsset,
		ParentNumber: "1100",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, created.Level)
	assert.Equal(t, "1000/1100/1113", created.Path)
	assert.Equal(t, SideDebit, created.NormalBalance)
}

func TestCreateRejectsDuplicateNumber(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, nil)
	_, err := service.InitializeChart(context.Background(), 1)
	require.NoError(t, err)

	_, err = service.Create(context.Background(), 1, CreateInput{
		Number: NumberCash,
		Name:   "Cash Again",
		Type:   AccountTypeAsset,
	})
	assert.ErrorIs(t, err, ErrDuplicateNumber)

	// Same number under a different tenant is fine.
	_, err = service.Create(context.Background(), 2, CreateInput{
		Number: NumberCash,
		Name:   "Cash",
		Type:   AccountTypeAsset,
	})
	assert.NoError(t, err)
}

func TestCreateUnknownParent(t *testing.T) {
	service := NewService(newMemoryRepo(), nil)
	_, err := service.Create(context.Background(), 1, CreateInput{
		Number:       "9999",
		Name:         "Orphan",
		Type:         AccountTypeExpense,
		ParentNumber: "8888",
	})
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestDeactivateProtectsSystemAccounts(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, nil)
	_, err := service.InitializeChart(context.Background(), 1)
	require.NoError(t, err)

	cash, _ := repo.GetByNumber(context.Background(), 1, NumberCash)
	assert.ErrorIs(t, service.Deactivate(context.Background(), 1, cash.ID), ErrSystemAccount)

	rent, _ := repo.GetByNumber(context.Background(), 1, "5220")
	require.False(t, rent.IsSystemAccount)
	assert.NoError(t, service.Deactivate(context.Background(), 1, rent.ID))
}

func TestBuildTree(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo, nil)
	_, err := service.InitializeChart(context.Background(), 1)
	require.NoError(t, err)

	tree, err := service.Tree(context.Background(), 1)
	require.NoError(t, err)

	// One root per top-level classification.
	require.Len(t, tree, 5)
	byNumber := make(map[string]*TreeNode)
	for _, root := range tree {
		byNumber[root.Number] = root
	}
	assets := byNumber["1000"]
	require.NotNil(t, assets)
	require.Len(t, assets.Children, 2)
	assert.Equal(t, "1100", assets.Children[0].Number)
	assert.Len(t, assets.Children[0].Children, 4)
}
