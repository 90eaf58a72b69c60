package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/kalvi/core/account"
)

type accountRepository struct {
	db *DB
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *DB) *accountRepository {
	return &accountRepository{db: db}
}

// resolve fills the read-only fields of acc; must be called with a lock held.
func (repo *accountRepository) resolve(acc account.Account) account.Account {
	acc.BranchCity = ""
	if acc.BranchID != nil {
		if branch, ok := repo.db.branches[*acc.BranchID]; ok {
			acc.BranchCity = branch.CityName
		}
	}
	return acc
}

func (repo *accountRepository) CheckUsernameUniqueness(_ context.Context, username string, excluded ...account.Account) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excludedIDs := make(map[int64]bool, len(excluded))
	for _, acc := range excluded {
		excludedIDs[acc.ID] = true
	}
	for _, acc := range repo.db.accounts {
		if acc.Username == username && !excludedIDs[acc.ID] {
			return account.ErrUsernameExists
		}
	}
	return nil
}

func (repo *accountRepository) CreateAccount(_ context.Context, acc account.Account) (account.Account, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, other := range repo.db.accounts {
		if other.Username == acc.Username {
			return account.Account{}, account.ErrUsernameExists
		}
	}
	if acc.BranchID != nil {
		if _, ok := repo.db.branches[*acc.BranchID]; !ok {
			return account.Account{}, account.ErrBranchNotFound
		}
	}

	acc.ID = repo.db.nextPK("accounts")
	acc.BranchCity = ""
	if acc.BranchID != nil {
		branchID := *acc.BranchID
		acc.BranchID = &branchID
	}
	repo.db.accounts[acc.ID] = &acc
	return repo.resolve(acc), nil
}

func (repo *accountRepository) QueryAccounts(_ context.Context) ([]account.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	accounts := make([]account.Account, 0, len(repo.db.accounts))
	for _, acc := range repo.db.accounts {
		accounts = append(accounts, repo.resolve(*acc))
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Username < accounts[j].Username })
	return accounts, nil
}

func (repo *accountRepository) GetAccount(_ context.Context, filter account.GetFilter) (account.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	switch {
	case filter.ID != 0:
		if acc, ok := repo.db.accounts[filter.ID]; ok {
			return repo.resolve(*acc), nil
		}
	case filter.Username != "":
		for _, acc := range repo.db.accounts {
			if acc.Username == filter.Username {
				return repo.resolve(*acc), nil
			}
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) UpdateAccount(_ context.Context, acc account.Account) (account.Account, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.accounts[acc.ID]; !ok {
		return account.Account{}, account.ErrNotFound
	}
	for _, other := range repo.db.accounts {
		if other.ID != acc.ID && other.Username == acc.Username {
			return account.Account{}, account.ErrUsernameExists
		}
	}
	if acc.BranchID != nil {
		if _, ok := repo.db.branches[*acc.BranchID]; !ok {
			return account.Account{}, account.ErrBranchNotFound
		}
	}

	acc.BranchCity = ""
	if acc.BranchID != nil {
		branchID := *acc.BranchID
		acc.BranchID = &branchID
	}
	repo.db.accounts[acc.ID] = &acc
	return repo.resolve(acc), nil
}
