package account

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/kalvi/core"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("account")
	ErrUsernameExists = errors.New("an account with this username already exists")
	ErrBranchNotFound = errors.New("branch does not exist")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username string, excluded ...Account) error
		CreateAccount(ctx context.Context, acc Account) (Account, error)
		QueryAccounts(ctx context.Context) ([]Account, error)
		GetAccount(ctx context.Context, filter GetFilter) (Account, error)
		UpdateAccount(ctx context.Context, acc Account) (Account, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckUniqueness(uname string, excluded ...Account) error {
	if err := svc.repo.CheckUsernameUniqueness(context.Background(), uname, excluded...); err != nil {
		if err == ErrUsernameExists {
			return core.NewValidationError(err, core.FieldError{Field: "username", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, na NewAccount) (Account, error) {
	now := time.Now().UTC()
	acc := Account{
		Username:  na.Username,
		IsActive:  true,
		Role:      na.Role,
		BranchID:  na.BranchID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := acc.SetPassword(na.Password); err != nil {
		return Account{}, err
	}
	acc, err := svc.repo.CreateAccount(ctx, acc)
	if err == ErrBranchNotFound {
		return Account{}, core.NewValidationError(err, core.FieldError{Field: "branch_id", Error: err.Error()})
	}
	return acc, err
}

func (svc *Service) Query(ctx context.Context) ([]Account, error) {
	return svc.repo.QueryAccounts(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int64) (Account, error) {
	return svc.repo.GetAccount(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (Account, error) {
	return svc.repo.GetAccount(ctx, GetFilter{Username: core.CleanString(uname, true /* lower */)})
}

func (svc *Service) SetLastLogin(ctx context.Context, acc Account) (Account, error) {
	acc.LastLogin = time.Now().UTC()
	return svc.repo.UpdateAccount(ctx, acc)
}

func (svc *Service) SetActive(ctx context.Context, acc Account, active bool) (Account, error) {
	acc.IsActive = active
	acc.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAccount(ctx, acc)
}

// ResetPassword replaces the password of the account identified by rp.Username.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetPassword) error {
	acc, err := svc.GetByUsername(ctx, rp.Username)
	if err != nil {
		return err
	}
	if err = acc.SetPassword(rp.Password); err != nil {
		return err
	}
	acc.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateAccount(ctx, acc)
	return err
}
