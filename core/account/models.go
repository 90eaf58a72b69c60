package account

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/kalvi/core"
	"github.com/trezcool/kalvi/core/access"
)

// Account is an authenticated user of the API and its role profile.
type Account struct {
	ID           int64       `json:"id"`
	Username     string      `json:"username"`
	IsActive     bool        `json:"is_active"`
	Role         access.Role `json:"role"`
	BranchID     *int64      `json:"branch_id"`
	BranchCity   string      `json:"branch_city"` // read-only
	PasswordHash []byte      `json:"-"`
	CreatedAt    time.Time   `json:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at"` // UTC
	LastLogin    time.Time   `json:"last_login"` // UTC
}

func (a *Account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

func (a *Account) IsSuperAdmin() bool {
	return a.Role == access.RoleSuperAdmin
}

// Identity returns the resolved caller for this account.
func (a Account) Identity() access.Identity {
	return access.Identity{
		AccountID:  a.ID,
		Username:   a.Username,
		Role:       a.Role,
		BranchID:   a.BranchID,
		BranchCity: a.BranchCity,
	}
}

// NewAccount contains information needed to create a new Account.
type NewAccount struct {
	Username        string      `json:"username" validate:"required,min=3,max=150,alphanum_"`
	Role            access.Role `json:"role" validate:"required,role"`
	BranchID        *int64      `json:"branch_id" validate:"omitempty,gt=0"`
	Password        string      `json:"password" validate:"required"`
	PasswordConfirm string      `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (na *NewAccount) Validate(validate *validator.Validate, svc *Service) error {
	na.Username = core.CleanString(na.Username, true /* lower */)
	na.Role = access.Role(core.CleanString(string(na.Role)))

	if err := validate.Struct(na); err != nil {
		return err
	}
	return svc.CheckUniqueness(na.Username)
}

// ResetPassword defines what is needed to replace an Account's password.
type ResetPassword struct {
	Username        string `json:"username" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (rp *ResetPassword) Validate(validate *validator.Validate) error {
	rp.Username = core.CleanString(rp.Username, true /* lower */)
	return validate.Struct(rp)
}

type GetFilter struct {
	ID       int64
	Username string
}
