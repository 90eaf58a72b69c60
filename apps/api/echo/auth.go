package echoapi

import (
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/kalvi/core"
	"github.com/trezcool/kalvi/core/access"
	"github.com/trezcool/kalvi/core/account"
)

const (
	contextTokenKey    = "accountToken"
	contextIdentityKey = "identity"
	tokenAudience      = "Kalvi"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64       `json:"oriat,omitempty"`
	Username     string      `json:"username,omitempty"`
	Role         access.Role `json:"role,omitempty"`
	BranchID     *int64      `json:"branch_id,omitempty"`
}

type authenticator struct {
	conf      *core.Config
	jwtConfig middleware.JWTConfig
	svc       *account.Service
}

func newAuthenticator(conf *core.Config, svc *account.Service) *authenticator {
	return &authenticator{
		conf: conf,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
		svc: svc,
	}
}

func (a *authenticator) claims(acc account.Account, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.conf.AppName,
			Subject:   strconv.FormatInt(acc.ID, 10),
			Audience:  tokenAudience,
			ExpiresAt: now.Add(a.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Username:     acc.Username,
		Role:         acc.Role,
		BranchID:     acc.BranchID,
	}
}

// generateToken generates a signed JWT token string representing the account Claims.
func (a *authenticator) generateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (a *authenticator) tokenFor(acc account.Account) (string, error) {
	return a.generateToken(a.claims(acc))
}

func (a *authenticator) authenticate(ctx echo.Context, uname, pwd string) (string, error) {
	rctx := ctx.Request().Context()

	acc, err := a.svc.GetByUsername(rctx, uname)
	if err != nil {
		if err == account.ErrNotFound {
			return "", errAuthenticationFailed
		}
		return "", errors.Wrap(err, "finding account by username")
	}
	if err = acc.CheckPassword(pwd); err != nil {
		return "", errAuthenticationFailed
	}
	if !acc.IsActive {
		return "", errAccountDeactivated
	}
	if acc, err = a.svc.SetLastLogin(rctx, acc); err != nil {
		return "", errors.Wrap(err, "setting last login")
	}
	return a.tokenFor(acc)
}

func (a *authenticator) refreshToken(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}
	id, err := getContextIdentity(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context identity")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	acc, err := a.svc.GetByID(ctx.Request().Context(), id.AccountID)
	if err != nil {
		return "", errors.Wrap(err, "finding account by ID")
	}
	token, err := a.generateToken(a.claims(acc, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}

// identityMiddleware resolves the caller from the token subject on every request,
// so that role and branch changes apply immediately.
func (a *authenticator) identityMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		accID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			return errUnauthorized
		}

		acc, err := a.svc.GetByID(ctx.Request().Context(), accID)
		if err != nil {
			if err == account.ErrNotFound {
				return errUnauthorized
			}
			return errors.Wrap(err, "finding account by ID")
		}
		if !acc.IsActive {
			return errUnauthorized
		}

		ctx.Set(contextIdentityKey, acc.Identity())
		return next(ctx)
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextIdentity(ctx echo.Context) (access.Identity, error) {
	if id, ok := ctx.Get(contextIdentityKey).(access.Identity); ok {
		return id, nil
	}
	return access.Identity{}, errUnauthorized
}

// getContextScope returns the branch scope of the caller.
func getContextScope(ctx echo.Context) (access.Scope, error) {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return access.Scope{}, err
	}
	return access.Resolve(id), nil
}
