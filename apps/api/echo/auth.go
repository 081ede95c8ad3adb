package echoapi

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/coastwrpt/wrpt/core"
	"github.com/coastwrpt/wrpt/core/user"
)

const (
	contextTokenKey = "userToken"
	contextUserKey  = "user"
)

var nowFunc = time.Now // mockable

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Username     string `json:"username,omitempty"`
	IsStaff      bool   `json:"is_staff,omitempty"`
	SchoolID     string `json:"school_id,omitempty"`
}

type authenticator struct {
	conf *core.Config
	svc  *user.Service
	cfg  middleware.JWTConfig
}

func newAuthenticator(conf *core.Config, svc *user.Service) *authenticator {
	return &authenticator{
		conf: conf,
		svc:  svc,
		cfg: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
	}
}

func (a *authenticator) claims(usr user.User, origIat ...int64) *Claims {
	now := nowFunc()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(a.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Username:     usr.Username,
		IsStaff:      usr.IsStaff,
		SchoolID:     usr.SchoolID.String,
	}
}

// token generates a signed JWT token string representing the user Claims.
func (a *authenticator) token(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.cfg.SigningMethod)
	ss, err := jwt.NewWithClaims(method, claims).SignedString(a.cfg.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (a *authenticator) authenticate(ctx context.Context, uname, pwd string) (string, error) {
	usr, err := a.svc.GetByUsername(ctx, uname)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return "", errAuthenticationFailed
		}
		return "", errors.Wrap(err, "finding user by username")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return "", errAuthenticationFailed
	}
	if !usr.IsActive {
		return "", errAccountDeactivated
	}
	if usr, err = a.svc.SetLastLogin(ctx, usr); err != nil {
		return "", errors.Wrap(err, "setting lastLogin")
	}
	return a.token(a.claims(usr))
}

func (a *authenticator) refresh(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	usr, err := a.contextUser(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context user")
	}

	// check if user is still active
	if !usr.IsActive {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if nowFunc().After(expTime) {
		return "", errRefreshExpired
	}

	return a.token(a.claims(usr, claims.OrigIssuedAt))
}

// contextUser loads the user behind the request token. Anonymous requests get a zero User.
func (a *authenticator) contextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, nil
	}

	usr, err := a.svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return user.User{}, errUnauthorized
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}
