package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/ctxutil"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

type AuthService interface {
	// IssueToken signs a bearer token for identity. Used by operators and tests; the service
	// itself has no login flow.
	IssueToken(identity string, role types.Role) (string, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type JWTClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type authService struct {
	log          *logger.Logger
	jwtSecretKey string
	accessTTL    time.Duration
	admins       map[string]struct{}
	now          func() time.Time
}

func NewAuthService(log *logger.Logger, jwtSecretKey string, accessTTL time.Duration, adminIdentities []string) AuthService {
	admins := make(map[string]struct{}, len(adminIdentities))
	for _, id := range adminIdentities {
		id = types.NormalizeIdentity(id)
		if id != "" {
			admins[id] = struct{}{}
		}
	}
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &authService{
		log:          log.With("service", "AuthService"),
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
		admins:       admins,
		now:          time.Now,
	}
}

func (as *authService) IssueToken(identity string, role types.Role) (string, error) {
	identity = types.NormalizeIdentity(identity)
	if types.IsNullIdentity(identity) {
		return "", fmt.Errorf("cannot issue a token for the null identity")
	}
	now := as.now()
	claims := JWTClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, nil
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ctx, fmt.Errorf("Failed to parse token: %w", err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, fmt.Errorf("Invalid or expired JWT token")
	}
	identity := types.NormalizeIdentity(claims.Subject)
	if types.IsNullIdentity(identity) {
		return ctx, fmt.Errorf("Invalid identity in token")
	}
	rd := &ctxutil.RequestData{
		TokenString: tokenString,
		Identity:    identity,
		Role:        string(as.roleFor(identity, claims.Role)),
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

// roleFor grants admin from the signed claim or from the configured admin list.
func (as *authService) roleFor(identity, claimed string) types.Role {
	if strings.EqualFold(strings.TrimSpace(claimed), string(types.RoleAdmin)) {
		return types.RoleAdmin
	}
	if _, ok := as.admins[identity]; ok {
		return types.RoleAdmin
	}
	return types.RoleParticipant
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

// ActorFromContext returns the authenticated caller attached by the auth middleware.
func ActorFromContext(ctx context.Context) (types.Actor, bool) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.Identity == "" {
		return types.Actor{}, false
	}
	return types.Actor{Identity: rd.Identity, Role: types.Role(rd.Role)}, true
}
