package helper

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/SundayYogurt/trainer_service/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrActionTokenInvalid  = errors.New("invalid action token")
	ErrActionTokenMismatch = errors.New("action token does not match request")
	ErrActionTokenUsed     = errors.New("action token already used")
)

// NonceStore redeems action token ids. Consume returns false when the id was
// already redeemed.
type NonceStore interface {
	Consume(ctx context.Context, id string, ttl time.Duration) (bool, error)
}

type Auth struct {
	Secret    string
	ActionTTL time.Duration
	nonces    NonceStore
}

func SetupAuth(s string, actionTTL time.Duration, nonces NonceStore) Auth {
	if actionTTL <= 0 {
		actionTTL = 10 * time.Minute
	}
	return Auth{
		Secret:    s,
		ActionTTL: actionTTL,
		nonces:    nonces,
	}
}

func (a Auth) GenerateToken(identityID uint, email string) (string, error) {
	if identityID == 0 || email == "" {
		return "", errors.New("required inputs are missing to generate token")
	}

	now := time.Now().Unix()
	exp := time.Now().Add(24 * time.Hour).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": identityID,
		"email":   email,
		"iat":     now,
		"exp":     exp,
	})

	tokenStr, err := token.SignedString([]byte(a.Secret))
	if err != nil {
		return "", errors.New("unable to sign the token")
	}

	return tokenStr, nil
}

func (a Auth) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("unexpected signing method")
	}
	return []byte(a.Secret), nil
}

func (a Auth) VerifyToken(tokenString string) (dto.AuthResponse, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return dto.AuthResponse{}, errors.New("missing token")
	}

	// accepts "Bearer <token>" and "<token>"
	if strings.HasPrefix(strings.ToLower(tokenString), "bearer ") {
		tokenString = strings.TrimSpace(tokenString[len("bearer "):])
		if tokenString == "" {
			return dto.AuthResponse{}, errors.New("invalid token format")
		}
	}

	token, err := jwt.Parse(tokenString, a.keyFunc, jwt.WithExpirationRequired())
	if err != nil {
		return dto.AuthResponse{}, errors.New("token parse error")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return dto.AuthResponse{}, errors.New("invalid token claims")
	}

	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return dto.AuthResponse{}, errors.New("invalid token subject")
	}
	email, _ := claims["email"].(string)
	exp, _ := claims["exp"].(float64)
	iat, _ := claims["iat"].(float64)

	return dto.AuthResponse{
		UserID: uint(userID),
		Email:  email,
		Expiry: exp,
		Iat:    iat,
	}, nil
}

func (a Auth) GetCurrentUser(ctx *fiber.Ctx) (dto.AuthResponse, error) {
	u := ctx.Locals("user")
	claims, ok := u.(dto.AuthResponse)
	if !ok {
		return dto.AuthResponse{}, errors.New("missing auth user in context")
	}
	return claims, nil
}

type actionClaims struct {
	Action string `json:"act"`
	Target string `json:"tgt"`
	jwt.RegisteredClaims
}

// GenerateActionToken mints a single-use token bound to actor, action and subject.
func (a Auth) GenerateActionToken(actorID uint, action, subject string) (string, time.Time, error) {
	action = strings.TrimSpace(action)
	subject = strings.TrimSpace(subject)
	if actorID == 0 || action == "" || subject == "" {
		return "", time.Time{}, errors.New("actor, action and subject are required")
	}

	now := time.Now()
	exp := now.Add(a.ActionTTL)
	claims := actionClaims{
		Action: action,
		Target: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   uintString(actorID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.Secret))
	if err != nil {
		return "", time.Time{}, errors.New("unable to sign the token")
	}
	return signed, exp, nil
}

// VerifyActionToken checks the binding and redeems the token. A token is
// accepted at most once.
func (a Auth) VerifyActionToken(ctx context.Context, tokenString string, actorID uint, action, subject string) error {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ErrActionTokenInvalid
	}

	var claims actionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, a.keyFunc, jwt.WithExpirationRequired())
	if err != nil || !token.Valid || claims.ID == "" {
		return ErrActionTokenInvalid
	}
	if claims.Subject != uintString(actorID) || claims.Action != action || claims.Target != subject {
		return ErrActionTokenMismatch
	}

	if a.nonces == nil {
		return errors.New("action token store is not configured")
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return ErrActionTokenInvalid
	}
	fresh, err := a.nonces.Consume(ctx, claims.ID, ttl)
	if err != nil {
		return err
	}
	if !fresh {
		return ErrActionTokenUsed
	}
	return nil
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func (a Auth) HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.New("failed to hash password")
	}
	return string(hashed), nil
}

func (a Auth) VerifyPassword(plain, hashed string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)); err != nil {
		return errors.New("invalid email or password")
	}
	return nil
}
