package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenCookieName = "token"

// TokenIssuer signs and verifies the HS256 tokens that identify a caller.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *TokenIssuer) GenerateToken(userID uint) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(t.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ParseToken validates signature and expiry and returns the user id claim.
func (t *TokenIssuer) ParseToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return 0, fmt.Errorf("invalid or expired token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid token claims")
	}

	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return 0, errors.New("invalid user id in token claims")
	}
	return uint(userID), nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ========================
// REGISTER HANDLER
// ========================

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Location string `json:"location"`
}

func (a *API) Register(c *gin.Context) {
	var body RegisterRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	role := strings.TrimSpace(body.Role)
	if role == "" {
		role = RoleVolunteer
	}
	if !IsValidRole(role) {
		jsonError(c, http.StatusBadRequest, "invalid role")
		return
	}

	hash, err := HashPassword(body.Password)
	if err != nil {
		a.serverError(c, "failed to hash password", err)
		return
	}

	user := User{
		Email:        body.Email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(body.Name),
		Phone:        body.Phone,
		Role:         role,
		Location:     body.Location,
	}

	if err := a.store.CreateUser(c.Request.Context(), &user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			jsonError(c, http.StatusBadRequest, "Email already exists")
			return
		}
		a.serverError(c, "failed to register user", err)
		return
	}

	a.log.Info("user registered", "user_id", user.ID, "role", user.Role)
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

// ========================
// LOGIN HANDLER
// ========================

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (a *API) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	user, err := a.store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			jsonError(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		a.serverError(c, "failed to load user for login", err)
		return
	}

	if !CheckPassword(user.PasswordHash, req.Password) {
		jsonError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := a.tokens.GenerateToken(user.ID)
	if err != nil {
		a.serverError(c, "failed to generate token", err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookieName, token, int(a.tokens.ttl.Seconds()), "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"role":  user.Role,
		"token": token,
	})
}

func (a *API) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
