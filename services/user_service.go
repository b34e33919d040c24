package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"flower_shop/logger"
	"flower_shop/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 6

// Claims is the payload of the bearer tokens issued at login.
type Claims struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c Claims) IsAdmin() bool { return c.Role == models.RoleAdmin }

type RegisterInput struct {
	Name     string `json:"nombre" binding:"required"`
	LastName string `json:"apellido"`
	Phone    string `json:"telefono"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// UserPatch updates only the fields that are present. Role and Active may
// only be changed by an administrator.
type UserPatch struct {
	Name     *string      `json:"nombre" binding:"omitempty,min=1"`
	LastName *string      `json:"apellido"`
	Phone    *string      `json:"telefono"`
	Email    *string      `json:"email" binding:"omitempty,email"`
	Password *string      `json:"password" binding:"omitempty,min=6"`
	Role     *models.Role `json:"rol" binding:"omitempty,oneof=ADMIN USER"`
	Active   *bool        `json:"activo"`
}

type UserService struct {
	db       *gorm.DB
	secret   []byte
	tokenTTL time.Duration
	cost     int
}

func NewUserService(db *gorm.DB, jwtSecret string, tokenTTL time.Duration) *UserService {
	return &UserService{
		db:       db,
		secret:   []byte(jwtSecret),
		tokenTTL: tokenTTL,
		cost:     bcrypt.DefaultCost,
	}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalidf("nombre is required")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueEmail(ctx, email, ""); err != nil {
		return nil, err
	}
	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := models.User{
		Name:     name,
		LastName: strings.TrimSpace(in.LastName),
		Phone:    strings.TrimSpace(in.Phone),
		Email:    email,
		Password: hash,
		Role:     models.RoleUser,
		Active:   true,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, err
	}
	logger.LogInfo("registered user %s", u.ID)
	return &u, nil
}

// Login checks the credentials and returns a signed bearer token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	}
	if err != nil {
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	}
	if !u.Active {
		return "", nil, fmt.Errorf("account is deactivated: %w", ErrForbidden)
	}

	token, err := s.issueToken(u)
	if err != nil {
		return "", nil, err
	}
	return token, &u, nil
}

// ParseToken verifies signature and expiry of a bearer token.
func (s *UserService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", ErrUnauthorized)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("token without subject: %w", ErrUnauthorized)
	}
	return claims, nil
}

// Authenticate verifies a bearer token against the stored account. The
// returned claims carry the account's current role, so demotions take effect
// before the token expires.
func (s *UserService) Authenticate(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}

	var u models.User
	err = s.db.WithContext(ctx).Select("id", "email", "role", "active").First(&u, "id = ?", claims.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("token subject %s: %w", claims.UserID, ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, fmt.Errorf("account is deactivated: %w", ErrForbidden)
	}
	claims.Email = u.Email
	claims.Role = u.Role
	return claims, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Preload("Products").First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error
	return users, err
}

// Update applies patch on behalf of actor, who must be the user itself or an
// administrator.
func (s *UserService) Update(ctx context.Context, id string, patch UserPatch, actor Claims) (*models.User, error) {
	if !actor.IsAdmin() && actor.UserID != id {
		return nil, fmt.Errorf("cannot edit another user: %w", ErrForbidden)
	}
	if !actor.IsAdmin() && (patch.Role != nil || patch.Active != nil) {
		return nil, fmt.Errorf("only administrators can change rol or activo: %w", ErrForbidden)
	}

	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user")
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, invalidf("nombre is required")
		}
		updates["name"] = name
	}
	if patch.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*patch.LastName)
	}
	if patch.Phone != nil {
		updates["phone"] = strings.TrimSpace(*patch.Phone)
	}
	if patch.Email != nil {
		email, err := normalizeEmail(*patch.Email)
		if err != nil {
			return nil, err
		}
		if err := s.ensureUniqueEmail(ctx, email, id); err != nil {
			return nil, err
		}
		updates["email"] = email
	}
	if patch.Password != nil {
		hash, err := s.hashPassword(*patch.Password)
		if err != nil {
			return nil, err
		}
		updates["password"] = hash
	}
	if patch.Role != nil {
		if *patch.Role != models.RoleAdmin && *patch.Role != models.RoleUser {
			return nil, invalidf("rol must be ADMIN or USER")
		}
		updates["role"] = *patch.Role
	}
	if patch.Active != nil {
		updates["active"] = *patch.Active
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&u).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

func (s *UserService) Deactivate(ctx context.Context, id string) error {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return notFound(err, "user")
	}
	return s.db.WithContext(ctx).Model(&u).Update("active", false).Error
}

// EnsureAdmin creates the bootstrap administrator, or promotes and
// reactivates the existing account with that email. An empty email is a
// no-op.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" {
		return nil
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	var u models.User
	err = s.db.WithContext(ctx).First(&u, "email = ?", email).Error
	if err == nil {
		if u.IsAdmin() && u.Active {
			return nil
		}
		logger.LogInfo("promoting %s to administrator", email)
		return s.db.WithContext(ctx).Model(&u).Updates(map[string]interface{}{
			"role":   models.RoleAdmin,
			"active": true,
		}).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}
	u = models.User{
		Name:     "Admin",
		Email:    email,
		Password: hash,
		Role:     models.RoleAdmin,
		Active:   true,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return err
	}
	logger.LogInfo("created administrator %s", email)
	return nil
}

func (s *UserService) issueToken(u models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *UserService) hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", invalidf("password must have at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *UserService) ensureUniqueEmail(ctx context.Context, email, exceptID string) error {
	query := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("email %s: %w", email, ErrConflict)
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return "", invalidf("invalid email %q", email)
	}
	return email, nil
}
