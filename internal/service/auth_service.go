package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ahmadqo/course-certificates/internal/config"
	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/ahmadqo/course-certificates/internal/repository"
	"github.com/ahmadqo/course-certificates/internal/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User  model.UserResponse `json:"user"`
	Token utils.TokenPair    `json:"token"`
}

// RegisterRequest dipakai admin untuk membuat akun; nama Arab/Inggris
// dipakai di sertifikat sesuai bahasa template.
type RegisterRequest struct {
	Name            string     `json:"name"              validate:"required,max=150"`
	FullNameArabic  string     `json:"full_name_arabic"  validate:"omitempty,max=150"`
	FullNameEnglish string     `json:"full_name_english" validate:"omitempty,max=150"`
	Email           string     `json:"email"             validate:"required,email"`
	Password        string     `json:"password"          validate:"required,min=8"`
	Role            model.Role `json:"role"              validate:"omitempty,oneof=student instructor admin"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

var (
	ErrInvalidCredentials = errors.New("email atau password salah")
	ErrAccountDisabled    = errors.New("akun tidak aktif, hubungi administrator")
	ErrEmailAlreadyExists = errors.New("email sudah terdaftar")
	ErrInvalidToken       = errors.New("refresh token tidak valid atau sudah expired")
	ErrUserNotFound       = errors.New("user tidak ditemukan")
)

type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*model.UserResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*utils.TokenPair, error)
	Me(ctx context.Context, userID string) (*model.UserResponse, error)
}

type authService struct {
	userRepo repository.UserRepository
	jwt      config.JWTConfig
	log      *slog.Logger
}

func NewAuthService(userRepo repository.UserRepository, jwt config.JWTConfig, log *slog.Logger) AuthService {
	return &authService{userRepo: userRepo, jwt: jwt, log: log}
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.log.Info("user logged in", "user_id", user.ID, "role", user.Role)
	return &LoginResponse{User: user.ToResponse(), Token: *tokens}, nil
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*model.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.RoleStudent
	}

	user := &model.User{
		ID:              uuid.New(),
		Name:            utils.SanitizeString(req.Name),
		FullNameArabic:  optionalString(req.FullNameArabic),
		FullNameEnglish: optionalString(req.FullNameEnglish),
		Email:           email,
		Password:        string(hashed),
		Role:            role,
		IsActive:        true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*utils.TokenPair, error) {
	claims, err := utils.ValidateToken(refreshToken, s.jwt.Secret, utils.TokenRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	// user harus masih ada dan aktif
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrAccountDisabled
	}

	return s.issueTokens(user)
}

func (s *authService) Me(ctx context.Context, userID string) (*model.UserResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *authService) issueTokens(user *model.User) (*utils.TokenPair, error) {
	return utils.GenerateTokenPair(model.JWTClaims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   string(user.Role),
		Name:   user.Name,
	}, s.jwt.Secret, s.jwt.ExpireHours, s.jwt.RefreshExpHours)
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
