package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"stuverflow/internal/models"
	"stuverflow/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles signup, login, profiles and password resets.
type UserService struct {
	userRepo repository.UserRepository
	now      func() time.Time
}

type SignupInput struct {
	Username string
	Email    string
	Password string
	Name     string
	Handle   string
}

type LoginInput struct {
	Email    string
	Password string
}

type UpdateProfileInput struct {
	UserID         uint
	Name           *string
	Handle         *string
	Bio            *string
	Institution    *string
	Title          *string
	Expertise      *string
	Certifications *string
	Interests      *string
	ProfilePicture *string
}

type ResetPasswordInput struct {
	Token       string
	NewPassword string
}

// ResetTokenTTL is how long a password reset token remains usable.
const ResetTokenTTL = 24 * time.Hour

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo, now: time.Now}
}

func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, models.NewValidationError("A valid email is required")
	}
	if len(in.Password) < 8 {
		return nil, models.NewValidationError("Password must be at least 8 characters")
	}
	if in.Username == "" {
		return nil, models.NewValidationError("Username is required")
	}
	if !models.ValidateHandle(in.Handle) {
		return nil, models.NewValidationError("Handle must start with '@'")
	}

	existing, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hash),
		Name:     in.Name,
	}
	if in.Handle != "" {
		user.Handle = &in.Handle
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Login(ctx context.Context, in LoginInput) (*models.User, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Handle != nil {
		if !models.ValidateHandle(*in.Handle) {
			return nil, models.NewValidationError("Handle must start with '@'")
		}
		if *in.Handle == "" {
			user.Handle = nil
		} else {
			user.Handle = in.Handle
		}
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if in.Institution != nil {
		user.Institution = *in.Institution
	}
	if in.Title != nil {
		user.Title = *in.Title
	}
	if in.Expertise != nil {
		user.Expertise = *in.Expertise
	}
	if in.Certifications != nil {
		user.Certifications = *in.Certifications
	}
	if in.Interests != nil {
		user.Interests = *in.Interests
	}
	if in.ProfilePicture != nil {
		user.ProfilePicture = *in.ProfilePicture
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Search(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if strings.TrimSpace(query) == "" {
		return s.userRepo.ListNewest(ctx, limit)
	}
	return s.userRepo.Search(ctx, query, limit, offset)
}

// RequestPasswordReset issues a single-use token. The token is returned to
// the caller for delivery; unknown emails produce no token and no error so
// account existence is not leaked.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", nil
	}

	token := &models.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(ResetTokenTTL),
	}
	if err := s.userRepo.CreateResetToken(ctx, token); err != nil {
		return "", err
	}
	return token.Token, nil
}

func (s *UserService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if len(in.NewPassword) < 8 {
		return models.NewValidationError("Password must be at least 8 characters")
	}

	row, err := s.userRepo.GetResetToken(ctx, in.Token)
	if err != nil {
		return err
	}
	if row.Expired(s.now()) {
		_ = s.userRepo.DeleteResetToken(ctx, row.ID)
		return models.NewValidationError("Token expired")
	}

	user, err := s.userRepo.GetByID(ctx, row.UserID)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.Password = string(hash)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	return s.userRepo.DeleteResetToken(ctx, row.ID)
}
