package services

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"greendrake/estates/internal/auth"
	"greendrake/estates/internal/config"
	"greendrake/estates/internal/db"
	"greendrake/estates/internal/models"
	"greendrake/estates/internal/store"
	"greendrake/estates/internal/validation"
)

const (
	SavedActionSaved   = "saved"
	SavedActionUnsaved = "unsaved"
)

// AuthResult is returned by every operation that issues a token.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// ProfileUpdate carries the optional fields of a profile edit. A nil field is left unchanged;
// an empty email clears it.
type ProfileUpdate struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type SavedToggleResult struct {
	Action          string               `json:"action"`
	SavedProperties []primitive.ObjectID `json:"savedProperties"`
}

// IAuthService covers registration, login and everything a user does to their own account.
type IAuthService interface {
	Register(ctx context.Context, in validation.Registration) (*AuthResult, error)
	Login(ctx context.Context, in validation.Login) (*AuthResult, error)
	Me(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, upd ProfileUpdate) (*models.User, error)
	ChangePhone(ctx context.Context, userID primitive.ObjectID, in validation.PhoneChange) (*AuthResult, error)
	ToggleSavedProperty(ctx context.Context, userID, propertyID primitive.ObjectID) (*SavedToggleResult, error)
	ListSavedProperties(ctx context.Context, userID primitive.ObjectID) ([]models.Property, error)
}

type authService struct {
	users      store.IUserStore
	properties store.IPropertyStore
	cfg        *config.Config
	logger     *zap.Logger
}

func NewAuthService(users store.IUserStore, properties store.IPropertyStore, cfg *config.Config, logger *zap.Logger) IAuthService {
	return &authService{users: users, properties: properties, cfg: cfg, logger: logger}
}

// notFound maps the store's missing-document sentinel to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// duplicate maps a unique-index violation to a DuplicateFieldError.
func duplicate(err error) error {
	if field := db.DuplicateKeyField(err); field != "" {
		return &DuplicateFieldError{Field: field}
	}
	return err
}

func (s *authService) issue(user *models.User) (*AuthResult, error) {
	token, err := auth.GenerateJWT(user, s.cfg.JwtSecret, s.cfg.JwtTTL)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return &AuthResult{Token: token, User: user}, nil
}

func (s *authService) Register(ctx context.Context, in validation.Registration) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.TrimSpace(in.Role)
	if err := validation.ValidateRegistration(in); err != nil {
		return nil, err
	}

	taken, err := s.users.PhoneTaken(ctx, in.PhoneNumber, primitive.NilObjectID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &DuplicateFieldError{Field: "phoneNumber"}
	}

	hash, err := auth.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	role := models.RoleUser
	if in.Role != "" {
		role = models.Role(in.Role)
	}

	user, err := s.users.Create(ctx, &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		return nil, duplicate(err)
	}

	s.logger.Info("user registered", zap.String("user", user.ID.Hex()), zap.String("role", string(user.Role)))
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, in validation.Login) (*AuthResult, error) {
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	if err := validation.ValidateLogin(in); err != nil {
		return nil, err
	}

	user, err := s.users.FindByPhoneWithPassword(ctx, in.PhoneNumber)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPasswordHash(in.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *authService) Me(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	current, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}

	profile := validation.Profile{Name: current.Name, Email: current.Email}
	if upd.Name != nil {
		profile.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Email != nil {
		profile.Email = strings.ToLower(strings.TrimSpace(*upd.Email))
	}
	if err := validation.ValidateProfile(profile); err != nil {
		return nil, err
	}

	user, err := s.users.UpdateProfile(ctx, userID, profile.Name, profile.Email)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

// ChangePhone re-checks the password, moves the account to the new number and issues a
// token carrying it. Changing to the current number is a no-op.
func (s *authService) ChangePhone(ctx context.Context, userID primitive.ObjectID, in validation.PhoneChange) (*AuthResult, error) {
	in.NewPhoneNumber = strings.TrimSpace(in.NewPhoneNumber)
	if err := validation.ValidatePhoneChange(in); err != nil {
		return nil, err
	}

	user, err := s.users.FindByIDWithPassword(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	if !auth.CheckPasswordHash(in.CurrentPassword, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if user.PhoneNumber == in.NewPhoneNumber {
		return s.issue(user)
	}

	taken, err := s.users.PhoneTaken(ctx, in.NewPhoneNumber, userID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &DuplicateFieldError{Field: "phoneNumber"}
	}

	updated, err := s.users.UpdatePhone(ctx, userID, in.NewPhoneNumber)
	if err != nil {
		return nil, notFound(duplicate(err))
	}
	s.logger.Info("phone number changed", zap.String("user", userID.Hex()))
	return s.issue(updated)
}

// ToggleSavedProperty removes the property from the saved set when present, otherwise adds it.
// Only existing listings can be added.
func (s *authService) ToggleSavedProperty(ctx context.Context, userID, propertyID primitive.ObjectID) (*SavedToggleResult, error) {
	user, removed, err := s.users.RemoveSavedProperty(ctx, userID, propertyID)
	if err != nil {
		return nil, err
	}
	if removed {
		return &SavedToggleResult{Action: SavedActionUnsaved, SavedProperties: user.SavedProperties}, nil
	}

	if _, err := s.properties.FindByID(ctx, propertyID); err != nil {
		return nil, notFound(err)
	}
	user, err = s.users.AddSavedProperty(ctx, userID, propertyID)
	if err != nil {
		return nil, notFound(err)
	}
	return &SavedToggleResult{Action: SavedActionSaved, SavedProperties: user.SavedProperties}, nil
}

// ListSavedProperties resolves the saved set in the order the user saved it. Deleted listings are skipped.
func (s *authService) ListSavedProperties(ctx context.Context, userID primitive.ObjectID) ([]models.Property, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	found, err := s.properties.FindByIDs(ctx, user.SavedProperties)
	if err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]models.Property, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	ordered := make([]models.Property, 0, len(found))
	for _, id := range user.SavedProperties {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}
