package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kendall-kelly/checkout-flow-api/checkout"
	"github.com/kendall-kelly/checkout-flow-api/config"
	"github.com/kendall-kelly/checkout-flow-api/models"
	"github.com/kendall-kelly/checkout-flow-api/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var validate = validator.New()

// ErrAccountExists is returned when provisioning collides with an existing account
var ErrAccountExists = errors.New("an account with this subject, name or email already exists")

// AccountService manages customer accounts stored in the users table
type AccountService struct {
	db         *gorm.DB
	bcryptCost int
}

// NewAccountService creates an account service backed by db
func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db, bcryptCost: bcrypt.DefaultCost}
}

// Register creates a customer account. Invalid or taken names and email
// addresses are reported together as a *checkout.ValidationError.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (uint, error) {
	db := config.DBFromContext(ctx, s.db)
	verr := &checkout.ValidationError{}

	if err := utils.ValidateUsername(name); err != nil {
		reason := checkout.ReasonInvalid
		var usernameErr *utils.UsernameError
		if errors.As(err, &usernameErr) && usernameErr.Code == "USERNAME_ILLEGAL_CHARACTER" {
			reason = checkout.ReasonIllegalCharacter
		}
		verr.Add("name", reason, err.Error())
	} else if taken, err := s.exists(db, "name = ?", name); err != nil {
		return 0, err
	} else if taken {
		verr.Add("name", checkout.ReasonTaken, fmt.Sprintf("The username %s is already taken.", name))
	}

	if err := validate.Var(email, "required,email"); err != nil {
		verr.Add("mail", checkout.ReasonInvalid, fmt.Sprintf("The email address %s is not valid.", email))
	} else if taken, err := s.exists(db, "LOWER(email) = ?", strings.ToLower(email)); err != nil {
		return 0, err
	} else if taken {
		verr.Add("mail", checkout.ReasonTaken, fmt.Sprintf("The email address %s is already taken.", email))
	}

	if password == "" {
		verr.Add("pass", checkout.ReasonRequired, "Password field is required.")
	}
	if err := verr.ErrOrNil(); err != nil {
		return 0, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         "customer",
	}
	if err := db.Create(&user).Error; err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	return user.ID, nil
}

// Authenticate checks a username and password
func (s *AccountService) Authenticate(ctx context.Context, name, password string) (*models.User, error) {
	var user models.User
	err := config.DBFromContext(ctx, s.db).Where("name = ?", name).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, checkout.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, checkout.ErrInvalidCredentials
	}
	return &user, nil
}

// FindBySubject returns the account provisioned for a JWT subject
func (s *AccountService) FindBySubject(ctx context.Context, subject string) (*models.User, error) {
	var user models.User
	if err := config.DBFromContext(ctx, s.db).Where("subject = ?", subject).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Provision creates the account for a JWT subject from identity provider
// data. Name and email must be unique.
func (s *AccountService) Provision(ctx context.Context, subject, name, email, role string) (*models.User, error) {
	db := config.DBFromContext(ctx, s.db)
	if role == "" {
		role = "customer"
	}

	var count int64
	err := db.Model(&models.User{}).
		Where("subject = ? OR name = ? OR LOWER(email) = ?", subject, name, strings.ToLower(email)).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("check account uniqueness: %w", err)
	}
	if count > 0 {
		return nil, ErrAccountExists
	}

	user := models.User{Subject: &subject, Name: name, Email: email, Role: role}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return &user, nil
}

func (s *AccountService) exists(db *gorm.DB, query string, arg any) (bool, error) {
	var count int64
	if err := db.Model(&models.User{}).Where(query, arg).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check account uniqueness: %w", err)
	}
	return count > 0, nil
}
