package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmeshcher/orchidshop/internal/auth"
	"github.com/mmeshcher/orchidshop/internal/model"
	"github.com/mmeshcher/orchidshop/internal/repository"
)

// AccountService отвечает за регистрацию, вход и пароли пользователей.
type AccountService struct {
	uow     UnitOfWorkFactory
	tokens  TokenIssuer
	revoker TokenRevoker
}

// NewAccountService создаёт сервис учётных записей.
func NewAccountService(uow UnitOfWorkFactory, tokens TokenIssuer, revoker TokenRevoker) *AccountService {
	return &AccountService{uow: uow, tokens: tokens, revoker: revoker}
}

// Register создаёт учётную запись с ролью User.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (*model.Account, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, errorf(ErrValidation, "Username, email and password are required")
	}

	uow := s.uow.NewUnitOfWork()
	defer uow.Close()
	accounts := repository.For[model.Account](uow)

	taken, err := accounts.Exists(ctx, "name = ?", name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errorf(ErrConflict, "Username is already taken")
	}

	taken, err = accounts.Exists(ctx, "email = ?", email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errorf(ErrConflict, "Email is already registered")
	}

	role, err := repository.For[model.Role](uow).Find(ctx, "name = ?", model.RoleUser)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, errorf(ErrConflict, "Default role %q is not configured", model.RoleUser)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		RoleID:       role.ID,
	}
	accounts.Insert(account)
	if err := uow.Save(ctx); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errorf(ErrConflict, "Username or email is already taken")
		}
		return nil, fmt.Errorf("save account: %w", err)
	}

	account.Role = role
	return account, nil
}

// Login проверяет учётные данные и выпускает токен доступа.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	var account model.Account
	err := repository.For[model.Account](uow).Entities(ctx).
		Preload("Role").
		Where("email = ?", strings.TrimSpace(email)).
		Take(&account).Error
	if err != nil && !isNotFound(err) {
		return "", fmt.Errorf("get account: %w", err)
	}
	if err != nil || !auth.CheckPassword(account.PasswordHash, password) {
		return "", errorf(ErrUnauthorized, "Invalid email or password")
	}

	role := model.RoleUser
	if account.Role != nil {
		role = account.Role.Name
	}

	return s.tokens.Issue(auth.Subject{
		AccountID: account.ID,
		Name:      account.Name,
		Email:     account.Email,
		Role:      role,
	})
}

// GetAccount возвращает учётную запись с ролью.
func (s *AccountService) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	var account model.Account
	err := repository.For[model.Account](uow).Entities(ctx).Preload("Role").Take(&account, id).Error
	if isNotFound(err) {
		return nil, errorf(ErrNotFound, "Account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &account, nil
}

// IsNameAvailable сообщает, свободно ли имя пользователя.
func (s *AccountService) IsNameAvailable(ctx context.Context, name string) (bool, error) {
	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	taken, err := repository.For[model.Account](uow).Exists(ctx, "name = ?", strings.TrimSpace(name))
	return !taken, err
}

// IsEmailAvailable сообщает, свободен ли адрес электронной почты.
func (s *AccountService) IsEmailAvailable(ctx context.Context, email string) (bool, error) {
	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	taken, err := repository.For[model.Account](uow).Exists(ctx, "email = ?", strings.TrimSpace(email))
	return !taken, err
}

// ChangePassword меняет пароль после проверки текущего.
func (s *AccountService) ChangePassword(ctx context.Context, accountID int64, current, next string) error {
	if next == "" {
		return errorf(ErrValidation, "New password is required")
	}

	uow := s.uow.NewUnitOfWork()
	defer uow.Close()
	accounts := repository.For[model.Account](uow)

	account, err := accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return errorf(ErrNotFound, "Account not found")
	}
	if !auth.CheckPassword(account.PasswordHash, current) {
		return errorf(ErrUnauthorized, "Current password is incorrect")
	}

	return s.setPassword(ctx, uow, account, next)
}

// ResetPassword задаёт новый пароль учётной записи с указанной почтой.
func (s *AccountService) ResetPassword(ctx context.Context, email, next string) error {
	if next == "" {
		return errorf(ErrValidation, "New password is required")
	}

	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	account, err := repository.For[model.Account](uow).Find(ctx, "email = ?", strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if account == nil {
		return errorf(ErrNotFound, "Email not found")
	}

	return s.setPassword(ctx, uow, account, next)
}

func (s *AccountService) setPassword(ctx context.Context, uow *repository.UnitOfWork, account *model.Account, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	account.PasswordHash = hash
	repository.For[model.Account](uow).Update(account)
	if err := uow.Save(ctx); err != nil {
		return fmt.Errorf("save password: %w", err)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := auth.HashPassword(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", errorf(ErrValidation, "Password must be at most %d bytes", auth.MaxPasswordBytes)
	}
	return hash, err
}

// Logout отзывает токен tokenID до истечения его срока.
func (s *AccountService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return errorf(ErrValidation, "Token has no id")
	}
	return s.revoker.Revoke(ctx, tokenID, expiresAt)
}
