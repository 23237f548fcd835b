package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neekunjshah/petty-cash/internal/auth"
	"github.com/neekunjshah/petty-cash/internal/model"
	"github.com/neekunjshah/petty-cash/internal/repository"
	"github.com/neekunjshah/petty-cash/internal/utils"
	"gorm.io/gorm"
)

// AccountService 账户服务接口
type AccountService interface {
	// Authenticate 使用邮箱或用户名登录
	Authenticate(ctx context.Context, login string, password string) (*model.AccountModel, error)
	Create(ctx context.Context, req *CreateAccountRequest) (*model.AccountModel, error)
	Get(ctx context.Context, id uint) (*model.AccountModel, error)
	Count(ctx context.Context) (int64, error)
}

// CreateAccountRequest 创建账户请求
type CreateAccountRequest struct {
	Username string
	Email    string
	Password string
	FullName string
	Role     string
}

type accountService struct {
	accountRepo    repository.AccountRepository
	auditLogSvc    AuditLogService
	verifyPassword func(password, hash string) bool
}

// NewAccountService 创建账户服务
func NewAccountService(accountRepo repository.AccountRepository, auditLogSvc AuditLogService) AccountService {
	return &accountService{
		accountRepo:    accountRepo,
		auditLogSvc:    auditLogSvc,
		verifyPassword: utils.VerifyPassword,
	}
}

// Authenticate 校验登录凭据,账户不存在与密码错误返回同一错误
func (s *accountService) Authenticate(ctx context.Context, login string, password string) (*model.AccountModel, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, validationError("login and password are required")
	}

	var (
		account *model.AccountModel
		err     error
	)
	if strings.Contains(login, "@") {
		account, err = s.accountRepo.FindByEmail(ctx, strings.ToLower(login))
	} else {
		account, err = s.accountRepo.FindByUsername(ctx, login)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.verifyPassword(password, utils.DummyPasswordHash())
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	if !s.verifyPassword(password, account.PasswordHash) {
		return nil, ErrUnauthorized
	}

	recordBestEffort(ctx, s.auditLogSvc, account.ID, AuditActionLogin, "account",
		fmt.Sprintf("%d", account.ID), map[string]string{"username": account.Username})

	return account, nil
}

// Create 创建账户,角色创建后不可修改
func (s *accountService) Create(ctx context.Context, req *CreateAccountRequest) (*model.AccountModel, error) {
	if err := utils.ValidateUsername(req.Username); err != nil {
		return nil, validationError("username: %v", err)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := utils.ValidateEmail(email); err != nil {
		return nil, validationError("email: %v", err)
	}
	fullName, err := utils.TrimAndValidate(req.FullName, 120)
	if err != nil {
		return nil, validationError("full name: %v", err)
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		return nil, validationError("role: %v", err)
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		var verr *utils.ValidationError
		if errors.As(err, &verr) {
			return nil, validationError("password: %v", err)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if _, err := s.accountRepo.FindByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("%w: username %q already exists", ErrConflict, req.Username)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if _, err := s.accountRepo.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email %q already exists", ErrConflict, email)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	account := &model.AccountModel{
		Username:     req.Username,
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         role,
	}
	if err := account.Validate(); err != nil {
		return nil, validationError("%v", err)
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// Get 获取账户
func (s *accountService) Get(ctx context.Context, id uint) (*model.AccountModel, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// Count 账户总数
func (s *accountService) Count(ctx context.Context) (int64, error) {
	return s.accountRepo.Count(ctx)
}
