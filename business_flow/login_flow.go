// Package businessflow contains the core business logic and use cases for authentication workflows
package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/app/services"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
	"golang.org/x/crypto/bcrypt"
)

// LoginFlow handles user authentication operations
type LoginFlow interface {
	Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
	RefreshToken(ctx context.Context, request *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.RefreshTokenResponse, error)
}

// LoginFlowImpl implements the login business flow
type LoginFlowImpl struct {
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.TokenService
}

// NewLoginFlow creates a new login flow instance
func NewLoginFlow(
	customerRepo repository.CustomerRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
) LoginFlow {
	return &LoginFlowImpl{
		customerRepo: customerRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
	}
}

// Login authenticates a user with email and password
func (lf *LoginFlowImpl) Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	// Validate business rules
	if err := lf.validateLoginRequest(request); err != nil {
		return nil, NewBusinessError("LOGIN_VALIDATION_FAILED", "Login validation failed", err)
	}

	var customer *models.Customer

	resp, err := func() (*dto.LoginResponse, error) {
		var err error
		customer, err = lf.customerRepo.ByEmail(ctx, strings.TrimSpace(strings.ToLower(request.Email)))
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, ErrCustomerNotFound
		}

		// Check if account is active
		if !customer.IsActive {
			return nil, ErrAccountInactive
		}

		// Verify password
		if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(request.Password)); err != nil {
			return nil, ErrIncorrectPassword
		}

		accessToken, refreshToken, err := lf.tokenService.GenerateTokens(customer.ID)
		if err != nil {
			return nil, err
		}

		if err := lf.customerRepo.UpdateLastLogin(ctx, customer.ID, utils.UTCNow()); err != nil {
			return nil, err
		}

		return &dto.LoginResponse{
			Message:  "Login successful",
			Customer: ToAuthCustomerDTO(*customer),
			Tokens: dto.TokenPairDTO{
				AccessToken:  accessToken,
				RefreshToken: refreshToken,
				TokenType:    "Bearer",
				ExpiresIn:    dto.FormatTokenExpiry(utils.AccessTokenTTL),
			},
		}, nil
	}()

	if err != nil {
		errMsg := fmt.Sprintf("Login failed: %s", err.Error())
		_ = lf.logLoginAttempt(ctx, customer, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}

	msg := fmt.Sprintf("User logged in successfully: %d", resp.Customer.ID)
	_ = lf.logLoginAttempt(ctx, customer, models.AuditActionLoginSuccessful, msg, true, nil, metadata)

	return resp, nil
}

// RefreshToken rotates a refresh token into a fresh token pair
func (lf *LoginFlowImpl) RefreshToken(ctx context.Context, request *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.RefreshTokenResponse, error) {
	if request.RefreshToken == "" {
		return nil, NewBusinessError("REFRESH_TOKEN_REQUIRED", "Refresh token is required", services.ErrTokenInvalid)
	}

	accessToken, refreshToken, err := lf.tokenService.RefreshToken(request.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("TOKEN_REFRESH_FAILED", "Token refresh failed", err)
	}

	return &dto.RefreshTokenResponse{
		Message: "Token refreshed successfully",
		Tokens: dto.TokenPairDTO{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    dto.FormatTokenExpiry(utils.AccessTokenTTL),
		},
	}, nil
}

func (lf *LoginFlowImpl) logLoginAttempt(ctx context.Context, customer *models.Customer, action, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	return writeAuditLog(ctx, lf.auditRepo, customer, action, description, success, errMsg, metadata)
}

func (lf *LoginFlowImpl) validateLoginRequest(request *dto.LoginRequest) error {
	if strings.TrimSpace(request.Email) == "" {
		return ErrCustomerNotFound
	}

	if request.Password == "" {
		return ErrIncorrectPassword
	}

	return nil
}
