package auth

import (
	errors "github.com/kanbanhq/board-management/internal"
	"github.com/kanbanhq/board-management/internal/core/common/validation"
)

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate only checks presence; anything beyond that is the credential
// check's job and must not leak which part was wrong.
func (d LoginDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	validator.Field("email", d.Email).Required()
	validator.Field("password", d.Password).Required()
	return validator.Validate()
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (d RefreshTokenDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	validator.Field("refresh_token", d.RefreshToken).Required()
	return validator.Validate()
}
