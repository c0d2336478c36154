package user

import (
	errors "github.com/kanbanhq/board-management/internal"
	"github.com/kanbanhq/board-management/internal/core/common/validation"
)

type CreateUserDTO struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Password  string `json:"password"`
	ProfileID *int64 `json:"profile_id,omitempty"`
}

func (d CreateUserDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	validator.Field("email", d.Email).Required().Email()
	validator.Field("name", d.Name).Required().MinLength(2).MaxLength(100)
	validator.Field("password", d.Password).Required().MinLength(8).MaxLength(72)
	return validator.Validate()
}

type UpdateUserDTO struct {
	Name     *string `json:"name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (d UpdateUserDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	if d.Name != nil {
		validator.Field("name", *d.Name).Required().MinLength(2).MaxLength(100)
	}
	return validator.Validate()
}

type AssignProfileDTO struct {
	ProfileID *int64 `json:"profile_id"`
}

type ChangePasswordDTO struct {
	Password string `json:"password"`
}

func (d ChangePasswordDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	validator.Field("password", d.Password).Required().MinLength(8).MaxLength(72)
	return validator.Validate()
}
