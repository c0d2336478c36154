package profile

import (
	errors "github.com/kanbanhq/board-management/internal"
	"github.com/kanbanhq/board-management/internal/core/common/validation"
)

type CreateProfileDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	IsDefault   bool   `json:"is_default"`
}

func (d CreateProfileDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	validator.Field("name", d.Name).Required().MinLength(2).MaxLength(100)
	validator.Field("description", d.Description).MaxLength(500)
	return validator.Validate()
}

type UpdateProfileDTO struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
	IsDefault   *bool   `json:"is_default,omitempty"`
}

func (d UpdateProfileDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	if d.Name != nil {
		validator.Field("name", *d.Name).Required().MinLength(2).MaxLength(100)
	}
	if d.Description != nil {
		validator.Field("description", *d.Description).MaxLength(500)
	}
	return validator.Validate()
}

type AssignPermissionDTO struct {
	PermissionID int64 `json:"permission_id"`
}

func (d AssignPermissionDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	validator.Field("permission_id", d.PermissionID).Required()
	return validator.Validate()
}
