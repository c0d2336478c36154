package team

import (
	errors "github.com/kanbanhq/board-management/internal"
	"github.com/kanbanhq/board-management/internal/core/common/validation"
)

type CreateTeamDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

func (d CreateTeamDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	validator.Field("name", d.Name).Required().MinLength(2).MaxLength(100)
	validator.Field("description", d.Description).MaxLength(500)
	return validator.Validate()
}

type UpdateTeamDTO struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
}

func (d UpdateTeamDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	if d.Name != nil {
		validator.Field("name", *d.Name).Required().MinLength(2).MaxLength(100)
	}
	if d.Description != nil {
		validator.Field("description", *d.Description).MaxLength(500)
	}
	return validator.Validate()
}

type AddMemberDTO struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

func (d AddMemberDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	validator.Field("user_id", d.UserID).Required()
	validator.Field("role", d.Role).OneOf("member", "lead", "admin")
	return validator.Validate()
}

type AssignProfileDTO struct {
	ProfileID int64 `json:"profile_id"`
}

func (d AssignProfileDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	validator.Field("profile_id", d.ProfileID).Required()
	return validator.Validate()
}
