package controller

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rpggio/taskdesk/internal/domain/user"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateForm runs struct validation and reports the first failing field.
func validateForm(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: fe.Field(), Reason: reason(fe)}
	}
	return err
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}

// LoginForm holds the login inputs. Role is the role the user says they
// have; it is compared with the server's answer and never sent.
type LoginForm struct {
	Email    string    `json:"email" validate:"required"`
	Password string    `json:"password" validate:"required"`
	Role     user.Role `json:"role" validate:"required,oneof=admin user"`
}

func (f LoginForm) normalized() LoginForm {
	f.Email = strings.TrimSpace(f.Email)
	return f
}

// RegisterForm holds the admin's new-user inputs.
type RegisterForm struct {
	Name     string    `json:"name" validate:"required"`
	Email    string    `json:"email" validate:"required"`
	Password string    `json:"password" validate:"required"`
	Role     user.Role `json:"role" validate:"required,oneof=admin user"`
}

// DefaultRegisterForm is the empty form shown after a successful registration.
func DefaultRegisterForm() RegisterForm {
	return RegisterForm{Role: user.RoleUser}
}

func (f RegisterForm) normalized() RegisterForm {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	if f.Role == "" {
		f.Role = user.RoleUser
	}
	return f
}

// TaskForm holds the admin's new-task inputs.
type TaskForm struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	AssignedTo  string `json:"assignedTo" validate:"required"`
}

func (f TaskForm) normalized() TaskForm {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.AssignedTo = strings.TrimSpace(f.AssignedTo)
	return f
}

// CompleteForm holds the completion modal of the user dashboard.
type CompleteForm struct {
	TaskID string `json:"taskId" validate:"required"`
	Notes  string `json:"notes" validate:"required"`
}

func (f CompleteForm) normalized() CompleteForm {
	f.TaskID = strings.TrimSpace(f.TaskID)
	f.Notes = strings.TrimSpace(f.Notes)
	return f
}
