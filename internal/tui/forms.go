// Package tui provides the interactive prompts and color theme used by commands.
package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
)

// LoginForm holds the values collected by PromptLogin.
type LoginForm struct {
	Username string
	Password string
}

// RegisterForm holds the values collected by PromptRegister.
type RegisterForm struct {
	Username  string
	Email     string
	Password  string
	Password2 string
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("this field is required")
	}
	return nil
}

// PromptLogin asks for a username and password. Fields already set in f
// are skipped.
func PromptLogin(f *LoginForm) error {
	var fields []huh.Field
	if f.Username == "" {
		fields = append(fields, huh.NewInput().
			Title("Username").
			Value(&f.Username).
			Validate(required))
	}
	if f.Password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&f.Password).
			Validate(required))
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...).Title("Sign in to tracker")).Run()
}

// PromptRegister asks for the fields of a new account. Fields already set
// in f are skipped.
func PromptRegister(f *RegisterForm) error {
	var fields []huh.Field
	if f.Username == "" {
		fields = append(fields, huh.NewInput().Title("Username").Value(&f.Username).Validate(required))
	}
	if f.Email == "" {
		fields = append(fields, huh.NewInput().Title("Email").Value(&f.Email).Validate(func(s string) error {
			if !strings.Contains(s, "@") {
				return errors.New("enter a valid email address")
			}
			return nil
		}))
	}
	if f.Password == "" {
		fields = append(fields,
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&f.Password).Validate(required),
			huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&f.Password2).Validate(func(s string) error {
				if s != f.Password {
					return errors.New("passwords do not match")
				}
				return nil
			}),
		)
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...).Title("Create a tracker account")).Run()
}

// ConfirmDangerous shows a confirmation prompt for destructive actions.
func ConfirmDangerous(message string) (bool, error) {
	var result bool
	err := huh.NewConfirm().
		Title(message).
		Description("This action cannot be undone.").
		Affirmative("Yes, I'm sure").
		Negative("Cancel").
		Value(&result).
		Run()
	if err != nil {
		return false, err
	}
	return result, nil
}
