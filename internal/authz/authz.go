// Package authz содержит единую политику проверки ролей вызывающего.
package authz

import (
	"errors"
	"fmt"

	"github.com/nesi-market/nesi/internal/models"
)

var (
	// ErrUnauthorized вызывающий не аутентифицирован.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden у вызывающего недостаточно прав.
	ErrForbidden = errors.New("forbidden")
)

// Caller аутентифицированный инициатор запроса.
type Caller struct {
	UserID   string
	Username string
	Role     models.Role
}

// Require проверяет, что caller имеет роль required. Администратор проходит любую проверку.
func Require(caller Caller, required models.Role) error {
	return RequireAny(caller, required)
}

// RequireAny проверяет, что роль caller входит в roles.
// Пустой список означает "любой аутентифицированный пользователь".
func RequireAny(caller Caller, roles ...models.Role) error {
	if caller.UserID == "" {
		return ErrUnauthorized
	}
	if caller.Role == models.RoleAdmin || len(roles) == 0 {
		return nil
	}
	for _, r := range roles {
		if caller.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: role %q", ErrForbidden, caller.Role)
}

// RequireSelfOr разрешает доступ владельцу ресурса ownerID с ролью role или администратору.
func RequireSelfOr(caller Caller, ownerID string, role models.Role) error {
	if err := RequireAny(caller, role); err != nil {
		return err
	}
	if caller.Role != models.RoleAdmin && caller.UserID != ownerID {
		return fmt.Errorf("%w: not an owner", ErrForbidden)
	}
	return nil
}
