package service

import (
	"context"
	"errors"
	"time"

	"github.com/skyfleethq/identity/internal/identity/domain"
	"github.com/skyfleethq/identity/internal/identity/store"
	"github.com/skyfleethq/identity/pkg/idx"
	"github.com/skyfleethq/identity/pkg/slogx"
)

var (
	ErrRoleExists       = errors.New("role_already_exists")
	ErrPermissionExists = errors.New("permission_already_exists")
)

// RBACService manages roles, permissions, and their assignments. Permission
// checks resolve through the store rather than token claims so revocations
// take effect immediately.
type RBACService struct {
	Store store.Store
}

func (s *RBACService) CreateRole(ctx context.Context, name, description string) (domain.Role, error) {
	now := time.Now().UTC()
	r := domain.Role{
		ID:          idx.New().String(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.Store.Roles().CreateRole(ctx, r); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Role{}, ErrRoleExists
		}
		return domain.Role{}, err
	}
	return r, nil
}

func (s *RBACService) GetRole(ctx context.Context, id string) (domain.Role, error) {
	return s.Store.Roles().GetRoleByID(ctx, id)
}

func (s *RBACService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	return s.Store.Roles().ListAll(ctx)
}

func (s *RBACService) DeleteRole(ctx context.Context, roleID string) error {
	return s.Store.Roles().DeleteRole(ctx, roleID)
}

func (s *RBACService) CreatePermission(ctx context.Context, name, resource, action, description string) (domain.Permission, error) {
	now := time.Now().UTC()
	p := domain.Permission{
		ID:          idx.New().String(),
		Name:        name,
		Resource:    resource,
		Action:      action,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.Store.Permissions().CreatePermission(ctx, p); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Permission{}, ErrPermissionExists
		}
		return domain.Permission{}, err
	}
	return p, nil
}

func (s *RBACService) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	return s.Store.Permissions().ListAll(ctx)
}

func (s *RBACService) DeletePermission(ctx context.Context, permissionID string) error {
	return s.Store.Permissions().DeletePermission(ctx, permissionID)
}

// AttachPermission links a permission to a role. Both must exist; attaching
// an already-attached permission is a no-op.
func (s *RBACService) AttachPermission(ctx context.Context, roleID, permissionID string) error {
	if _, err := s.Store.Roles().GetRoleByID(ctx, roleID); err != nil {
		return err
	}
	if _, err := s.Store.Permissions().GetPermissionByID(ctx, permissionID); err != nil {
		return err
	}
	return s.Store.Roles().AttachPermission(ctx, roleID, permissionID)
}

// DetachPermission unlinks a permission from a role. Detaching one that was
// never attached is a no-op, but the role itself must exist.
func (s *RBACService) DetachPermission(ctx context.Context, roleID, permissionID string) error {
	if _, err := s.Store.Roles().GetRoleByID(ctx, roleID); err != nil {
		return err
	}
	return s.Store.Roles().DetachPermission(ctx, roleID, permissionID)
}

func (s *RBACService) ListRolePermissions(ctx context.Context, roleID string) ([]domain.Permission, error) {
	if _, err := s.Store.Roles().GetRoleByID(ctx, roleID); err != nil {
		return nil, err
	}
	return s.Store.Roles().ListRolePermissions(ctx, roleID)
}

// AssignRole grants a role to a user. Already-assigned is a no-op.
func (s *RBACService) AssignRole(ctx context.Context, userID, roleID string) error {
	if _, err := s.Store.Users().GetUserByID(ctx, userID); err != nil {
		return err
	}
	if _, err := s.Store.Roles().GetRoleByID(ctx, roleID); err != nil {
		return err
	}
	return s.Store.Users().AssignRole(ctx, userID, roleID)
}

// RemoveRole revokes a role from a user. Not-assigned is a no-op.
func (s *RBACService) RemoveRole(ctx context.Context, userID, roleID string) error {
	if _, err := s.Store.Users().GetUserByID(ctx, userID); err != nil {
		return err
	}
	return s.Store.Users().RemoveRole(ctx, userID, roleID)
}

func (s *RBACService) ListUserRoles(ctx context.Context, userID string) ([]domain.Role, error) {
	return s.Store.Users().ListUserRoles(ctx, userID)
}

// ResolvePermissions returns the duplicate-free union of permissions across
// all of the user's roles.
func (s *RBACService) ResolvePermissions(ctx context.Context, userID string) ([]domain.Permission, error) {
	return s.Store.Users().ListUserPermissions(ctx, userID)
}

// Can reports whether the user holds any permission matching the given
// resource and action.
func (s *RBACService) Can(ctx context.Context, userID, resource, action string) (bool, error) {
	perms, err := s.Store.Users().ListUserPermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if p.Resource == resource && p.Action == action {
			return true, nil
		}
	}
	return false, nil
}

// EnsureDefaultRoles creates the built-in roles if they are missing. Safe to
// call on every startup.
func (s *RBACService) EnsureDefaultRoles(ctx context.Context) error {
	defaults := []struct {
		name        string
		description string
	}{
		{domain.DefaultRoleName, "Standard operator with baseline fleet access"},
		{"fleet_manager", "Manages fleet assignments and mission approval"},
		{"admin", "Full administrative access"},
	}

	for _, d := range defaults {
		if _, err := s.Store.Roles().GetRoleByName(ctx, d.name); err == nil {
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		_, err := s.CreateRole(ctx, d.name, d.description)
		if err != nil && !errors.Is(err, ErrRoleExists) {
			return err
		}
		slogx.FromContext(ctx).Info("created default role", "role", d.name)
	}
	return nil
}
