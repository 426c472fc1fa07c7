package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/skyfleethq/identity/internal/identity/service"
	"github.com/skyfleethq/identity/internal/identity/store"
	"github.com/skyfleethq/identity/pkg/httpx"
	"github.com/skyfleethq/identity/pkg/slogx"
)

// RBACHandler exposes role and permission administration. Routes are gated
// by the iam:write / iam:read permissions through RequirePermission.
type RBACHandler struct {
	RBACService *service.RBACService
}

// HandleCreateRole handles POST /v1/roles
//
//	@Summary		Create a role
//	@Tags			RBAC
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateRoleRequest	true	"Role name and description"
//	@Success		201		{object}	domain.Role			"Created role"
//	@Failure		400		{object}	httpx.ErrorResponse	"Invalid request body"
//	@Failure		409		{object}	httpx.ErrorResponse	"Role name already exists"
//	@Router			/v1/roles [post].
func (h *RBACHandler) HandleCreateRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	role, err := h.RBACService.CreateRole(ctx, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, service.ErrRoleExists) {
			httpx.WriteError(w, http.StatusConflict, "role_already_exists", "A role with this name already exists")
			return
		}
		slogx.FromContext(ctx).Error("create role failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, role)
}

// HandleListRoles handles GET /v1/roles
//
//	@Summary		List roles
//	@Tags			RBAC
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}	domain.Role	"All roles"
//	@Router			/v1/roles [get].
func (h *RBACHandler) HandleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.RBACService.ListRoles(r.Context())
	if err != nil {
		slogx.FromContext(r.Context()).Error("list roles failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, roles)
}

// HandleDeleteRole handles DELETE /v1/roles/{id}
//
//	@Summary		Delete a role
//	@Tags			RBAC
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	MessageResponse		"Role deleted"
//	@Failure		404	{object}	httpx.ErrorResponse	"Role not found"
//	@Router			/v1/roles/{id} [delete].
func (h *RBACHandler) HandleDeleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.RBACService.DeleteRole(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, r, "role", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Role deleted."})
}

// HandleCreatePermission handles POST /v1/permissions
//
//	@Summary		Create a permission
//	@Tags			RBAC
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreatePermissionRequest	true	"Permission definition"
//	@Success		201		{object}	domain.Permission		"Created permission"
//	@Failure		400		{object}	httpx.ErrorResponse		"Invalid request body"
//	@Failure		409		{object}	httpx.ErrorResponse		"Permission name already exists"
//	@Router			/v1/permissions [post].
func (h *RBACHandler) HandleCreatePermission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreatePermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || req.Resource == "" || req.Action == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "name, resource, and action are required")
		return
	}

	perm, err := h.RBACService.CreatePermission(ctx, req.Name, req.Resource, req.Action, req.Description)
	if err != nil {
		if errors.Is(err, service.ErrPermissionExists) {
			httpx.WriteError(w, http.StatusConflict, "permission_already_exists", "A permission with this name already exists")
			return
		}
		slogx.FromContext(ctx).Error("create permission failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, perm)
}

// HandleListPermissions handles GET /v1/permissions
//
//	@Summary		List permissions
//	@Tags			RBAC
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}	domain.Permission	"All permissions"
//	@Router			/v1/permissions [get].
func (h *RBACHandler) HandleListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.RBACService.ListPermissions(r.Context())
	if err != nil {
		slogx.FromContext(r.Context()).Error("list permissions failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, perms)
}

// HandleDeletePermission handles DELETE /v1/permissions/{id}
//
//	@Summary		Delete a permission
//	@Tags			RBAC
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	MessageResponse		"Permission deleted"
//	@Failure		404	{object}	httpx.ErrorResponse	"Permission not found"
//	@Router			/v1/permissions/{id} [delete].
func (h *RBACHandler) HandleDeletePermission(w http.ResponseWriter, r *http.Request) {
	if err := h.RBACService.DeletePermission(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, r, "permission", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Permission deleted."})
}

// HandleAttachPermission handles PUT /v1/roles/{id}/permissions/{permissionID}
//
//	@Summary		Attach a permission to a role
//	@Description	Idempotent: re-attaching an already attached permission succeeds.
//	@Tags			RBAC
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	MessageResponse		"Permission attached"
//	@Failure		404	{object}	httpx.ErrorResponse	"Role or permission not found"
//	@Router			/v1/roles/{id}/permissions/{permissionID} [put].
func (h *RBACHandler) HandleAttachPermission(w http.ResponseWriter, r *http.Request) {
	err := h.RBACService.AttachPermission(r.Context(), r.PathValue("id"), r.PathValue("permissionID"))
	if err != nil {
		writeStoreError(w, r, "role or permission", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Permission attached."})
}

// HandleDetachPermission handles DELETE /v1/roles/{id}/permissions/{permissionID}
//
//	@Summary		Detach a permission from a role
//	@Description	Idempotent: detaching a permission that was never attached succeeds.
//	@Tags			RBAC
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	MessageResponse		"Permission detached"
//	@Failure		404	{object}	httpx.ErrorResponse	"Role not found"
//	@Router			/v1/roles/{id}/permissions/{permissionID} [delete].
func (h *RBACHandler) HandleDetachPermission(w http.ResponseWriter, r *http.Request) {
	err := h.RBACService.DetachPermission(r.Context(), r.PathValue("id"), r.PathValue("permissionID"))
	if err != nil {
		writeStoreError(w, r, "role", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Permission detached."})
}

// HandleListRolePermissions handles GET /v1/roles/{id}/permissions
//
//	@Summary		List a role's permissions
//	@Tags			RBAC
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		domain.Permission	"Permissions attached to the role"
//	@Failure		404	{object}	httpx.ErrorResponse	"Role not found"
//	@Router			/v1/roles/{id}/permissions [get].
func (h *RBACHandler) HandleListRolePermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.RBACService.ListRolePermissions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, "role", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, perms)
}

// HandleAssignRole handles PUT /v1/users/{id}/roles/{roleID}
//
//	@Summary		Assign a role to a user
//	@Description	Idempotent: re-assigning an already held role succeeds.
//	@Tags			RBAC
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	MessageResponse		"Role assigned"
//	@Failure		404	{object}	httpx.ErrorResponse	"User or role not found"
//	@Router			/v1/users/{id}/roles/{roleID} [put].
func (h *RBACHandler) HandleAssignRole(w http.ResponseWriter, r *http.Request) {
	err := h.RBACService.AssignRole(r.Context(), r.PathValue("id"), r.PathValue("roleID"))
	if err != nil {
		writeStoreError(w, r, "user or role", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Role assigned."})
}

// HandleRemoveRole handles DELETE /v1/users/{id}/roles/{roleID}
//
//	@Summary		Remove a role from a user
//	@Description	Idempotent: removing a role the user does not hold succeeds.
//	@Tags			RBAC
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	MessageResponse		"Role removed"
//	@Failure		404	{object}	httpx.ErrorResponse	"User not found"
//	@Router			/v1/users/{id}/roles/{roleID} [delete].
func (h *RBACHandler) HandleRemoveRole(w http.ResponseWriter, r *http.Request) {
	err := h.RBACService.RemoveRole(r.Context(), r.PathValue("id"), r.PathValue("roleID"))
	if err != nil {
		writeStoreError(w, r, "user", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Role removed."})
}

// HandleListUserPermissions handles GET /v1/users/{id}/permissions
//
//	@Summary		Resolve a user's effective permissions
//	@Description	Returns the duplicate-free union of permissions across all of the user's roles.
//	@Tags			RBAC
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}	domain.Permission	"Effective permissions"
//	@Router			/v1/users/{id}/permissions [get].
func (h *RBACHandler) HandleListUserPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.RBACService.ResolvePermissions(r.Context(), r.PathValue("id"))
	if err != nil {
		slogx.FromContext(r.Context()).Error("resolve permissions failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, perms)
}

func writeStoreError(w http.ResponseWriter, r *http.Request, entity string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "No such "+entity)
		return
	}
	slogx.FromContext(r.Context()).Error("store operation failed", "entity", entity, "err", err)
	httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
}
