// Package access implements role-gated view access control for the
// dashboard.
//
// A PermissionTable maps every Role to the ordered set of Views it may
// reach; the first entry is the role's fallback view. The table is built
// once from a PolicySource and is read-only afterwards.
//
// The Controller keeps a session's (role, view) pair consistent:
//   - OnRoleChanged corrects the current view after every role change
//   - OnViewRequested grants or denies navigation without touching state
//   - ResolveRenderTarget re-checks the pair right before rendering and
//     substitutes the access-denied sentinel for a stale view
package access
