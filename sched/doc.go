// Package sched is the host scheduler collaborator for memkit's
// containers.
//
// Containers do not run work themselves; they hand the scheduler
// zero-argument actions gated on Dependency tokens. The primary use is
// deferred disposal: a container's storage must not be freed while a
// previously scheduled reader or writer might still touch it, so the
// free is registered to run strictly after the dependency resolves.
//
// Dependency is deliberately opaque. The zero value is already resolved,
// which lets call sites pass "no prior work" without a special case.
package sched
