/*
Package registry holds the reconciled micro-app state of one shell session.

State is the latest manifest (available apps), the apps loaded from it, the
selected app, per-app prop overrides and the auth token. Every manifest
refresh re-establishes two invariants: loaded ids are a subset of available
ids, and the current app is either available or cleared.

# Ordering

Each refresh takes a sequence number when it is launched and is applied only
if no later-launched refresh has been applied already. Auth transitions and
source switches invalidate every refresh launched before them.

Each load is stamped with the registry epoch. A hard reset (logout or a
manifest that cannot be fetched) bumps the epoch, so loads that were in
flight across the reset are discarded with ErrStaleLoad instead of
repopulating the cleared state. Concurrent loads of one id share a single
fetch and evaluation.

# Failures

A failed load leaves the state untouched and is returned to the caller. A
failed refresh clears available apps, loaded apps, the selection and prop
overrides in one step: a registry that cannot be fetched is not trusted in
part.
*/
package registry
