// Package redis provides the Redis session store and distributed locker, letting several
// replicas serve the same onboarding sessions.
package redis
