/*
Package session implements session management and persistence orchestration.

It serializes access to each onboarding session, so a reply that arrives while a step is
still in flight is rejected instead of interleaving a second mutation. Local mutexes are
reference counted, and an optional distributed locker extends the guarantee across
replicas.
*/
package session
