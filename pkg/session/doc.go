/*
Package session serializes turn handling per session.

No two steps of one session ever run concurrently: the Manager hands out
reference-counted in-process mutexes keyed by session ID and, when replicas
share a store, layers a distributed lock on top. It also fronts the session
store for load-or-create, save, delete and list.
*/
package session
