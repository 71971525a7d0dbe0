// Package middleware wraps session persistence with cross-cutting concerns:
// AES-GCM encryption of stored state and masking of PII before state or
// events leave the process.
package middleware

import "github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"

// Middleware allows wrapping a SessionStore to add behavior.
type Middleware func(ports.SessionStore) ports.SessionStore
