/*
Package domain contains the core data model for the Ascendia engine.

It defines the configured shape of a business context (Domain, functions,
entities, trigger phrases), the persisted artifacts the engine produces
(Plan, PatternObservation), the per-conversation state it owns
(SessionState), and the error taxonomy. This package is kept pure and free
of I/O or persistence concerns, following Hexagonal Architecture.

# Key Entities

  - Domain: functions, entities, triggers, endpoint, business rules.
  - Plan / PlanStep: an ordered, persisted step sequence for an intent.
  - SessionState: the only mutable, externally persisted engine state.
  - PatternObservation: aggregated fallback executions awaiting promotion.
*/
package domain
