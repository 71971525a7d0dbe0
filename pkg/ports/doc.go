/*
Package ports defines the driven ports (interfaces) for the Ascendia engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various storage backends, model providers, and domain APIs.

# Key Interfaces

  - Catalog: Resolves domain configurations and their compiled validators.
  - SessionStore / PlanStore / PatternStore: Persist conversation state, synthesized plans, and fallback observations.
  - LLMService: A provider-agnostic chat completion surface (structured output and tool calling).
  - DomainInvoker: Dispatches resolved function calls to a domain's backing API.
  - DistributedLocker: Serializes turns of one session across engine replicas.
  - EventPublisher: Emits engine lifecycle events to external consumers.
*/
package ports
