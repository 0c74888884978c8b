// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - SourceConnector: Fetches tasks and documents from the project-management service
//   - PlaybookStore: Playbook persistence, similarity search and sync-run history
//   - EmbeddingService: Generates vector embeddings. Search is unavailable without it.
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Language model operations. Without it, classification falls back
//     to General and explanations, suggestions and intent are marked degraded.
//   - Reasoner: Higher-level LLM reasoning built on LLMService.
//   - PromptStore: User-editable prompt templates. Defaults are used when nil.
//   - ProviderProbe: Checks provider settings before the wizard saves them.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or service package
package driven
