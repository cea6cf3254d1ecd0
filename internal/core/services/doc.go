// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The question-answering pipeline is ChatService: it checks the response
// cache, retrieves with SearchService, bounds the context with
// ContextAssembler and asks AnswerGenerator for a cited answer.
// IndexService owns the published index snapshot; DocumentService and
// Scheduler keep it in step with the document store.
package services
