/*
Package domain contains the core data model of the onboarding engine.

It defines the conversation session (flow state, turns, selections, answers), the workflow
graph produced from the answers, and the payloads exchanged with the lead and campaign
collaborators. The package is kept pure and free of I/O so every other layer can share it.

# Key Entities

  - Session: the single-owner snapshot of one onboarding conversation.
  - Turn: one append-only chat message, optionally carrying structured hints.
  - AnswerMap: the canonical flat store of question key to answer.
  - Workflow: the node/edge automation graph derived from the AnswerMap.
*/
package domain
