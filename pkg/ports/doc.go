/*
Package ports defines the driven ports of the onboarding engine.

These interfaces decouple the flow controller from storage, locking and the external
collaborators it consults.

# Key Interfaces

  - SessionStore: persists sessions between replies.
  - DistributedLocker: serializes access to a session across replicas.
  - Generator: the text-generation service used for replies that are not mechanically
    interpretable.
  - LeadStore: lead persistence and booking cancellation.
  - CampaignService: campaign creation and start.
*/
package ports
