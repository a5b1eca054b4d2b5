/*
Package onboarding is a conversational onboarding engine that turns a short chat into an
outreach campaign.

A session walks a fixed state machine: choose a path, pick and confirm platforms, select
the actions of each platform, then answer delay, condition, false-branch and template
questions per action. Dependencies between actions are resolved as they are selected,
and a workflow graph preview is regenerated from the answers after every reply. Replies
the controller cannot interpret are delegated to a text generation service.

# Usage

	svc := onboarding.New(
		onboarding.WithStore(redisStore),
		onboarding.WithGenerator(generator),
	)

	s, err := svc.Start(ctx, "session-123")
	if err != nil {
		log.Fatal(err)
	}
	s, err = svc.Reply(ctx, "session-123", "Lead generation")

Steps of one session are serialized. A second reply while one is running returns
domain.ErrSessionBusy, and Reset cancels the running step before restoring the
initial state.
*/
package onboarding
