/*
Package runner drives an onboarding conversation over a terminal or a line-based pipe.

It bridges the Service and the outside world: it starts or resumes a session, prints the
assistant turns through a pluggable IOHandler, reads replies, maps numbered answers to
the offered options and forwards them. Ctrl+C while a reply is being processed cancels
that step only; Ctrl+C at the prompt ends the chat.

# Key Components

  - Runner: the chat loop.
  - IOHandler: how turns are shown and replies are read (TextHandler, JSONHandler).
  - SanitizeInput: size and control-character hygiene for every reply.

# Usage

	r := runner.NewRunner(svc,
		runner.WithSessionID("user-1"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
