package core

// Policy picks actions during a rollout. A nil action means the policy has
// nothing to offer in the state, which ends the episode with an error.
type Policy interface {
	ResetEpisode(*EpisodeContext)
	PickAction(*StepContext, State, []Action) Action
	Reset()
}

type PolicyConstructor interface {
	// NewPolicy creates a policy for the worker with the given id.
	NewPolicy(int) Policy
}
