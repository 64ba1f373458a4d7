/*
Package resilience provides a circuit breaker for upstream services.

Each collaborator (language model, speech) gets its own breaker so an
outage in one does not block the other. Errors classified as successful by
Settings.IsSuccessful, such as cancellations or caller mistakes, never count
toward tripping.

# Usage

	breaker := resilience.New("openai", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	reply, err := resilience.Call(ctx, breaker, func(ctx context.Context) (string, error) {
		return client.Complete(ctx, messages)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
