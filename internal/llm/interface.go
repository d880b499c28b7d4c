package llm

import "context"

// Client is the narrow surface of the generative text service the rest of
// the code depends on. Output is non-deterministic and untrusted; callers
// must parse defensively. The interface is easy to mock in tests.
type Client interface {
	// Generate sends one prompt and returns the trimmed completion text.
	Generate(ctx context.Context, prompt string) (string, error)
	// GenerateStream sends one prompt and returns the completion as an
	// ordered sequence of text fragments. The stream is finite and not
	// restartable.
	GenerateStream(ctx context.Context, prompt string) (Stream, error)
}

// Stream yields completion fragments in generation order. Recv returns
// io.EOF once the stream is drained.
type Stream interface {
	Recv() (string, error)
	Close() error
}
