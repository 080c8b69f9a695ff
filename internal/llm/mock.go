package llm

import "context"

// MockClient permite tests sin llamar a un LLM real.
// Chunks alimenta GenerateStream; StreamErr fuerza el fallo de apertura y
// ChunkErr se emite como último chunk para simular un stream roto.
type MockClient struct {
	Response string
	Err      error

	JSONResponse string
	JSONErr      error

	Chunks    []string
	StreamErr error
	ChunkErr  error
}

func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	return m.Response, m.Err
}

func (m *MockClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	if m.JSONResponse == "" && m.JSONErr == nil {
		return m.Response, m.Err
	}
	return m.JSONResponse, m.JSONErr
}

func (m *MockClient) GenerateStream(ctx context.Context, prompt string) (<-chan StreamChunk, error) {
	if m.StreamErr != nil {
		return nil, m.StreamErr
	}
	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		for _, chunk := range m.Chunks {
			select {
			case out <- StreamChunk{Text: chunk}:
			case <-ctx.Done():
				return
			}
		}
		if m.ChunkErr != nil {
			select {
			case out <- StreamChunk{Err: m.ChunkErr}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}
