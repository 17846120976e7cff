package webchat

import (
	"context"

	"github.com/zealsham/appointment-ai-agent/internal/conversation"
)

// EngineAdapter narrows the conversation engine to the Conversationalist
// surface the socket loop needs.
type EngineAdapter struct {
	Engine *conversation.Engine
}

func (a EngineAdapter) HandleTurn(ctx context.Context, sessionID, text string) (string, error) {
	reply, _, err := a.Engine.HandleMessage(ctx, sessionID, text)
	return reply, err
}
