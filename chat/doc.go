// Package chat keeps a conversation with a chat-completion provider.
//
// A Session owns the message history and the selected model. Each Send
// appends the user's turn, sends the history (trimmed to the model's
// context window) and appends the reply:
//
//	client := openai.NewClient(openai.WithAPIKey(key))
//	session := chat.NewSession(client, chat.WithSystemPrompt("Be concise."))
//
//	if _, err := session.Models(ctx); err != nil { // selects the first model
//	    return err
//	}
//	reply, err := session.Send(ctx, "What is a goroutine?")
//
// Messages carry a local ID and a display Type. Neither is sent upstream,
// and entries of TypeError (appended when a send fails) are excluded from
// later requests.
package chat
