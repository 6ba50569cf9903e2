package llm

// BuildChatPayload assembles a request with a fixed turn order: the system
// prompt, then the image as a user turn when img is non-nil, then one user
// text turn per fragment in the order given (addendum, then output). Empty
// fragments are still emitted.
func BuildChatPayload(model string, maxTokens int, prompt string, img *EncodedImage, fragments ...string) ChatPayload {
	msgs := make([]Message, 0, 2+len(fragments))
	msgs = append(msgs, textTurn(RoleSystem, prompt))
	if img != nil {
		msgs = append(msgs, Message{
			Role:    RoleUser,
			Content: []ContentPart{{Type: PartImageURL, ImageURL: img.DataURL()}},
		})
	}
	for _, f := range fragments {
		msgs = append(msgs, textTurn(RoleUser, f))
	}
	return ChatPayload{
		Model:     model,
		Messages:  msgs,
		MaxTokens: maxTokens,
	}
}

// BuildTextPayload assembles a text-only request: the system prompt followed
// by the text as a single user turn, with an explicit temperature.
func BuildTextPayload(model string, maxTokens int, temperature float32, prompt, text string) ChatPayload {
	p := BuildChatPayload(model, maxTokens, prompt, nil, text)
	p.Temperature = &temperature
	return p
}

func textTurn(role, text string) Message {
	return Message{Role: role, Content: []ContentPart{{Type: PartText, Text: text}}}
}
