package schema

// Input is the default user input schema
type Input struct {
	Base
	// ChatMessage is the user's message
	ChatMessage string `json:"chat_message" jsonschema:"title=chat_message,description=The chat message sent by the user." validate:"required"`
}

// NewInput returns a new Input
func NewInput(msg string) *Input {
	return &Input{ChatMessage: msg}
}

func (i Input) String() string {
	return i.ChatMessage
}

// Output is the default agent output schema
type Output struct {
	Base
	// ChatMessage is the agent's reply
	ChatMessage string `json:"chat_message" jsonschema:"title=chat_message,description=The chat message exchanged between the user and the chat agent."`
}

// NewOutput returns a new Output
func NewOutput(msg string) *Output {
	return &Output{ChatMessage: msg}
}

func (o Output) String() string {
	return o.ChatMessage
}
