package notification

// Keyboard describes reply actions offered with a message; the front-end
// decides how to render it.
type Keyboard struct {
	Rows [][]Button
}

type Button struct {
	Label  string
	Action string
}

// Message is the payload handed to a Sender.
type Message struct {
	Text     string
	Keyboard *Keyboard
}
