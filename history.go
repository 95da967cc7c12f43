package mcpcli

// History is an ordered, append-only sequence of messages. Earlier entries
// are never modified or removed. The zero value is empty and ready to use.
// History is not safe for concurrent use; the session loop owns it.
type History struct {
	msgs []Message
}

// Append adds msgs to the end of the history.
func (h *History) Append(msgs ...Message) {
	h.msgs = append(h.msgs, msgs...)
}

// Messages returns a copy of the history, oldest first.
func (h *History) Messages() []Message {
	out := make([]Message, len(h.msgs))
	copy(out, h.msgs)
	return out
}

// Len returns the number of messages.
func (h *History) Len() int {
	return len(h.msgs)
}

// Last returns the most recent message.
func (h *History) Last() (Message, bool) {
	if len(h.msgs) == 0 {
		return nil, false
	}
	return h.msgs[len(h.msgs)-1], true
}
