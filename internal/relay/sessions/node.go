package sessions

import (
	"github.com/cloudwego/eino/schema"

	"github.com/chative-sms/relay/internal/relay/tokens"
)

// MessageNode is an immutable role-tagged message with its token cost
// computed once at construction.
type MessageNode struct {
	role    schema.RoleType
	content string
	tokens  int
}

// NewNode builds a node and measures it with counter.
func NewNode(role schema.RoleType, content string, counter tokens.Counter) MessageNode {
	n := 0
	if counter != nil {
		n = counter.Count(content)
	}
	if n < 0 {
		n = 0
	}
	return MessageNode{role: role, content: content, tokens: n}
}

func (n MessageNode) Role() schema.RoleType { return n.role }
func (n MessageNode) Content() string       { return n.content }
func (n MessageNode) Tokens() int           { return n.tokens }

// Message converts the node into an eino message.
func (n MessageNode) Message() *schema.Message {
	return &schema.Message{Role: n.role, Content: n.content}
}
