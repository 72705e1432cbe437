package docmodel

import (
	"encoding/json"
	"time"
)

// Comment annotates an element by id. The element is referenced, not owned,
// so a comment may outlive it.
type Comment struct {
	ID        string     `json:"id"`
	User      string     `json:"user"`
	Content   string     `json:"content"`
	ElementID string     `json:"element_id"`
	Timestamp time.Time  `json:"timestamp"`
	Replies   []*Comment `json:"replies"`
}

func NewComment(user, content, elementID string) *Comment {
	return &Comment{
		ID:        newID(),
		User:      user,
		Content:   content,
		ElementID: elementID,
		Timestamp: now(),
	}
}

// AddReply appends reply to the thread.
func (c *Comment) AddReply(reply *Comment) {
	c.Replies = append(c.Replies, reply)
}

// find walks the thread depth-first.
func (c *Comment) find(id string) *Comment {
	if c.ID == id {
		return c
	}
	for _, r := range c.Replies {
		if found := r.find(id); found != nil {
			return found
		}
	}
	return nil
}

func (c *Comment) clone() *Comment {
	out := *c
	out.Replies = nil
	for _, r := range c.Replies {
		out.Replies = append(out.Replies, r.clone())
	}
	return &out
}

func (c *Comment) MarshalJSON() ([]byte, error) {
	type alias Comment
	a := alias(*c)
	if a.Replies == nil {
		a.Replies = []*Comment{}
	}
	return json.Marshal(a)
}
