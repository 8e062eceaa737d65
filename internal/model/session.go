package model

type Session struct {
	ID      string            `json:"id"`
	Options GenerationOptions `json:"options"`
	Active  bool              `json:"active"`
	Ctime   int64             `json:"ctime"`
	Mtime   int64             `json:"mtime"`
}

type PostKind string

const (
	PostKindRotation PostKind = "rotation"
	PostKindReply    PostKind = "reply"
)

type Post struct {
	ID           string            `json:"id"`
	SessionID    string            `json:"session_id"`
	Seed         string            `json:"seed"`
	Continuation string            `json:"continuation"`
	Options      GenerationOptions `json:"options"`
	Fallback     bool              `json:"fallback"`
	Kind         PostKind          `json:"kind"`
	Ctime        int64             `json:"ctime"`
}

// RawDocument is the ordered page text of a loaded book.
type RawDocument struct {
	Name  string   `json:"name"`
	Pages []string `json:"pages"`
}
