package domain

import "time"

// NoteLike is a note as held by the remote session, prior to normalization.
// It is a closed union: the only implementations are SimpleNote and ListNote.
type NoteLike interface {
	Meta() NoteMeta
}

// NoteMeta carries the fields shared by both note variants. A zero CreatedAt
// or UpdatedAt means the remote service did not report that timestamp.
type NoteMeta struct {
	ID        string
	Title     string
	Trashed   bool
	Archived  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SimpleNote struct {
	NoteMeta
	Text string
}

func (n SimpleNote) Meta() NoteMeta { return n.NoteMeta }

type ListNote struct {
	NoteMeta
	Items []ListItem
}

func (n ListNote) Meta() NoteMeta { return n.NoteMeta }

// ListItem preserves the remote service's item ordering; it is never
// re-sorted by this layer.
type ListItem struct {
	Text    string
	Checked bool
}

// WireNote is the frontend-facing note shape. Exactly one of Body.Text and
// Body.List is set, matching the source variant. Absent timestamps render as
// empty strings, never null.
type WireNote struct {
	Name       string   `json:"name"`
	Title      string   `json:"title"`
	CreateTime string   `json:"createTime"`
	UpdateTime string   `json:"updateTime"`
	Trashed    bool     `json:"trashed"`
	Body       WireBody `json:"body"`
}

type WireBody struct {
	Text *WireText `json:"text,omitempty"`
	List *WireList `json:"list,omitempty"`
}

type WireText struct {
	Text string `json:"text"`
}

type WireList struct {
	ListItems []WireListItem `json:"listItems"`
}

type WireListItem struct {
	Text    WireText `json:"text"`
	Checked bool     `json:"checked"`
}
