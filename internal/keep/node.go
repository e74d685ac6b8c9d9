package keep

import (
	"encoding/json"
	"sort"
	"time"

	"keep-gateway/internal/domain"
)

// Node types as the changes API reports them. A NOTE's body text lives in a
// single LIST_ITEM child; a LIST's entries are its LIST_ITEM children.
const (
	nodeTypeNote     = "NOTE"
	nodeTypeList     = "LIST"
	nodeTypeListItem = "LIST_ITEM"
)

type rawNode struct {
	ID         string         `json:"id"`
	ParentID   string         `json:"parentId,omitempty"`
	Type       string         `json:"type"`
	Title      string         `json:"title,omitempty"`
	Text       string         `json:"text,omitempty"`
	Checked    bool           `json:"checked,omitempty"`
	SortValue  json.Number    `json:"sortValue,omitempty"`
	IsArchived bool           `json:"isArchived,omitempty"`
	Timestamps nodeTimestamps `json:"timestamps"`
}

type nodeTimestamps struct {
	Created string `json:"created,omitempty"`
	Updated string `json:"updated,omitempty"`
	Trashed string `json:"trashed,omitempty"`
	Deleted string `json:"deleted,omitempty"`
}

// isTrashed reports whether the trashed timestamp is set to a real instant.
// The service uses the Unix epoch as "never trashed".
func (t nodeTimestamps) isTrashed() bool {
	ts := parseKeepTime(t.Trashed)
	return !ts.IsZero() && ts.Unix() > 0
}

func (t nodeTimestamps) isDeleted() bool {
	ts := parseKeepTime(t.Deleted)
	return !ts.IsZero() && ts.Unix() > 0
}

// parseKeepTime parses the service's RFC3339-with-micros timestamps. A
// missing or unparseable value yields the zero time.
func parseKeepTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// assembleNotes builds the NoteLike collection from the flat node table.
// Roots are ordered by id so the result is deterministic for a given table.
func assembleNotes(nodes map[string]rawNode) []domain.NoteLike {
	children := make(map[string][]rawNode)
	var roots []rawNode
	for _, node := range nodes {
		switch node.Type {
		case nodeTypeNote, nodeTypeList:
			roots = append(roots, node)
		case nodeTypeListItem:
			children[node.ParentID] = append(children[node.ParentID], node)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].ID < roots[j].ID })

	notes := make([]domain.NoteLike, 0, len(roots))
	for _, root := range roots {
		meta := domain.NoteMeta{
			ID:        root.ID,
			Title:     root.Title,
			Trashed:   root.Timestamps.isTrashed(),
			Archived:  root.IsArchived,
			CreatedAt: parseKeepTime(root.Timestamps.Created),
			UpdatedAt: parseKeepTime(root.Timestamps.Updated),
		}

		items := children[root.ID]
		sortListItems(items)

		if root.Type == nodeTypeList {
			listItems := make([]domain.ListItem, 0, len(items))
			for _, item := range items {
				listItems = append(listItems, domain.ListItem{Text: item.Text, Checked: item.Checked})
			}
			notes = append(notes, domain.ListNote{NoteMeta: meta, Items: listItems})
			continue
		}

		text := root.Text
		if len(items) > 0 {
			text = items[0].Text
		}
		notes = append(notes, domain.SimpleNote{NoteMeta: meta, Text: text})
	}
	return notes
}

// sortListItems applies the service's display order: higher sortValue first,
// id as tiebreaker.
func sortListItems(items []rawNode) {
	sort.SliceStable(items, func(i, j int) bool {
		si, sj := sortValueOf(items[i]), sortValueOf(items[j])
		if si != sj {
			return si > sj
		}
		return items[i].ID < items[j].ID
	})
}

func sortValueOf(n rawNode) int64 {
	v, err := n.SortValue.Int64()
	if err != nil {
		return 0
	}
	return v
}
