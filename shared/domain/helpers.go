package domain

import (
	"fmt"
	"strings"
	"time"
)

// for debug
func (t *Thread) String() string {
	parent := "<root>"
	if t.ParentId != nil {
		parent = *t.ParentId
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[id:%s, author:%s, parent:%s, created:%s, text:%q, children:[", t.Id, t.AuthorId, parent, t.CreatedAt.Format(time.StampMilli), t.Text)
	for i, child := range t.ChildIds {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(child)
	}
	b.WriteString("]]")
	return b.String()
}

// Unique returns ids without duplicates and empty values, keeping first-seen order.
func Unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func ThreadIds(threads []*Thread) []ThreadId {
	ids := make([]ThreadId, 0, len(threads))
	for _, t := range threads {
		ids = append(ids, t.Id)
	}
	return ids
}
