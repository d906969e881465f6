package comments

import "time"

// Comment is a matched comment or reply together with the video it sits on.
type Comment struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Author      string    `json:"author"`
	PublishedAt time.Time `json:"published_at"`
	IsReply     bool      `json:"is_reply"`
	ParentID    string    `json:"parent_id,omitempty"`
	VideoID     string    `json:"video_id"`
	VideoTitle  string    `json:"video_title"`
	// ReplyCount is only set on top-level comments.
	ReplyCount int `json:"reply_count,omitempty"`
}

// VideoMatches groups the matches found on one video.
type VideoMatches struct {
	VideoTitle string    `json:"video_title"`
	Comments   []Comment `json:"comments"`
}

// Result maps video ids to their matches and remembers the order in which
// videos were first added.
type Result struct {
	Videos map[string]*VideoMatches `json:"videos"`
	Order  []string                 `json:"order"`
}

func NewResult() *Result {
	return &Result{Videos: make(map[string]*VideoMatches)}
}

// Add appends matches for a video. Adding nothing leaves the result unchanged.
func (r *Result) Add(videoID, videoTitle string, matches ...Comment) {
	if len(matches) == 0 {
		return
	}
	if r.Videos == nil {
		r.Videos = make(map[string]*VideoMatches)
	}
	vm, ok := r.Videos[videoID]
	if !ok {
		vm = &VideoMatches{VideoTitle: videoTitle}
		r.Videos[videoID] = vm
		r.Order = append(r.Order, videoID)
	}
	vm.Comments = append(vm.Comments, matches...)
}

// Flat returns every match in video, then comment, then reply order.
func (r *Result) Flat() []Comment {
	if r == nil {
		return nil
	}
	out := make([]Comment, 0, r.Count())
	for _, id := range r.Order {
		if vm, ok := r.Videos[id]; ok {
			out = append(out, vm.Comments...)
		}
	}
	return out
}

func (r *Result) Count() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, vm := range r.Videos {
		n += len(vm.Comments)
	}
	return n
}

func (r *Result) IDs() []string {
	flat := r.Flat()
	ids := make([]string, len(flat))
	for i, c := range flat {
		ids[i] = c.ID
	}
	return ids
}

// Find looks a match up by comment id.
func (r *Result) Find(id string) (Comment, bool) {
	for _, c := range r.Flat() {
		if c.ID == id {
			return c, true
		}
	}
	return Comment{}, false
}

// Remove drops the given comment ids and any video left without matches.
// It returns how many comments were removed.
func (r *Result) Remove(ids ...string) int {
	if r == nil || len(ids) == 0 {
		return 0
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	removed := 0
	order := r.Order[:0]
	for _, vid := range r.Order {
		vm := r.Videos[vid]
		if vm == nil {
			continue
		}
		kept := vm.Comments[:0]
		for _, c := range vm.Comments {
			if _, ok := drop[c.ID]; ok {
				removed++
				continue
			}
			kept = append(kept, c)
		}
		vm.Comments = kept
		if len(kept) == 0 {
			delete(r.Videos, vid)
			continue
		}
		order = append(order, vid)
	}
	r.Order = order
	return removed
}

// Clone returns a deep copy.
func (r *Result) Clone() *Result {
	out := NewResult()
	if r == nil {
		return out
	}
	for _, id := range r.Order {
		vm := r.Videos[id]
		if vm == nil {
			continue
		}
		out.Add(id, vm.VideoTitle, append([]Comment(nil), vm.Comments...)...)
	}
	return out
}

// DeleteFailure is one comment that could not be deleted.
type DeleteFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// DeleteReport is the outcome of a bulk delete.
type DeleteReport struct {
	Requested int             `json:"requested"`
	Succeeded int             `json:"succeeded"`
	Deleted   []string        `json:"deleted"`
	Failed    []DeleteFailure `json:"failed"`
}
