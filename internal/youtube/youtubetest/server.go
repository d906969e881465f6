// Package youtubetest runs an in-process fake of the Data API endpoints the
// youtube client uses.
package youtubetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pders01/ytsweep/internal/youtube"
)

// Fault makes matching requests fail. Times limits how often; 0 means always.
type Fault struct {
	Status  int
	Reason  string
	Message string
	Times   int
}

// Request is one request the server received.
type Request struct {
	Method   string
	Endpoint youtube.Endpoint
	Query    url.Values
}

type thread struct {
	top        youtube.Comment
	replyCount int
}

// Server is a fake Data API. Configure it before issuing requests; the
// handlers take the lock so fixtures may also be changed between calls.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	token        string
	channelID    string
	channelTitle string
	uploadsID    string
	videos       []youtube.Video
	threads      map[string][]thread
	replies      map[string][]youtube.Comment
	deleted      map[string]bool
	deleteStatus map[string]int
	faults       map[string]*Fault
	pageSize     int
	requests     []Request
}

// NewServer starts a fake that accepts token as the only valid bearer token.
func NewServer(token string) *Server {
	s := &Server{
		token:        token,
		channelID:    "UC-test-channel",
		channelTitle: "Test Channel",
		uploadsID:    "UU-test-channel",
		threads:      make(map[string][]thread),
		replies:      make(map[string][]youtube.Comment),
		deleted:      make(map[string]bool),
		deleteStatus: make(map[string]int),
		faults:       make(map[string]*Fault),
		pageSize:     50,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// BaseURL is the value to pass as the client's base URL.
func (s *Server) BaseURL() string { return s.URL + "/youtube/v3" }

func (s *Server) ChannelID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelID
}

// SetChannel replaces the channel identity. An empty id makes channel lookups
// return no items.
func (s *Server) SetChannel(id, title, uploads string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelID, s.channelTitle, s.uploadsID = id, title, uploads
}

// SetPageSize caps items per page regardless of maxResults.
func (s *Server) SetPageSize(n int) {
	s.mu.Lock()
	s.pageSize = n
	s.mu.Unlock()
}

func (s *Server) AddVideo(id, title string) {
	s.mu.Lock()
	s.videos = append(s.videos, youtube.Video{ID: id, Title: title})
	s.mu.Unlock()
}

// AddThread adds a top-level comment with its replies to a video. The
// reported reply count is len(replies).
func (s *Server) AddThread(videoID string, top youtube.Comment, replies ...youtube.Comment) {
	s.AddThreadWithCount(videoID, top, len(replies), replies...)
}

// AddThreadWithCount is AddThread with an explicit totalReplyCount.
func (s *Server) AddThreadWithCount(videoID string, top youtube.Comment, count int, replies ...youtube.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if top.PublishedAt.IsZero() {
		top.PublishedAt = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	}
	s.threads[videoID] = append(s.threads[videoID], thread{top: top, replyCount: count})
	for _, r := range replies {
		r.ParentID = top.ID
		if r.PublishedAt.IsZero() {
			r.PublishedAt = top.PublishedAt
		}
		s.replies[top.ID] = append(s.replies[top.ID], r)
	}
}

// SetDeleteStatus makes DELETE for id answer with status.
func (s *Server) SetDeleteStatus(id string, status int) {
	s.mu.Lock()
	s.deleteStatus[id] = status
	s.mu.Unlock()
}

// FailOn injects a fault for requests to endpoint whose identifying
// parameter (videoId, parentId, playlistId or id) equals key. An empty key
// matches every request to the endpoint.
func (s *Server) FailOn(endpoint youtube.Endpoint, key string, f Fault) {
	s.mu.Lock()
	fault := f
	s.faults[string(endpoint)+"|"+key] = &fault
	s.mu.Unlock()
}

// QuotaExceeded is the fault the API returns when the daily quota is spent.
func QuotaExceeded() Fault {
	return Fault{Status: http.StatusForbidden, Reason: "quotaExceeded", Message: "The request cannot be completed because you have exceeded your quota."}
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests hit endpoint with method.
func (s *Server) Count(endpoint youtube.Endpoint, method string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Endpoint == endpoint && r.Method == method {
			n++
		}
	}
	return n
}

// Deleted reports whether id was deleted successfully.
func (s *Server) Deleted(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleted[id]
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	endpoint := youtube.Endpoint(strings.TrimPrefix(r.URL.Path, "/youtube/v3/"))
	q := r.URL.Query()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, Request{Method: r.Method, Endpoint: endpoint, Query: q})

	if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
		writeError(w, http.StatusUnauthorized, "authError", "Invalid Credentials")
		return
	}

	if f := s.matchFault(endpoint, q); f != nil {
		writeError(w, f.Status, f.Reason, f.Message)
		return
	}

	switch {
	case endpoint == youtube.EndpointChannels && r.Method == http.MethodGet:
		s.channels(w, q)
	case endpoint == youtube.EndpointPlaylistItems && r.Method == http.MethodGet:
		s.playlistItems(w, q)
	case endpoint == youtube.EndpointCommentThreads && r.Method == http.MethodGet:
		s.commentThreads(w, q)
	case endpoint == youtube.EndpointComments && r.Method == http.MethodGet:
		s.comments(w, q)
	case endpoint == youtube.EndpointComments && r.Method == http.MethodDelete:
		s.deleteComment(w, q)
	default:
		writeError(w, http.StatusNotFound, "notFound", "no such endpoint")
	}
}

func (s *Server) matchFault(endpoint youtube.Endpoint, q url.Values) *Fault {
	key := q.Get("videoId") + q.Get("parentId") + q.Get("playlistId") + q.Get("id")
	for _, k := range []string{string(endpoint) + "|" + key, string(endpoint) + "|"} {
		f, ok := s.faults[k]
		if !ok {
			continue
		}
		if f.Times > 0 {
			f.Times--
			if f.Times == 0 {
				delete(s.faults, k)
			}
		}
		return f
	}
	return nil
}

func (s *Server) channels(w http.ResponseWriter, q url.Values) {
	if s.channelID == "" || (q.Get("mine") != "true" && q.Get("id") != s.channelID) {
		writeJSON(w, map[string]any{"items": []any{}})
		return
	}
	item := map[string]any{
		"id":      s.channelID,
		"snippet": map[string]any{"title": s.channelTitle},
	}
	if s.uploadsID != "" {
		item["contentDetails"] = map[string]any{
			"relatedPlaylists": map[string]any{"uploads": s.uploadsID},
		}
	}
	writeJSON(w, map[string]any{"items": []any{item}})
}

func (s *Server) playlistItems(w http.ResponseWriter, q url.Values) {
	if q.Get("playlistId") != s.uploadsID {
		writeError(w, http.StatusNotFound, "playlistNotFound", "playlist not found")
		return
	}
	start, end, next := s.window(len(s.videos), q)
	items := make([]any, 0, end-start)
	for _, v := range s.videos[start:end] {
		items = append(items, map[string]any{
			"snippet":        map[string]any{"title": v.Title},
			"contentDetails": map[string]any{"videoId": v.ID},
		})
	}
	writePage(w, items, next)
}

func (s *Server) commentThreads(w http.ResponseWriter, q url.Values) {
	threads := s.threads[q.Get("videoId")]
	start, end, next := s.window(len(threads), q)
	items := make([]any, 0, end-start)
	for _, t := range threads[start:end] {
		items = append(items, map[string]any{
			"id": t.top.ID,
			"snippet": map[string]any{
				"topLevelComment": commentJSON(t.top),
				"totalReplyCount": t.replyCount,
			},
		})
	}
	writePage(w, items, next)
}

func (s *Server) comments(w http.ResponseWriter, q url.Values) {
	replies := s.replies[q.Get("parentId")]
	start, end, next := s.window(len(replies), q)
	items := make([]any, 0, end-start)
	for _, c := range replies[start:end] {
		items = append(items, commentJSON(c))
	}
	writePage(w, items, next)
}

func (s *Server) deleteComment(w http.ResponseWriter, q url.Values) {
	id := q.Get("id")
	status, ok := s.deleteStatus[id]
	if !ok {
		status = http.StatusNoContent
	}
	if status >= 300 {
		writeError(w, status, "processingFailure", fmt.Sprintf("cannot delete %s", id))
		return
	}
	s.deleted[id] = true
	w.WriteHeader(status)
}

// window returns the slice bounds for the requested page and the next cursor.
func (s *Server) window(total int, q url.Values) (start, end int, next string) {
	size := s.pageSize
	if n, err := strconv.Atoi(q.Get("maxResults")); err == nil && n > 0 && n < size {
		size = n
	}
	if tok := q.Get("pageToken"); tok != "" {
		start, _ = strconv.Atoi(strings.TrimPrefix(tok, "page-"))
	}
	if start > total {
		start = total
	}
	end = start + size
	if end >= total {
		return start, total, ""
	}
	return start, end, "page-" + strconv.Itoa(end)
}

func commentJSON(c youtube.Comment) map[string]any {
	snippet := map[string]any{
		"textDisplay":       c.Text,
		"authorDisplayName": c.Author,
		"publishedAt":       c.PublishedAt.Format(time.RFC3339),
	}
	if c.ParentID != "" {
		snippet["parentId"] = c.ParentID
	}
	return map[string]any{"id": c.ID, "snippet": snippet}
}

func writePage(w http.ResponseWriter, items []any, next string) {
	body := map[string]any{"items": items}
	if next != "" {
		body["nextPageToken"] = next
	}
	writeJSON(w, body)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, reason, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": message,
			"errors":  []any{map[string]any{"reason": reason, "message": message, "domain": "youtube"}},
		},
	})
}
