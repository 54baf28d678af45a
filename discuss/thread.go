package discuss

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nasermirzaei89/nexus/reactions"
)

// Thread is the discussion of a single post: an ordered list of comments, each rooting a tree of replies of any
// depth. All nodes live in one id-indexed arena, so every lookup is O(1) regardless of depth.
//
// A Thread is not safe for concurrent use; callers serialize access per post.
type Thread struct {
	postID   string
	ownerID  string
	nodes    map[string]*node
	comments []string
	now      func() time.Time
	newID    func() string
}

type Option func(thread *Thread)

func WithClock(now func() time.Time) Option {
	return func(thread *Thread) {
		thread.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(thread *Thread) {
		thread.newID = newID
	}
}

// NewID returns a new time-ordered, collision-resistant node id.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func NewThread(postID, ownerID string, opts ...Option) *Thread {
	thread := &Thread{
		postID:   postID,
		ownerID:  ownerID,
		nodes:    make(map[string]*node),
		comments: make([]string, 0),
		now:      time.Now,
		newID:    NewID,
	}

	for _, opt := range opts {
		opt(thread)
	}

	return thread
}

func (thread *Thread) PostID() string {
	return thread.postID
}

func (thread *Thread) OwnerID() string {
	return thread.ownerID
}

// Counts is computed from the arena size: every node is either a comment or a reply.
func (thread *Thread) Counts() Counts {
	return Counts{
		Comments: len(thread.comments),
		Total:    len(thread.nodes),
	}
}

func (thread *Thread) AddComment(actorID, text string) (*Comment, error) {
	err := validateInput(actorID, text)
	if err != nil {
		return nil, err
	}

	n, err := thread.newNode(KindComment, nil, actorID, text)
	if err != nil {
		return nil, err
	}

	thread.nodes[n.id] = n
	thread.comments = append(thread.comments, n.id)

	return thread.commentView(n, actorID), nil
}

func (thread *Thread) EditComment(commentID, actorID, text string) (*Comment, error) {
	comment, err := thread.findComment(commentID)
	if err != nil {
		return nil, err
	}

	if comment.authorID != actorID {
		return nil, UnauthorizedError{ActorID: actorID, Action: "edit", Kind: KindComment, ID: commentID}
	}

	err = validateInput(actorID, text)
	if err != nil {
		return nil, err
	}

	comment.text = text

	return thread.commentView(comment, actorID), nil
}

// DeleteComment removes the comment with its whole reply forest and returns the number of removed nodes.
func (thread *Thread) DeleteComment(commentID, actorID string) (int, error) {
	comment, err := thread.findComment(commentID)
	if err != nil {
		return 0, err
	}

	if comment.authorID != actorID {
		return 0, UnauthorizedError{ActorID: actorID, Action: "delete", Kind: KindComment, ID: commentID}
	}

	return thread.remove(comment), nil
}

func (thread *Thread) ToggleCommentLike(commentID, actorID string) (*Comment, error) {
	comment, err := thread.findComment(commentID)
	if err != nil {
		return nil, err
	}

	if actorID == "" {
		return nil, ValidationError{Field: "actor", Message: "must not be empty"}
	}

	comment.likes.Toggle(actorID)

	return thread.commentView(comment, actorID), nil
}

// PinComment toggles the pin of a comment. Pinning one comment unpins every other comment of the post; only the
// post owner may pin.
func (thread *Thread) PinComment(commentID, actorID string) (*Comment, error) {
	comment, err := thread.findComment(commentID)
	if err != nil {
		return nil, err
	}

	if actorID != thread.ownerID {
		return nil, UnauthorizedError{ActorID: actorID, Action: "pin", Kind: KindComment, ID: commentID}
	}

	if comment.pinned {
		comment.pinned = false

		return thread.commentView(comment, actorID), nil
	}

	for _, id := range thread.comments {
		thread.nodes[id].pinned = false
	}

	comment.pinned = true

	return thread.commentView(comment, actorID), nil
}

// AddReply adds a reply under the comment itself when parentID is empty, otherwise under the reply parentID which
// may sit at any depth of that comment's forest.
func (thread *Thread) AddReply(commentID, parentID, actorID, text string) (*Reply, error) {
	comment, err := thread.findComment(commentID)
	if err != nil {
		return nil, err
	}

	parent := comment

	if parentID != "" {
		parent, err = thread.findReply(commentID, parentID)
		if err != nil {
			return nil, err
		}
	}

	err = validateInput(actorID, text)
	if err != nil {
		return nil, err
	}

	n, err := thread.newNode(KindReply, parent, actorID, text)
	if err != nil {
		return nil, err
	}

	thread.nodes[n.id] = n
	parent.children = append(parent.children, n.id)

	return thread.replyView(n, actorID), nil
}

func (thread *Thread) ToggleReplyLike(commentID, replyID, actorID string) (*Reply, error) {
	reply, err := thread.findReply(commentID, replyID)
	if err != nil {
		return nil, err
	}

	if actorID == "" {
		return nil, ValidationError{Field: "actor", Message: "must not be empty"}
	}

	reply.likes.Toggle(actorID)

	return thread.replyView(reply, actorID), nil
}

// DeleteReply removes the reply with its whole subtree and returns the number of removed nodes.
func (thread *Thread) DeleteReply(commentID, replyID, actorID string) (int, error) {
	reply, err := thread.findReply(commentID, replyID)
	if err != nil {
		return 0, err
	}

	if reply.authorID != actorID {
		return 0, UnauthorizedError{ActorID: actorID, Action: "delete", Kind: KindReply, ID: replyID}
	}

	return thread.remove(reply), nil
}

func (thread *Thread) Comment(commentID, viewerID string) (*Comment, error) {
	comment, err := thread.findComment(commentID)
	if err != nil {
		return nil, err
	}

	return thread.commentView(comment, viewerID), nil
}

func (thread *Thread) Reply(commentID, replyID, viewerID string) (*Reply, error) {
	reply, err := thread.findReply(commentID, replyID)
	if err != nil {
		return nil, err
	}

	return thread.replyView(reply, viewerID), nil
}

// Comments materializes every comment in insertion order for viewerID.
func (thread *Thread) Comments(viewerID string) []*Comment {
	comments := make([]*Comment, 0, len(thread.comments))

	for _, id := range thread.comments {
		comments = append(comments, thread.commentView(thread.nodes[id], viewerID))
	}

	return comments
}

// Clone returns a deep copy sharing no mutable state with thread.
func (thread *Thread) Clone() *Thread {
	clone := &Thread{
		postID:   thread.postID,
		ownerID:  thread.ownerID,
		nodes:    make(map[string]*node, len(thread.nodes)),
		comments: slices.Clone(thread.comments),
		now:      thread.now,
		newID:    thread.newID,
	}

	for id, n := range thread.nodes {
		clone.nodes[id] = n.clone()
	}

	return clone
}

func (thread *Thread) findComment(commentID string) (*node, error) {
	n, ok := thread.nodes[commentID]
	if !ok || n.kind != KindComment {
		return nil, NotFoundError{Kind: KindComment, ID: commentID}
	}

	return n, nil
}

// findReply only resolves replies that belong to the forest of commentID.
func (thread *Thread) findReply(commentID, replyID string) (*node, error) {
	_, err := thread.findComment(commentID)
	if err != nil {
		return nil, err
	}

	n, ok := thread.nodes[replyID]
	if !ok || n.kind != KindReply || n.commentID != commentID {
		return nil, NotFoundError{Kind: KindReply, ID: replyID}
	}

	return n, nil
}

func (thread *Thread) newNode(kind Kind, parent *node, actorID, text string) (*node, error) {
	id := thread.newID()
	if _, exists := thread.nodes[id]; exists || id == "" {
		return nil, fmt.Errorf("failed to allocate node id: %q is not unique", id)
	}

	n := &node{
		id:        id,
		kind:      kind,
		authorID:  actorID,
		text:      text,
		createdAt: thread.now(),
		likes:     reactions.NewLikes(),
	}

	if parent == nil {
		n.commentID = id
	} else {
		n.parentID = parent.id
		n.commentID = parent.commentID
	}

	return n, nil
}

// remove detaches root from its parent and drops it and all its descendants from the arena.
func (thread *Thread) remove(root *node) int {
	if root.parentID == "" {
		thread.comments = slices.DeleteFunc(thread.comments, func(id string) bool { return id == root.id })
	} else {
		parent := thread.nodes[root.parentID]
		parent.children = slices.DeleteFunc(parent.children, func(id string) bool { return id == root.id })
	}

	removed := 0
	stack := []string{root.id}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := thread.nodes[id]
		stack = append(stack, n.children...)

		delete(thread.nodes, id)

		removed++
	}

	return removed
}

func (thread *Thread) commentView(n *node, viewerID string) *Comment {
	comment := &Comment{
		ID:            n.id,
		PostID:        thread.postID,
		AuthorID:      n.authorID,
		Text:          n.text,
		CreatedAt:     n.createdAt,
		LikeCount:     n.likes.Count(),
		LikedByViewer: n.likes.Has(viewerID),
		Pinned:        n.pinned,
		Replies:       make([]*Reply, 0, len(n.children)),
	}

	for _, id := range n.children {
		comment.Replies = append(comment.Replies, thread.replyView(thread.nodes[id], viewerID))
	}

	return comment
}

func (thread *Thread) replyView(n *node, viewerID string) *Reply {
	reply := &Reply{
		ID:            n.id,
		CommentID:     n.commentID,
		ParentID:      n.parentID,
		AuthorID:      n.authorID,
		Text:          n.text,
		CreatedAt:     n.createdAt,
		LikeCount:     n.likes.Count(),
		LikedByViewer: n.likes.Has(viewerID),
		Replies:       make([]*Reply, 0, len(n.children)),
	}

	for _, id := range n.children {
		reply.Replies = append(reply.Replies, thread.replyView(thread.nodes[id], viewerID))
	}

	return reply
}

func validateInput(actorID, text string) error {
	if actorID == "" {
		return ValidationError{Field: "actor", Message: "must not be empty"}
	}

	if strings.TrimSpace(text) == "" {
		return ValidationError{Field: "text", Message: "must not be blank"}
	}

	return nil
}
