// Package seed loads the demo snapshot and optional generated data into the
// repositories. It is meant for development sessions and tests.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"tripsocial/internal/models"
	"tripsocial/internal/observability"
	"tripsocial/internal/repository"
)

//go:embed data/seed.yml
var snapshotYAML []byte

// Snapshot is the parsed seed file. Every record carries an age that is subtracted
// from the load time to produce its timestamp.
type Snapshot struct {
	Users         []models.User        `yaml:"users"`
	Posts         []postRecord         `yaml:"posts"`
	Comments      []commentRecord      `yaml:"comments"`
	Likes         []likeRecord         `yaml:"likes"`
	Bookmarks     []bookmarkRecord     `yaml:"bookmarks"`
	Follows       []models.Follow      `yaml:"follows"`
	Blocks        []models.Block       `yaml:"blocks"`
	Stories       []storyRecord        `yaml:"stories"`
	Conversations []conversationRecord `yaml:"conversations"`
	Messages      []messageRecord      `yaml:"messages"`
	Notifications []notificationRecord `yaml:"notifications"`
}

type postRecord struct {
	models.Post `yaml:",inline"`
	Age         time.Duration `yaml:"age"`
}

type commentRecord struct {
	models.Comment `yaml:",inline"`
	Age            time.Duration `yaml:"age"`
}

type storyRecord struct {
	models.Story `yaml:",inline"`
	Age          time.Duration `yaml:"age"`
}

type notificationRecord struct {
	models.Notification `yaml:",inline"`
	Age                 time.Duration `yaml:"age"`
}

type likeRecord struct {
	UserID    string `yaml:"user_id"`
	PostID    string `yaml:"post_id"`
	CommentID string `yaml:"comment_id"`
}

type bookmarkRecord struct {
	UserID string `yaml:"user_id"`
	PostID string `yaml:"post_id"`
}

type conversationRecord struct {
	ID             string        `yaml:"id"`
	ParticipantIDs []string      `yaml:"participant_ids"`
	UnreadCount    int           `yaml:"unread_count"`
	Age            time.Duration `yaml:"age"`
}

type messageRecord struct {
	ID             string        `yaml:"id"`
	ConversationID string        `yaml:"conversation_id"`
	SenderID       string        `yaml:"sender_id"`
	Text           string        `yaml:"text"`
	SharedPostID   string        `yaml:"shared_post_id"`
	MediaURL       string        `yaml:"media_url"`
	MediaType      string        `yaml:"media_type"`
	Reaction       string        `yaml:"reaction"`
	Read           bool          `yaml:"read"`
	Age            time.Duration `yaml:"age"`
}

// Summary counts what Apply loaded.
type Summary struct {
	Users         int
	Posts         int
	Comments      int
	Likes         int
	Stories       int
	Conversations int
	Messages      int
	Notifications int
}

// Load parses the embedded snapshot.
func Load() (*Snapshot, error) {
	return Parse(snapshotYAML)
}

// Parse decodes a snapshot. Unknown fields are rejected.
func Parse(data []byte) (*Snapshot, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var snap Snapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode seed snapshot: %w", err)
	}
	return &snap, nil
}

// Apply loads snap into repos with timestamps relative to now. References are checked
// before anything is written, so a broken snapshot leaves repos untouched.
func Apply(ctx context.Context, repos *repository.Set, snap *Snapshot, now time.Time) (Summary, error) {
	if err := snap.validate(); err != nil {
		return Summary{}, err
	}

	var sum Summary
	users := make(map[string]models.User, len(snap.Users))
	for _, u := range snap.Users {
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
		}
		users[u.ID] = u
		repos.Users.Create(u)
		sum.Users++
	}

	posts := make(map[string]models.Post, len(snap.Posts))
	for _, rec := range snap.Posts {
		p := rec.Post
		p.CreatedAt = now.Add(-rec.Age)
		posts[p.ID] = p
		repos.Posts.Append(p)
		sum.Posts++
	}

	for _, rec := range snap.Comments {
		c := rec.Comment
		c.CreatedAt = now.Add(-rec.Age)
		repos.Comments.Create(c)
		sum.Comments++
	}

	for _, rec := range snap.Likes {
		target := models.PostTarget(rec.PostID)
		if rec.CommentID != "" {
			target = models.CommentTarget(rec.CommentID)
		}
		if repos.Likes.Create(models.Like{ID: repository.NewID(), UserID: rec.UserID, Target: target, CreatedAt: now}) {
			sum.Likes++
		}
	}

	for _, rec := range snap.Bookmarks {
		repos.Bookmarks.Add(rec.UserID, rec.PostID)
	}

	for _, f := range snap.Follows {
		if f.CreatedAt.IsZero() {
			f.CreatedAt = now
		}
		repos.Graph.AddFollow(f)
	}
	for _, b := range snap.Blocks {
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		repos.Graph.AddBlock(b)
	}

	for _, rec := range snap.Stories {
		st := rec.Story
		st.CreatedAt = now.Add(-rec.Age)
		st.ExpiresAt = st.CreatedAt.Add(models.StoryTTL)
		repos.Stories.Create(st)
		sum.Stories++
	}

	for _, rec := range snap.Conversations {
		conv := models.Conversation{
			ID:             rec.ID,
			ParticipantIDs: append([]string(nil), rec.ParticipantIDs...),
			UnreadCount:    rec.UnreadCount,
			CreatedAt:      now.Add(-rec.Age),
		}
		for _, id := range rec.ParticipantIDs {
			conv.Participants = append(conv.Participants, users[id].Snapshot())
		}
		repos.Chat.AppendConversation(conv)
		sum.Conversations++
	}

	for _, rec := range snap.Messages {
		conv, _ := repos.Chat.GetConversation(rec.ConversationID)
		payload, err := rec.payload(posts, users)
		if err != nil {
			return sum, err
		}
		msg := models.Message{
			ID:             rec.ID,
			ConversationID: rec.ConversationID,
			SenderID:       rec.SenderID,
			RecipientID:    conv.Counterpart(rec.SenderID),
			Payload:        payload,
			Read:           rec.Read,
			Reaction:       rec.Reaction,
			CreatedAt:      now.Add(-rec.Age),
		}
		if msg.Read {
			readAt := msg.CreatedAt
			msg.ReadAt = &readAt
		}
		repos.Chat.CreateMessage(msg)
		repos.Chat.UpdateConversation(msg.ConversationID, func(c *models.Conversation) {
			if c.LastMessage == nil || !msg.CreatedAt.Before(c.LastMessage.CreatedAt) {
				last := msg
				c.LastMessage = &last
			}
		})
		sum.Messages++
	}

	for _, rec := range snap.Notifications {
		n := rec.Notification
		n.CreatedAt = now.Add(-rec.Age)
		repos.Notifications.Append(n)
		sum.Notifications++
	}

	observability.GlobalLogger.InfoContext(ctx, "seed snapshot applied",
		"users", sum.Users,
		"posts", sum.Posts,
		"comments", sum.Comments,
		"stories", sum.Stories,
		"conversations", sum.Conversations,
		"messages", sum.Messages,
		"notifications", sum.Notifications,
	)
	return sum, nil
}

func (rec messageRecord) payload(posts map[string]models.Post, users map[string]models.User) (models.MessagePayload, error) {
	switch {
	case rec.Text != "":
		return models.TextPayload{Text: rec.Text}, nil
	case rec.SharedPostID != "":
		p := posts[rec.SharedPostID]
		return models.SharedPostPayload{
			PostID:    p.ID,
			Thumbnail: p.Image,
			Caption:   p.Caption,
			Username:  users[p.UserID].Username,
		}, nil
	case rec.MediaURL != "":
		return models.MediaPayload{URL: rec.MediaURL, MediaType: rec.MediaType}, nil
	}
	return nil, fmt.Errorf("seed message %s has no payload", rec.ID)
}

// validate checks ids are unique and every reference resolves.
func (s *Snapshot) validate() error {
	users := make(map[string]bool)
	for _, u := range s.Users {
		if u.ID == "" || users[u.ID] {
			return fmt.Errorf("seed user id %q is empty or duplicated", u.ID)
		}
		users[u.ID] = true
	}
	needUser := func(kind, id, userID string) error {
		if !users[userID] {
			return fmt.Errorf("seed %s %s references unknown user %q", kind, id, userID)
		}
		return nil
	}

	posts := make(map[string]bool)
	for _, p := range s.Posts {
		if err := needUser("post", p.ID, p.UserID); err != nil {
			return err
		}
		posts[p.ID] = true
	}

	comments := make(map[string]models.Comment)
	for _, c := range s.Comments {
		if err := needUser("comment", c.ID, c.UserID); err != nil {
			return err
		}
		if !posts[c.PostID] {
			return fmt.Errorf("seed comment %s references unknown post %q", c.ID, c.PostID)
		}
		if c.ParentID != "" {
			parent, ok := comments[c.ParentID]
			if !ok || parent.IsReply() || parent.PostID != c.PostID {
				return fmt.Errorf("seed comment %s has invalid parent %q", c.ID, c.ParentID)
			}
		}
		comments[c.ID] = c.Comment
	}

	for _, l := range s.Likes {
		if err := needUser("like", l.PostID+l.CommentID, l.UserID); err != nil {
			return err
		}
		if (l.PostID == "") == (l.CommentID == "") {
			return fmt.Errorf("seed like by %s must target exactly one of post or comment", l.UserID)
		}
		if l.PostID != "" && !posts[l.PostID] {
			return fmt.Errorf("seed like references unknown post %q", l.PostID)
		}
		if _, ok := comments[l.CommentID]; l.CommentID != "" && !ok {
			return fmt.Errorf("seed like references unknown comment %q", l.CommentID)
		}
	}

	for _, b := range s.Bookmarks {
		if !users[b.UserID] || !posts[b.PostID] {
			return fmt.Errorf("seed bookmark %s/%s has unknown references", b.UserID, b.PostID)
		}
	}

	for _, f := range s.Follows {
		if !users[f.FollowerID] || !users[f.FollowingID] || f.FollowerID == f.FollowingID {
			return fmt.Errorf("seed follow %s->%s is invalid", f.FollowerID, f.FollowingID)
		}
	}
	for _, b := range s.Blocks {
		if !users[b.BlockerID] || !users[b.BlockedID] || b.BlockerID == b.BlockedID {
			return fmt.Errorf("seed block %s->%s is invalid", b.BlockerID, b.BlockedID)
		}
	}

	for _, st := range s.Stories {
		if err := needUser("story", st.ID, st.UserID); err != nil {
			return err
		}
		if len(st.Images) == 0 {
			return fmt.Errorf("seed story %s has no images", st.ID)
		}
	}

	convs := make(map[string][]string)
	for _, c := range s.Conversations {
		if len(c.ParticipantIDs) < 2 {
			return fmt.Errorf("seed conversation %s needs two participants", c.ID)
		}
		for _, id := range c.ParticipantIDs {
			if err := needUser("conversation", c.ID, id); err != nil {
				return err
			}
		}
		convs[c.ID] = c.ParticipantIDs
	}

	for _, m := range s.Messages {
		participants, ok := convs[m.ConversationID]
		if !ok {
			return fmt.Errorf("seed message %s references unknown conversation %q", m.ID, m.ConversationID)
		}
		member := false
		for _, id := range participants {
			member = member || id == m.SenderID
		}
		if !member {
			return fmt.Errorf("seed message %s sender %q is not a participant", m.ID, m.SenderID)
		}
		if m.Text == "" && m.SharedPostID == "" && m.MediaURL == "" {
			return fmt.Errorf("seed message %s has no payload", m.ID)
		}
		if m.SharedPostID != "" && !posts[m.SharedPostID] {
			return fmt.Errorf("seed message %s shares unknown post %q", m.ID, m.SharedPostID)
		}
	}

	for _, n := range s.Notifications {
		if !n.Type.Valid() {
			return fmt.Errorf("seed notification %s has unknown type %q", n.ID, n.Type)
		}
		if err := needUser("notification", n.ID, n.RecipientID); err != nil {
			return err
		}
		if err := needUser("notification", n.ID, n.FromUserID); err != nil {
			return err
		}
	}
	return nil
}
