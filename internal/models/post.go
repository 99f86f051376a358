package models

import "time"

// Post represents a shared trip moment.
type Post struct {
	ID            string     `json:"id" yaml:"id"`
	UserID        string     `json:"user_id" yaml:"user_id"`
	Caption       string     `json:"caption" yaml:"caption"`
	Image         string     `json:"image" yaml:"image"`
	Location      string     `json:"location,omitempty" yaml:"location"`
	Likes         int        `json:"likes" yaml:"likes"`
	Comments      int        `json:"comments" yaml:"comments"`
	AllowComments bool       `json:"allow_comments" yaml:"allow_comments"`
	HideLikes     bool       `json:"hide_likes" yaml:"hide_likes"`
	CreatedAt     time.Time  `json:"created_at" yaml:"created_at"`
	EditedAt      *time.Time `json:"edited_at,omitempty" yaml:"edited_at"`

	// Liked and Saved are relative to the viewer the post was read for.
	Liked bool `json:"liked" yaml:"-"`
	Saved bool `json:"saved" yaml:"-"`
}

// PostPatch carries the fields an edit may change. Nil fields are left untouched.
type PostPatch struct {
	Caption       *string
	Image         *string
	Location      *string
	AllowComments *bool
	HideLikes     *bool
}

// Empty reports whether the patch changes nothing.
func (p PostPatch) Empty() bool {
	return p.Caption == nil && p.Image == nil && p.Location == nil && p.AllowComments == nil && p.HideLikes == nil
}

// Apply merges the patch into post.
func (p PostPatch) Apply(post *Post) {
	if p.Caption != nil {
		post.Caption = *p.Caption
	}
	if p.Image != nil {
		post.Image = *p.Image
	}
	if p.Location != nil {
		post.Location = *p.Location
	}
	if p.AllowComments != nil {
		post.AllowComments = *p.AllowComments
	}
	if p.HideLikes != nil {
		post.HideLikes = *p.HideLikes
	}
}
