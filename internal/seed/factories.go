package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"tripsocial/internal/models"
	"tripsocial/internal/observability"
	"tripsocial/internal/repository"
)

// FactoryOptions controls generated data.
type FactoryOptions struct {
	// MaxDays bounds how far back generated posts are dated. Zero means 30.
	MaxDays int
	// MaxCommentsPerPost bounds comments added to each generated post. Zero means 3.
	MaxCommentsPerPost int
}

// Factory builds fake users, posts and comments and writes them to the repositories.
type Factory struct {
	repos *repository.Set
	faker *gofakeit.Faker
	now   func() time.Time
	opts  FactoryOptions
}

// NewFactory creates a Factory. A zero seed picks a random one; any other value makes
// the output reproducible.
func NewFactory(repos *repository.Set, seed int64, opts FactoryOptions) *Factory {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 30
	}
	if opts.MaxCommentsPerPost <= 0 {
		opts.MaxCommentsPerPost = 3
	}
	return &Factory{repos: repos, faker: gofakeit.New(seed), now: time.Now, opts: opts}
}

// BuildUser returns a fake user without storing it.
func (f *Factory) BuildUser(overrides ...func(*models.User)) models.User {
	first, last := f.faker.FirstName(), f.faker.LastName()
	user := models.User{
		ID:        "u_" + f.faker.UUID()[:8],
		Name:      first + " " + last,
		Username:  strings.ToLower(fmt.Sprintf("%s_%s%d", first, last[:1], f.faker.Number(10, 999))),
		Avatar:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
		Bio:       f.faker.Sentence(6),
		Followers: f.faker.Number(0, 5000),
		Following: f.faker.Number(0, 800),
		CreatedAt: f.now(),
	}
	for _, override := range overrides {
		override(&user)
	}
	return user
}

// BuildPost returns a fake post by userID without storing it.
func (f *Factory) BuildPost(userID string, overrides ...func(*models.Post)) models.Post {
	age := time.Duration(f.faker.Number(0, f.opts.MaxDays*24*60)) * time.Minute
	post := models.Post{
		ID:            repository.NewID(),
		UserID:        userID,
		Caption:       f.faker.Sentence(f.faker.Number(4, 12)),
		Image:         fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID()),
		Location:      f.faker.City() + ", " + f.faker.Country(),
		Likes:         f.faker.Number(0, 2000),
		AllowComments: f.faker.Number(0, 9) > 0,
		CreatedAt:     f.now().Add(-age),
	}
	for _, override := range overrides {
		override(&post)
	}
	return post
}

// BuildComment returns a fake top-level comment without storing it.
func (f *Factory) BuildComment(postID, userID string, createdAt time.Time) models.Comment {
	return models.Comment{
		ID:        repository.NewID(),
		PostID:    postID,
		UserID:    userID,
		Text:      f.faker.Sentence(f.faker.Number(3, 10)),
		Likes:     f.faker.Number(0, 40),
		CreatedAt: createdAt,
	}
}

// Populate stores the given number of fake users and then fake posts by random authors,
// each with up to MaxCommentsPerPost comments. Post and user counters follow the rows added.
func (f *Factory) Populate(ctx context.Context, users, posts int) (Summary, error) {
	if users < 0 || posts < 0 {
		return Summary{}, fmt.Errorf("fake seed counts must not be negative")
	}

	var sum Summary
	for i := 0; i < users; i++ {
		f.repos.Users.Create(f.BuildUser())
		sum.Users++
	}

	authors := f.repos.Users.List()
	if posts > 0 && len(authors) == 0 {
		return sum, fmt.Errorf("cannot generate posts without users")
	}

	for i := 0; i < posts; i++ {
		author := authors[f.faker.Number(0, len(authors)-1)]
		post := f.BuildPost(author.ID)

		var comments []models.Comment
		if post.AllowComments {
			for i, n := 0, f.faker.Number(0, f.opts.MaxCommentsPerPost); i < n; i++ {
				commenter := authors[f.faker.Number(0, len(authors)-1)]
				comments = append(comments, f.BuildComment(post.ID, commenter.ID, post.CreatedAt.Add(time.Duration(len(comments)+1)*time.Minute)))
			}
		}
		post.Comments = len(comments)

		f.repos.Atomic(func() {
			f.repos.Posts.Append(post)
			for _, c := range comments {
				f.repos.Comments.Create(c)
			}
			f.repos.Users.Update(author.ID, func(u *models.User) { u.Posts++ })
		})
		sum.Posts++
		sum.Comments += len(comments)
	}

	observability.GlobalLogger.InfoContext(ctx, "fake seed data generated",
		"users", sum.Users, "posts", sum.Posts, "comments", sum.Comments)
	return sum, nil
}
