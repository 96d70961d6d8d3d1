package server

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/feeds"
)

const rssItemLimit = 20

// GetUserPostsRSS handles GET /api/users/:username/posts.rss
// @Summary RSS feed of a user's newest posts
// @Tags users
// @Produce xml
// @Param username path string true "Username"
// @Success 200 {string} string "RSS 2.0 document"
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username}/posts.rss [get]
func (s *Server) GetUserPostsRSS(c *fiber.Ctx) error {
	user, posts, err := s.postService.ListUserPosts(c.UserContext(), c.Params("username"), rssItemLimit, 0)
	if err != nil {
		return respondAppError(c, err)
	}

	base := c.BaseURL()
	feed := &feeds.Feed{
		Title:       fmt.Sprintf("Pixelgram - %s", user.Username),
		Link:        &feeds.Link{Href: fmt.Sprintf("%s/api/users/%s", base, user.Username)},
		Description: user.Bio,
		Author:      &feeds.Author{Name: user.Username},
		Created:     time.Now(),
	}

	for _, post := range posts {
		postID := strconv.FormatUint(uint64(post.ID), 10)
		item := &feeds.Item{
			Id:      postID,
			Title:   rssTitle(post.Content, post.CreatedAt),
			Link:    &feeds.Link{Href: fmt.Sprintf("%s/api/posts/%s", base, postID)},
			Content: post.Content,
			Author:  &feeds.Author{Name: user.Username},
			Created: post.CreatedAt,
		}
		if len(post.Photos) > 0 {
			item.Enclosure = &feeds.Enclosure{Url: post.Photos[0], Type: "image/jpeg", Length: "0"}
		}
		feed.Items = append(feed.Items, item)
	}

	body, err := feed.ToRss()
	if err != nil {
		return respondAppError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/rss+xml; charset=utf-8")
	return c.SendString(body)
}

// rssTitle is the first line of content, shortened, or the post date for photo-only posts.
func rssTitle(content string, created time.Time) string {
	line, _, _ := strings.Cut(strings.TrimSpace(content), "\n")
	if line == "" {
		return created.Format("2006-01-02 15:04")
	}
	if r := []rune(line); len(r) > 80 {
		return string(r[:80]) + "…"
	}
	return line
}
