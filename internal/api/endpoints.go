package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aflah-pp/NarrativeNexus/internal/models"
)

// Auth.

// ObtainToken exchanges credentials for a token pair. Unauthenticated.
func (c *Client) ObtainToken(ctx context.Context, username, password string) (models.TokenPair, error) {
	var pair models.TokenPair
	err := c.postJSON(ctx, "token/", map[string]string{
		"username": username,
		"password": password,
	}, &pair)
	return pair, err
}

// RefreshAccess mints a new access token from the refresh token.
func (c *Client) RefreshAccess(ctx context.Context, refresh string) (string, error) {
	var out struct {
		Access string `json:"access"`
	}
	err := c.postJSON(ctx, "token/refresh/", map[string]string{"refresh": refresh}, &out)
	return out.Access, err
}

// Register creates an account and returns a fresh token pair.
func (c *Client) Register(ctx context.Context, form RegisterForm) (models.TokenPair, error) {
	body, contentType, err := form.encode()
	if err != nil {
		return models.TokenPair{}, err
	}
	var pair models.TokenPair
	err = c.do(ctx, http.MethodPost, "users/register/", body, contentType, &pair)
	return pair, err
}

// Users.

func (c *Client) Me(ctx context.Context) (models.UserSummary, error) {
	var user models.UserSummary
	err := c.getJSON(ctx, "users/me/", &user)
	return user, err
}

func (c *Client) UpdateMe(ctx context.Context, form ProfileForm) (models.UserSummary, error) {
	body, contentType, err := form.encode()
	if err != nil {
		return models.UserSummary{}, err
	}
	var user models.UserSummary
	err = c.do(ctx, http.MethodPatch, "users/me/", body, contentType, &user)
	return user, err
}

func (c *Client) ExploreUsers(ctx context.Context) ([]models.UserSummary, error) {
	var users []models.UserSummary
	err := c.getJSON(ctx, "users/explore/", &users)
	return users, err
}

func (c *Client) ExploreUser(ctx context.Context, id int64) (models.UserSummary, error) {
	var user models.UserSummary
	err := c.getJSON(ctx, fmt.Sprintf("users/explore/%d/", id), &user)
	return user, err
}

func (c *Client) Follow(ctx context.Context, username string) error {
	return c.postJSON(ctx, "users/follow/"+url.PathEscape(username)+"/", nil, nil)
}

func (c *Client) Unfollow(ctx context.Context, username string) error {
	return c.postJSON(ctx, "users/unfollow/"+url.PathEscape(username)+"/", nil, nil)
}

func (c *Client) Followers(ctx context.Context, username string) ([]models.UserSummary, error) {
	var users []models.UserSummary
	err := c.getJSON(ctx, "users/followers/"+url.PathEscape(username)+"/", &users)
	return users, err
}

func (c *Client) Following(ctx context.Context, username string) ([]models.UserSummary, error) {
	var users []models.UserSummary
	err := c.getJSON(ctx, "users/following/"+url.PathEscape(username)+"/", &users)
	return users, err
}

// Stories.

func (c *Client) Stories(ctx context.Context) ([]models.StorySummary, error) {
	var stories []models.StorySummary
	err := c.getJSON(ctx, "core/stories/", &stories)
	return stories, err
}

func (c *Client) CreateStory(ctx context.Context, form StoryForm) (models.Story, error) {
	body, contentType, err := form.encode()
	if err != nil {
		return models.Story{}, err
	}
	var story models.Story
	err = c.do(ctx, http.MethodPost, "core/stories/", body, contentType, &story)
	return story, err
}

func (c *Client) Story(ctx context.Context, id int64) (models.Story, error) {
	var story models.Story
	err := c.getJSON(ctx, fmt.Sprintf("core/stories/%d/", id), &story)
	return story, err
}

func (c *Client) UpdateStory(ctx context.Context, id int64, form StoryForm) (models.Story, error) {
	body, contentType, err := form.encode()
	if err != nil {
		return models.Story{}, err
	}
	var story models.Story
	err = c.do(ctx, http.MethodPut, fmt.Sprintf("core/stories/%d/", id), body, contentType, &story)
	return story, err
}

func (c *Client) DeleteStory(ctx context.Context, id int64) error {
	return c.deleteReq(ctx, fmt.Sprintf("core/stories/%d/", id))
}

func (c *Client) UserStories(ctx context.Context, username string) ([]models.StorySummary, error) {
	var stories []models.StorySummary
	err := c.getJSON(ctx, "core/"+url.PathEscape(username)+"/stories/", &stories)
	return stories, err
}

func (c *Client) BookmarkedStories(ctx context.Context) ([]models.StorySummary, error) {
	var stories []models.StorySummary
	err := c.getJSON(ctx, "core/stories/bookmarked/", &stories)
	return stories, err
}

// ToggleLike flips the caller's like on a story; the server reports the
// resulting action and count.
func (c *Client) ToggleLike(ctx context.Context, id int64) (models.LikeResult, error) {
	var result models.LikeResult
	err := c.postJSON(ctx, fmt.Sprintf("core/stories/%d/like/", id), nil, &result)
	return result, err
}

func (c *Client) ToggleBookmark(ctx context.Context, id int64) (models.BookmarkResult, error) {
	var result models.BookmarkResult
	err := c.postJSON(ctx, fmt.Sprintf("core/stories/%d/bookmark/", id), nil, &result)
	return result, err
}

// Chapters.

func (c *Client) Chapters(ctx context.Context, storyID int64) ([]models.Chapter, error) {
	var chapters []models.Chapter
	err := c.getJSON(ctx, fmt.Sprintf("core/stories/%d/chapters/", storyID), &chapters)
	return chapters, err
}

func (c *Client) CreateChapter(ctx context.Context, storyID int64, form ChapterForm) (models.Chapter, error) {
	var chapter models.Chapter
	err := c.postJSON(ctx, fmt.Sprintf("core/stories/%d/chapters/", storyID), form, &chapter)
	return chapter, err
}

func (c *Client) Chapter(ctx context.Context, storyID int64, chapterNo int) (models.Chapter, error) {
	var chapter models.Chapter
	err := c.getJSON(ctx, fmt.Sprintf("core/stories/%d/chapters/%d/", storyID, chapterNo), &chapter)
	return chapter, err
}

func (c *Client) UpdateChapter(ctx context.Context, storyID int64, chapterNo int, form ChapterForm) (models.Chapter, error) {
	var chapter models.Chapter
	path := fmt.Sprintf("core/stories/%d/chapters/%d/", storyID, chapterNo)
	data, err := jsonBody(form)
	if err != nil {
		return chapter, err
	}
	err = c.do(ctx, http.MethodPut, path, data, "application/json", &chapter)
	return chapter, err
}

func (c *Client) DeleteChapter(ctx context.Context, storyID int64, chapterNo int) error {
	return c.deleteReq(ctx, fmt.Sprintf("core/stories/%d/chapters/%d/", storyID, chapterNo))
}

// Comments.

func (c *Client) Comments(ctx context.Context, storyID int64) (models.CommentPage, error) {
	var page models.CommentPage
	err := c.getJSON(ctx, fmt.Sprintf("core/stories/%d/comments/", storyID), &page)
	return page, err
}

func (c *Client) AddComment(ctx context.Context, storyID int64, content string) (models.Comment, error) {
	var comment models.Comment
	err := c.postJSON(ctx, fmt.Sprintf("core/stories/%d/comments/", storyID),
		map[string]string{"content": content}, &comment)
	return comment, err
}

// Notifications.

func (c *Client) Notifications(ctx context.Context) (models.NotificationList, error) {
	var list models.NotificationList
	err := c.getJSON(ctx, "core/notifications/", &list)
	return list, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.postJSON(ctx, fmt.Sprintf("core/notifications/%d/read/", id), nil, nil)
}

// Chat.

// ChatMessages returns the room history in timestamp order.
func (c *Client) ChatMessages(ctx context.Context) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := c.getJSON(ctx, "chat/messages/", &messages)
	return messages, err
}
