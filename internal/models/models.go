package models

// UserSummary is the authenticated-identity projection returned by
// users/me/ and the explore/follow endpoints. Follower counts are
// computed server-side; the client never derives them.
type UserSummary struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email,omitempty"`
	Bio             string `json:"bio"`
	ProfileImageURL string `json:"profile_image_url"`
	FollowersCount  int    `json:"followers_count"`
	FollowingCount  int    `json:"following_count"`
	IsFollowing     bool   `json:"is_following,omitempty"`
}

func (u UserSummary) DisplayName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// StorySummary is the lightweight shape returned by list endpoints.
type StorySummary struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Genre          string   `json:"genre"`
	CoverImageURL  string   `json:"cover_image_url"`
	Status         string   `json:"status"`
	Author         string   `json:"author"`
	LikesCount     int      `json:"likes_count"`
	BookmarksCount int      `json:"bookmarks_count"`
	Tags           []string `json:"tags"`
	CreatedAt      string   `json:"created_at"`
}

// Story is the full detail shape, including visible chapters and comments.
type Story struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Genre          string    `json:"genre"`
	Synopsis       string    `json:"synopsis"`
	CoverImageURL  string    `json:"cover_image_url"`
	Status         string    `json:"status"`
	IsSerialized   bool      `json:"is_serialized"`
	Author         string    `json:"author"`
	CreatedAt      string    `json:"created_at"`
	UpdatedAt      string    `json:"updated_at"`
	Tags           []string  `json:"tags"`
	Chapters       []Chapter `json:"chapters"`
	Bookmarks      []int64   `json:"bookmarks"`
	LikesCount     int       `json:"likes_count"`
	BookmarksCount int       `json:"bookmarks_count"`
	Comments       []Comment `json:"comments"`
}

type Chapter struct {
	ID          int64  `json:"id"`
	StoryID     int64  `json:"story"`
	ChapterNo   int    `json:"chapter_no"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	IsPublished bool   `json:"is_published"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type Comment struct {
	ID        int64  `json:"id"`
	User      string `json:"user"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// CommentPage is the paginated envelope the comments endpoint returns.
type CommentPage struct {
	Count    int       `json:"count"`
	Next     *string   `json:"next"`
	Previous *string   `json:"previous"`
	Results  []Comment `json:"results"`
}

type Notification struct {
	ID        int64  `json:"id"`
	Message   string `json:"message"`
	URL       string `json:"url"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

type NotificationList struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type LikeResult struct {
	Action     string `json:"action"`
	LikesCount int    `json:"likes_count"`
}

type BookmarkResult struct {
	Action         string `json:"action"`
	BookmarksCount int    `json:"bookmarks_count"`
}

// ChatMessage is one entry of the room history. ID is server-assigned and
// absent on frames the server broadcasts before persisting. Timestamp keeps
// the server's string rendering: duplicate detection compares it verbatim.
type ChatMessage struct {
	ID        *int64 `json:"id,omitempty"`
	User      string `json:"user"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// ChatFrame is the inbound chat-socket envelope. A single frame may carry a
// message, the online roster and the online count at once; typing frames
// carry only typing state. Pointer fields distinguish "absent" from zero.
type ChatFrame struct {
	Type        string    `json:"type,omitempty"`
	Typing      bool      `json:"typing,omitempty"`
	User        string    `json:"user,omitempty"`
	ID          *int64    `json:"id,omitempty"`
	Message     string    `json:"message,omitempty"`
	Content     string    `json:"content,omitempty"`
	Timestamp   string    `json:"timestamp,omitempty"`
	OnlineUsers *[]string `json:"online_users,omitempty"`
	OnlineCount *int      `json:"online_count,omitempty"`
}

// Body returns the message text, preferring content over message the same
// way the room history coalesces the two fields.
func (f ChatFrame) Body() string {
	if f.Content != "" {
		return f.Content
	}
	return f.Message
}

// MessageSend is the outbound chat frame.
type MessageSend struct {
	Message string `json:"message"`
}

// TypingSend is the outbound typing-indicator frame.
type TypingSend struct {
	Typing bool `json:"typing"`
}
