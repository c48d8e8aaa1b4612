package model

import "time"

// NoTextPlaceholder is stored as content when a submission carries no text.
const NoTextPlaceholder = "no text"

// Category is the kind of feedback a user is sending.
type Category string

const (
	CategoryNews  Category = "news"
	CategoryAd    Category = "ad"
	CategoryOther Category = "other"
)

// Categories lists every category in menu order.
var Categories = []Category{CategoryNews, CategoryAd, CategoryOther}

// ParseCategory returns the category named by s.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	return c, c.Valid()
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryNews, CategoryAd, CategoryOther:
		return true
	}
	return false
}

// Emoji returns the icon shown next to the category.
func (c Category) Emoji() string {
	switch c {
	case CategoryNews:
		return "📰"
	case CategoryAd:
		return "📢"
	case CategoryOther:
		return "💬"
	}
	return "📨"
}

// Label returns the heading used for the category in moderator summaries.
func (c Category) Label() string {
	switch c {
	case CategoryNews:
		return "New NEWS"
	case CategoryAd:
		return "New AD request"
	case CategoryOther:
		return "New message"
	}
	return "New request"
}

// Title returns the short button title of the category.
func (c Category) Title() string {
	switch c {
	case CategoryNews:
		return "Send news"
	case CategoryAd:
		return "About ads"
	case CategoryOther:
		return "Feedback"
	}
	return string(c)
}

// Status is the moderation annotation of a stored submission.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusRejected  Status = "rejected"
)

// SubmissionFields holds what the conversation collects before persistence.
type SubmissionFields struct {
	UserID      string
	DisplayName string
	Category    Category
	Content     string
	Anonymous   bool
	CreatedAt   time.Time
}

// Submission is one stored feedback item.
type Submission struct {
	ID            int64
	UserID        string
	DisplayName   string
	Category      Category
	Content       string
	Anonymous     bool
	CreatedAt     time.Time
	EchoMessageID string
	Status        Status
	ReplyCount    int
	Attachments   []MediaAttachment
}

// ReplyRecord is a moderator's answer to a submission.
type ReplyRecord struct {
	ID           int64
	SubmissionID int64
	ModeratorID  string
	Text         string
	CreatedAt    time.Time
}

// CategoryCount is one row of the submission statistics.
type CategoryCount struct {
	Category Category
	Count    int
}

// Period selects the window of AggregateCounts.
type Period string

const (
	PeriodDay  Period = "day"
	PeriodWeek Period = "week"
	PeriodAll  Period = "all"
)

// Since returns the start of the period ending at now. PeriodAll returns the zero time.
func (p Period) Since(now time.Time) time.Time {
	switch p {
	case PeriodDay:
		return now.Add(-24 * time.Hour)
	case PeriodWeek:
		return now.Add(-7 * 24 * time.Hour)
	}
	return time.Time{}
}
