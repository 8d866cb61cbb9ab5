package models

import "time"

// Comment belongs to an account's discussion thread. ParentID forms the
// reply tree assembled by BuildCommentTree.
type Comment struct {
	ID              int        `json:"id" db:"id"`
	ParentID        *int       `json:"parent_id" db:"parent_id"`
	AccountID       int        `json:"account_id" db:"account_id"`
	UserID          int        `json:"user_id" db:"user_id"`
	Text            string     `json:"text" db:"text"`
	DateComment     time.Time  `json:"date_comment" db:"date_comment"`
	TimeComment     string     `json:"time_comment" db:"time_comment"`
	AuthorNickname  string     `json:"author_nickname,omitempty" db:"author_nickname"`
	AccountName     *string    `json:"account_name,omitempty" db:"account_name"`
	Quotedauthor    *string    `json:"quoted_author_nickname,omitempty" db:"quoted_author_nickname"`
	QuotedText      *string    `json:"quoted_comment_text,omitempty" db:"quoted_comment_text"`
	Children        []*Comment `json:"children"`
}

func (Comment) TableName() string {
	return "comments"
}

// BuildCommentTree links flat comment rows into a reply tree. Rows whose
// parent is missing from the slice are treated as roots.
func BuildCommentTree(comments []*Comment) []*Comment {
	byID := make(map[int]*Comment, len(comments))
	for _, c := range comments {
		c.Children = []*Comment{}
		byID[c.ID] = c
	}

	tree := []*Comment{}
	for _, c := range comments {
		if c.ParentID != nil {
			if parent, ok := byID[*c.ParentID]; ok {
				parent.Children = append(parent.Children, c)
				continue
			}
		}
		tree = append(tree, c)
	}

	return tree
}

type AddCommentRequest struct {
	AccountID int    `json:"account_id" validate:"required"`
	UserID    int    `json:"user_id" validate:"required"`
	Text      string `json:"text" validate:"required"`
	ParentID  *int   `json:"parent_id"`
}

type UpdateCommentRequest struct {
	ID   int    `json:"id" validate:"required"`
	Text string `json:"text" validate:"required"`
}

// AddReportRequest files a complaint about a comment.
type AddReportRequest struct {
	CommentID int    `json:"comment_id" validate:"required"`
	Text      string `json:"text" validate:"required"`
}

// CommentListResponse pages the moderation listing.
type CommentListResponse struct {
	Items      []*Comment `json:"items"`
	TotalCount int        `json:"total_count"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
}

// Report is a user complaint about a comment.
type Report struct {
	ID                int       `json:"id" db:"id"`
	CommentID         int       `json:"comment_id" db:"comment_id"`
	ReportedUserID    int       `json:"reported_user_id" db:"reported_user_id"`
	ReportedUserLogin string    `json:"reported_user_login,omitempty" db:"reported_user_login"`
	ReporterUserID    int       `json:"reporter_user_id" db:"reporter_user_id"`
	ReporterUserLogin string    `json:"reporter_user_login,omitempty" db:"reporter_user_login"`
	AccountID         *int      `json:"account_id,omitempty" db:"account_id"`
	AccountName       *string   `json:"account_name,omitempty" db:"account_name"`
	Text              string    `json:"report_text" db:"text"`
	CommentText       *string   `json:"comment_text,omitempty" db:"comment_text"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

func (Report) TableName() string {
	return "reports"
}
