package model

import "time"

// FeedbackComment 反馈评论表，对应 feedback_comments
// 仅反馈双方可评论；评论只增不改
type FeedbackComment struct {
	CommentID  string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"comment_id"`
	FeedbackID string    `gorm:"type:uuid;not null"                             json:"feedback_id"`
	UserID     string    `gorm:"type:uuid;not null"                             json:"user_id"`
	Comment    string    `gorm:"type:text;not null"                             json:"comment"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (FeedbackComment) TableName() string { return "feedback_comments" }
