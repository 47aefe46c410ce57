package model

import "time"

// Sentiment 情感倾向
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Sentiments 全部情感取值（仪表盘按此顺序输出）
var Sentiments = []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative}

// Valid 是否为已知情感取值
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	default:
		return false
	}
}

// Feedback 反馈表，对应 feedback
// 状态机：未确认 → 已确认（终态）。作者、对象与确认时间一经写入不可变
type Feedback struct {
	FeedbackID        string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"feedback_id"`
	ManagerID         string     `gorm:"type:uuid;not null"                             json:"manager_id"`
	EmployeeID        string     `gorm:"type:uuid;not null"                             json:"employee_id"`
	Strengths         string     `gorm:"type:text;not null"                             json:"strengths"`
	AreasToImprove    string     `gorm:"type:text;not null"                             json:"areas_to_improve"`
	Notes             string     `gorm:"type:text;not null;default:''"                  json:"notes"`
	Sentiment         Sentiment  `gorm:"type:varchar(20);not null"                      json:"sentiment"`
	SentimentDegraded bool       `gorm:"not null;default:false"                         json:"sentiment_degraded"`
	Acknowledged      bool       `gorm:"not null;default:false"                         json:"acknowledged"`
	AcknowledgedAt    *time.Time `json:"acknowledged_at,omitempty"`
	VersionedModel

	// 关联
	Manager  *User `gorm:"foreignKey:ManagerID;references:UserID"  json:"manager,omitempty"`
	Employee *User `gorm:"foreignKey:EmployeeID;references:UserID" json:"employee,omitempty"`
}

// TableName 指定表名
func (Feedback) TableName() string { return "feedback" }

// SentimentSource 参与情感分类的合并文本
func (f *Feedback) SentimentSource() string {
	text := f.Strengths + "\n" + f.AreasToImprove
	if f.Notes != "" {
		text += "\n" + f.Notes
	}
	return text
}

// Acknowledge 执行确认迁移；已确认时不做任何修改并返回 false
func (f *Feedback) Acknowledge(now time.Time) bool {
	if f.Acknowledged {
		return false
	}
	f.Acknowledged = true
	f.AcknowledgedAt = &now
	return true
}
