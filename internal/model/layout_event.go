package model

import "time"

// LayoutEvent 布局变更事件（发布、删除），供 socket.io 客户端增量拉取
type LayoutEvent struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CompanyID int       `gorm:"column:company_id;not null;index:idx_layout_events_company_id" json:"companyId"`
	EventType string    `gorm:"column:event_type;type:varchar(16);not null" json:"eventType"`
	Payload   string    `gorm:"column:payload;type:text;not null" json:"payload"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// TableName specifies the table name for LayoutEvent
func (LayoutEvent) TableName() string {
	return "layout_events"
}

// LayoutEvent types
const (
	LayoutEventPublish = "publish"
	LayoutEventUpdate  = "update"
	LayoutEventDelete  = "delete"
)
