// Package ws pushes layout change events to authoring clients over
// socket.io, one room per company.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go_sitebuilder/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// EventLayoutsUpdate 广播事件名
const EventLayoutsUpdate = "layouts:update"

// Broadcaster socket.io 广播能力
type Broadcaster interface {
	BroadcastToRoom(namespace string, room, event string, args ...interface{}) bool
}

// LayoutPayload 事件负载
type LayoutPayload struct {
	LayoutID    int        `json:"layoutId"`
	PageType    string     `json:"pageType"`
	Name        string     `json:"name"`
	IsActive    bool       `json:"isActive"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// Hub 记录布局事件并广播到公司房间
type Hub struct {
	db          *gorm.DB
	broadcaster Broadcaster
	log         *logrus.Entry
}

// NewHub 创建 hub，broadcaster 为 nil 时只落库
func NewHub(db *gorm.DB, broadcaster Broadcaster, log *logrus.Entry) *Hub {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Hub{db: db, broadcaster: broadcaster, log: log.WithField("component", "ws")}
}

// SetBroadcaster 设置广播器（server 创建晚于 hub 时使用）
func (h *Hub) SetBroadcaster(b Broadcaster) {
	h.broadcaster = b
}

// CompanyRoom 公司房间名
func CompanyRoom(companyID int) string {
	return fmt.Sprintf("company:%d", companyID)
}

// LayoutChanged 实现 layout.Notifier；失败只记录日志，不影响请求
func (h *Hub) LayoutChanged(ctx context.Context, companyID int, eventType string, l *model.WebsiteLayout) {
	payload := LayoutPayload{
		LayoutID:    l.ID,
		PageType:    string(l.PageType),
		Name:        l.Name,
		IsActive:    l.IsActive,
		PublishedAt: l.PublishedAt,
	}
	if _, err := h.Publish(ctx, companyID, eventType, payload); err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{
			"company_id": companyID,
			"event_type": eventType,
		}).Warn("Failed to publish layout event")
	}
}

// Publish 写入 layout_events 并广播
func (h *Hub) Publish(ctx context.Context, companyID int, eventType string, payload interface{}) (*model.LayoutEvent, error) {
	// 1. 序列化
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	// 2. 落库
	event := model.LayoutEvent{
		CompanyID: companyID,
		EventType: eventType,
		Payload:   string(payloadJSON),
	}
	if err := h.db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, fmt.Errorf("failed to write event to database: %w", err)
	}

	// 3. 广播
	if h.broadcaster != nil {
		h.broadcaster.BroadcastToRoom("/", CompanyRoom(companyID), EventLayoutsUpdate, map[string]interface{}{
			"eventId": event.ID,
			"type":    eventType,
			"data":    payload,
		})
	}

	h.log.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"company_id": companyID,
		"type":       eventType,
	}).Debug("Layout event broadcasted")
	return &event, nil
}

// IncrementalEvents 返回公司 id > lastEventID 的事件，最多 maxCount 条
func (h *Hub) IncrementalEvents(ctx context.Context, companyID int, lastEventID int64, maxCount int) ([]model.LayoutEvent, error) {
	var events []model.LayoutEvent
	err := h.db.WithContext(ctx).
		Where("company_id = ? AND id > ?", companyID, lastEventID).
		Order("id ASC").
		Limit(maxCount).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query incremental events: %w", err)
	}
	return events, nil
}

// LatestEventID 公司最新事件 ID，没有事件时为 0
func (h *Hub) LatestEventID(ctx context.Context, companyID int) (int64, error) {
	var event model.LayoutEvent
	err := h.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("id DESC").
		First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query latest event: %w", err)
	}
	return event.ID, nil
}
