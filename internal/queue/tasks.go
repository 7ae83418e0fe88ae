package queue

import (
	"encoding/json"

	"github.com/mercato-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskFulfillmentCreate 下单后创建拣货单任务
	TaskFulfillmentCreate = constants.TaskFulfillmentCreate
	// TaskOrderStatusEmail 订单状态邮件通知任务
	TaskOrderStatusEmail = constants.TaskOrderStatusEmail
	// TaskOrderTimeoutCancel 订单超时取消任务
	TaskOrderTimeoutCancel = constants.TaskOrderTimeoutCancel
	// TaskRestockNotify 心愿单到货提醒任务
	TaskRestockNotify = constants.TaskRestockNotify
)

// FulfillmentCreatePayload 创建拣货单任务载荷
type FulfillmentCreatePayload struct {
	OrderID uint `json:"order_id"`
}

// OrderStatusEmailPayload 订单状态邮件任务载荷
type OrderStatusEmailPayload struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

// OrderTimeoutCancelPayload 超时取消任务载荷
type OrderTimeoutCancelPayload struct {
	OrderID uint `json:"order_id"`
}

// RestockNotifyPayload 到货提醒任务载荷
type RestockNotifyPayload struct {
	ProductID uint `json:"product_id"`
}

// NewFulfillmentCreateTask 创建拣货单任务
func NewFulfillmentCreateTask(payload FulfillmentCreatePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFulfillmentCreate, body), nil
}

// NewOrderStatusEmailTask 创建订单状态邮件任务
func NewOrderStatusEmailTask(payload OrderStatusEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderStatusEmail, body), nil
}

// NewOrderTimeoutCancelTask 创建订单超时取消任务
func NewOrderTimeoutCancelTask(payload OrderTimeoutCancelPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderTimeoutCancel, body), nil
}

// NewRestockNotifyTask 创建到货提醒任务
func NewRestockNotifyTask(payload RestockNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRestockNotify, body), nil
}
