package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskAppointmentReminder = "appointments.reminder"

const TaskIntentDeliver = "notification.intent.deliver"

type AppointmentReminderPayload struct {
	AppointmentID int64 `json:"appointmentId"`
}

type IntentDeliverPayload struct {
	OutboxID string `json:"outboxId"`
	UserID   int64  `json:"userId"`
}

func NewAppointmentReminderTask(payload AppointmentReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAppointmentReminder, data), nil
}

func ParseAppointmentReminderPayload(task *asynq.Task) (AppointmentReminderPayload, error) {
	var payload AppointmentReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AppointmentReminderPayload{}, err
	}
	return payload, nil
}

func NewIntentDeliverTask(payload IntentDeliverPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIntentDeliver, data), nil
}

func ParseIntentDeliverPayload(task *asynq.Task) (IntentDeliverPayload, error) {
	var payload IntentDeliverPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return IntentDeliverPayload{}, err
	}
	return payload, nil
}
