package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type clientTestConfig struct {
	redisURL string
}

func (c clientTestConfig) GetRedisURL() string          { return c.redisURL }
func (c clientTestConfig) GetRedisTLSInsecure() bool    { return false }
func (c clientTestConfig) GetAsynqQueueName() string    { return "clinic" }
func (c clientTestConfig) GetAsynqConcurrency() int     { return 1 }
func (c clientTestConfig) GetSweepInterval() time.Duration { return time.Minute }

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(clientTestConfig{}); err == nil {
		t.Fatal("expected error for empty redis url")
	}
}

func TestScheduleReminderEnqueuesTask(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(clientTestConfig{redisURL: "redis://" + srv.Addr()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer func() { _ = client.Close() }()

	remindAt := time.Now().Add(24 * time.Hour)
	if err := client.ScheduleReminder(context.Background(), 42, remindAt); err != nil {
		t.Fatalf("ScheduleReminder: %v", err)
	}

	var found bool
	for _, key := range srv.Keys() {
		if strings.Contains(key, "clinic") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("no task landed on the clinic queue; redis keys: %v", srv.Keys())
	}
}

func TestReminderTaskRoundTrip(t *testing.T) {
	task, err := NewAppointmentReminderTask(AppointmentReminderPayload{AppointmentID: 42})
	if err != nil {
		t.Fatalf("NewAppointmentReminderTask: %v", err)
	}
	if task.Type() != TaskAppointmentReminder {
		t.Errorf("task type = %q, want %q", task.Type(), TaskAppointmentReminder)
	}

	payload, err := ParseAppointmentReminderPayload(task)
	if err != nil {
		t.Fatalf("ParseAppointmentReminderPayload: %v", err)
	}
	if payload.AppointmentID != 42 {
		t.Errorf("appointmentID = %d, want 42", payload.AppointmentID)
	}
}
