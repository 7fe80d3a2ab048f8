package events

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"healthcare-scheduling-server/internal/models"
)

type fakeChannel struct {
	published []amqp.Publishing
	keys      []string
	err       error
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.keys = append(c.keys, key)
	c.published = append(c.published, msg)
	return nil
}

func TestNotificationSinkPublishesPerRecipient(t *testing.T) {
	ch := &fakeChannel{}
	sink := &NotificationSink{ch: ch, queue: "appointment_notifications", log: zap.NewNop()}

	err := sink.Handle(context.Background(), Event{
		ID:            "evt-1",
		Type:          BookingCreated,
		AppointmentID: "appt-1",
		DoctorID:      "doc-1",
		PatientID:     "pat-1",
		Status:        models.StatusScheduled,
	})
	require.NoError(t, err)
	require.Len(t, ch.published, 2)

	var first Notification
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &first))
	assert.Equal(t, "doc-1", first.RecipientID)
	assert.Equal(t, models.RoleDoctor, first.RecipientRole)
	assert.Equal(t, "appt-1", first.Event.AppointmentID)

	var second Notification
	require.NoError(t, json.Unmarshal(ch.published[1].Body, &second))
	assert.Equal(t, "pat-1", second.RecipientID)

	assert.Equal(t, []string{"appointment_notifications", "appointment_notifications"}, ch.keys)
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)
	assert.Equal(t, "evt-1:doctor", ch.published[0].MessageId)
}

func TestNotificationSinkReturnsPublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	sink := &NotificationSink{ch: ch, queue: "q", log: zap.NewNop()}

	err := sink.Handle(context.Background(), Event{Type: StatusChanged, Status: models.StatusConfirmed})
	assert.ErrorContains(t, err, "channel closed")
}
