package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"fitsync-schedule/internal/models"
	"fitsync-schedule/pkg/sl"
)

// Channels other services subscribe to. Delivery is their concern; a publish
// failure is logged and never fails the booking operation that caused it.
const (
	ChannelBookingCreated   = "booking.created"
	ChannelBookingCancelled = "booking.cancelled"
	ChannelBookingCompleted = "booking.completed"
)

type Publisher interface {
	BookingCreated(ctx context.Context, b *models.Booking)
	BookingCancelled(ctx context.Context, b *models.Booking)
	BookingCompleted(ctx context.Context, b *models.Booking)
}

type RedisPublisher struct {
	client *redis.Client
	log    *slog.Logger
}

func NewRedisPublisher(redisAddr string, log *slog.Logger) (*RedisPublisher, error) {
	const op = "events.NewRedisPublisher"

	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisPublisher{client: client, log: log}, nil
}

func (p *RedisPublisher) BookingCreated(ctx context.Context, b *models.Booking) {
	p.publish(ctx, ChannelBookingCreated, map[string]any{
		"booking_id": b.ID,
		"client_id":  b.ClientID,
		"trainer_id": b.TrainerID,
		"start":      b.Start.Format(time.RFC3339),
		"end":        b.End.Format(time.RFC3339),
		"status":     string(b.Status),
	})
}

func (p *RedisPublisher) BookingCancelled(ctx context.Context, b *models.Booking) {
	payload := map[string]any{
		"booking_id": b.ID,
		"client_id":  b.ClientID,
		"trainer_id": b.TrainerID,
	}
	if b.CancellationReason != nil {
		payload["reason"] = *b.CancellationReason
	}
	p.publish(ctx, ChannelBookingCancelled, payload)
}

func (p *RedisPublisher) BookingCompleted(ctx context.Context, b *models.Booking) {
	p.publish(ctx, ChannelBookingCompleted, map[string]any{
		"booking_id":       b.ID,
		"client_id":        b.ClientID,
		"trainer_id":       b.TrainerID,
		"start":            b.Start.Format(time.RFC3339),
		"end":              b.End.Format(time.RFC3339),
		"duration_minutes": int(b.End.Sub(b.Start).Minutes()),
		"trainer_notes":    b.Notes,
	})
}

func (p *RedisPublisher) publish(ctx context.Context, channel string, payload map[string]any) {
	const op = "events.RedisPublisher.publish"

	data, err := json.Marshal(payload)
	if err != nil {
		p.log.Error("Failed to marshal event", slog.String("op", op), sl.Err(err))
		return
	}

	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		p.log.Error("Failed to publish event",
			slog.String("op", op),
			slog.String("channel", channel),
			sl.Err(err),
		)
		return
	}

	p.log.Info("Event published", slog.String("channel", channel))
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// NopPublisher drops all events; used when Redis is not configured.
type NopPublisher struct{}

func (NopPublisher) BookingCreated(context.Context, *models.Booking)   {}
func (NopPublisher) BookingCancelled(context.Context, *models.Booking) {}
func (NopPublisher) BookingCompleted(context.Context, *models.Booking) {}
