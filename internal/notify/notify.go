package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pos-backend/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Notifier fans stock alerts out to whoever watches them. Delivery is best
// effort; a failing notifier never fails the stock change that raised the alert.
type Notifier interface {
	NotifyStock(ctx context.Context, alerts []models.StockAlert)
}

type Multi []Notifier

func (m Multi) NotifyStock(ctx context.Context, alerts []models.StockAlert) {
	if len(alerts) == 0 {
		return
	}
	for _, n := range m {
		n.NotifyStock(ctx, alerts)
	}
}

type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyStock(_ context.Context, alerts []models.StockAlert) {
	for _, a := range alerts {
		n.log.Warn("stock alert",
			zap.Uint("establishment_id", a.EstablishmentID),
			zap.Uint("product_id", a.ProductID),
			zap.String("product", a.ProductName),
			zap.Int("stock", a.Stock),
			zap.Int("threshold", a.Threshold),
			zap.String("level", string(a.Level)),
		)
	}
}

// Channel is the pub/sub channel alerts for one establishment go to.
func Channel(establishmentID uint) string {
	return fmt.Sprintf("pos:stock-alerts:%d", establishmentID)
}

type RedisNotifier struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisNotifier(client *redis.Client, log *zap.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, log: log}
}

func (n *RedisNotifier) NotifyStock(ctx context.Context, alerts []models.StockAlert) {
	for _, a := range alerts {
		payload, err := json.Marshal(a)
		if err != nil {
			n.log.Error("stock alert could not be encoded", zap.Error(err))
			continue
		}
		if err := n.client.Publish(ctx, Channel(a.EstablishmentID), payload).Err(); err != nil {
			n.log.Warn("stock alert could not be published", zap.Error(err))
		}
	}
}

// ConnectRedis returns nil when Redis is unreachable; alerts are then only logged.
func ConnectRedis(addr, password string, db int, log *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, stock alerts will only be logged", zap.String("addr", addr), zap.Error(err))
		_ = client.Close()
		return nil
	}
	log.Info("redis connected", zap.String("addr", addr))
	return client
}
