package notify

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/bet-session-service/internal/bets"
	"github.com/radieske/bet-session-service/pkg/contracts/events"
)

// KafkaPublisher espelha as notificações da sessão nos tópicos Kafka
// pra consumidores downstream (analytics, CRM).
type KafkaPublisher struct {
	Log      *zap.Logger
	Activity *kafkago.Writer
	Settled  *kafkago.Writer
}

// PublishActivity publica o evento de aposta confirmada.
func (p *KafkaPublisher) PublishActivity(ctx context.Context, rec *bets.Record) error {
	ev := events.BetActivity{
		BetID:        rec.ID,
		MatchID:      rec.MatchID,
		Outcome:      rec.Outcome,
		Stake:        rec.Stake,
		DecimalOdds:  rec.DecimalOdds,
		PotentialWin: rec.PotentialWin,
		Ts:           time.Now(),
	}
	return p.write(ctx, p.Activity, rec.ID, ev)
}

// PublishSettled publica o evento de liquidação.
func (p *KafkaPublisher) PublishSettled(ctx context.Context, rec *bets.Record) error {
	payout := 0.0
	if rec.Status == bets.StatusWon {
		payout = rec.PotentialWin
	}
	ev := events.BetSettled{
		BetID:     rec.ID,
		MatchID:   rec.MatchID,
		Outcome:   rec.Outcome,
		Status:    rec.Status,
		Stake:     rec.Stake,
		Payout:    payout,
		SettledAt: rec.SettledAt,
		Ts:        time.Now(),
	}
	return p.write(ctx, p.Settled, rec.ID, ev)
}

func (p *KafkaPublisher) write(ctx context.Context, w *kafkago.Writer, key string, v any) error {
	if w == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	err = w.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(key),
		Value: b,
		Time:  time.Now(),
	})
	if err != nil && p.Log != nil {
		p.Log.Warn("kafka publish failed", zap.String("key", key), zap.Error(err))
	}
	return err
}
