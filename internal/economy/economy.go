// Package economy turns qualifying player actions into points, either
// immediately or through a manual batch exchange.
package economy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/xtding233/offwork-lock/internal/config"
	"github.com/xtding233/offwork-lock/internal/metrics"
	"github.com/xtding233/offwork-lock/internal/player"
)

// EmptyExchangeMessage is shown when an exchange found nothing to convert.
const EmptyExchangeMessage = "Nothing to exchange."

// AwardResult describes what an action was worth.
type AwardResult struct {
	Matched bool // the action has a positive configured value
	Changed bool // points were added
	// Awarded is the number of points actually added after clamping.
	Awarded int
	// Potential is the configured value; in manual mode it is only realized
	// by Exchange.
	Potential int
	Total     int
	// SuppressDefault tells the caller the engine consumed the action and
	// its normal consequence (e.g. item drops) should not happen.
	SuppressDefault bool
	Message         string
}

// ExchangeStatus classifies an Exchange call.
type ExchangeStatus string

const (
	ExchangeIgnored   ExchangeStatus = "ignored" // not in manual mode
	ExchangeEmpty     ExchangeStatus = "empty"   // nothing configured was offered
	ExchangeCompleted ExchangeStatus = "exchanged"
)

// ExchangeResult reports a manual exchange. The caller removes Consumed from
// the player's inventory.
type ExchangeResult struct {
	Status   ExchangeStatus
	Gained   int
	Total    int
	Consumed map[string]int
	Message  string
}

// Service applies the point-accumulation rules of the current config.
type Service struct {
	cfg     config.Source
	store   *player.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewService returns a Service. A nil logger uses slog.Default; m may be nil.
func NewService(cfg config.Source, store *player.Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cfg: cfg, store: store, logger: logger, metrics: m}
}

// HandleAction awards the configured value of actionKey. In automatic mode
// the points are added at once; in manual mode nothing changes and the
// potential value is reported.
func (s *Service) HandleAction(ctx context.Context, contextID string, id uuid.UUID, actionKey string) (AwardResult, error) {
	snap := s.cfg.Current()
	value, ok := snap.ActionValue(actionKey)
	if !ok {
		return AwardResult{}, nil
	}

	if snap.PointMode == config.PointModeManual {
		rec, err := s.store.GetOrCreate(ctx, contextID, id)
		if err != nil {
			return AwardResult{}, err
		}
		return AwardResult{
			Matched:   true,
			Potential: value,
			Total:     rec.Points,
			Message:   fmt.Sprintf("+%d pts (exchange required)", value),
		}, nil
	}

	var applied int
	rec, err := s.store.Modify(ctx, contextID, id, func(cur player.Record) (player.Record, error) {
		var next player.Record
		next, applied = cur.AddPoints(value)
		return next, nil
	})
	if err != nil {
		return AwardResult{}, err
	}
	s.metrics.RecordPoints("action", applied)
	s.logger.DebugContext(ctx, "action awarded points",
		"context", contextID, "player", id.String(), "action", actionKey, "awarded", applied, "total", rec.Points)

	return AwardResult{
		Matched:         true,
		Changed:         applied != 0,
		Awarded:         applied,
		Potential:       value,
		Total:           rec.Points,
		SuppressDefault: true,
		Message:         fmt.Sprintf("+%d pts", applied),
	}, nil
}

// Exchange converts the offered item counts into points in manual mode.
// Only configured kinds with a positive count contribute and appear in
// Consumed.
func (s *Service) Exchange(ctx context.Context, contextID string, id uuid.UUID, counts map[string]int) (ExchangeResult, error) {
	snap := s.cfg.Current()
	if snap.PointMode != config.PointModeManual {
		return ExchangeResult{Status: ExchangeIgnored, Consumed: map[string]int{}}, nil
	}

	consumed := make(map[string]int)
	var total int64
	for kind, n := range counts {
		value, ok := snap.ActionValue(kind)
		if !ok || n <= 0 {
			continue
		}
		consumed[kind] = n
		// anything past MaxPoints clamps anyway, so stop before int64 overflow
		total = min(total+int64(min(value, player.MaxPoints))*int64(min(n, player.MaxPoints)), player.MaxPoints)
	}
	if total <= 0 {
		return ExchangeResult{Status: ExchangeEmpty, Consumed: map[string]int{}, Message: EmptyExchangeMessage}, nil
	}

	var gained int
	rec, err := s.store.Modify(ctx, contextID, id, func(cur player.Record) (player.Record, error) {
		var next player.Record
		next, gained = cur.AddPoints(int(total))
		return next, nil
	})
	if err != nil {
		return ExchangeResult{}, err
	}
	s.metrics.RecordPoints("exchange", gained)
	s.logger.InfoContext(ctx, "items exchanged",
		"context", contextID, "player", id.String(), "gained", gained, "total", rec.Points, "kinds", len(consumed))

	return ExchangeResult{
		Status:   ExchangeCompleted,
		Gained:   gained,
		Total:    rec.Points,
		Consumed: consumed,
		Message:  fmt.Sprintf("+%d pts (total %d)", gained, rec.Points),
	}, nil
}
