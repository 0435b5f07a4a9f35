package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/campusswap/internal/clock"
	"github.com/smallbiznis/campusswap/internal/config"
	obscontext "github.com/smallbiznis/campusswap/internal/observability/context"
	"github.com/smallbiznis/campusswap/internal/observability/logger"
	"github.com/smallbiznis/campusswap/internal/observability/metrics"
	"github.com/smallbiznis/campusswap/internal/payment/domain"
	"github.com/smallbiznis/campusswap/internal/payment/idempotency"
	"github.com/smallbiznis/campusswap/internal/payment/incident"
	"github.com/smallbiznis/campusswap/internal/payment/signature"
	"github.com/smallbiznis/campusswap/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	MessageInvalidJSON        = "Invalid JSON payload"
	MessageMissingFields      = "Missing required fields"
	MessageInvalidAmount      = "Invalid amount"
	MessageInvalidSignature   = "Signature verification failed"
	MessageStaleTimestamp     = "Stale webhook timestamp"
	MessageUnknownStatus      = "Unknown payment status"
	MessageConcurrentDelivery = "Concurrent delivery in progress"
	MessageInternalError      = "Internal server error"

	MessageProcessingFailed = "webhook processing failed"
	MessagePaymentSucceeded = "Payment processed successfully"
	MessagePaymentFailed    = "Payment failure processed"
	MessagePaymentPending   = "Payment pending; awaiting final status from gateway"
)

const (
	outcomeProcessed    = "processed"
	outcomeAcknowledged = "acknowledged"
	outcomeReplayed     = "replayed"
	outcomeRejected     = "rejected"
	outcomeUnverified   = "unverified"
	outcomeConflict     = "conflict"
	outcomeError        = "error"
)

type Params struct {
	fx.In

	Log         *zap.Logger
	Cfg         config.Config
	Metrics     *metrics.Metrics            `optional:"true"`
	Verifier    *signature.Verifier
	Incidents   domain.IncidentLogger
	Idempotency domain.IdempotencyStore
	Locker      domain.OrderLocker          `optional:"true"`
	Success     domain.OutcomeHandler       `name:"payment_success"`
	Failed      domain.OutcomeHandler       `name:"payment_failed"`
	Clock       clock.Clock                 `optional:"true"`
	Policy      *config.WebhookPolicyHolder `optional:"true"`
}

// Service is the webhook dispatcher: parse, validate, verify, then route the
// verified event to the outcome handler for its status.
type Service struct {
	log         *zap.Logger
	metrics     *metrics.Metrics
	verifier    *signature.Verifier
	incidents   domain.IncidentLogger
	idempotency domain.IdempotencyStore
	locker      domain.OrderLocker
	success     domain.OutcomeHandler
	failed      domain.OutcomeHandler
	clock       clock.Clock
	policy      *config.WebhookPolicyHolder

	idempotencyTTL time.Duration
	lockTTL        time.Duration
	freshness      time.Duration
}

func NewService(p Params) domain.Service {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	idempotencyTTL := p.Cfg.IdempotencyTTL
	if idempotencyTTL <= 0 {
		idempotencyTTL = 24 * time.Hour
	}
	lockTTL := p.Cfg.OrderLockTTL
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}

	return &Service{
		log:            log.Named("payment.webhook"),
		metrics:        p.Metrics,
		verifier:       p.Verifier,
		incidents:      p.Incidents,
		idempotency:    p.Idempotency,
		locker:         p.Locker,
		success:        p.Success,
		failed:         p.Failed,
		clock:          clk,
		policy:         p.Policy,
		idempotencyTTL: idempotencyTTL,
		lockTTL:        lockTTL,
		freshness:      p.Cfg.FreshnessWindow,
	}
}

// Handle never panics and always returns a body carrying requestID.
func (s *Service) Handle(ctx context.Context, requestID string, raw []byte) (result domain.Result) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx = obscontext.WithRequestID(ctx, requestID)
	log := logger.WithContext(ctx, s.log)

	var payload domain.WebhookPayload
	defer func() {
		if r := recover(); r != nil {
			log.Error("webhook processing panicked",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			s.metrics.RecordWebhookEvent(ctx, statusLabel(payload.Status), outcomeError)
			result = internalError(requestID)
		}
	}()

	if err := decodePayload(raw, &payload); err != nil {
		log.Info("webhook payload rejected", zap.Error(err))
		s.metrics.RecordWebhookEvent(ctx, "", outcomeRejected)
		return failure(http.StatusBadRequest, MessageInvalidJSON, requestID)
	}

	if err := validate(payload); err != nil {
		log.Info("webhook payload rejected",
			zap.String("payment_id", payload.PaymentID),
			zap.Error(err),
		)
		s.metrics.RecordWebhookEvent(ctx, statusLabel(payload.Status), outcomeRejected)
		if errors.Is(err, domain.ErrInvalidPayload) {
			return failure(http.StatusBadRequest, MessageInvalidAmount, requestID)
		}
		return failure(http.StatusBadRequest, MessageMissingFields, requestID)
	}

	ctx = obscontext.WithOrderID(ctx, payload.OrderID)
	log = logger.WithContext(ctx, s.log).With(zap.String("payment_id", payload.PaymentID))

	if !s.verifier.Verify(payload.SignedFields(), payload.Signature) {
		s.incidents.Log(ctx, payload, incident.ReasonSignatureMismatch)
		s.metrics.RecordWebhookEvent(ctx, statusLabel(payload.Status), outcomeUnverified)
		return failure(http.StatusBadRequest, MessageInvalidSignature, requestID)
	}

	if err := s.checkFreshness(payload.Timestamp); err != nil {
		s.incidents.Log(ctx, payload, incident.ReasonStaleTimestamp)
		s.metrics.RecordWebhookEvent(ctx, statusLabel(payload.Status), outcomeUnverified)
		return failure(http.StatusBadRequest, MessageStaleTimestamp, requestID)
	}

	handler, known := s.route(payload.Status)
	if !known {
		log.Info("webhook status unknown", zap.String("status", string(payload.Status)))
		s.metrics.RecordWebhookEvent(ctx, statusLabel(payload.Status), outcomeRejected)
		return failure(http.StatusBadRequest, MessageUnknownStatus, requestID)
	}

	// PENDING is never recorded so the final status can still be processed.
	if payload.Status == domain.StatusPending {
		log.Info("payment pending, no handler invoked")
		s.metrics.RecordWebhookEvent(ctx, statusLabel(payload.Status), outcomeAcknowledged)
		return processed(payload, MessagePaymentPending, requestID)
	}

	key := idempotency.Key(payload.PaymentID, payload.Status)
	if replay, ok := s.lookup(ctx, log, key, requestID); ok {
		s.metrics.RecordWebhookEvent(ctx, statusLabel(payload.Status), outcomeReplayed)
		return replay
	}

	if s.locker != nil {
		release, acquired := s.lock(ctx, log, payload.OrderID)
		if !acquired {
			s.metrics.RecordWebhookEvent(ctx, statusLabel(payload.Status), outcomeConflict)
			return failure(http.StatusConflict, MessageConcurrentDelivery, requestID)
		}
		defer release()

		if replay, ok := s.lookup(ctx, log, key, requestID); ok {
			s.metrics.RecordWebhookEvent(ctx, statusLabel(payload.Status), outcomeReplayed)
			return replay
		}
	}

	evt := domain.NewPaymentEvent(requestID, payload)
	if err := handler.Handle(ctx, evt); err != nil {
		log.Error("webhook processing failed",
			zap.String("status", string(payload.Status)),
			zap.Error(err),
		)
		s.metrics.RecordWebhookEvent(ctx, statusLabel(payload.Status), outcomeError)
		return internalError(requestID)
	}

	message := MessagePaymentSucceeded
	if payload.Status == domain.StatusFailed {
		message = MessagePaymentFailed
	}
	result = processed(payload, message, requestID)
	s.record(ctx, log, key, payload.PaymentID, result)
	s.metrics.RecordWebhookEvent(ctx, statusLabel(payload.Status), outcomeProcessed)
	log.Info("webhook processed", zap.String("status", string(payload.Status)))
	return result
}

// route returns the handler for status. PENDING is known but has no handler.
func (s *Service) route(status domain.Status) (domain.OutcomeHandler, bool) {
	switch status {
	case domain.StatusSuccess:
		return s.success, true
	case domain.StatusFailed:
		return s.failed, true
	case domain.StatusPending:
		return nil, true
	default:
		return nil, false
	}
}

func (s *Service) freshnessWindow() time.Duration {
	if s.policy != nil {
		return s.policy.Get().FreshnessWindow
	}
	return s.freshness
}

func (s *Service) checkFreshness(timestamp string) error {
	window := s.freshnessWindow()
	if window <= 0 {
		return nil
	}
	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(timestamp))
	if err != nil {
		return domain.ErrStaleTimestamp
	}
	skew := s.clock.Now().Sub(ts)
	if skew < 0 {
		skew = -skew
	}
	if skew > window {
		return domain.ErrStaleTimestamp
	}
	return nil
}

// lookup fails open: a broken idempotency backend falls back to the
// collaborators' own conditional updates.
func (s *Service) lookup(ctx context.Context, log *zap.Logger, key, requestID string) (domain.Result, bool) {
	if s.idempotency == nil {
		return domain.Result{}, false
	}
	record, err := s.idempotency.Lookup(ctx, key)
	if err != nil {
		log.Warn("idempotency lookup failed", zap.Error(err))
		return domain.Result{}, false
	}
	if record == nil {
		return domain.Result{}, false
	}

	body := record.Body
	body.RequestID = requestID
	log.Info("duplicate webhook delivery replayed",
		zap.Time("first_processed_at", record.ProcessedAt),
	)
	return domain.Result{StatusCode: record.StatusCode, Body: body, Replayed: true}, true
}

func (s *Service) record(ctx context.Context, log *zap.Logger, key, paymentID string, result domain.Result) {
	if s.idempotency == nil {
		return
	}
	err := s.idempotency.Save(ctx, key, domain.ProcessedWebhook{
		PaymentID:   paymentID,
		StatusCode:  result.StatusCode,
		Body:        result.Body,
		ProcessedAt: s.clock.Now(),
	}, s.idempotencyTTL)
	if err != nil {
		log.Warn("idempotency record failed", zap.Error(err))
	}
}

// lock fails open on backend errors for the same reason as lookup.
func (s *Service) lock(ctx context.Context, log *zap.Logger, orderID string) (func(), bool) {
	key := ratelimit.OrderLockKey(orderID)
	token, ok, err := s.locker.TryLock(ctx, key, s.lockTTL)
	if err != nil {
		log.Warn("order lock unavailable", zap.Error(err))
		return func() {}, true
	}
	if !ok {
		log.Info("concurrent webhook delivery for order")
		return nil, false
	}
	return func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			log.Warn("order lock release failed", zap.Error(err))
		}
	}, true
}

// statusLabel keeps unverified input out of metric labels.
func statusLabel(status domain.Status) string {
	switch status {
	case domain.StatusSuccess, domain.StatusFailed, domain.StatusPending:
		return string(status)
	case "":
		return "none"
	default:
		return "other"
	}
}

func decodePayload(raw []byte, payload *domain.WebhookPayload) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return domain.ErrInvalidPayload
	}
	if err := json.Unmarshal(raw, payload); err != nil {
		return errors.Join(domain.ErrInvalidPayload, err)
	}
	return nil
}

func validate(p domain.WebhookPayload) error {
	if strings.TrimSpace(p.PaymentID) == "" ||
		strings.TrimSpace(p.OrderID) == "" ||
		strings.TrimSpace(string(p.Status)) == "" ||
		strings.TrimSpace(p.Signature) == "" {
		return domain.ErrMissingFields
	}
	if p.Amount.IsNegative() {
		return domain.ErrInvalidPayload
	}
	return nil
}

func failure(status int, message, requestID string) domain.Result {
	return domain.Result{
		StatusCode: status,
		Body: domain.Response{
			Success:   false,
			Error:     message,
			RequestID: requestID,
		},
	}
}

func internalError(requestID string) domain.Result {
	return domain.Result{
		StatusCode: http.StatusInternalServerError,
		Body: domain.Response{
			Success:   false,
			Error:     MessageInternalError,
			Message:   MessageProcessingFailed,
			RequestID: requestID,
		},
	}
}

func processed(p domain.WebhookPayload, message, requestID string) domain.Result {
	return domain.Result{
		StatusCode: http.StatusOK,
		Body: domain.Response{
			Success:   true,
			Message:   message,
			OrderID:   p.OrderID,
			PaymentID: p.PaymentID,
			RequestID: requestID,
		},
	}
}
