package fulfillment

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fortuneatelier/fortune-backend/internal/fortune"
	"github.com/fortuneatelier/fortune-backend/internal/orders"
	"github.com/fortuneatelier/fortune-backend/internal/payments"
	"github.com/fortuneatelier/fortune-backend/internal/report"
	"github.com/fortuneatelier/fortune-backend/pkg/config"
	"github.com/fortuneatelier/fortune-backend/pkg/db/models"
	"github.com/fortuneatelier/fortune-backend/pkg/enums"
	pkgerrors "github.com/fortuneatelier/fortune-backend/pkg/errors"
	"github.com/fortuneatelier/fortune-backend/pkg/logger"
	"github.com/fortuneatelier/fortune-backend/pkg/metrics"
)

const defaultNotifyTimeout = 20 * time.Second

// Webhook outcomes recorded in metrics and logs.
const (
	outcomePaid      = "paid"
	outcomeFailed    = "failed"
	outcomeDuplicate = "duplicate"
	outcomeReplayed  = "replayed"
	outcomeIgnored   = "ignored"
	outcomeUnknown   = "unknown_order"
	outcomeError     = "error"
)

type contentGenerator interface {
	Generate(ctx context.Context, profile fortune.Profile) fortune.Result
}

type documentRenderer interface {
	Render(order *models.Order, sections []fortune.Section) ([]byte, error)
}

// Notifier tells the customer their report is ready.
type Notifier interface {
	NotifyReportReady(ctx context.Context, order *models.Order, downloadURL string) error
}

type webhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type ServiceParams struct {
	Store     orders.Store
	Generator contentGenerator
	Renderer  documentRenderer
	Artifacts report.Artifacts
	// Notifier and Guard are optional.
	Notifier      Notifier
	Guard         webhookGuard
	Metrics       *metrics.FulfillmentMetrics
	Logger        *logger.Logger
	App           config.AppConfig
	NotifyTimeout time.Duration
}

// Service turns payment events into paid reports and serves downloads.
type Service struct {
	store         orders.Store
	generator     contentGenerator
	renderer      documentRenderer
	artifacts     report.Artifacts
	notifier      Notifier
	guard         webhookGuard
	metrics       *metrics.FulfillmentMetrics
	logg          *logger.Logger
	app           config.AppConfig
	notifyTimeout time.Duration

	inflight singleflight.Group
	pending  sync.WaitGroup
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order store required")
	}
	if params.Generator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "content generator required")
	}
	if params.Renderer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "report renderer required")
	}
	if params.Artifacts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "artifact strategy required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	timeout := params.NotifyTimeout
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	return &Service{
		store:         params.Store,
		generator:     params.Generator,
		renderer:      params.Renderer,
		artifacts:     params.Artifacts,
		notifier:      params.Notifier,
		guard:         params.Guard,
		metrics:       params.Metrics,
		logg:          logg,
		app:           params.App,
		notifyTimeout: timeout,
	}, nil
}

// HandleEvent applies a verified payment event. Events for unknown or
// already settled orders are acknowledged without side effects. An error
// means the provider should retry.
func (s *Service) HandleEvent(ctx context.Context, event *payments.WebhookEvent) error {
	if event == nil || !event.Type.IsValid() || event.OrderID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "unrecognized payment event")
	}
	ctx = s.logg.WithFields(s.logg.WithOrderID(ctx, event.OrderID), map[string]any{
		"event_type": string(event.Type),
		"event_id":   event.EventID,
	})

	if s.guard != nil && event.EventID != "" {
		seen, err := s.guard.CheckAndMark(ctx, event.EventID)
		if err != nil {
			s.metrics.IncWebhook(string(event.Type), outcomeError)
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
		}
		if seen {
			s.logg.Info(ctx, "fulfillment.replayed_delivery")
			s.metrics.IncWebhook(string(event.Type), outcomeReplayed)
			return nil
		}
	}

	outcome, err := s.apply(ctx, event)
	s.metrics.IncWebhook(string(event.Type), outcome)
	if err != nil && s.guard != nil && event.EventID != "" {
		if delErr := s.guard.Delete(ctx, event.EventID); delErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", delErr.Error()), "fulfillment.idempotency_release_failed")
		}
	}
	return err
}

func (s *Service) apply(ctx context.Context, event *payments.WebhookEvent) (string, error) {
	order, changed, err := s.store.Transition(ctx, event.OrderID, event.Type.TargetStatus())
	switch {
	case errors.Is(err, orders.ErrInvalidTransition):
		s.logg.Info(ctx, "fulfillment.order_already_settled")
		return outcomeIgnored, nil
	case err != nil:
		return outcomeError, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "transition order")
	case order == nil:
		s.logg.Warn(ctx, "fulfillment.unknown_order")
		return outcomeUnknown, nil
	case !changed:
		s.logg.Info(ctx, "fulfillment.duplicate_event")
		return outcomeDuplicate, nil
	}

	if order.Status == enums.OrderStatusFailed {
		s.logg.Info(ctx, "fulfillment.payment_failed")
		return outcomeFailed, nil
	}

	s.logg.Info(ctx, "fulfillment.payment_succeeded")
	downloadURL := s.app.AbsoluteURL(report.DownloadPath(order.ID))
	if location, err := s.produce(ctx, order); err != nil {
		// The order stays paid; the download path regenerates on demand.
		s.logg.Error(ctx, "fulfillment.artifact_failed", err)
	} else if updated, err := s.store.SetArtifact(ctx, order.ID, location); err != nil {
		s.logg.Error(ctx, "fulfillment.artifact_record_failed", err)
	} else if updated != nil {
		order = updated
		downloadURL = s.app.AbsoluteURL(location)
	}

	s.notify(ctx, order, downloadURL)
	return outcomePaid, nil
}

// produce generates, renders and stores the report, returning its location.
// Strategies that keep nothing only hand back the download location; the
// first download renders the report.
func (s *Service) produce(ctx context.Context, order *models.Order) (string, error) {
	if !s.artifacts.Durable() {
		location, err := s.artifacts.Store(ctx, order.ID, nil)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store report")
		}
		return location, nil
	}
	pdf, err := s.render(ctx, order)
	if err != nil {
		return "", err
	}
	location, err := s.artifacts.Store(ctx, order.ID, pdf)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store report")
	}
	return location, nil
}

func (s *Service) render(ctx context.Context, order *models.Order) ([]byte, error) {
	result := s.generator.Generate(ctx, fortune.Profile{
		Name:      order.Name,
		Gender:    order.Gender,
		Birthdate: order.Birthdate,
	})
	s.metrics.IncGeneration(string(result.Source))
	s.logg.Info(s.logg.WithField(ctx, "source", string(result.Source)), "fulfillment.content_generated")

	start := time.Now()
	pdf, err := s.renderer.Render(order, result.Sections)
	s.metrics.ObserveRender(time.Since(start))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render report")
	}
	return pdf, nil
}

// notify sends the ready email without holding up the webhook response.
func (s *Service) notify(ctx context.Context, order *models.Order, downloadURL string) {
	if s.notifier == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	snapshot := order.Clone()

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		nctx, cancel := context.WithTimeout(detached, s.notifyTimeout)
		defer cancel()

		if err := s.notifier.NotifyReportReady(nctx, snapshot, downloadURL); err != nil {
			s.metrics.IncNotification(outcomeError)
			s.logg.Error(nctx, "fulfillment.notify_failed", err)
			return
		}
		s.metrics.IncNotification("sent")
		s.logg.Info(nctx, "fulfillment.notified")
	}()
}

// Wait blocks until in-flight notifications finish.
func (s *Service) Wait() {
	s.pending.Wait()
}

// Report returns the PDF for a paid order. Concurrent requests for the same
// order share one generation.
func (s *Service) Report(ctx context.Context, orderID string) ([]byte, error) {
	order, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.Status != enums.OrderStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order is not paid")
	}
	ctx = s.logg.WithOrderID(ctx, order.ID)

	stored, ok, err := s.artifacts.Load(ctx, order.ID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "fulfillment.artifact_load_failed")
	} else if ok {
		return stored, nil
	}

	detached := context.WithoutCancel(ctx)
	v, err, shared := s.inflight.Do(order.ID, func() (any, error) {
		pdf, err := s.render(detached, order)
		if err != nil {
			return nil, err
		}
		if s.artifacts.Durable() {
			s.persist(detached, order, pdf)
		}
		return pdf, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logg.Debug(ctx, "fulfillment.regeneration_shared")
	}
	return v.([]byte), nil
}

func (s *Service) persist(ctx context.Context, order *models.Order, pdf []byte) {
	location, err := s.artifacts.Store(ctx, order.ID, pdf)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "fulfillment.artifact_store_failed")
		return
	}
	if order.ArtifactLocation == nil {
		if _, err := s.store.SetArtifact(ctx, order.ID, location); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "fulfillment.artifact_record_failed")
		}
	}
}
