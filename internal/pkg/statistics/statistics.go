package statistics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/FreelanceFlow/app/models"
	"github.com/ManuelReschke/FreelanceFlow/app/repository"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/apperror"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/cache"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/events"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/usercontext"
)

const (
	CacheKeySummary = "statistics:summary:%s" // Format with user id
	CacheExpiration = time.Minute
	RecentLimit     = 5
)

// Swappable in tests.
var (
	cacheGet    = cache.GetJSON
	cacheSet    = cache.SetJSON
	cacheDelete = cache.Delete
)

// Summary holds the aggregated numbers shown on the dashboard.
type Summary struct {
	ProjectCount     int64           `json:"project_count"`
	HoursTracked     decimal.Decimal `json:"hours_tracked"`
	UnpaidHours      decimal.Decimal `json:"unpaid_hours"`
	PaymentCount     int             `json:"payment_count"`
	PaidTotal        decimal.Decimal `json:"paid_total"`
	OutstandingTotal decimal.Decimal `json:"outstanding_total"`
}

// Dashboard is the summary plus the most recent activity.
type Dashboard struct {
	Summary
	RecentProjects    []models.Project   `json:"recent_projects"`
	RecentTimeEntries []models.TimeEntry `json:"recent_time_entries"`
	RecentPayments    []models.Payment   `json:"recent_payments"`
}

type Service struct {
	repos *repository.Repositories
	now   func() time.Time
}

func NewService(repos *repository.Repositories) *Service {
	return &Service{repos: repos, now: time.Now}
}

// Dashboard builds the caller's dashboard. Summary numbers come from the
// cache when present; recent lists are always read from the database.
func (s *Service) Dashboard(ctx context.Context, caller usercontext.Caller) (*Dashboard, error) {
	if !caller.Authenticated() {
		return nil, apperror.Unauthorized("authentication required")
	}
	if !caller.Role.IsValid() {
		return nil, apperror.Forbidden("select a role first")
	}

	summary, err := s.cachedSummary(ctx, caller)
	if err != nil {
		return nil, err
	}
	dash := &Dashboard{Summary: *summary}

	if dash.RecentProjects, err = s.recentProjects(ctx, caller); err != nil {
		return nil, apperror.Internal("failed to load projects", err)
	}
	if caller.Role == models.ROLE_FREELANCER {
		dash.RecentTimeEntries, err = s.repos.TimeEntry.List(ctx, repository.TimeEntryFilter{UserID: caller.UserID, Limit: RecentLimit})
		if err != nil {
			return nil, apperror.Internal("failed to load time entries", err)
		}
	}
	dash.RecentPayments, err = s.repos.Payment.List(ctx, paymentScope(caller, RecentLimit))
	if err != nil {
		return nil, apperror.Internal("failed to load payments", err)
	}
	return dash, nil
}

// Invalidate drops the cached summary of a user.
func Invalidate(userID string) {
	if err := cacheDelete(fmt.Sprintf(CacheKeySummary, userID)); err != nil {
		log.Warnf("[Statistics] Could not invalidate summary for %s: %v", userID, err)
	}
}

// Invalidator is an events.Publisher that drops the summaries of both
// parties whenever a payment changes.
type Invalidator struct{}

func (Invalidator) Publish(_ context.Context, ev events.PaymentEvent) error {
	Invalidate(ev.SenderID)
	Invalidate(ev.ReceiverID)
	return nil
}

func (s *Service) cachedSummary(ctx context.Context, caller usercontext.Caller) (*Summary, error) {
	key := fmt.Sprintf(CacheKeySummary, caller.UserID)

	var cached Summary
	if err := cacheGet(key, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Warnf("[Statistics] Cache read failed, falling back to database: %v", err)
	}

	summary, err := s.Summary(ctx, caller)
	if err != nil {
		return nil, err
	}
	if err := cacheSet(key, summary, CacheExpiration); err != nil {
		log.Warnf("[Statistics] Cache write failed: %v", err)
	}
	return summary, nil
}

// Summary computes the dashboard numbers from the database.
func (s *Service) Summary(ctx context.Context, caller usercontext.Caller) (*Summary, error) {
	summary := &Summary{}
	var err error

	if caller.Role == models.ROLE_PAYER {
		summary.ProjectCount, err = s.repos.Project.CountByOwner(ctx, caller.UserID)
	} else {
		summary.ProjectCount, err = s.repos.Project.CountByMember(ctx, caller.UserID)
	}
	if err != nil {
		return nil, apperror.Internal("failed to count projects", err)
	}

	if caller.Role == models.ROLE_FREELANCER {
		entries, err := s.repos.TimeEntry.List(ctx, repository.TimeEntryFilter{UserID: caller.UserID, Completed: true})
		if err != nil {
			return nil, apperror.Internal("failed to load time entries", err)
		}
		now := s.now()
		for i := range entries {
			hours := entries[i].Hours(now)
			summary.HoursTracked = summary.HoursTracked.Add(hours)
			if !entries[i].IsPaid() {
				summary.UnpaidHours = summary.UnpaidHours.Add(hours)
			}
		}
		summary.HoursTracked = summary.HoursTracked.Round(2)
		summary.UnpaidHours = summary.UnpaidHours.Round(2)
	}

	payments, err := s.repos.Payment.List(ctx, paymentScope(caller, 0))
	if err != nil {
		return nil, apperror.Internal("failed to load payments", err)
	}
	summary.PaymentCount = len(payments)
	for i := range payments {
		switch payments[i].Status {
		case models.PaymentStatusCompleted:
			summary.PaidTotal = summary.PaidTotal.Add(payments[i].Amount)
		case models.PaymentStatusCancelled:
		default:
			summary.OutstandingTotal = summary.OutstandingTotal.Add(payments[i].Amount)
		}
	}
	return summary, nil
}

func (s *Service) recentProjects(ctx context.Context, caller usercontext.Caller) ([]models.Project, error) {
	if caller.Role == models.ROLE_PAYER {
		return s.repos.Project.ListByOwner(ctx, caller.UserID, RecentLimit)
	}
	return s.repos.Project.ListByMember(ctx, caller.UserID, RecentLimit)
}

func paymentScope(caller usercontext.Caller, limit int) repository.PaymentFilter {
	if caller.Role == models.ROLE_PAYER {
		return repository.PaymentFilter{SenderID: caller.UserID, Limit: limit}
	}
	return repository.PaymentFilter{ReceiverID: caller.UserID, Limit: limit}
}
