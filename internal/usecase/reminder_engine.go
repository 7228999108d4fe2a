package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/detailops/engagement-core/internal/model"
	"github.com/detailops/engagement-core/internal/storage"
	"github.com/detailops/engagement-core/pkg/logger"
	"github.com/detailops/engagement-core/pkg/utils"
)

// Candidate is one customer due for a reminder under one rule, with
// everything the composer and dispatcher need.
type Candidate struct {
	Customer         model.Customer
	Rule             model.ReminderRule
	ServiceName      string
	DaysSinceService int
}

// ReminderEngine evaluates reminder rules against service history and
// produces eligible candidates.
type ReminderEngine struct {
	reminders storage.ReminderRepo
	customers storage.CustomerRepo
}

// NewReminderEngine creates the rule engine.
func NewReminderEngine(reminders storage.ReminderRepo, customers storage.CustomerRepo) *ReminderEngine {
	return &ReminderEngine{reminders: reminders, customers: customers}
}

// FindEligible evaluates every enabled rule for the tenant in context.
//
// Ordering matters: the latest completed visit per customer is grouped
// first, with no date filter, and the reminder window is applied to
// that grouped result. Filtering visits by date before grouping would
// hide a customer's recent return visit behind an older one and
// re-remind people who already came back.
func (e *ReminderEngine) FindEligible(ctx context.Context) ([]Candidate, error) {
	log := logger.FromContext(ctx)

	rules, err := e.reminders.ListEnabledRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminder rules: %w", err)
	}

	now := utils.Now()
	var candidates []Candidate
	for _, rule := range rules {
		visits, err := e.customers.LatestCompletedVisits(ctx, rule.ServiceID)
		if err != nil {
			log.Error("Failed to load latest visits for rule",
				zap.String("rule_id", rule.ID),
				zap.Error(err))
			continue
		}

		trigger := rule.TriggerDays()
		window := rule.WindowDays()

		for _, visit := range visits {
			days := utils.DaysSince(visit.LastCompletedAt, now)
			if days < trigger || days > trigger+window {
				continue
			}

			cand, ok := e.vetCandidate(ctx, log, rule, visit, days)
			if ok {
				candidates = append(candidates, cand)
			}
		}
	}
	return candidates, nil
}

// vetCandidate applies the suppression checks: deliverability, open
// job, opt-out, active snooze. Lookup failures skip the candidate for
// this tick rather than failing the whole run.
func (e *ReminderEngine) vetCandidate(ctx context.Context, log *zap.Logger, rule model.ReminderRule, visit storage.LatestVisit, days int) (Candidate, bool) {
	customer, err := e.customers.FindByID(ctx, visit.CustomerID)
	if err != nil {
		log.Warn("Customer lookup failed during eligibility check",
			zap.String("customer_id", visit.CustomerID),
			zap.Error(err))
		return Candidate{}, false
	}

	// No deliverable channel at all.
	if !customer.SMSConsent && customer.Email == "" {
		return Candidate{}, false
	}

	openJob, err := e.reminders.FindOpenJob(ctx, customer.ID, rule.ID)
	if err != nil {
		log.Warn("Open-job lookup failed during eligibility check",
			zap.String("customer_id", customer.ID),
			zap.String("rule_id", rule.ID),
			zap.Error(err))
		return Candidate{}, false
	}
	if openJob != nil {
		return Candidate{}, false
	}

	optedOut, err := e.reminders.HasOptOut(ctx, customer.ID)
	if err != nil {
		log.Warn("Opt-out lookup failed during eligibility check",
			zap.String("customer_id", customer.ID),
			zap.Error(err))
		return Candidate{}, false
	}
	if optedOut {
		return Candidate{}, false
	}

	snoozed, err := e.reminders.HasActiveSnooze(ctx, customer.ID, utils.Now())
	if err != nil {
		log.Warn("Snooze lookup failed during eligibility check",
			zap.String("customer_id", customer.ID),
			zap.Error(err))
		return Candidate{}, false
	}
	if snoozed {
		return Candidate{}, false
	}

	return Candidate{
		Customer:         *customer,
		Rule:             rule,
		ServiceName:      visit.ServiceName,
		DaysSinceService: days,
	}, true
}
