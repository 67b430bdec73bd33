package vultrdns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RecordService is the subset of the Vultr client the reconciler needs.
type RecordService interface {
	GetRecordByName(ctx context.Context, domain, name, recordType string) (*DNSRecord, error)
	CreateRecord(ctx context.Context, domain string, params CreateRecordParams) (*DNSRecord, error)
	UpdateRecord(ctx context.Context, domain, recordID string, params UpdateRecordParams) error
}

// UpdateTarget names one DNS record this tool keeps pointed at the current
// public IP. Domain must be non-empty; a zero TTL means DefaultTTL.
type UpdateTarget struct {
	Domain    string `toml:"domain"`
	Subdomain string `toml:"subdomain"`
	TTL       int    `toml:"ttl"`
}

// FQDN returns subdomain.domain, or the bare domain when the subdomain is
// empty (zone apex).
func (t UpdateTarget) FQDN() string {
	if t.Subdomain != "" {
		return t.Subdomain + "." + t.Domain
	}
	return t.Domain
}

// Action is the outcome of reconciling one target.
type Action string

const (
	ActionUpToDate    Action = "up-to-date"
	ActionCreated     Action = "created"
	ActionUpdated     Action = "updated"
	ActionWouldCreate Action = "would-create"
	ActionWouldUpdate Action = "would-update"
)

// Result describes what happened, or would happen under dry-run, for one
// target.
type Result struct {
	Target   UpdateTarget
	Action   Action
	Previous string // record data before the run; empty when no record existed
	Current  string // the resolved IP the record points at (or would point at)
}

// Reconciler applies a resolved public IP across a set of update targets.
//
// Targets are processed sequentially. The first provider error aborts the
// run: the error is returned together with the results accumulated so far.
type Reconciler struct {
	Records RecordService
	Logger  *zap.Logger
	Force   bool // rewrite records even when data and TTL already match
	DryRun  bool // report decisions without issuing any mutation
}

func (r *Reconciler) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// ReconcileAll reconciles every target against ip, in order.
func (r *Reconciler) ReconcileAll(ctx context.Context, targets []UpdateTarget, ip string) ([]Result, error) {
	results := make([]Result, 0, len(targets))
	for _, target := range targets {
		result, err := r.reconcile(ctx, target, ip)
		if err != nil {
			return results, fmt.Errorf("updating %s: %w", target.FQDN(), err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (r *Reconciler) reconcile(ctx context.Context, target UpdateTarget, ip string) (Result, error) {
	if target.Domain == "" {
		return Result{}, errors.New("target domain cannot be empty")
	}
	ttl := target.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	log := r.logger().With(zap.String("fqdn", target.FQDN()))

	existing, err := r.Records.GetRecordByName(ctx, target.Domain, target.Subdomain, "A")
	if err != nil {
		return Result{}, err
	}

	result := Result{Target: target, Current: ip}
	if existing == nil {
		if r.DryRun {
			result.Action = ActionWouldCreate
			return result, nil
		}
		if _, err := r.Records.CreateRecord(ctx, target.Domain, CreateRecordParams{
			Name: target.Subdomain,
			Type: "A",
			Data: ip,
			TTL:  ttl,
		}); err != nil {
			return Result{}, err
		}
		log.Info("created record", zap.String("data", ip), zap.Int("ttl", ttl))
		result.Action = ActionCreated
		return result, nil
	}

	result.Previous = existing.Data
	if existing.Data == ip && existing.TTL == ttl && !r.Force {
		log.Debug("record already up to date")
		result.Action = ActionUpToDate
		return result, nil
	}
	if r.DryRun {
		result.Action = ActionWouldUpdate
		return result, nil
	}
	data := ip
	if err := r.Records.UpdateRecord(ctx, target.Domain, existing.ID, UpdateRecordParams{Data: &data, TTL: &ttl}); err != nil {
		return Result{}, err
	}
	log.Info("updated record",
		zap.String("previous", existing.Data),
		zap.String("data", ip),
		zap.Int("ttl", ttl),
	)
	result.Action = ActionUpdated
	return result, nil
}

// RunDaemon invokes run on a fixed interval until ctx is cancelled.
// Intervals under one minute are raised to one minute. Errors from run are
// logged and do not stop the loop.
func RunDaemon(ctx context.Context, interval time.Duration, logger *zap.Logger, run func(context.Context) error) {
	if interval < 1*time.Minute {
		interval = 1 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := run(ctx); err != nil {
				logger.Error("update run failed", zap.Error(err))
			}
		}
	}
}
