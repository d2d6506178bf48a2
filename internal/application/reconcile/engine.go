// Package reconcile drives the strict matcher against the stored transfers:
// one-off interactive matching, the unattended batch run, and the no-match
// diagnostics surface.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atenea-cash/atenea-backend/internal/domain/matcher"
	"github.com/atenea-cash/atenea-backend/internal/domain/model"
	"github.com/atenea-cash/atenea-backend/internal/domain/normalize"
	"github.com/atenea-cash/atenea-backend/internal/infrastructure/storage"
)

// Config holds the engine tuning knobs
type Config struct {
	// TimeWindowMinutes is the batch matching window
	TimeWindowMinutes int

	// MaxLookbackDays bounds how far behind the cutoff a batch run looks
	MaxLookbackDays int

	// InteractiveWindow is the candidate span around a transfer's timestamp
	// on the operator-driven path, deliberately wider than the batch window
	InteractiveWindow time.Duration
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{
		TimeWindowMinutes: 15,
		MaxLookbackDays:   45,
		InteractiveWindow: 12 * time.Hour,
	}
}

// ErrFraudulent is returned when an operation targets a transfer in the
// terminal fraudulent state.
var ErrFraudulent = errors.New("transfer is marked fraudulent")

// Engine coordinates matcher, storage, and the status state machine
type Engine struct {
	repo    storage.Repository
	matcher *matcher.Matcher
	config  Config
	logger  *slog.Logger
}

// NewEngine creates a reconciliation engine
func NewEngine(repo storage.Repository, config Config, logger *slog.Logger) *Engine {
	mcfg := matcher.DefaultConfig()
	mcfg.TimeWindowMinutes = config.TimeWindowMinutes
	return &Engine{
		repo:    repo,
		matcher: matcher.New(mcfg),
		config:  config,
		logger:  logger,
	}
}

// MatchOutcome is the result of an interactive match attempt
type MatchOutcome struct {
	Matched    bool         `json:"matched"`
	Status     model.Status `json:"status"`
	MovementID string       `json:"movement_id,omitempty"`
	Reason     string       `json:"reason,omitempty"`
}

// MatchOne attempts to match a single transfer against the movements within
// the interactive window around its timestamp. The transfer's status is
// updated with the outcome: matched, duplicate when the only qualifying
// movement is already claimed by another transfer, or no_match.
func (e *Engine) MatchOne(ctx context.Context, transferID string) (*MatchOutcome, error) {
	transfer, err := e.repo.GetTransfer(transferID)
	if err != nil {
		return nil, err
	}
	if transfer.Status == model.StatusFraudulent {
		return nil, ErrFraudulent
	}

	user, err := e.repo.GetUser(transfer.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return e.settle(transfer, model.StatusNoMatch, "", "transfer user is not registered")
		}
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates, err := e.interactiveCandidates(transfer)
	if err != nil {
		return nil, err
	}

	res := e.matcher.FindMatch(transfer, user, candidates)
	if !res.Matched {
		e.logger.Debug("interactive match failed",
			"transfer_id", transferID,
			"reason", res.Reason,
		)
		return e.settle(transfer, model.StatusNoMatch, "", res.Reason)
	}

	// The matcher found a movement; make sure no other transfer claimed it.
	used, err := e.repo.ListAssignedMovementIDs()
	if err != nil {
		return nil, err
	}
	delete(used, transfer.MovementID) // a re-match may keep its own movement

	if used[res.MovementID] {
		e.logger.Info("interactive match hit a claimed movement",
			"transfer_id", transferID,
			"movement_id", res.MovementID,
		)
		return e.settle(transfer, model.StatusDuplicate, "", matcher.ReasonAlreadyClaimed)
	}

	e.logger.Info("interactive match",
		"transfer_id", transferID,
		"movement_id", res.MovementID,
		"delta_minutes", res.DeltaMinutes,
	)
	return e.settle(transfer, model.StatusMatched, res.MovementID, "")
}

// ExplainNoMatch recomputes the human-readable reason a transfer is
// unmatched, against the movements sharing its identity key.
func (e *Engine) ExplainNoMatch(ctx context.Context, transferID string) (string, error) {
	transfer, err := e.repo.GetTransfer(transferID)
	if err != nil {
		return "", err
	}
	user, err := e.repo.GetUser(transfer.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "transfer user is not registered", nil
		}
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	pool, err := e.diagnosticPool(transfer, user)
	if err != nil {
		return "", err
	}
	return e.matcher.NoMatchReason(transfer, user, pool), nil
}

// MarkFraudulent puts a transfer in the terminal fraudulent state. Operator
// action only; no automatic path ever sets or leaves this status.
func (e *Engine) MarkFraudulent(ctx context.Context, transferID, actor string) error {
	transfer, err := e.repo.GetTransfer(transferID)
	if err != nil {
		return err
	}
	if transfer.Status == model.StatusFraudulent {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.repo.SetTransferStatus(transferID, model.StatusFraudulent, ""); err != nil {
		return err
	}
	e.audit(transferID, "status_change",
		fmt.Sprintf("%s -> %s", transfer.Status, model.StatusFraudulent), actor)
	e.logger.Warn("transfer marked fraudulent", "transfer_id", transferID, "actor", actor)
	return nil
}

// interactiveCandidates loads the movements inside the wide interactive
// window around the transfer's timestamp.
func (e *Engine) interactiveCandidates(transfer *model.Transfer) ([]*model.Movement, error) {
	if transfer.OperatedAt.IsZero() {
		return nil, nil
	}
	from := transfer.OperatedAt.Add(-e.config.InteractiveWindow)
	to := transfer.OperatedAt.Add(e.config.InteractiveWindow)
	return e.repo.ListMovementsInRange(from, to)
}

// diagnosticPool returns the movements sharing the transfer's identity key:
// the user's tax id when present, exact normalized name otherwise. The range
// is widened beyond the matching window so "outside the window" cases stay
// visible to the diagnostics.
func (e *Engine) diagnosticPool(transfer *model.Transfer, user *model.User) ([]*model.Movement, error) {
	if transfer.OperatedAt.IsZero() {
		return nil, nil
	}
	span := e.diagnosticSpan()
	movements, err := e.repo.ListMovementsInRange(
		transfer.OperatedAt.Add(-span),
		transfer.OperatedAt.Add(span),
	)
	if err != nil {
		return nil, err
	}

	taxID := normalize.TaxID(user.TaxID)
	name := normalize.Name(user.CanonicalName)

	// Key by tax id only when the matcher would trust it, and admit names
	// under the matcher's own overlap rule; the diagnostics must see the
	// same pool the matcher reasons about.
	var pool []*model.Movement
	for _, mov := range movements {
		if e.matcher.TrustsTaxID(taxID) {
			if mov.TaxIDNorm == taxID {
				pool = append(pool, mov)
			}
			continue
		}
		if matcher.NamesOverlap(name, mov.NameNorm) {
			pool = append(pool, mov)
		}
	}
	return pool, nil
}

// diagnosticSpan widens the matching window for candidate loading: at least
// an hour, six windows otherwise.
func (e *Engine) diagnosticSpan() time.Duration {
	spanMin := e.config.TimeWindowMinutes * 6
	if spanMin < 60 {
		spanMin = 60
	}
	return time.Duration(spanMin) * time.Minute
}

// settle writes the outcome status and audit line and builds the response
func (e *Engine) settle(transfer *model.Transfer, status model.Status, movementID, reason string) (*MatchOutcome, error) {
	if err := e.repo.SetTransferStatus(transfer.ID, status, movementID); err != nil {
		return nil, err
	}
	detail := fmt.Sprintf("%s -> %s", transfer.Status, status)
	if reason != "" {
		detail += ": " + reason
	}
	e.audit(transfer.ID, "status_change", detail, "interactive")

	return &MatchOutcome{
		Matched:    status == model.StatusMatched,
		Status:     status,
		MovementID: movementID,
		Reason:     reason,
	}, nil
}

// audit appends an audit line; audit failures are logged, never fatal
func (e *Engine) audit(transferID, action, detail, actor string) {
	err := e.repo.LogAudit(&storage.AuditEntry{
		TransferID: transferID,
		Action:     action,
		Detail:     detail,
		Actor:      actor,
	})
	if err != nil {
		e.logger.Error("audit write failed", "transfer_id", transferID, "error", err)
	}
}
