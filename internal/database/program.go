package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"ytbridge/internal/domain/consts"
	"ytbridge/internal/domain/logger"

	"github.com/Masterminds/squirrel"
	"github.com/araddon/dateparse"
)

// ErrAlreadyRunning is returned by Start when another live process holds the program row.
var ErrAlreadyRunning = errors.New("another instance is already running")

const (
	tProgram = "program"

	qProgID        = "id"
	qProgRunning   = "running"
	qProgPID       = "pid"
	qProgHost      = "host"
	qProgStartedAt = "started_at"
	qProgHeartbeat = "last_heartbeat"
)

// ProgControl marks the program as running in the database so that only one process
// runs downloads against a data directory at a time.
type ProgControl struct {
	DB        *sql.DB
	ProcessID int

	// staleAfter is how old a heartbeat must be before its holder is presumed dead.
	staleAfter time.Duration
}

// NewProgController returns a program controller for the current process.
func NewProgController(db *sql.DB) *ProgControl {
	return &ProgControl{
		DB:         db,
		ProcessID:  os.Getpid(),
		staleAfter: consts.StaleProcessThreshold,
	}
}

// Start claims the program row. A holder whose heartbeat went stale (e.g. after a crash)
// is replaced.
func (pc *ProgControl) Start(ctx context.Context) error {
	now := time.Now().UTC()
	host, _ := os.Hostname()

	query := squirrel.
		Update(tProgram).
		Set(qProgRunning, true).
		Set(qProgPID, pc.ProcessID).
		Set(qProgHost, host).
		Set(qProgStartedAt, now.Format(time.RFC3339)).
		Set(qProgHeartbeat, now.Format(time.RFC3339)).
		Where(squirrel.Eq{qProgID: 1}).
		Where(squirrel.Or{
			squirrel.Eq{qProgRunning: false},
			squirrel.Eq{qProgPID: pc.ProcessID},
			squirrel.Lt{qProgHeartbeat: now.Add(-pc.staleAfter).Format(time.RFC3339)},
		}).
		RunWith(pc.DB)

	res, err := query.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to claim program row: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		pid, heartbeat, err := pc.holder(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrAlreadyRunning, err)
		}
		return fmt.Errorf("%w (PID: %d, last heartbeat %s)", ErrAlreadyRunning, pid, heartbeat.Local().Format(time.DateTime))
	}

	logger.Pl.Debug().Int("pid", pc.ProcessID).Str("host", host).Msg("Claimed program row")
	return nil
}

// Quit releases the program row if this process holds it.
func (pc *ProgControl) Quit(ctx context.Context) error {
	query := squirrel.
		Update(tProgram).
		Set(qProgRunning, false).
		Set(qProgPID, 0).
		Set(qProgHeartbeat, time.Now().UTC().Format(time.RFC3339)).
		Where(squirrel.Eq{qProgID: 1, qProgPID: pc.ProcessID}).
		RunWith(pc.DB)

	res, err := query.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to release program row: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("process %d is not marked as running", pc.ProcessID)
	}
	return nil
}

// UpdateHeartbeat refreshes the heartbeat of the held program row.
//
// A process that dies without calling Quit is replaced once its heartbeat goes stale.
func (pc *ProgControl) UpdateHeartbeat(ctx context.Context) error {
	query := squirrel.
		Update(tProgram).
		Set(qProgHeartbeat, time.Now().UTC().Format(time.RFC3339)).
		Where(squirrel.Eq{qProgID: 1, qProgPID: pc.ProcessID}).
		RunWith(pc.DB)

	if _, err := query.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to update heartbeat: %w", err)
	}
	return nil
}

// StartHeartbeat updates the heartbeat every interval until ctx is done.
func (pc *ProgControl) StartHeartbeat(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := pc.UpdateHeartbeat(ctx); err != nil && ctx.Err() == nil {
				logger.Pl.Error().Err(err).Int("pid", pc.ProcessID).Msg("Failed to update heartbeat")
			}
		}
	}
}

// Private ////////////////////////////////////////////////////////////////////////////////////////////

// holder returns the PID and last heartbeat recorded in the program row.
func (pc *ProgControl) holder(ctx context.Context) (pid int, heartbeat time.Time, err error) {
	var raw string

	query := squirrel.
		Select(qProgPID, qProgHeartbeat).
		From(tProgram).
		Where(squirrel.Eq{qProgID: 1}).
		RunWith(pc.DB)

	if err := query.QueryRowContext(ctx).Scan(&pid, &raw); err != nil {
		return 0, time.Time{}, err
	}
	if raw != "" {
		if heartbeat, err = dateparse.ParseAny(raw); err != nil {
			return pid, time.Time{}, fmt.Errorf("invalid heartbeat %q: %w", raw, err)
		}
	}
	return pid, heartbeat, nil
}
