package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Worcesters/basicfit/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert or update violates a unique key.
	ErrDuplicate = errors.New("duplicate record")
)

// SessionFilter narrows ListSessions. A zero Limit returns every match.
type SessionFilter struct {
	UserID int64
	Status models.SessionStatus
	Limit  int
	Offset int
}

// Repository is the transactional data access used by the workout service.
// Every write stamps the entity's Metadata.
type Repository interface {
	GetOrCreateUser(ctx context.Context, login, displayName string) (int64, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error

	InsertMachine(ctx context.Context, m *models.Machine) error
	GetMachine(ctx context.Context, id int64) (*models.Machine, error)
	FindMachineByName(ctx context.Context, name string) (*models.Machine, error)
	ListMachines(ctx context.Context) ([]models.Machine, error)
	IncrementMachineUsage(ctx context.Context, id int64) error
	InsertVariant(ctx context.Context, v *models.MachineVariant) error
	GetVariant(ctx context.Context, id int64) (*models.MachineVariant, error)
	ListVariants(ctx context.Context, machineID int64) ([]models.MachineVariant, error)

	GetTrainingMode(ctx context.Context, id int64) (*models.TrainingMode, error)
	GetTrainingModeByCode(ctx context.Context, code models.TrainingModeCode) (*models.TrainingMode, error)
	ListTrainingModes(ctx context.Context) ([]models.TrainingMode, error)

	InsertSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id int64, lock bool) (*models.Session, error)
	UpdateSession(ctx context.Context, s *models.Session) error
	ListSessions(ctx context.Context, f SessionFilter) ([]models.Session, error)
	FindSessionByStart(ctx context.Context, userID int64, name string, startedAt time.Time) (*models.Session, error)

	InsertExercise(ctx context.Context, e *models.ExerciseEntry) error
	GetExercise(ctx context.Context, id int64, lock bool) (*models.ExerciseEntry, error)
	UpdateExercise(ctx context.Context, e *models.ExerciseEntry) error
	MarkExerciseEvaluated(ctx context.Context, id int64, at time.Time) (bool, error)
	ListExercises(ctx context.Context, sessionID int64) ([]models.ExerciseEntry, error)
	ListUserExercises(ctx context.Context, userID int64, status models.SessionStatus) ([]models.ExerciseEntry, error)
	PositionTaken(ctx context.Context, sessionID int64, position int, excludeID int64) (bool, error)

	InsertSet(ctx context.Context, s *models.SetRecord) error
	GetSet(ctx context.Context, id int64, lock bool) (*models.SetRecord, error)
	UpdateSet(ctx context.Context, s *models.SetRecord) error
	ListSets(ctx context.Context, exerciseID int64) ([]models.SetRecord, error)

	GetTracker(ctx context.Context, userID, machineID, modeID int64, lock bool) (*models.ProgressionTracker, error)
	InsertTracker(ctx context.Context, t *models.ProgressionTracker) error
	UpdateTracker(ctx context.Context, t *models.ProgressionTracker) error
	ListTrackers(ctx context.Context, userID int64) ([]models.ProgressionTracker, error)

	GetDataStats(ctx context.Context, userID int64) (*DataStats, error)
}

// Compile-time check: *Tx satisfies Repository.
var _ Repository = (*Tx)(nil)

// Tx implements Repository on top of a single database transaction.
type Tx struct {
	tx      *sql.Tx
	dialect Dialect
	now     func() time.Time
}

// stamp returns the current time in UTC, truncated to microseconds so that
// both backends round-trip it unchanged.
func (t *Tx) stamp() time.Time {
	return t.now().UTC().Truncate(time.Microsecond)
}

// lockClause returns the row-locking suffix for SELECTs that precede an
// update. SQLite locks the whole database on write instead.
func (t *Tx) lockClause(lock bool) string {
	if lock && t.dialect == Postgres {
		return " FOR UPDATE"
	}
	return ""
}

// insertReturningID executes an INSERT ... RETURNING id statement.
func (t *Tx) insertReturningID(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := t.tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, classify(err)
	}
	return id, nil
}

// execOne executes a statement that must affect exactly one row.
func (t *Tx) execOne(ctx context.Context, query string, args ...any) error {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// classify maps driver errors onto the package sentinels.
func classify(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && isSQLiteUnique(liteErr) {
		return fmt.Errorf("%w: %s", ErrDuplicate, liteErr.Error())
	}
	return err
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// isSQLiteUnique matches both the extended and the primary constraint code.
func isSQLiteUnique(err *sqlite.Error) bool {
	if err.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return err.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(err.Error(), "UNIQUE")
}
