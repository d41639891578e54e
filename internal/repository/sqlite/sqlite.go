package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"physioeval/internal/domain"
)

// Repository implements repository.Repository on top of a Conn. Each write
// spans all 16 aggregate tables inside one transaction.
type Repository struct {
	conn *Conn
	log  zerolog.Logger
}

// New creates a repository. The schema must already exist.
func New(conn *Conn, log zerolog.Logger) *Repository {
	return &Repository{
		conn: conn,
		log:  log.With().Str("component", "evaluations").Logger(),
	}
}

// Conn returns the connection manager backing the repository
func (r *Repository) Conn() *Conn {
	return r.conn
}

var (
	patientInsertSQL = fmt.Sprintf("INSERT INTO patients (%s) VALUES (%s)",
		strings.Join(patientTable.columnNames(), ", "), placeholders(len(patientTable.columns)))
	evaluationInsertSQL = fmt.Sprintf("INSERT INTO evaluations (patient_id, %s) VALUES (%s)",
		strings.Join(evaluationTable.columnNames(), ", "), placeholders(len(evaluationTable.columns)+1))
	patientUpdateSQL    = fmt.Sprintf("UPDATE patients SET %s WHERE id = ?", patientTable.assignments())
	evaluationUpdateSQL = fmt.Sprintf("UPDATE evaluations SET %s WHERE id = ?", evaluationTable.assignments())

	detailSQL = buildDetailSQL()
)

// buildDetailSQL joins the evaluation/patient pair with all 14 sections.
// Sections are LEFT JOINed so a missing row never hides the evaluation.
func buildDetailSQL() string {
	cols := []string{"e.id", "e.created_at"}
	for _, c := range evaluationTable.columnNames() {
		cols = append(cols, "e."+c)
	}
	cols = append(cols, "p.id", "p.created_at")
	for _, c := range patientTable.columnNames() {
		cols = append(cols, "p."+c)
	}
	for i, s := range sections {
		for _, c := range s.columnNames() {
			cols = append(cols, fmt.Sprintf("s%d.%s", i, c))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s\nFROM evaluations e\n", strings.Join(cols, ", "))
	b.WriteString("LEFT JOIN patients p ON p.id = e.patient_id\n")
	for i, s := range sections {
		fmt.Fprintf(&b, "LEFT JOIN %s s%d ON s%d.evaluation_id = e.id\n", s.name, i, i)
	}
	b.WriteString("WHERE e.id = ?")
	return b.String()
}

// detailTargets returns scan targets matching detailSQL's column order
func detailTargets(e *domain.Evaluation) []any {
	targets := []any{integer64(&e.ID), text(&e.CreatedAt)}
	targets = append(targets, evaluationTable.targets(e)...)
	targets = append(targets, integer64(&e.Patient.ID), text(&e.Patient.CreatedAt))
	targets = append(targets, patientTable.targets(e)...)
	for _, s := range sections {
		targets = append(targets, s.targets(e)...)
	}
	return targets
}

// Create inserts a patient, an evaluation and one row per section as a
// single transaction and returns the new evaluation id. A new patient row is
// created every time; existing patients are never reused.
func (r *Repository) Create(ctx context.Context, e *domain.Evaluation) (int64, error) {
	var evaluationID, patientID int64

	err := r.conn.WithWriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, patientInsertSQL, patientTable.values(e)...)
		if err != nil {
			return fmt.Errorf("failed to insert patient: %w", err)
		}
		if patientID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read patient id: %w", err)
		}

		res, err = tx.ExecContext(ctx, evaluationInsertSQL, withLeading(patientID, evaluationTable.values(e))...)
		if err != nil {
			return fmt.Errorf("failed to insert evaluation: %w", err)
		}
		if evaluationID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read evaluation id: %w", err)
		}

		for _, s := range sections {
			if _, err := tx.ExecContext(ctx, s.sectionInsertSQL(), withLeading(evaluationID, s.values(e))...); err != nil {
				return fmt.Errorf("failed to insert %s: %w", s.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.log.Debug().Int64("evaluation_id", evaluationID).Int64("patient_id", patientID).Msg("evaluation created")
	return evaluationID, nil
}

// Find loads one evaluation with a single joined query. Returns nil, nil
// when the id does not exist.
func (r *Repository) Find(ctx context.Context, id int64) (*domain.Evaluation, error) {
	db, err := r.conn.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	e := &domain.Evaluation{}
	err = db.QueryRowContext(ctx, detailSQL, id).Scan(detailTargets(e)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluation %d: %w", id, err)
	}

	return e, nil
}

// lookupPatientID resolves the owning patient of an evaluation inside tx
func lookupPatientID(ctx context.Context, tx *sql.Tx, evaluationID int64) (int64, error) {
	var patientID int64
	err := tx.QueryRowContext(ctx, `SELECT patient_id FROM evaluations WHERE id = ?`, evaluationID).Scan(&patientID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve patient: %w", err)
	}
	return patientID, nil
}

// Replace overwrites every column of the patient, the evaluation header and
// the 14 sections of an existing evaluation. Absent values are written as
// empty; there is no partial update. Returns false, nil when the id does not
// exist.
func (r *Repository) Replace(ctx context.Context, id int64, e *domain.Evaluation) (bool, error) {
	err := r.conn.WithWriteTx(ctx, func(tx *sql.Tx) error {
		patientID, err := lookupPatientID(ctx, tx, id)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, patientUpdateSQL, withTrailing(patientTable.values(e), patientID)...); err != nil {
			return fmt.Errorf("failed to update patient: %w", err)
		}
		if _, err := tx.ExecContext(ctx, evaluationUpdateSQL, withTrailing(evaluationTable.values(e), id)...); err != nil {
			return fmt.Errorf("failed to update evaluation: %w", err)
		}

		for _, s := range sections {
			res, err := tx.ExecContext(ctx, s.sectionUpdateSQL(), withTrailing(s.values(e), id)...)
			if err != nil {
				return fmt.Errorf("failed to update %s: %w", s.name, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				r.log.Debug().Int64("evaluation_id", id).Str("section", s.name).Msg("section row missing, nothing updated")
			}
		}
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	r.log.Debug().Int64("evaluation_id", id).Msg("evaluation updated")
	return true, nil
}

// Delete removes the 14 section rows, the evaluation and its patient in one
// transaction. Returns false, nil when the id does not exist.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	err := r.conn.WithWriteTx(ctx, func(tx *sql.Tx) error {
		patientID, err := lookupPatientID(ctx, tx, id)
		if err != nil {
			return err
		}

		for _, s := range sections {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+s.name+" WHERE evaluation_id = ?", id); err != nil {
				return fmt.Errorf("failed to delete %s: %w", s.name, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM evaluations WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete evaluation: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM patients WHERE id = ?`, patientID); err != nil {
			return fmt.Errorf("failed to delete patient: %w", err)
		}
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	r.log.Debug().Int64("evaluation_id", id).Msg("evaluation deleted")
	return true, nil
}

// ============================================================================
// List Queries
// ============================================================================

// listFrom is the lean projection source: only the patient and the follow-up
// section (for the next visit date) are joined.
const listFrom = `
	FROM evaluations e
	LEFT JOIN patients p ON p.id = e.patient_id
	LEFT JOIN follow_up f ON f.evaluation_id = e.id`

func filterClause(filter string) (string, []any) {
	if filter == "" {
		return "", nil
	}
	return ` WHERE ` + foldFunc + `(p.name) LIKE ` + foldFunc + `(?) ESCAPE '\'`, []any{likePattern(filter)}
}

// List returns evaluation summaries newest id first. The filter is a
// case-insensitive substring of the patient name. A positive Limit returns
// that many rows from the start; otherwise the query is paged by
// domain.PageSize.
func (r *Repository) List(ctx context.Context, q domain.ListQuery) ([]domain.Summary, error) {
	db, err := r.conn.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	where, args := filterClause(q.Filter)
	limit, offset := q.Window()

	query := `SELECT e.id, e.evaluated_at, p.name, p.age, p.gender, f.next_visit` +
		listFrom + where + ` ORDER BY e.id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()

	summaries := []domain.Summary{}
	for rows.Next() {
		var s domain.Summary
		if err := rows.Scan(&s.ID, text(&s.EvaluatedAt), text(&s.PatientName), text(&s.PatientAge),
			text(&s.PatientGender), text(&s.NextVisit)); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating evaluations: %w", err)
	}

	return summaries, nil
}

// Count returns how many evaluations match filter
func (r *Repository) Count(ctx context.Context, filter string) (int, error) {
	db, err := r.conn.Acquire(ctx)
	if err != nil {
		return 0, err
	}

	where, args := filterClause(filter)
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*)`+listFrom+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count evaluations: %w", err)
	}
	return n, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.conn.Close()
}
