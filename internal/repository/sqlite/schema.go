package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"physioeval/internal/domain"
)

// ============================================================================
// Table Descriptors
// ============================================================================
//
// Every aggregate table is described once here. Insert, update, select and
// DDL statements are all derived from the descriptors, so a column is added
// by appending it to columns, values and targets in the same position.

// column is one persisted field of a table
type column struct {
	name string
	def  string // SQL type and constraints
}

// table describes one of the 14 section tables owned by an evaluation
type table struct {
	name    string
	columns []column
	// values returns the column values in column order
	values func(e *domain.Evaluation) []any
	// targets returns NULL-tolerant scan targets in column order
	targets func(e *domain.Evaluation) []any
}

func textColumns(names ...string) []column {
	cols := make([]column, len(names))
	for i, n := range names {
		cols[i] = column{name: n, def: "TEXT NOT NULL DEFAULT ''"}
	}
	return cols
}

var patientTable = table{
	name: "patients",
	columns: textColumns("name", "age", "gender", "contact", "birth_date",
		"consult_area", "allergies"),
	values: func(e *domain.Evaluation) []any {
		p := &e.Patient
		return []any{p.Name, p.Age, p.Gender, p.Contact, p.BirthDate, p.ConsultArea, p.Allergies}
	},
	targets: func(e *domain.Evaluation) []any {
		p := &e.Patient
		return []any{text(&p.Name), text(&p.Age), text(&p.Gender), text(&p.Contact),
			text(&p.BirthDate), text(&p.ConsultArea), text(&p.Allergies)}
	},
}

var evaluationTable = table{
	name:    "evaluations",
	columns: textColumns("evaluated_at", "practitioner", "note"),
	values: func(e *domain.Evaluation) []any {
		return []any{e.EvaluatedAt, e.Practitioner, e.Note}
	},
	targets: func(e *domain.Evaluation) []any {
		return []any{text(&e.EvaluatedAt), text(&e.Practitioner), text(&e.Note)}
	},
}

// sections lists the 14 section tables in form order
var sections = []table{
	{
		name: "clinical_history",
		columns: textColumns("reason", "personal_history", "family_history",
			"medications", "prior_surgeries"),
		values: func(e *domain.Evaluation) []any {
			s := &e.ClinicalHistory
			return []any{s.Reason, s.PersonalHistory, s.FamilyHistory, s.Medications, s.PriorSurgeries}
		},
		targets: func(e *domain.Evaluation) []any {
			s := &e.ClinicalHistory
			return []any{text(&s.Reason), text(&s.PersonalHistory), text(&s.FamilyHistory),
				text(&s.Medications), text(&s.PriorSurgeries)}
		},
	},
	{
		name: "vital_signs",
		columns: textColumns("blood_pressure", "heart_rate", "respiratory_rate",
			"temperature", "oxygen_saturation", "weight", "height"),
		values: func(e *domain.Evaluation) []any {
			s := &e.Vitals
			return []any{s.BloodPressure, s.HeartRate, s.RespiratoryRate, s.Temperature,
				s.OxygenSaturation, s.Weight, s.Height}
		},
		targets: func(e *domain.Evaluation) []any {
			s := &e.Vitals
			return []any{text(&s.BloodPressure), text(&s.HeartRate), text(&s.RespiratoryRate),
				text(&s.Temperature), text(&s.OxygenSaturation), text(&s.Weight), text(&s.Height)}
		},
	},
	{
		name:    "inspection_palpation",
		columns: textColumns("inspection", "palpation", "edema"),
		values: func(e *domain.Evaluation) []any {
			s := &e.InspectionPalpation
			return []any{s.Inspection, s.Palpation, s.Edema}
		},
		targets: func(e *domain.Evaluation) []any {
			s := &e.InspectionPalpation
			return []any{text(&s.Inspection), text(&s.Palpation), text(&s.Edema)}
		},
	},
	{
		name:    "spine",
		columns: textColumns("cervical", "thoracic", "lumbar", "posture"),
		values: func(e *domain.Evaluation) []any {
			s := &e.Spine
			return []any{s.Cervical, s.Thoracic, s.Lumbar, s.Posture}
		},
		targets: func(e *domain.Evaluation) []any {
			s := &e.Spine
			return []any{text(&s.Cervical), text(&s.Thoracic), text(&s.Lumbar), text(&s.Posture)}
		},
	},
	{
		name:    "joint_mobility",
		columns: textColumns("joint", "active_range", "passive_range", "limitations"),
		values: func(e *domain.Evaluation) []any {
			s := &e.JointMobility
			return []any{s.Joint, s.ActiveRange, s.PassiveRange, s.Limitations}
		},
		targets: func(e *domain.Evaluation) []any {
			s := &e.JointMobility
			return []any{text(&s.Joint), text(&s.ActiveRange), text(&s.PassiveRange), text(&s.Limitations)}
		},
	},
	{
		name: "muscle_strength",
		columns: []column{
			{name: "muscle_group", def: "TEXT NOT NULL DEFAULT ''"},
			{name: "grades", def: "TEXT NOT NULL DEFAULT '[]'"}, // JSON array
			{name: "notes", def: "TEXT NOT NULL DEFAULT ''"},
		},
		values: func(e *domain.Evaluation) []any {
			s := &e.MuscleStrength
			return []any{s.MuscleGroup, domain.EncodeGrades(s.Grades), s.Notes}
		},
		targets: func(e *domain.Evaluation) []any {
			s := &e.MuscleStrength
			return []any{text(&s.MuscleGroup), grades(&s.Grades), text(&s.Notes)}
		},
	},
	{
		name:    "neuromuscular",
		columns: textColumns("reflexes", "sensitivity", "tone"),
		values: func(e *domain.Evaluation) []any {
			s := &e.Neuromuscular
			return []any{s.Reflexes, s.Sensitivity, s.Tone}
		},
		targets: func(e *domain.Evaluation) []any {
			s := &e.Neuromuscular
			return []any{text(&s.Reflexes), text(&s.Sensitivity), text(&s.Tone)}
		},
	},
	{
		name:    "functional_capacity",
		columns: textColumns("gait", "balance", "daily_activities"),
		values: func(e *domain.Evaluation) []any {
			s := &e.Functional
			return []any{s.Gait, s.Balance, s.DailyActivities}
		},
		targets: func(e *domain.Evaluation) []any {
			s := &e.Functional
			return []any{text(&s.Gait), text(&s.Balance), text(&s.DailyActivities)}
		},
	},
	{
		name:    "coordination",
		columns: textColumns("fine", "gross", "tests"),
		values: func(e *domain.Evaluation) []any {
			s := &e.Coordination
			return []any{s.Fine, s.Gross, s.Tests}
		},
		targets: func(e *domain.Evaluation) []any {
			s := &e.Coordination
			return []any{text(&s.Fine), text(&s.Gross), text(&s.Tests)}
		},
	},
	{
		name:    "specific_tests",
		columns: textColumns("tests", "results"),
		values: func(e *domain.Evaluation) []any {
			s := &e.SpecificTests
			return []any{s.Tests, s.Results}
		},
		targets: func(e *domain.Evaluation) []any {
			s := &e.SpecificTests
			return []any{text(&s.Tests), text(&s.Results)}
		},
	},
	{
		name: "pain_scale",
		columns: []column{
			{name: "score", def: fmt.Sprintf("INTEGER NOT NULL DEFAULT 0 CHECK (score BETWEEN %d AND %d)",
				domain.MinPainScore, domain.MaxPainScore)},
			{name: "description", def: "TEXT NOT NULL DEFAULT ''"},
			{name: "location", def: "TEXT NOT NULL DEFAULT ''"},
		},
		values: func(e *domain.Evaluation) []any {
			s := &e.Pain
			return []any{s.Score, s.Description, s.Location}
		},
		targets: func(e *domain.Evaluation) []any {
			s := &e.Pain
			return []any{integer(&s.Score), text(&s.Description), text(&s.Location)}
		},
	},
	{
		name:    "diagnosis",
		columns: textColumns("physiotherapy", "medical", "icd_code"),
		values: func(e *domain.Evaluation) []any {
			s := &e.Diagnosis
			return []any{s.Physiotherapy, s.Medical, s.ICDCode}
		},
		targets: func(e *domain.Evaluation) []any {
			s := &e.Diagnosis
			return []any{text(&s.Physiotherapy), text(&s.Medical), text(&s.ICDCode)}
		},
	},
	{
		name:    "treatment_plan",
		columns: textColumns("goals", "interventions", "frequency", "duration"),
		values: func(e *domain.Evaluation) []any {
			s := &e.Treatment
			return []any{s.Goals, s.Interventions, s.Frequency, s.Duration}
		},
		targets: func(e *domain.Evaluation) []any {
			s := &e.Treatment
			return []any{text(&s.Goals), text(&s.Interventions), text(&s.Frequency), text(&s.Duration)}
		},
	},
	{
		name:    "follow_up",
		columns: textColumns("next_visit", "progress", "recommendations"),
		values: func(e *domain.Evaluation) []any {
			s := &e.FollowUp
			return []any{s.NextVisit, s.Progress, s.Recommendations}
		},
		targets: func(e *domain.Evaluation) []any {
			s := &e.FollowUp
			return []any{text(&s.NextVisit), text(&s.Progress), text(&s.Recommendations)}
		},
	},
}

func (t table) columnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return names
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (t table) assignments() string {
	parts := make([]string, len(t.columns))
	for i, c := range t.columns {
		parts[i] = c.name + " = ?"
	}
	return strings.Join(parts, ", ")
}

// sectionInsertSQL: INSERT INTO t (evaluation_id, cols...) VALUES (?, ...)
func (t table) sectionInsertSQL() string {
	return fmt.Sprintf("INSERT INTO %s (evaluation_id, %s) VALUES (%s)",
		t.name, strings.Join(t.columnNames(), ", "), placeholders(len(t.columns)+1))
}

// sectionUpdateSQL: UPDATE t SET cols... WHERE evaluation_id = ?
func (t table) sectionUpdateSQL() string {
	return fmt.Sprintf("UPDATE %s SET %s WHERE evaluation_id = ?", t.name, t.assignments())
}

func (t table) sectionDDL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", t.name)
	b.WriteString("\tid INTEGER PRIMARY KEY AUTOINCREMENT,\n")
	b.WriteString("\tevaluation_id INTEGER NOT NULL,\n")
	for _, c := range t.columns {
		fmt.Fprintf(&b, "\t%s %s,\n", c.name, c.def)
	}
	b.WriteString("\tFOREIGN KEY (evaluation_id) REFERENCES evaluations(id)\n)")
	return b.String()
}

func (t table) columnDDL() string {
	var b strings.Builder
	for _, c := range t.columns {
		fmt.Fprintf(&b, "\t%s %s,\n", c.name, c.def)
	}
	return b.String()
}

// ============================================================================
// Schema Manager
// ============================================================================

// schemaStatements returns every CREATE TABLE statement: patients,
// evaluations, the 14 sections and the users table used by the login
// collaborator.
func schemaStatements() []string {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS patients (\n" +
			"\tid INTEGER PRIMARY KEY AUTOINCREMENT,\n" +
			patientTable.columnDDL() +
			"\tcreated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP\n)",
		"CREATE TABLE IF NOT EXISTS evaluations (\n" +
			"\tid INTEGER PRIMARY KEY AUTOINCREMENT,\n" +
			"\tpatient_id INTEGER NOT NULL,\n" +
			evaluationTable.columnDDL() +
			"\tcreated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,\n" +
			"\tFOREIGN KEY (patient_id) REFERENCES patients(id)\n)",
	}
	for _, s := range sections {
		stmts = append(stmts, s.sectionDDL())
	}
	stmts = append(stmts, `CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'caregiver',
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
)`)
	return stmts
}

func indexStatements() []string {
	stmts := []string{
		"CREATE INDEX IF NOT EXISTS idx_patients_name ON patients(name)",
		"CREATE INDEX IF NOT EXISTS idx_evaluations_evaluated_at ON evaluations(evaluated_at)",
		"CREATE INDEX IF NOT EXISTS idx_evaluations_patient_id ON evaluations(patient_id)",
	}
	for _, s := range sections {
		stmts = append(stmts, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS idx_%s_evaluation_id ON %s(evaluation_id)", s.name, s.name))
	}
	return stmts
}

// EnsureSchema creates every table that does not exist yet. It is safe to
// call on every start.
func (c *Conn) EnsureSchema(ctx context.Context) error {
	stmts := schemaStatements()
	err := c.WithWriteTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create schema: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.log.Debug().Int("tables", len(stmts)).Msg("schema ensured")
	return nil
}

// EnsureIndexes creates the name, date and foreign key indexes. Idempotent.
func (c *Conn) EnsureIndexes(ctx context.Context) error {
	return c.WithWriteTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range indexStatements() {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create index: %w", err)
			}
		}
		return nil
	})
}

// AggregateTables returns the names of the 16 tables that make up an
// evaluation, parents first.
func AggregateTables() []string {
	names := []string{patientTable.name, evaluationTable.name}
	for _, s := range sections {
		names = append(names, s.name)
	}
	return names
}
