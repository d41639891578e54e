package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"physioeval/internal/domain"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestConn opens a schema-initialized database file in a temp dir
func newTestConn(t *testing.T) *Conn {
	t.Helper()
	conn, err := Open(filepath.Join(t.TempDir(), "test.db"), DefaultOptions(), zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
	})

	ctx := context.Background()
	if err := conn.EnsureSchema(ctx); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	if err := conn.EnsureIndexes(ctx); err != nil {
		t.Fatalf("failed to create indexes: %v", err)
	}
	return conn
}

// newTestRepo creates a repository on a fresh database
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	return New(newTestConn(t), zerolog.Nop())
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// assertEqual fails the test if expected != actual
func assertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}

// assertNil fails the test if value is not nil
func assertNil(t *testing.T, value interface{}) {
	t.Helper()
	if value != nil && !reflect.ValueOf(value).IsNil() {
		t.Fatalf("expected nil value, got %v", value)
	}
}

// countRows returns the row count of table
func countRows(t *testing.T, conn *Conn, table string) int {
	t.Helper()
	db, err := conn.Acquire(context.Background())
	assertNoError(t, err)
	var n int
	assertNoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

// sampleEvaluation returns an evaluation with a value in every section
func sampleEvaluation(name string) *domain.Evaluation {
	e := &domain.Evaluation{
		Patient: domain.Patient{
			Name:        name,
			Age:         "45",
			Gender:      "Masculino",
			Contact:     "555-0101",
			BirthDate:   "1980-03-14",
			ConsultArea: "Traumatología",
			Allergies:   "Ninguna",
		},
		EvaluatedAt:  "2026-10-01",
		Practitioner: "Lic. Torres",
	}
	e.ClinicalHistory.Reason = "Dolor lumbar"
	e.Vitals.BloodPressure = "120/80"
	e.InspectionPalpation.Inspection = "Sin alteraciones"
	e.Spine.Lumbar = "Rectificación"
	e.JointMobility.Joint = "Rodilla derecha"
	e.MuscleStrength.MuscleGroup = "Cuádriceps"
	e.MuscleStrength.Grades = []string{"4/5"}
	e.Neuromuscular.Reflexes = "Normales"
	e.Functional.Gait = "Antiálgica"
	e.Coordination.Fine = "Conservada"
	e.SpecificTests.Tests = "Lasègue"
	e.Pain.Score = 6
	e.Pain.Location = "L4-L5"
	e.Diagnosis.Physiotherapy = "Lumbalgia mecánica"
	e.Treatment.Goals = "Reducir dolor"
	e.FollowUp.NextVisit = "2026-10-15"
	return e
}

// ============================================================================
// Helper Tests
// ============================================================================

func TestNullToString(t *testing.T) {
	tests := []struct {
		name     string
		input    sql.NullString
		expected string
	}{
		{"valid string", sql.NullString{String: "hello", Valid: true}, "hello"},
		{"empty valid string", sql.NullString{String: "", Valid: true}, ""},
		{"null string", sql.NullString{Valid: false}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertEqual(t, tt.expected, nullToString(tt.input))
		})
	}
}

func TestTextScanner(t *testing.T) {
	tests := []struct {
		name     string
		src      any
		expected string
	}{
		{"nil", nil, ""},
		{"string", "abc", "abc"},
		{"bytes", []byte("xyz"), "xyz"},
		{"int64", int64(42), "42"},
		{"float64", 1.5, "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := "preset"
			assertNoError(t, text(&got).Scan(tt.src))
			assertEqual(t, tt.expected, got)
		})
	}

	var s string
	if err := text(&s).Scan(struct{}{}); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}

func TestIntScanner(t *testing.T) {
	tests := []struct {
		name     string
		src      any
		expected int
		wantErr  bool
	}{
		{"nil", nil, 0, false},
		{"int64", int64(7), 7, false},
		{"float64", float64(3), 3, false},
		{"numeric text", "9", 9, false},
		{"blank text", " ", 0, false},
		{"garbage", "seven", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := -1
			err := integer(&got).Scan(tt.src)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			assertNoError(t, err)
			assertEqual(t, tt.expected, got)
		})
	}
}

func TestGradesScanner(t *testing.T) {
	tests := []struct {
		name     string
		src      any
		expected []string
	}{
		{"nil", nil, []string{}},
		{"empty array", "[]", []string{}},
		{"values", `["3/5","4/5"]`, []string{"3/5", "4/5"}},
		{"bytes", []byte(`["5/5"]`), []string{"5/5"}},
		{"malformed", "[not json", []string{}},
		{"wrong shape", `{"a":1}`, []string{}},
		{"unsupported type", struct{}{}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			assertNoError(t, grades(&got).Scan(tt.src))
			assertEqual(t, tt.expected, got)
		})
	}
}

func TestLikePattern(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"ana", "%ana%"},
		{"100%", `%100\%%`},
		{"a_b", `%a\_b%`},
		{`c:\x`, `%c:\\x%`},
	}

	for _, tt := range tests {
		assertEqual(t, tt.expected, likePattern(tt.input))
	}
}

func TestCasefold(t *testing.T) {
	tests := []struct {
		input    any
		expected any
	}{
		{"ÁNGELA NÚÑEZ", "ángela núñez"},
		{[]byte("ÇÜÉ"), "çüé"},
		{"plain", "plain"},
		{nil, nil},
	}

	for _, tt := range tests {
		got, err := casefold(nil, []driver.Value{tt.input})
		assertNoError(t, err)
		assertEqual(t, tt.expected, got)
	}

	_, err := casefold(nil, []driver.Value{int64(1)})
	if err == nil {
		t.Error("expected error for integer argument")
	}
}

func TestCasefoldInSQL(t *testing.T) {
	conn := newTestConn(t)
	db, err := conn.Acquire(context.Background())
	assertNoError(t, err)

	var got string
	assertNoError(t, db.QueryRow("SELECT "+foldFunc+"(?)", "ÁNGELA").Scan(&got))
	assertEqual(t, "ángela", got)
}

// ============================================================================
// Schema Tests
// ============================================================================

func TestEnsureSchemaIdempotent(t *testing.T) {
	conn := newTestConn(t)
	ctx := context.Background()

	repo := New(conn, zerolog.Nop())
	_, err := repo.Create(ctx, sampleEvaluation("Ana"))
	assertNoError(t, err)

	assertNoError(t, conn.EnsureSchema(ctx))
	assertNoError(t, conn.EnsureIndexes(ctx))
	assertNoError(t, conn.EnsureSchema(ctx))

	for _, table := range AggregateTables() {
		assertEqual(t, 1, countRows(t, conn, table))
	}
	assertEqual(t, 0, countRows(t, conn, "users"))

	assertNoError(t, conn.EnsureIndexes(ctx))
	assertEqual(t, 17, countSchemaObjects(t, conn, "table", "%"))
	assertEqual(t, 17, countSchemaObjects(t, conn, "index", `idx\_%`))
	assertEqual(t, 1, countSchemaObjects(t, conn, "index", "idx\\_patients\\_name"))
	assertEqual(t, 1, countSchemaObjects(t, conn, "index", "idx\\_follow\\_up\\_evaluation\\_id"))
}

// countSchemaObjects counts user objects in sqlite_master, skipping
// SQLite's internal sqlite_* tables.
func countSchemaObjects(t *testing.T, conn *Conn, kind, namePattern string) int {
	t.Helper()
	db, err := conn.Acquire(context.Background())
	assertNoError(t, err)
	var n int
	assertNoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master
		WHERE type = ? AND name LIKE ? ESCAPE '\' AND name NOT LIKE 'sqlite\_%' ESCAPE '\'`,
		kind, namePattern).Scan(&n))
	return n
}

func TestAggregateTables(t *testing.T) {
	tables := AggregateTables()
	assertEqual(t, 16, len(tables))
	assertEqual(t, "patients", tables[0])
	assertEqual(t, "evaluations", tables[1])
	assertEqual(t, "follow_up", tables[15])
}

func TestStoragePragmasApplied(t *testing.T) {
	conn := newTestConn(t)
	ctx := context.Background()

	check := func(t *testing.T) {
		t.Helper()
		db, err := conn.Acquire(ctx)
		assertNoError(t, err)

		var mode string
		assertNoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
		assertEqual(t, "wal", mode)

		pragmas := []struct {
			name     string
			expected int
		}{
			{"foreign_keys", 1},
			{"synchronous", 1}, // NORMAL
			{"temp_store", 2},  // MEMORY
			{"cache_size", -DefaultOptions().CacheSizeKB},
			{"busy_timeout", int(DefaultOptions().BusyTimeout.Milliseconds())},
		}
		for _, p := range pragmas {
			var got int
			assertNoError(t, db.QueryRow("PRAGMA "+p.name).Scan(&got))
			if got != p.expected {
				t.Errorf("PRAGMA %s = %d, expected %d", p.name, got, p.expected)
			}
		}
	}

	check(t)

	// A connection the pool replaces on its own must get the same settings
	db, err := conn.Acquire(ctx)
	assertNoError(t, err)
	db.SetConnMaxLifetime(time.Nanosecond)
	time.Sleep(time.Millisecond)
	check(t)
	db.SetConnMaxLifetime(0)
}

// ============================================================================
// Connection Tests
// ============================================================================

func TestAcquireReopensDeadHandle(t *testing.T) {
	repo := newTestRepo(t)
	conn := repo.Conn()
	ctx := context.Background()

	id, err := repo.Create(ctx, sampleEvaluation("Ana"))
	assertNoError(t, err)

	// Kill the handle underneath the manager
	conn.mu.RLock()
	conn.db.Close()
	conn.mu.RUnlock()

	got, err := repo.Find(ctx, id)
	assertNoError(t, err)
	assertEqual(t, "Ana", got.Patient.Name)
	assertEqual(t, 1, conn.Reopens())
}

func TestAcquireAfterClose(t *testing.T) {
	conn := newTestConn(t)
	assertNoError(t, conn.Close())

	_, err := conn.Acquire(context.Background())
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestWithWriteTxRollsBackOnError(t *testing.T) {
	conn := newTestConn(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := conn.WithWriteTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO patients (name) VALUES ('x')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	assertEqual(t, 0, countRows(t, conn, "patients"))
}

func TestWithWriteTxRollsBackOnPanic(t *testing.T) {
	conn := newTestConn(t)
	ctx := context.Background()

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		conn.WithWriteTx(ctx, func(tx *sql.Tx) error {
			tx.ExecContext(ctx, `INSERT INTO patients (name) VALUES ('x')`)
			panic("boom")
		})
	}()

	assertEqual(t, 0, countRows(t, conn, "patients"))

	// The write lock must have been released
	assertNoError(t, conn.WithWriteTx(ctx, func(tx *sql.Tx) error { return nil }))
}

// ============================================================================
// Repository Tests
// ============================================================================

func TestCreateAndFind(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	in := sampleEvaluation("Juan Pérez")
	id, err := repo.Create(ctx, in)
	assertNoError(t, err)
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	got, err := repo.Find(ctx, id)
	assertNoError(t, err)
	assertEqual(t, id, got.ID)
	if got.Patient.ID <= 0 {
		t.Fatalf("expected patient id, got %d", got.Patient.ID)
	}
	if got.CreatedAt == "" {
		t.Fatal("expected created_at to be populated")
	}
	assertEqual(t, in.ToFieldMap(), got.ToFieldMap())

	for _, table := range AggregateTables() {
		assertEqual(t, 1, countRows(t, repo.Conn(), table))
	}
}

func TestCreateEmptyEvaluation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, &domain.Evaluation{})
	assertNoError(t, err)

	got, err := repo.Find(ctx, id)
	assertNoError(t, err)
	assertEqual(t, "", got.Patient.Name)
	assertEqual(t, "", got.EvaluatedAt)
	assertEqual(t, 0, got.Pain.Score)
	assertEqual(t, []string{}, got.MuscleStrength.Grades)
}

func TestCreateIsAtomic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// pain_scale is the 11th section; its CHECK constraint fails after the
	// patient, the evaluation and ten sections were already inserted
	e := sampleEvaluation("Ana")
	e.Pain.Score = 11

	_, err := repo.Create(ctx, e)
	if err == nil {
		t.Fatal("expected constraint error")
	}

	for _, table := range AggregateTables() {
		assertEqual(t, 0, countRows(t, repo.Conn(), table))
	}
}

func TestFindNotFound(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.Find(context.Background(), 999999)
	assertNoError(t, err)
	assertNil(t, got)
}

func TestFindToleratesMissingSection(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, sampleEvaluation("Ana"))
	assertNoError(t, err)

	db, err := repo.Conn().Acquire(ctx)
	assertNoError(t, err)
	_, err = db.Exec(`DELETE FROM vital_signs WHERE evaluation_id = ?`, id)
	assertNoError(t, err)

	got, err := repo.Find(ctx, id)
	assertNoError(t, err)
	assertEqual(t, "Ana", got.Patient.Name)
	assertEqual(t, "", got.Vitals.BloodPressure)
	assertEqual(t, "Dolor lumbar", got.ClinicalHistory.Reason)
}

func TestFindMalformedGrades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, sampleEvaluation("Ana"))
	assertNoError(t, err)

	db, err := repo.Conn().Acquire(ctx)
	assertNoError(t, err)
	_, err = db.Exec(`UPDATE muscle_strength SET grades = '[broken' WHERE evaluation_id = ?`, id)
	assertNoError(t, err)

	got, err := repo.Find(ctx, id)
	assertNoError(t, err)
	assertEqual(t, []string{}, got.MuscleStrength.Grades)
	assertEqual(t, "Cuádriceps", got.MuscleStrength.MuscleGroup)
}

func TestReplace(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, sampleEvaluation("Ana"))
	assertNoError(t, err)

	next := &domain.Evaluation{}
	next.Patient.Name = "Ana María"
	next.EvaluatedAt = "2026-10-08"
	next.Pain.Score = 2
	next.MuscleStrength.Grades = []string{"5/5", "4/5"}

	ok, err := repo.Replace(ctx, id, next)
	assertNoError(t, err)
	assertEqual(t, true, ok)

	got, err := repo.Find(ctx, id)
	assertNoError(t, err)
	assertEqual(t, "Ana María", got.Patient.Name)
	assertEqual(t, "2026-10-08", got.EvaluatedAt)
	assertEqual(t, 2, got.Pain.Score)
	assertEqual(t, []string{"5/5", "4/5"}, got.MuscleStrength.Grades)

	// Absent values overwrite with empty
	assertEqual(t, "", got.Patient.Age)
	assertEqual(t, "", got.ClinicalHistory.Reason)
	assertEqual(t, "", got.FollowUp.NextVisit)

	for _, table := range AggregateTables() {
		assertEqual(t, 1, countRows(t, repo.Conn(), table))
	}
}

func TestReplaceNotFound(t *testing.T) {
	repo := newTestRepo(t)

	ok, err := repo.Replace(context.Background(), 999999, sampleEvaluation("Ana"))
	assertNoError(t, err)
	assertEqual(t, false, ok)
	assertEqual(t, 0, countRows(t, repo.Conn(), "patients"))
}

func TestReplaceIsAtomic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, sampleEvaluation("Ana"))
	assertNoError(t, err)

	bad := sampleEvaluation("Changed")
	bad.Pain.Score = -1
	if _, err := repo.Replace(ctx, id, bad); err == nil {
		t.Fatal("expected constraint error")
	}

	got, err := repo.Find(ctx, id)
	assertNoError(t, err)
	assertEqual(t, "Ana", got.Patient.Name)
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	keep, err := repo.Create(ctx, sampleEvaluation("Keep"))
	assertNoError(t, err)
	gone, err := repo.Create(ctx, sampleEvaluation("Gone"))
	assertNoError(t, err)

	ok, err := repo.Delete(ctx, gone)
	assertNoError(t, err)
	assertEqual(t, true, ok)

	got, err := repo.Find(ctx, gone)
	assertNoError(t, err)
	assertNil(t, got)

	db, err := repo.Conn().Acquire(ctx)
	assertNoError(t, err)
	for _, s := range sections {
		var n int
		assertNoError(t, db.QueryRow("SELECT COUNT(*) FROM "+s.name+" WHERE evaluation_id = ?", gone).Scan(&n))
		assertEqual(t, 0, n)
	}
	for _, table := range AggregateTables() {
		assertEqual(t, 1, countRows(t, repo.Conn(), table))
	}

	got, err = repo.Find(ctx, keep)
	assertNoError(t, err)
	assertEqual(t, "Keep", got.Patient.Name)
}

func TestDeleteNotFound(t *testing.T) {
	repo := newTestRepo(t)

	ok, err := repo.Delete(context.Background(), 999999)
	assertNoError(t, err)
	assertEqual(t, false, ok)
}

// ============================================================================
// List Tests
// ============================================================================

func TestListPaging(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 1; i <= 65; i++ {
		_, err := repo.Create(ctx, sampleEvaluation(fmt.Sprintf("Paciente %02d", i)))
		assertNoError(t, err)
	}

	page1, err := repo.List(ctx, domain.ListQuery{Page: 1})
	assertNoError(t, err)
	assertEqual(t, 30, len(page1))
	assertEqual(t, int64(65), page1[0].ID)
	assertEqual(t, int64(36), page1[29].ID)

	page2, err := repo.List(ctx, domain.ListQuery{Page: 2})
	assertNoError(t, err)
	assertEqual(t, 30, len(page2))
	assertEqual(t, int64(35), page2[0].ID)
	assertEqual(t, int64(6), page2[29].ID)

	page3, err := repo.List(ctx, domain.ListQuery{Page: 3})
	assertNoError(t, err)
	assertEqual(t, 5, len(page3))

	page4, err := repo.List(ctx, domain.ListQuery{Page: 4})
	assertNoError(t, err)
	assertEqual(t, 0, len(page4))
	if page4 == nil {
		t.Fatal("expected empty non-nil slice")
	}

	seen := map[int64]bool{}
	for _, p := range [][]domain.Summary{page1, page2, page3} {
		for _, s := range p {
			if seen[s.ID] {
				t.Fatalf("id %d appears on two pages", s.ID)
			}
			seen[s.ID] = true
		}
	}
	assertEqual(t, 65, len(seen))
}

func TestListSummaryFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, sampleEvaluation("Ana"))
	assertNoError(t, err)

	got, err := repo.List(ctx, domain.ListQuery{})
	assertNoError(t, err)
	assertEqual(t, []domain.Summary{{
		ID:            id,
		EvaluatedAt:   "2026-10-01",
		PatientName:   "Ana",
		PatientAge:    "45",
		PatientGender: "Masculino",
		NextVisit:     "2026-10-15",
	}}, got)
}

func TestListFilter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, name := range []string{"Ana López", "Mariana Ruiz", "Pedro Gómez", "ANABEL Soto", "100% Sano", "Ángela Núñez"} {
		_, err := repo.Create(ctx, sampleEvaluation(name))
		assertNoError(t, err)
	}

	tests := []struct {
		filter   string
		expected []string
	}{
		{"ana", []string{"ANABEL Soto", "Mariana Ruiz", "Ana López"}},
		{"PEDRO", []string{"Pedro Gómez"}},
		{"ángela", []string{"Ángela Núñez"}},
		{"ÁNGELA", []string{"Ángela Núñez"}},
		{"NÚÑEZ", []string{"Ángela Núñez"}},
		{"núñez", []string{"Ángela Núñez"}},
		{"GÓMEZ", []string{"Pedro Gómez"}},
		{"%", []string{"100% Sano"}},
		{"_", nil},
		{"nadie", nil},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			got, err := repo.List(ctx, domain.ListQuery{Filter: tt.filter})
			assertNoError(t, err)
			var names []string
			for _, s := range got {
				names = append(names, s.PatientName)
			}
			assertEqual(t, tt.expected, names)

			n, err := repo.Count(ctx, tt.filter)
			assertNoError(t, err)
			assertEqual(t, len(tt.expected), n)
		})
	}
}

func TestListLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := repo.Create(ctx, sampleEvaluation("Ana"))
		assertNoError(t, err)
	}

	got, err := repo.List(ctx, domain.ListQuery{Limit: 3, Page: 3})
	assertNoError(t, err)
	assertEqual(t, 3, len(got))
	assertEqual(t, int64(10), got[0].ID)
}

func TestCount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	n, err := repo.Count(ctx, "")
	assertNoError(t, err)
	assertEqual(t, 0, n)

	for i := 0; i < 4; i++ {
		_, err := repo.Create(ctx, sampleEvaluation("Ana"))
		assertNoError(t, err)
	}

	n, err = repo.Count(ctx, "")
	assertNoError(t, err)
	assertEqual(t, 4, n)
}

// ============================================================================
// Concurrency Tests
// ============================================================================

func TestConcurrentCreates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const writers = 8
	const perWriter = 5

	var wg sync.WaitGroup
	errs := make(chan error, writers*perWriter)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if _, err := repo.Create(ctx, sampleEvaluation(fmt.Sprintf("W%d-%d", w, i))); err != nil {
					errs <- err
				}
				if _, err := repo.List(ctx, domain.ListQuery{}); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent operation failed: %v", err)
	}

	for _, table := range AggregateTables() {
		assertEqual(t, writers*perWriter, countRows(t, repo.Conn(), table))
	}
}
