package domain

// Patient is the identity block of an evaluation. A new patient row is
// written for every saved evaluation; rows are never shared.
type Patient struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Age         string `json:"age"`
	Gender      string `json:"gender"`
	Contact     string `json:"contact"`
	BirthDate   string `json:"birth_date"`
	ConsultArea string `json:"consult_area"`
	Allergies   string `json:"allergies"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// ClinicalHistory holds the anamnesis section.
type ClinicalHistory struct {
	Reason          string `json:"reason"`
	PersonalHistory string `json:"personal_history"`
	FamilyHistory   string `json:"family_history"`
	Medications     string `json:"medications"`
	PriorSurgeries  string `json:"prior_surgeries"`
}

// VitalSigns holds the physical exam vitals.
type VitalSigns struct {
	BloodPressure    string `json:"blood_pressure"`
	HeartRate        string `json:"heart_rate"`
	RespiratoryRate  string `json:"respiratory_rate"`
	Temperature      string `json:"temperature"`
	OxygenSaturation string `json:"oxygen_saturation"`
	Weight           string `json:"weight"`
	Height           string `json:"height"`
}

type InspectionPalpation struct {
	Inspection string `json:"inspection"`
	Palpation  string `json:"palpation"`
	Edema      string `json:"edema"`
}

type Spine struct {
	Cervical string `json:"cervical"`
	Thoracic string `json:"thoracic"`
	Lumbar   string `json:"lumbar"`
	Posture  string `json:"posture"`
}

type JointMobility struct {
	Joint        string `json:"joint"`
	ActiveRange  string `json:"active_range"`
	PassiveRange string `json:"passive_range"`
	Limitations  string `json:"limitations"`
}

// MuscleStrength carries the only list-valued field of the aggregate: the
// selected grade labels, persisted as a JSON array.
type MuscleStrength struct {
	MuscleGroup string   `json:"muscle_group"`
	Grades      []string `json:"grades"`
	Notes       string   `json:"notes"`
}

type Neuromuscular struct {
	Reflexes    string `json:"reflexes"`
	Sensitivity string `json:"sensitivity"`
	Tone        string `json:"tone"`
}

type FunctionalCapacity struct {
	Gait            string `json:"gait"`
	Balance         string `json:"balance"`
	DailyActivities string `json:"daily_activities"`
}

type Coordination struct {
	Fine  string `json:"fine"`
	Gross string `json:"gross"`
	Tests string `json:"tests"`
}

type SpecificTests struct {
	Tests   string `json:"tests"`
	Results string `json:"results"`
}

// PainScale stores the visual analogue scale score (0-10).
type PainScale struct {
	Score       int    `json:"score"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

type Diagnosis struct {
	Physiotherapy string `json:"physiotherapy"`
	Medical       string `json:"medical"`
	ICDCode       string `json:"icd_code"`
}

type TreatmentPlan struct {
	Goals         string `json:"goals"`
	Interventions string `json:"interventions"`
	Frequency     string `json:"frequency"`
	Duration      string `json:"duration"`
}

type FollowUp struct {
	NextVisit       string `json:"next_visit"`
	Progress        string `json:"progress"`
	Recommendations string `json:"recommendations"`
}

// Evaluation is the aggregate root: the evaluation header plus its patient
// and the 14 owned sections. It is persisted and destroyed as one unit.
type Evaluation struct {
	ID           int64   `json:"id,omitempty"`
	Patient      Patient `json:"patient"`
	EvaluatedAt  string  `json:"evaluated_at"`
	Practitioner string  `json:"practitioner"`
	Note         string  `json:"note"`
	CreatedAt    string  `json:"created_at,omitempty"`

	ClinicalHistory     ClinicalHistory     `json:"clinical_history"`
	Vitals              VitalSigns          `json:"vitals"`
	InspectionPalpation InspectionPalpation `json:"inspection_palpation"`
	Spine               Spine               `json:"spine"`
	JointMobility       JointMobility       `json:"joint_mobility"`
	MuscleStrength      MuscleStrength      `json:"muscle_strength"`
	Neuromuscular       Neuromuscular       `json:"neuromuscular"`
	Functional          FunctionalCapacity  `json:"functional"`
	Coordination        Coordination        `json:"coordination"`
	SpecificTests       SpecificTests       `json:"specific_tests"`
	Pain                PainScale           `json:"pain"`
	Diagnosis           Diagnosis           `json:"diagnosis"`
	Treatment           TreatmentPlan       `json:"treatment"`
	FollowUp            FollowUp            `json:"follow_up"`
}

// Summary is the lean list-view projection of an evaluation.
type Summary struct {
	ID            int64  `json:"id"`
	EvaluatedAt   string `json:"evaluated_at"`
	PatientName   string `json:"patient_name"`
	PatientAge    string `json:"patient_age"`
	PatientGender string `json:"patient_gender"`
	NextVisit     string `json:"next_visit"`
}

// MinPainScore and MaxPainScore bound the visual analogue scale.
const (
	MinPainScore = 0
	MaxPainScore = 10
)
