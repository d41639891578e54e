package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrNotFound is returned when an evaluation id does not exist.
	ErrNotFound = errors.New("evaluation not found")
	// ErrInvalidField is returned when a field map value cannot be coerced
	// to the kind of its field.
	ErrInvalidField = errors.New("invalid field value")
)

// FieldMap is the flat, logical-name keyed form of an evaluation used by
// forms, JSON documents and the Save/Get/Update boundary.
type FieldMap map[string]any

// Logical field names. These are the labels the practice's forms use and
// they double as JSON keys, so they must never change.
const (
	FieldPatientName  = "Nombre Completo"
	FieldPatientAge   = "Edad"
	FieldGender       = "Género"
	FieldContact      = "Contacto"
	FieldBirthDate    = "Fecha de Nacimiento"
	FieldConsultArea  = "Área de Consulta"
	FieldAllergies    = "Alergias"
	FieldEvaluatedAt  = "Fecha de Evaluación"
	FieldPractitioner = "Fisioterapeuta"
	FieldNote         = "Nota"

	FieldReason          = "Motivo de Consulta"
	FieldPersonalHistory = "Antecedentes Personales"
	FieldFamilyHistory   = "Antecedentes Familiares"
	FieldMedications     = "Medicamentos"
	FieldPriorSurgeries  = "Cirugías Previas"

	FieldBloodPressure    = "Presión Arterial"
	FieldHeartRate        = "Frecuencia Cardíaca"
	FieldRespiratoryRate  = "Frecuencia Respiratoria"
	FieldTemperature      = "Temperatura"
	FieldOxygenSaturation = "Saturación O2"
	FieldWeight           = "Peso"
	FieldHeight           = "Talla"

	FieldInspection = "Inspección"
	FieldPalpation  = "Palpación"
	FieldEdema      = "Edema"

	FieldCervical = "Columna Cervical"
	FieldThoracic = "Columna Dorsal"
	FieldLumbar   = "Columna Lumbar"
	FieldPosture  = "Postura"

	FieldJoint        = "Articulación Evaluada"
	FieldActiveRange  = "Rango Activo"
	FieldPassiveRange = "Rango Pasivo"
	FieldLimitations  = "Limitaciones"

	FieldMuscleGroup    = "Grupo Muscular"
	FieldStrengthGrades = "grados_fuerza"
	FieldStrengthNotes  = "Observaciones Fuerza"

	FieldReflexes    = "Reflejos"
	FieldSensitivity = "Sensibilidad"
	FieldTone        = "Tono Muscular"

	FieldGait            = "Marcha"
	FieldBalance         = "Equilibrio"
	FieldDailyActivities = "Actividades Diarias"

	FieldFineCoordination  = "Coordinación Fina"
	FieldGrossCoordination = "Coordinación Gruesa"
	FieldCoordinationTests = "Pruebas de Coordinación"

	FieldSpecialTests = "Pruebas Especiales"
	FieldTestResults  = "Resultados Pruebas"

	FieldPainScore       = "escala_eva"
	FieldPainDescription = "Descripción del Dolor"
	FieldPainLocation    = "Localización del Dolor"

	FieldPhysioDiagnosis  = "Diagnóstico Fisioterapéutico"
	FieldMedicalDiagnosis = "Diagnóstico Médico"
	FieldICDCode          = "CIE-10"

	FieldGoals         = "Objetivos"
	FieldInterventions = "Intervenciones"
	FieldFrequency     = "Frecuencia de Sesiones"
	FieldDuration      = "Duración del Tratamiento"

	FieldNextVisit       = "Próxima Cita"
	FieldProgress        = "Evolución"
	FieldRecommendations = "Recomendaciones"
)

// FieldKind is the value shape a logical field carries in a FieldMap.
type FieldKind int

const (
	KindText FieldKind = iota
	KindInt
	KindList
)

// binding ties one logical name to one member of Evaluation. Exactly one of
// text, num or list is set, according to kind.
type binding struct {
	name string
	kind FieldKind
	text func(*Evaluation) *string
	num  func(*Evaluation) *int
	list func(*Evaluation) *[]string
}

func textField(name string, fn func(*Evaluation) *string) binding {
	return binding{name: name, kind: KindText, text: fn}
}

var bindings = []binding{
	textField(FieldPatientName, func(e *Evaluation) *string { return &e.Patient.Name }),
	textField(FieldPatientAge, func(e *Evaluation) *string { return &e.Patient.Age }),
	textField(FieldGender, func(e *Evaluation) *string { return &e.Patient.Gender }),
	textField(FieldContact, func(e *Evaluation) *string { return &e.Patient.Contact }),
	textField(FieldBirthDate, func(e *Evaluation) *string { return &e.Patient.BirthDate }),
	textField(FieldConsultArea, func(e *Evaluation) *string { return &e.Patient.ConsultArea }),
	textField(FieldAllergies, func(e *Evaluation) *string { return &e.Patient.Allergies }),
	textField(FieldEvaluatedAt, func(e *Evaluation) *string { return &e.EvaluatedAt }),
	textField(FieldPractitioner, func(e *Evaluation) *string { return &e.Practitioner }),
	textField(FieldNote, func(e *Evaluation) *string { return &e.Note }),

	textField(FieldReason, func(e *Evaluation) *string { return &e.ClinicalHistory.Reason }),
	textField(FieldPersonalHistory, func(e *Evaluation) *string { return &e.ClinicalHistory.PersonalHistory }),
	textField(FieldFamilyHistory, func(e *Evaluation) *string { return &e.ClinicalHistory.FamilyHistory }),
	textField(FieldMedications, func(e *Evaluation) *string { return &e.ClinicalHistory.Medications }),
	textField(FieldPriorSurgeries, func(e *Evaluation) *string { return &e.ClinicalHistory.PriorSurgeries }),

	textField(FieldBloodPressure, func(e *Evaluation) *string { return &e.Vitals.BloodPressure }),
	textField(FieldHeartRate, func(e *Evaluation) *string { return &e.Vitals.HeartRate }),
	textField(FieldRespiratoryRate, func(e *Evaluation) *string { return &e.Vitals.RespiratoryRate }),
	textField(FieldTemperature, func(e *Evaluation) *string { return &e.Vitals.Temperature }),
	textField(FieldOxygenSaturation, func(e *Evaluation) *string { return &e.Vitals.OxygenSaturation }),
	textField(FieldWeight, func(e *Evaluation) *string { return &e.Vitals.Weight }),
	textField(FieldHeight, func(e *Evaluation) *string { return &e.Vitals.Height }),

	textField(FieldInspection, func(e *Evaluation) *string { return &e.InspectionPalpation.Inspection }),
	textField(FieldPalpation, func(e *Evaluation) *string { return &e.InspectionPalpation.Palpation }),
	textField(FieldEdema, func(e *Evaluation) *string { return &e.InspectionPalpation.Edema }),

	textField(FieldCervical, func(e *Evaluation) *string { return &e.Spine.Cervical }),
	textField(FieldThoracic, func(e *Evaluation) *string { return &e.Spine.Thoracic }),
	textField(FieldLumbar, func(e *Evaluation) *string { return &e.Spine.Lumbar }),
	textField(FieldPosture, func(e *Evaluation) *string { return &e.Spine.Posture }),

	textField(FieldJoint, func(e *Evaluation) *string { return &e.JointMobility.Joint }),
	textField(FieldActiveRange, func(e *Evaluation) *string { return &e.JointMobility.ActiveRange }),
	textField(FieldPassiveRange, func(e *Evaluation) *string { return &e.JointMobility.PassiveRange }),
	textField(FieldLimitations, func(e *Evaluation) *string { return &e.JointMobility.Limitations }),

	textField(FieldMuscleGroup, func(e *Evaluation) *string { return &e.MuscleStrength.MuscleGroup }),
	{name: FieldStrengthGrades, kind: KindList, list: func(e *Evaluation) *[]string { return &e.MuscleStrength.Grades }},
	textField(FieldStrengthNotes, func(e *Evaluation) *string { return &e.MuscleStrength.Notes }),

	textField(FieldReflexes, func(e *Evaluation) *string { return &e.Neuromuscular.Reflexes }),
	textField(FieldSensitivity, func(e *Evaluation) *string { return &e.Neuromuscular.Sensitivity }),
	textField(FieldTone, func(e *Evaluation) *string { return &e.Neuromuscular.Tone }),

	textField(FieldGait, func(e *Evaluation) *string { return &e.Functional.Gait }),
	textField(FieldBalance, func(e *Evaluation) *string { return &e.Functional.Balance }),
	textField(FieldDailyActivities, func(e *Evaluation) *string { return &e.Functional.DailyActivities }),

	textField(FieldFineCoordination, func(e *Evaluation) *string { return &e.Coordination.Fine }),
	textField(FieldGrossCoordination, func(e *Evaluation) *string { return &e.Coordination.Gross }),
	textField(FieldCoordinationTests, func(e *Evaluation) *string { return &e.Coordination.Tests }),

	textField(FieldSpecialTests, func(e *Evaluation) *string { return &e.SpecificTests.Tests }),
	textField(FieldTestResults, func(e *Evaluation) *string { return &e.SpecificTests.Results }),

	{name: FieldPainScore, kind: KindInt, num: func(e *Evaluation) *int { return &e.Pain.Score }},
	textField(FieldPainDescription, func(e *Evaluation) *string { return &e.Pain.Description }),
	textField(FieldPainLocation, func(e *Evaluation) *string { return &e.Pain.Location }),

	textField(FieldPhysioDiagnosis, func(e *Evaluation) *string { return &e.Diagnosis.Physiotherapy }),
	textField(FieldMedicalDiagnosis, func(e *Evaluation) *string { return &e.Diagnosis.Medical }),
	textField(FieldICDCode, func(e *Evaluation) *string { return &e.Diagnosis.ICDCode }),

	textField(FieldGoals, func(e *Evaluation) *string { return &e.Treatment.Goals }),
	textField(FieldInterventions, func(e *Evaluation) *string { return &e.Treatment.Interventions }),
	textField(FieldFrequency, func(e *Evaluation) *string { return &e.Treatment.Frequency }),
	textField(FieldDuration, func(e *Evaluation) *string { return &e.Treatment.Duration }),

	textField(FieldNextVisit, func(e *Evaluation) *string { return &e.FollowUp.NextVisit }),
	textField(FieldProgress, func(e *Evaluation) *string { return &e.FollowUp.Progress }),
	textField(FieldRecommendations, func(e *Evaluation) *string { return &e.FollowUp.Recommendations }),
}

var bindingIndex = func() map[string]int {
	idx := make(map[string]int, len(bindings))
	for i, b := range bindings {
		idx[b.name] = i
	}
	return idx
}()

// FieldNames returns every logical field name in form order.
func FieldNames() []string {
	names := make([]string, len(bindings))
	for i, b := range bindings {
		names[i] = b.name
	}
	return names
}

// KindOf reports the value kind of a logical field. ok is false for names
// outside the contract.
func KindOf(name string) (kind FieldKind, ok bool) {
	i, ok := bindingIndex[name]
	if !ok {
		return KindText, false
	}
	return bindings[i].kind, true
}

// FromFieldMap builds a typed evaluation from a field map. Missing keys keep
// their zero value and unknown keys are ignored.
func FromFieldMap(m FieldMap) (*Evaluation, error) {
	e := &Evaluation{}
	for _, b := range bindings {
		raw, ok := m[b.name]
		if !ok {
			continue
		}
		switch b.kind {
		case KindText:
			s, err := coerceText(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidField, b.name, err)
			}
			*b.text(e) = s
		case KindInt:
			n, err := coerceInt(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidField, b.name, err)
			}
			*b.num(e) = n
		case KindList:
			l, err := coerceList(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidField, b.name, err)
			}
			*b.list(e) = l
		}
	}
	return e, nil
}

// ToFieldMap flattens an evaluation. Every logical name is present in the
// result; text fields are strings, the pain score an int and the grades a
// non-nil []string.
func (e *Evaluation) ToFieldMap() FieldMap {
	m := make(FieldMap, len(bindings))
	for _, b := range bindings {
		switch b.kind {
		case KindText:
			m[b.name] = *b.text(e)
		case KindInt:
			m[b.name] = *b.num(e)
		case KindList:
			src := *b.list(e)
			l := make([]string, len(src))
			copy(l, src)
			m[b.name] = l
		}
	}
	return m
}

func coerceText(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case fmt.Stringer:
		return t.String(), nil
	}
	return "", fmt.Errorf("unsupported type %T", v)
}

func coerceInt(v any) (int, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case int:
		return t, nil
	case int32:
		return int(t), nil
	case int64:
		return int(t), nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("%v is not an integer", t)
		}
		return int(t), nil
	case json.Number:
		return coerceInt(t.String())
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", t)
		}
		return n, nil
	}
	return 0, fmt.Errorf("unsupported type %T", v)
}

func coerceList(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return []string{}, nil
	case []string:
		l := make([]string, len(t))
		copy(l, t)
		return l, nil
	case []any:
		l := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("list item %v is %T, want string", item, item)
			}
			l = append(l, s)
		}
		return l, nil
	case string:
		return DecodeGrades(t), nil
	}
	return nil, fmt.Errorf("unsupported type %T", v)
}

// DecodeGrades parses the stored JSON form of the strength grade list.
// Empty or malformed text yields an empty list so that one damaged column
// never hides the rest of the record.
func DecodeGrades(s string) []string {
	grades := []string{}
	if strings.TrimSpace(s) == "" {
		return grades
	}
	if err := json.Unmarshal([]byte(s), &grades); err != nil || grades == nil {
		return []string{}
	}
	return grades
}

// EncodeGrades returns the stored JSON form of the strength grade list.
func EncodeGrades(grades []string) string {
	if grades == nil {
		grades = []string{}
	}
	data, err := json.Marshal(grades)
	if err != nil {
		return "[]"
	}
	return string(data)
}
