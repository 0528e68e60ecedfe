package models

import (
	"strings"
	"time"
)

type Frequency string

const (
	FrequencyOnceDaily       Frequency = "once_daily"
	FrequencyTwiceDaily      Frequency = "twice_daily"
	FrequencyThreeTimesDaily Frequency = "three_times_daily"
	FrequencyFourTimesDaily  Frequency = "four_times_daily"
	FrequencyEveryOtherDay   Frequency = "every_other_day"
	FrequencyWeekly          Frequency = "weekly"
	FrequencyAsNeeded        Frequency = "as_needed"
)

var frequencyPhrases = []struct {
	freq    Frequency
	phrases []string
}{
	{FrequencyFourTimesDaily, []string{"four times", "4 times", "qid", "q.i.d", "every 6 hours"}},
	{FrequencyThreeTimesDaily, []string{"three times", "3 times", "thrice", "tid", "t.i.d", "every 8 hours"}},
	{FrequencyTwiceDaily, []string{"twice", "two times", "2 times", "bid", "b.i.d", "every 12 hours"}},
	{FrequencyEveryOtherDay, []string{"every other day", "alternate day", "alternate days"}},
	{FrequencyWeekly, []string{"weekly", "once a week", "every week"}},
	{FrequencyAsNeeded, []string{"as needed", "when needed", "prn", "sos", "if needed"}},
	{FrequencyOnceDaily, []string{"once", "daily", "od", "every day", "per day", "1 time", "at night", "morning"}},
}

// NormalizeFrequency maps free text onto the fixed frequency vocabulary.
// Unrecognized input is treated as as_needed.
func NormalizeFrequency(raw string) Frequency {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return FrequencyAsNeeded
	}
	s = strings.ReplaceAll(s, "-", "_")
	for _, f := range []Frequency{
		FrequencyOnceDaily, FrequencyTwiceDaily, FrequencyThreeTimesDaily, FrequencyFourTimesDaily,
		FrequencyEveryOtherDay, FrequencyWeekly, FrequencyAsNeeded,
	} {
		if s == string(f) {
			return f
		}
	}
	s = strings.ReplaceAll(s, "_", " ")
	words := " " + s + " "
	for _, entry := range frequencyPhrases {
		for _, p := range entry.phrases {
			if strings.Contains(words, " "+p+" ") || (len(p) > 4 && strings.Contains(s, p)) {
				return entry.freq
			}
		}
	}
	return FrequencyAsNeeded
}

type Medication struct {
	ID               string     `json:"id" db:"id" bson:"_id"`
	PatientID        string     `json:"patientId" db:"patient_id" bson:"patientId"`
	ReportID         *string    `json:"reportId,omitempty" db:"report_id" bson:"reportId,omitempty"`
	Name             string     `json:"name" db:"name" bson:"name"`
	Dosage           string     `json:"dosage" db:"dosage" bson:"dosage"`
	Frequency        Frequency  `json:"frequency" db:"frequency" bson:"frequency"`
	Instructions     string     `json:"instructions" db:"instructions" bson:"instructions"`
	SideEffects      string     `json:"sideEffects" db:"side_effects" bson:"sideEffects"`
	IsActive         bool       `json:"isActive" db:"is_active" bson:"isActive"`
	PrescriptionDate *time.Time `json:"prescriptionDate,omitempty" db:"prescription_date" bson:"prescriptionDate,omitempty"`
	StartDate        *time.Time `json:"startDate,omitempty" db:"start_date" bson:"startDate,omitempty"`
	EndDate          *time.Time `json:"endDate,omitempty" db:"end_date" bson:"endDate,omitempty"`
	CreatedAt        time.Time  `json:"createdAt" db:"created_at" bson:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt" db:"updated_at" bson:"updatedAt"`
}
