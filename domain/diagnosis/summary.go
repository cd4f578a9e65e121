package diagnosis

// ComorbidityCount is how many participants carry a disorder in one slot.
type ComorbidityCount struct {
	Diagnosis string  `json:"diagnosis" db:"diagnosis"`
	Count     int     `json:"count" db:"count"`
	Percent   float64 `json:"percent" db:"percent"`
	Category  string  `json:"category" db:"category"`
	Rank      string  `json:"rank" db:"rank"`
}

// DiagnosisCount is how often one diagnosis label occupies a slot.
type DiagnosisCount struct {
	Count            int    `json:"count"`
	Category         string `json:"category"`
	PrimaryDiagnosis string `json:"primary_diagnosis"`
}
