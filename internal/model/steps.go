package model

import "fmt"

const (
	StepPersonal = iota + 1
	StepExperience
	StepEducation
	StepSkills
	StepReferences
	StepPreview
)

// FinalStep is the only step from which an export may start.
const FinalStep = StepPreview

var stepTitles = map[int]string{
	StepPersonal:   "Personal Information",
	StepExperience: "Experience",
	StepEducation:  "Education",
	StepSkills:     "Skills & Languages",
	StepReferences: "References",
	StepPreview:    "Preview",
}

func StepTitle(step int) string {
	return stepTitles[step]
}

func ValidStep(step int) bool {
	return step >= StepPersonal && step <= FinalStep
}

// StepValidationResult holds advisory validation state for a form step.
// Nothing blocks navigation or rendering on it; renderers substitute
// placeholders for whatever is missing.
type StepValidationResult struct {
	Step    int      `json:"step"`
	Title   string   `json:"title"`
	Valid   bool     `json:"valid"`
	Missing []string `json:"missing"`
	Error   string   `json:"error,omitempty"`
}

// ValidateStep reports which fields of the given step are still blank.
func ValidateStep(step int, d CVData) *StepValidationResult {
	result := &StepValidationResult{
		Step:    step,
		Title:   StepTitle(step),
		Valid:   true,
		Missing: []string{},
	}
	miss := func(field string) {
		result.Valid = false
		result.Missing = append(result.Missing, field)
	}

	switch step {
	case StepPersonal:
		if d.FullName == "" {
			miss("fullName")
		}
		if d.JobTitle == "" {
			miss("jobTitle")
		}
		if d.Email == "" {
			miss("email")
		}
		if d.Phone == "" {
			miss("phone")
		}
	case StepExperience:
		if len(d.Experiences) == 0 {
			miss("experiences")
		}
		for i, e := range d.Experiences {
			if e.Position == "" {
				miss(fmt.Sprintf("experiences[%d].position", i))
			}
			if e.Company == "" {
				miss(fmt.Sprintf("experiences[%d].company", i))
			}
		}
	case StepEducation:
		if len(d.Education) == 0 {
			miss("education")
		}
		for i, e := range d.Education {
			if e.Degree == "" {
				miss(fmt.Sprintf("education[%d].degree", i))
			}
			if e.University == "" {
				miss(fmt.Sprintf("education[%d].university", i))
			}
		}
	case StepSkills:
		if len(d.Expertise) == 0 {
			miss("expertise")
		}
		if len(d.Languages) == 0 {
			miss("languages")
		}
		if d.IncludeHobbies && len(d.Hobbies) == 0 {
			miss("hobbies")
		}
	case StepReferences:
		if !d.HasReferences() {
			miss("references")
		}
	case StepPreview:
		for s := StepPersonal; s < StepPreview; s++ {
			if r := ValidateStep(s, d); !r.Valid {
				result.Valid = false
				result.Missing = append(result.Missing, r.Missing...)
			}
		}
	default:
		result.Valid = false
		result.Error = fmt.Sprintf("unknown step %d", step)
	}
	return result
}
