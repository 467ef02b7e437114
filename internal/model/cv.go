package model

import (
	"errors"
	"fmt"
	"strings"
)

// Go models matching cv.schema.json, used for validation and rendering.

var (
	ErrInvalidIndex = errors.New("index out of range")
	ErrUnknownField = errors.New("unknown field")
	ErrInvalidCV    = errors.New("invalid cv document")
	ErrLocalImage   = errors.New("profile image must be an http(s) or data:image URI")
)

type Experience struct {
	Position    string `json:"position"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Period      string `json:"period"`
	Description string `json:"description"`
}

type Education struct {
	Degree     string `json:"degree"`
	University string `json:"university"`
	Period     string `json:"period"`
}

type Reference struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// CVData is the whole content of one CV editing session. Every mutation
// helper returns a new value; the receiver is never modified.
type CVData struct {
	ProfileImage   *string      `json:"profileImage"`
	FullName       string       `json:"fullName"`
	JobTitle       string       `json:"jobTitle"`
	Phone          string       `json:"phone"`
	Email          string       `json:"email"`
	Address        string       `json:"address"`
	About          string       `json:"about"`
	Experiences    []Experience `json:"experiences"`
	Education      []Education  `json:"education"`
	Expertise      []string     `json:"expertise"`
	Languages      []string     `json:"languages"`
	References     []Reference  `json:"references"`
	IncludeHobbies bool         `json:"includeHobbies"`
	Hobbies        []string     `json:"hobbies"`
}

// NewCVData returns the value a fresh builder starts from: one blank
// experience, education and reference entry.
func NewCVData() CVData {
	return CVData{
		Experiences: []Experience{{}},
		Education:   []Education{{}},
		Expertise:   []string{},
		Languages:   []string{},
		References:  []Reference{{}},
		Hobbies:     []string{},
	}
}

func (d CVData) Clone() CVData {
	out := d
	if d.ProfileImage != nil {
		img := *d.ProfileImage
		out.ProfileImage = &img
	}
	out.Experiences = copySlice(d.Experiences)
	out.Education = copySlice(d.Education)
	out.Expertise = copySlice(d.Expertise)
	out.Languages = copySlice(d.Languages)
	out.References = copySlice(d.References)
	out.Hobbies = copySlice(d.Hobbies)
	return out
}

// copySlice keeps the nil/empty distinction so JSON output is stable.
func copySlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// HasReferences reports whether at least one reference has a name.
// Renderers drop references without one.
func (d CVData) HasReferences() bool {
	for _, r := range d.References {
		if r.Name != "" {
			return true
		}
	}
	return false
}

// NamedReferences returns the references that will be rendered.
func (d CVData) NamedReferences() []Reference {
	out := make([]Reference, 0, len(d.References))
	for _, r := range d.References {
		if r.Name != "" {
			out = append(out, r)
		}
	}
	return out
}

// WithField sets one of the scalar text fields by its JSON name.
func (d CVData) WithField(field, value string) (CVData, error) {
	out := d.Clone()
	switch field {
	case "fullName":
		out.FullName = value
	case "jobTitle":
		out.JobTitle = value
	case "phone":
		out.Phone = value
	case "email":
		out.Email = value
	case "address":
		out.Address = value
	case "about":
		out.About = value
	default:
		return d, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return out, nil
}

func (d CVData) SetProfileImage(src *string) CVData {
	out := d.Clone()
	out.ProfileImage = nil
	if src != nil {
		s := *src
		out.ProfileImage = &s
	}
	return out
}

func (d CVData) SetIncludeHobbies(include bool) CVData {
	out := d.Clone()
	out.IncludeHobbies = include
	return out
}

func (d CVData) AddExperience() CVData {
	out := d.Clone()
	out.Experiences = append(out.Experiences, Experience{})
	return out
}

func (d CVData) UpdateExperience(index int, field, value string) (CVData, error) {
	if index < 0 || index >= len(d.Experiences) {
		return d, fmt.Errorf("experience %d: %w", index, ErrInvalidIndex)
	}
	out := d.Clone()
	e := &out.Experiences[index]
	switch field {
	case "position":
		e.Position = value
	case "company":
		e.Company = value
	case "location":
		e.Location = value
	case "period":
		e.Period = value
	case "description":
		e.Description = value
	default:
		return d, fmt.Errorf("%w: experience.%s", ErrUnknownField, field)
	}
	return out, nil
}

func (d CVData) RemoveExperience(index int) (CVData, error) {
	if index < 0 || index >= len(d.Experiences) {
		return d, fmt.Errorf("experience %d: %w", index, ErrInvalidIndex)
	}
	out := d.Clone()
	out.Experiences = append(out.Experiences[:index], out.Experiences[index+1:]...)
	return out, nil
}

func (d CVData) AddEducation() CVData {
	out := d.Clone()
	out.Education = append(out.Education, Education{})
	return out
}

func (d CVData) UpdateEducation(index int, field, value string) (CVData, error) {
	if index < 0 || index >= len(d.Education) {
		return d, fmt.Errorf("education %d: %w", index, ErrInvalidIndex)
	}
	out := d.Clone()
	e := &out.Education[index]
	switch field {
	case "degree":
		e.Degree = value
	case "university":
		e.University = value
	case "period":
		e.Period = value
	default:
		return d, fmt.Errorf("%w: education.%s", ErrUnknownField, field)
	}
	return out, nil
}

func (d CVData) RemoveEducation(index int) (CVData, error) {
	if index < 0 || index >= len(d.Education) {
		return d, fmt.Errorf("education %d: %w", index, ErrInvalidIndex)
	}
	out := d.Clone()
	out.Education = append(out.Education[:index], out.Education[index+1:]...)
	return out, nil
}

func (d CVData) AddReference() CVData {
	out := d.Clone()
	out.References = append(out.References, Reference{})
	return out
}

func (d CVData) UpdateReference(index int, field, value string) (CVData, error) {
	if index < 0 || index >= len(d.References) {
		return d, fmt.Errorf("reference %d: %w", index, ErrInvalidIndex)
	}
	out := d.Clone()
	r := &out.References[index]
	switch field {
	case "name":
		r.Name = value
	case "position":
		r.Position = value
	case "phone":
		r.Phone = value
	case "email":
		r.Email = value
	default:
		return d, fmt.Errorf("%w: reference.%s", ErrUnknownField, field)
	}
	return out, nil
}

func (d CVData) RemoveReference(index int) (CVData, error) {
	if index < 0 || index >= len(d.References) {
		return d, fmt.Errorf("reference %d: %w", index, ErrInvalidIndex)
	}
	out := d.Clone()
	out.References = append(out.References[:index], out.References[index+1:]...)
	return out, nil
}

// AddExpertise appends a trimmed skill label. Blank input leaves d unchanged;
// duplicates are allowed.
func (d CVData) AddExpertise(label string) CVData {
	label = strings.TrimSpace(label)
	if label == "" {
		return d
	}
	out := d.Clone()
	out.Expertise = append(out.Expertise, label)
	return out
}

func (d CVData) AddLanguage(label string) CVData {
	label = strings.TrimSpace(label)
	if label == "" {
		return d
	}
	out := d.Clone()
	out.Languages = append(out.Languages, label)
	return out
}

func (d CVData) AddHobby(label string) CVData {
	label = strings.TrimSpace(label)
	if label == "" {
		return d
	}
	out := d.Clone()
	out.Hobbies = append(out.Hobbies, label)
	return out
}

func (d CVData) RemoveExpertise(index int) (CVData, error) {
	if index < 0 || index >= len(d.Expertise) {
		return d, fmt.Errorf("expertise %d: %w", index, ErrInvalidIndex)
	}
	out := d.Clone()
	out.Expertise = append(out.Expertise[:index], out.Expertise[index+1:]...)
	return out, nil
}

func (d CVData) RemoveLanguage(index int) (CVData, error) {
	if index < 0 || index >= len(d.Languages) {
		return d, fmt.Errorf("language %d: %w", index, ErrInvalidIndex)
	}
	out := d.Clone()
	out.Languages = append(out.Languages[:index], out.Languages[index+1:]...)
	return out, nil
}

func (d CVData) RemoveHobby(index int) (CVData, error) {
	if index < 0 || index >= len(d.Hobbies) {
		return d, fmt.Errorf("hobby %d: %w", index, ErrInvalidIndex)
	}
	out := d.Clone()
	out.Hobbies = append(out.Hobbies[:index], out.Hobbies[index+1:]...)
	return out, nil
}
