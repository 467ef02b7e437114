package cvtemplate

import (
	"html/template"
	"net/url"
	"strings"

	"cv-builder/internal/model"
)

// Placeholders shown when a header or entry field is blank.
const (
	PlaceholderName       = "Your Full Name"
	PlaceholderTitle      = "Professional Title"
	PlaceholderEmail      = "email@example.com"
	PlaceholderPhone      = "+1 (555) 000-0000"
	PlaceholderAddress    = "City, State, Country"
	PlaceholderPosition   = "Position Title"
	PlaceholderCompany    = "Company Name"
	PlaceholderPeriod     = "Start Date - End Date"
	PlaceholderDegree     = "Degree Title"
	PlaceholderUniversity = "University Name"
	PlaceholderGradYear   = "Graduation Year"
)

type Header struct {
	Name    string
	Title   string
	Email   string
	Phone   string
	Address string
	// Image is empty when there is no usable profile image.
	Image template.URL
}

type ExperienceEntry struct {
	Position    string
	Company     string
	Period      string
	Location    string
	Description string
}

type EducationEntry struct {
	Degree     string
	University string
	Period     string
}

// Sections is the render model every layout executes against. A nil or
// empty field means the section is left out entirely.
type Sections struct {
	Dir         Direction
	Lang        string
	Header      Header
	About       string
	Experiences []ExperienceEntry
	Education   []EducationEntry
	Skills      []string
	Languages   []string
	References  []model.Reference
	Hobbies     []string
}

// HasCompetencies is used by layouts that group skills and languages
// under one heading.
func (s Sections) HasCompetencies() bool {
	return len(s.Skills) > 0 || len(s.Languages) > 0
}

// BuildSections applies the section inclusion rules and placeholders once,
// so that the four layouts cannot disagree about what is shown.
func BuildSections(d model.CVData, opts Options) Sections {
	opts = opts.normalized()
	s := Sections{
		Dir:  opts.Direction,
		Lang: opts.Lang,
		Header: Header{
			Name:    or(d.FullName, PlaceholderName),
			Title:   or(d.JobTitle, PlaceholderTitle),
			Email:   or(d.Email, PlaceholderEmail),
			Phone:   or(d.Phone, PlaceholderPhone),
			Address: or(d.Address, PlaceholderAddress),
			Image:   imageURL(d.ProfileImage, opts.LocalImages),
		},
		About: d.About,
	}

	for _, e := range d.Experiences {
		s.Experiences = append(s.Experiences, ExperienceEntry{
			Position:    or(e.Position, PlaceholderPosition),
			Company:     or(e.Company, PlaceholderCompany),
			Period:      or(e.Period, PlaceholderPeriod),
			Location:    e.Location,
			Description: e.Description,
		})
	}
	for _, e := range d.Education {
		s.Education = append(s.Education, EducationEntry{
			Degree:     or(e.Degree, PlaceholderDegree),
			University: or(e.University, PlaceholderUniversity),
			Period:     or(e.Period, PlaceholderGradYear),
		})
	}
	if len(d.Expertise) > 0 {
		s.Skills = append([]string(nil), d.Expertise...)
	}
	if len(d.Languages) > 0 {
		s.Languages = append([]string(nil), d.Languages...)
	}
	if refs := d.NamedReferences(); len(refs) > 0 {
		s.References = refs
	}
	if d.IncludeHobbies && len(d.Hobbies) > 0 {
		s.Hobbies = append([]string(nil), d.Hobbies...)
	}
	return s
}

func or(v, placeholder string) string {
	if v == "" {
		return placeholder
	}
	return v
}

// imageURL returns src only for schemes a PDF engine can load offline or
// over http. file:// needs local. Anything else drops the image.
func imageURL(src *string, local bool) template.URL {
	if src == nil {
		return ""
	}
	v := strings.TrimSpace(*src)
	if v == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(v), "data:image/") {
		return template.URL(v)
	}
	u, err := url.Parse(v)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return template.URL(v)
	case "file":
		if local {
			return template.URL(v)
		}
	}
	return ""
}
