package cvtemplate_test

import (
	"strings"
	"testing"

	"cv-builder/internal/cvtemplate"
	"cv-builder/internal/model"
	"cv-builder/internal/samples"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, d model.CVData, id int) *goquery.Document {
	t.Helper()
	html, err := cvtemplate.Render(d, id, cvtemplate.Options{})
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func section(doc *goquery.Document, name string) *goquery.Selection {
	return doc.Find(`[data-section="` + name + `"]`)
}

func entries(doc *goquery.Document, name string) int {
	return section(doc, name).Find("[data-entry]").Length()
}

func TestTemplates(t *testing.T) {
	ls := cvtemplate.Templates()
	require.Len(t, ls, 4)
	for i, l := range ls {
		assert.Equal(t, i+1, l.ID)
		assert.NotEmpty(t, l.Name)
	}
}

func TestLookup_Fallback(t *testing.T) {
	l, ok := cvtemplate.Lookup(3)
	assert.True(t, ok)
	assert.Equal(t, "Professional", l.Name)

	for _, id := range []int{0, -1, 5, 99} {
		l, ok := cvtemplate.Lookup(id)
		assert.False(t, ok)
		assert.Equal(t, cvtemplate.DefaultTemplateID, l.ID)
	}
}

func TestRender_UnknownIDMatchesDefault(t *testing.T) {
	d := samples.SampleCV()
	want, err := cvtemplate.Render(d, cvtemplate.DefaultTemplateID, cvtemplate.Options{})
	require.NoError(t, err)
	for _, id := range []int{0, 7, -3} {
		got, err := cvtemplate.Render(d, id, cvtemplate.Options{})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestRender_Total(t *testing.T) {
	inputs := map[string]model.CVData{
		"zero":    {},
		"default": model.NewCVData(),
		"sample":  samples.SampleCV(),
	}
	for name, d := range inputs {
		for _, l := range cvtemplate.Templates() {
			t.Run(name+"/"+l.Name, func(t *testing.T) {
				html, err := cvtemplate.Render(d, l.ID, cvtemplate.Options{})
				require.NoError(t, err)
				assert.True(t, strings.HasPrefix(html, "<!doctype html>"))
				assert.Contains(t, html, "size: A4")
				assert.Contains(t, html, `<meta charset="utf-8">`)
			})
		}
	}
}

func TestRender_Idempotent(t *testing.T) {
	d := samples.SampleCV()
	for _, l := range cvtemplate.Templates() {
		a, err := cvtemplate.Render(d, l.ID, cvtemplate.Options{})
		require.NoError(t, err)
		b, err := cvtemplate.Render(d, l.ID, cvtemplate.Options{})
		require.NoError(t, err)
		assert.Equal(t, a, b, l.Name)
	}
}

func TestRender_Placeholders(t *testing.T) {
	for _, l := range cvtemplate.Templates() {
		t.Run(l.Name, func(t *testing.T) {
			doc := render(t, model.NewCVData(), l.ID)
			text := doc.Text()
			for _, p := range []string{
				cvtemplate.PlaceholderName,
				cvtemplate.PlaceholderTitle,
				cvtemplate.PlaceholderEmail,
				cvtemplate.PlaceholderPhone,
				cvtemplate.PlaceholderAddress,
				cvtemplate.PlaceholderPosition,
				cvtemplate.PlaceholderCompany,
				cvtemplate.PlaceholderPeriod,
				cvtemplate.PlaceholderDegree,
				cvtemplate.PlaceholderUniversity,
				cvtemplate.PlaceholderGradYear,
			} {
				assert.Contains(t, text, p)
			}
			assert.Zero(t, section(doc, "about").Length())
			assert.Zero(t, section(doc, "skills").Length())
			assert.Zero(t, section(doc, "languages").Length())
			assert.Zero(t, section(doc, "references").Length())
			assert.Zero(t, section(doc, "hobbies").Length())
			assert.Zero(t, doc.Find("img").Length())
		})
	}
}

func TestRender_Sample(t *testing.T) {
	d := samples.SampleCV()
	for _, l := range cvtemplate.Templates() {
		t.Run(l.Name, func(t *testing.T) {
			doc := render(t, d, l.ID)

			assert.Equal(t, 1, section(doc, "about").Length())
			assert.Equal(t, 3, entries(doc, "experience"))
			assert.Equal(t, 2, entries(doc, "education"))
			assert.Equal(t, 10, entries(doc, "skills"))
			assert.Equal(t, 3, entries(doc, "languages"))
			assert.Equal(t, 2, entries(doc, "references"))
			assert.Equal(t, 4, entries(doc, "hobbies"))

			src, ok := doc.Find("img.profile-img").Attr("src")
			require.True(t, ok)
			assert.Equal(t, *d.ProfileImage, src)

			exp := section(doc, "experience").Text()
			assert.Contains(t, exp, "TechCorp Solutions")
			assert.Contains(t, exp, "• San Francisco, CA")
			assert.Contains(t, exp, "• Remote")
			refs := section(doc, "references").Text()
			assert.Contains(t, refs, "📧 m.chen@techcorp.com")
			assert.Contains(t, refs, "📱 +1 (555) 987-6543")
		})
	}
}

func TestRender_ConcreteScenario(t *testing.T) {
	d := model.CVData{
		FullName:    "Sarah Johnson",
		JobTitle:    "Senior Frontend Developer",
		Experiences: []model.Experience{{Position: "Engineer", Company: "Acme"}},
		Education:   []model.Education{},
		Expertise:   []string{"TypeScript"},
		Languages:   []string{},
		References:  []model.Reference{{Name: "", Email: "x@example.com"}},
	}
	for _, l := range cvtemplate.Templates() {
		t.Run(l.Name, func(t *testing.T) {
			doc := render(t, d, l.ID)
			text := doc.Text()

			assert.Contains(t, text, "Sarah Johnson")
			assert.Contains(t, text, "Senior Frontend Developer")
			assert.Equal(t, 1, entries(doc, "experience"))
			assert.Zero(t, section(doc, "education").Length())
			assert.Equal(t, 1, section(doc, "skills").Length())
			assert.Contains(t, section(doc, "skills").Text(), "TypeScript")
			assert.Zero(t, section(doc, "references").Length())
			assert.NotContains(t, text, "x@example.com")
		})
	}
}

func TestRender_EntryDetails(t *testing.T) {
	d := model.NewCVData()
	d.Experiences = []model.Experience{
		{Position: "Dev", Company: "A", Period: "2020", Location: ""},
		{Position: "Lead", Company: "B", Period: "2021", Description: "Ran the team"},
	}
	for _, l := range cvtemplate.Templates() {
		t.Run(l.Name, func(t *testing.T) {
			doc := render(t, d, l.ID)
			exp := section(doc, "experience").Text()
			assert.NotContains(t, exp, "•", "no location, no separator")
			assert.Contains(t, exp, "Ran the team")
		})
	}
}

func TestRender_EscapesUserText(t *testing.T) {
	d := model.NewCVData()
	d.FullName = `<script>alert("x")</script>`
	d.About = `<b>bold</b> & more`
	for _, l := range cvtemplate.Templates() {
		html, err := cvtemplate.Render(d, l.ID, cvtemplate.Options{})
		require.NoError(t, err)
		assert.NotContains(t, html, "<script>")
		assert.Contains(t, html, "&lt;script&gt;")
		assert.NotContains(t, html, "<b>bold</b>")
	}
}

func TestRender_Direction(t *testing.T) {
	for _, l := range cvtemplate.Templates() {
		html, err := cvtemplate.Render(model.NewCVData(), l.ID, cvtemplate.Options{Direction: cvtemplate.RTL})
		require.NoError(t, err)
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		require.NoError(t, err)
		dir, _ := doc.Find("html").Attr("dir")
		lang, _ := doc.Find("html").Attr("lang")
		assert.Equal(t, "rtl", dir)
		assert.Equal(t, "ar", lang)
	}
}

func TestRender_HobbiesNeedFlag(t *testing.T) {
	d := samples.SampleCV().SetIncludeHobbies(false)
	for _, l := range cvtemplate.Templates() {
		doc := render(t, d, l.ID)
		assert.Zero(t, section(doc, "hobbies").Length(), l.Name)
	}
}
