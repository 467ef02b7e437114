package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCVData_Defaults(t *testing.T) {
	d := NewCVData()

	assert.Len(t, d.Experiences, 1)
	assert.Len(t, d.Education, 1)
	assert.Len(t, d.References, 1)
	assert.Empty(t, d.Expertise)
	assert.Empty(t, d.Languages)
	assert.Empty(t, d.Hobbies)
	assert.Nil(t, d.ProfileImage)
	assert.False(t, d.IncludeHobbies)
	assert.False(t, d.HasReferences())
}

func TestWithField(t *testing.T) {
	d := NewCVData()

	got, err := d.WithField("fullName", "Ada Lovelace")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.FullName)
	assert.Empty(t, d.FullName, "receiver must not change")

	_, err = d.WithField("nickname", "x")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestExperienceHelpers(t *testing.T) {
	d := NewCVData().AddExperience()
	require.Len(t, d.Experiences, 2)

	d2, err := d.UpdateExperience(1, "company", "Acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", d2.Experiences[1].Company)
	assert.Empty(t, d.Experiences[1].Company)

	_, err = d.UpdateExperience(5, "company", "Acme")
	assert.ErrorIs(t, err, ErrInvalidIndex)
	_, err = d.UpdateExperience(0, "salary", "1")
	assert.ErrorIs(t, err, ErrUnknownField)

	d3, err := d2.RemoveExperience(0)
	require.NoError(t, err)
	require.Len(t, d3.Experiences, 1)
	assert.Equal(t, "Acme", d3.Experiences[0].Company)
	assert.Len(t, d2.Experiences, 2)

	_, err = d3.RemoveExperience(-1)
	assert.ErrorIs(t, err, ErrInvalidIndex)
}

func TestEducationAndReferenceHelpers(t *testing.T) {
	d := NewCVData()

	d, err := d.UpdateEducation(0, "degree", "BSc")
	require.NoError(t, err)
	assert.Equal(t, "BSc", d.Education[0].Degree)

	d, err = d.UpdateReference(0, "name", "Grace")
	require.NoError(t, err)
	assert.True(t, d.HasReferences())

	d = d.AddReference()
	assert.Len(t, d.NamedReferences(), 1)

	d, err = d.RemoveReference(0)
	require.NoError(t, err)
	assert.False(t, d.HasReferences())

	d, err = d.RemoveEducation(0)
	require.NoError(t, err)
	assert.Empty(t, d.Education)
	assert.NotNil(t, d.Education)
}

func TestAddLabels_TrimAndIgnoreBlank(t *testing.T) {
	d := NewCVData().
		AddExpertise("  Go  ").
		AddExpertise("   ").
		AddExpertise("Go").
		AddLanguage("English").
		AddLanguage("").
		AddHobby(" Chess ")

	assert.Equal(t, []string{"Go", "Go"}, d.Expertise)
	assert.Equal(t, []string{"English"}, d.Languages)
	assert.Equal(t, []string{"Chess"}, d.Hobbies)

	d, err := d.RemoveExpertise(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, d.Expertise)

	_, err = d.RemoveLanguage(3)
	assert.ErrorIs(t, err, ErrInvalidIndex)
	_, err = d.RemoveHobby(1)
	assert.ErrorIs(t, err, ErrInvalidIndex)
}

func TestClone_IsDeep(t *testing.T) {
	img := "https://example.com/a.png"
	d := NewCVData().SetProfileImage(&img).AddExpertise("Go")
	c := d.Clone()

	c.Expertise[0] = "Rust"
	*c.ProfileImage = "changed"
	c.Experiences[0].Company = "Other"

	assert.Equal(t, "Go", d.Expertise[0])
	assert.Equal(t, "https://example.com/a.png", *d.ProfileImage)
	assert.Empty(t, d.Experiences[0].Company)
}

func TestSetProfileImage_Clear(t *testing.T) {
	img := "file:///tmp/me.jpg"
	d := NewCVData().SetProfileImage(&img)
	require.NotNil(t, d.ProfileImage)

	d = d.SetProfileImage(nil)
	assert.Nil(t, d.ProfileImage)
	assert.True(t, d.SetIncludeHobbies(true).IncludeHobbies)
}
