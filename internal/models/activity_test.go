package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvidenceLinksFlattensMixedShapes(t *testing.T) {
	evidence := Evidence(`{"foto":"/evidence/a.webp","galeria":["/evidence/b.webp","/evidence/c.webp"],"extra":""}`)
	links, err := evidence.Links()
	require.NoError(t, err)
	assert.Equal(t, []string{"/evidence/a.webp", "/evidence/b.webp", "/evidence/c.webp"}, links)
}

func TestEvidenceLinksDeduplicates(t *testing.T) {
	evidence := Evidence(`{"foto":"/evidence/a.webp","copia":["/evidence/a.webp","/evidence/b.webp"]}`)
	links, err := evidence.Links()
	require.NoError(t, err)
	assert.Equal(t, []string{"/evidence/a.webp", "/evidence/b.webp"}, links)
}

func TestEvidenceLinksEmptyBlob(t *testing.T) {
	links, err := Evidence(nil).Links()
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestEvidenceLinksRejectsNonObject(t *testing.T) {
	_, err := Evidence(`["/evidence/a.webp"]`).Links()
	require.Error(t, err)
}

func TestEvidenceLinksRejectsTruncatedJSON(t *testing.T) {
	_, err := Evidence(`{"foto":`).Links()
	require.Error(t, err)
}

func TestAreaCountsAddIgnoresUnknownArea(t *testing.T) {
	var counts AreaCounts
	counts.Add(AreaDP, 2)
	counts.Add(ActivityArea("XX"), 5)
	counts.Add(AreaAC, 1)
	assert.Equal(t, 2, counts.DP)
	assert.Equal(t, 1, counts.AC)
	assert.Equal(t, 3, counts.Total)
}

func TestCareerFullNameFallsBackToCode(t *testing.T) {
	assert.Equal(t, "BOGUS", CareerFullName("BOGUS"))
	assert.Contains(t, CareerFullName("IS75LI0502"), "SISTEMAS COMPUTACIONALES")
}

func TestUserFullNameSkipsMissingSecondLastName(t *testing.T) {
	u := User{Name: "Ana", LastName: "Lopez"}
	assert.Equal(t, "Ana Lopez", u.FullName())
	u.SecondLastName = "Garcia"
	assert.Equal(t, "Ana Lopez Garcia", u.FullName())
}
