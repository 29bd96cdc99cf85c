package research

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mednerd/internal/types"
)

const sinusitisPage = `<!DOCTYPE html>
<html lang="en">
<head><title>Sinusitis (sinus infection) - NHS</title></head>
<body>
<header><a href="/">NHS</a></header>
<main id="maincontent">
  <h1>  Sinusitis (sinus infection)
  </h1>
  <p>Intro outside the section that is long enough to count as a paragraph.</p>
  <section class="nhsuk-section nhsuk-u-margin-bottom-4">
    <p>Short intro.</p>
    <p>Sinusitis is swelling of the sinuses, usually caused by an infection.</p>
    <p>But there are <strong>things you can do</strong> to help and a pharmacist can give advice.</p>
    <p>A third long paragraph that should never be part of the explanation at all.</p>
  </section>
</main>
</body>
</html>`

func TestParseConditionPage(t *testing.T) {
	entry, err := ParseConditionPage([]byte(sinusitisPage), "blocked sinus pain")
	require.NoError(t, err)

	assert.Equal(t, "Sinusitis (sinus infection)", entry.Condition)
	assert.Equal(t,
		"Sinusitis is swelling of the sinuses, usually caused by an infection. "+
			"But there are things you can do to help and a pharmacist can give advice.",
		entry.Explanation)
	assert.Equal(t, types.StageLiveWebResult, entry.Stage)
	assert.Equal(t, []string{"blocked", "sinus", "pain"}, entry.Keywords)
	assert.Equal(t, types.LiveTreatmentPlaceholder, entry.TreatmentGuidance)
	assert.Equal(t, []string{"Consult Doctor"}, entry.Medications)
	assert.Equal(t, []string{"Monitor symptoms", "Consult NHS 111 if urgent"}, entry.Dos)
	assert.Equal(t, []string{"Do not self-diagnose"}, entry.Donts)
	assert.Equal(t, "Refer to GP.", entry.Referral)
}

func TestParseConditionPage_NoMain(t *testing.T) {
	_, err := ParseConditionPage([]byte(`<html><body><h1>Gout</h1><p>Some text</p></body></html>`), "gout")
	assert.ErrorIs(t, err, errNoMainContent)
}

func TestParseConditionPage_NoSectionUsesMain(t *testing.T) {
	page := `<html><body><main><p>` + strings.Repeat("x", 41) + `</p><p>` + strings.Repeat("y", 40) + `</p></main></body></html>`
	entry, err := ParseConditionPage([]byte(page), "gout")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", 41), entry.Explanation)
}

func TestParseConditionPage_Placeholders(t *testing.T) {
	page := `<html><body><main><section class="nhsuk-section"><p>Too short.</p></section></main></body></html>`
	entry, err := ParseConditionPage([]byte(page), "brain tumor")
	require.NoError(t, err)

	assert.Equal(t, "Brain Tumor", entry.Condition)
	assert.Equal(t, "Information not available.", entry.Explanation)
	assert.Equal(t, []string{"brain", "tumor"}, entry.Keywords)
}

func TestParseConditionPage_HeadingOutsideMain(t *testing.T) {
	page := `<html><body><div><h1>Shingles</h1></div><main><p>nothing</p></main></body></html>`
	entry, err := ParseConditionPage([]byte(page), "rash")
	require.NoError(t, err)
	assert.Equal(t, "Shingles", entry.Condition)
}

func TestParseConditionPage_CountsCharactersNotBytes(t *testing.T) {
	// 30 two-byte runes: 60 bytes but only 30 characters.
	short := strings.Repeat("é", 30)
	long := strings.Repeat("é", 41)
	page := `<html><body><main><p>` + short + `</p><p>` + long + `</p></main></body></html>`

	entry, err := ParseConditionPage([]byte(page), "x")
	require.NoError(t, err)
	assert.Equal(t, long, entry.Explanation)
}
