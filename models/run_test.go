package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunSummary_Add(t *testing.T) {
	var s RunSummary
	for _, o := range []string{
		OutcomeSkipped, OutcomeEnriched, OutcomeEnriched, OutcomeNoMetadata, OutcomeMalformed,
		OutcomeMissingURL, OutcomeHTTPError, OutcomeTimeout, OutcomeNetworkError,
	} {
		s.Add(o)
	}

	assert.Equal(t, 9, s.Visited)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 2, s.Enriched)
	assert.Equal(t, 6, s.Failed())
}
