package fundamentals_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fundamentals "github.com/RxDataLab/go-fundamentals"
)

func TestDefaultSpecs(t *testing.T) {
	specs := fundamentals.DefaultSpecs()
	require.Len(t, specs, 8)
	assert.Equal(t, "revenue", specs[0].Name)

	for _, spec := range specs {
		assert.NotEmpty(t, spec.Candidates, "%s has no candidate concepts", spec.Name)
		assert.Equal(t, "USD", spec.Unit)
		assert.Equal(t, []string{"10-K"}, spec.Forms)
	}
}

func TestDefaultSpecs_NoAliasing(t *testing.T) {
	specs := fundamentals.DefaultSpecs()

	// Editing one spec's Forms must not leak into any other spec, nor into
	// a later DefaultSpecs call.
	specs[0].Forms[0] = "10-Q"
	for _, spec := range specs[1:] {
		assert.Equal(t, []string{"10-K"}, spec.Forms)
	}
	assert.Equal(t, []string{"10-K"}, fundamentals.DefaultSpecs()[0].Forms)
}
