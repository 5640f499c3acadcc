package scheduler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagUntagRoundTrip(t *testing.T) {
	tests := []struct {
		action      Action
		description string
	}{
		{ActionTerminateInstance, "stop the big box"},
		{ActionTerminateAll, ""},
		{ActionCreateInstance, "Ensure nightly (gpu_1x_a100) in us-east-1"},
		// Descriptions containing the field separator must survive
		// verbatim: only the first two separators are structural.
		{ActionTerminateAll, "stop - then - restart"},
		{ActionTerminateInstanceByName, " - leading separator"},
		{ActionTerminateAll, "unicode désc – with dashes"},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			id, annotation := Tag(tt.action, tt.description)

			gotID, gotAction, gotDescription, ok := Untag(annotation)
			require.True(t, ok, "annotation %q must untag", annotation)
			assert.Equal(t, id, gotID)
			assert.Equal(t, tt.action, gotAction)
			assert.Equal(t, tt.description, gotDescription)
		})
	}
}

func TestTagAnnotationShape(t *testing.T) {
	id, annotation := Tag(ActionTerminateAll, "nightly shutdown")
	assert.Equal(t, fmt.Sprintf("lambdalabs-cli: %s - terminate_all - nightly shutdown", id), annotation)
}

func TestUntagRejectsForeignComments(t *testing.T) {
	foreign := []string{
		"",
		"certbot-auto",
		"some other tool: abc - terminate_all - x",
		// Prefix look-alikes are foreign too.
		"lambdalabs-cli-backup: 12345678 - terminate_all - x",
		"lambdalabs-cli:12345678 - terminate_all - x",
		"lambdalabs-clixyz: 12345678 - terminate_all - x",
		// Right prefix, malformed payload.
		"lambdalabs-cli: ",
		"lambdalabs-cli: notanid - terminate_all - x",
		"lambdalabs-cli: 12345678",
		"lambdalabs-cli: 12345678 - delete_everything - x",
		"lambdalabs-cli: ZZ345678 - terminate_all - x",
	}
	for _, comment := range foreign {
		t.Run(comment, func(t *testing.T) {
			_, _, _, ok := Untag(comment)
			assert.False(t, ok, "comment %q must not untag", comment)
		})
	}
}

func TestUntagTrimmedEmptyDescription(t *testing.T) {
	// Stores may trim the trailing space an empty description leaves
	// behind; the annotation must still untag.
	id, action, description, ok := Untag("lambdalabs-cli: 0a1b2c3d - terminate_all -")
	require.True(t, ok)
	assert.Equal(t, "0a1b2c3d", id)
	assert.Equal(t, ActionTerminateAll, action)
	assert.Empty(t, description)
}

func TestNewJobIDFreshPerCall(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := NewJobID()
		require.Len(t, id, 8)
		assert.True(t, jobIDPattern.MatchString(id), id)
		if _, dup := seen[id]; dup {
			t.Fatalf("job ID %s repeated within 1000 draws", id)
		}
		seen[id] = struct{}{}
	}
}
