package git

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		h    Hashes
		err  error
		want SyncStatus
	}{
		{name: "up_to_date", h: Hashes{"h1", "h1", "h1"}, want: StatusUpToDate},
		{name: "need_pull", h: Hashes{"h1", "h2", "h1"}, want: StatusNeedPull},
		{name: "need_push", h: Hashes{"h2", "h1", "h1"}, want: StatusNeedPush},
		{name: "diverged", h: Hashes{"h1", "h2", "h0"}, want: StatusDiverged},
		{name: "error_wins", h: Hashes{"h1", "h1", "h1"}, err: errors.New("no upstream"), want: StatusError},
		{name: "error_empty", err: errors.New("boom"), want: StatusError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.h, tt.err))
		})
	}
}

func TestSyncStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unknown", StatusUnknown.String())
	assert.Equal(t, "need pull", StatusNeedPull.String())
	assert.Equal(t, "diverged", StatusDiverged.String())
}
