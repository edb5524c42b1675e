package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steve-z-wang/webtask-sub000/internal/pagemap"
)

// fakeBrowser has no page; tests only use actions that never reach it.
type fakeBrowser struct {
	navigated []string
	navErr    error
}

func (f *fakeBrowser) Page() *rod.Page { return nil }

func (f *fakeBrowser) Navigate(_ context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	return f.navErr
}

type staticResolver map[string]string

func (s staticResolver) Resolve(id string) (string, error) {
	if p, ok := s[id]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: %s", pagemap.ErrNotFound, id)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		action Action
		ok     bool
	}{
		{Action{Type: "click", ID: "button-0"}, true},
		{Action{Type: "click"}, false},
		{Action{Type: "fill", ID: "textbox-0", Text: "a@b.c"}, true},
		{Action{Type: "upload", ID: "input-0"}, false},
		{Action{Type: "upload", ID: "input-0", Files: []string{"/tmp/a.png"}}, true},
		{Action{Type: "press", Key: "Enter"}, true},
		{Action{Type: "press", Key: "F13"}, false},
		{Action{Type: "navigate"}, false},
		{Action{Type: "navigate", URL: "https://example.com"}, true},
		{Action{Type: "scroll", Y: 400}, true},
		{Action{Type: "wait", Duration: 10}, true},
	}
	for _, tt := range tests {
		err := tt.action.Validate()
		if tt.ok {
			assert.NoError(t, err, tt.action.String())
		} else {
			assert.Error(t, err, tt.action.String())
		}
	}

	err := Action{Type: "drag"}.Validate()
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestExecuteBatchStopsOnStaleIdentifier(t *testing.T) {
	b := &fakeBrowser{}
	actions := []Action{
		{Type: "navigate", URL: "https://shop.example/"},
		{Type: "click", ID: "button-7"},
		{Type: "navigate", URL: "https://shop.example/never"},
	}

	res, err := ExecuteBatch(context.Background(), b, staticResolver{}, actions, Options{Out: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.Equal(t, 1, res.StaleIndex)
	assert.False(t, res.Done())
	assert.Len(t, res.Completed, 1)
	assert.Equal(t, []string{"https://shop.example/"}, b.navigated, "nothing runs after a stale identifier")
}

func TestExecuteBatchCheckpoint(t *testing.T) {
	b := &fakeBrowser{}
	actions := []Action{
		{Type: "navigate", URL: "https://shop.example/a", Checkpoint: true},
		{Type: "navigate", URL: "https://shop.example/b"},
	}
	out := &bytes.Buffer{}

	res, err := ExecuteBatch(context.Background(), b, staticResolver{}, actions, Options{Verbose: true, Out: out})
	require.NoError(t, err)
	assert.True(t, res.HitCheckpoint)
	assert.Equal(t, 0, res.CheckpointIndex)
	assert.Equal(t, []string{"https://shop.example/a"}, b.navigated)
	assert.Contains(t, out.String(), "[1/2] navigate https://shop.example/a ✓ [checkpoint]")
}

func TestExecuteBatchRecordsFailuresAndContinues(t *testing.T) {
	b := &fakeBrowser{navErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	actions := []Action{
		{Type: "navigate", URL: "https://nowhere.invalid/"},
		{Type: "teleport"},
		{Type: "wait", Duration: 1},
	}

	res, err := ExecuteBatch(context.Background(), b, staticResolver{}, actions, Options{Out: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.True(t, res.Done())
	require.Len(t, res.Failed, 2)
	assert.Equal(t, 0, res.Failed[0].Index)
	assert.ErrorIs(t, res.Failed[1].Err, ErrUnknownAction)
	assert.Equal(t, []Action{actions[2]}, res.Completed)
}

func TestExecuteBatchHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := ExecuteBatch(ctx, &fakeBrowser{}, staticResolver{}, []Action{{Type: "wait", Duration: 1000}}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Completed)
}

func TestWaitIsBoundedByContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := Execute(ctx, &fakeBrowser{}, staticResolver{}, Action{Type: "wait", Duration: 5000}, Options{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestResolveHappensBeforePageAccess(t *testing.T) {
	for _, typ := range []string{"click", "fill", "type", "hover"} {
		err := Execute(context.Background(), &fakeBrowser{}, staticResolver{}, Action{Type: typ, ID: "link-3", Text: "x"}, Options{})
		assert.ErrorIs(t, err, pagemap.ErrNotFound, typ)
	}
}

func TestActionString(t *testing.T) {
	assert.Equal(t, `fill textbox-0 "hello"`, Action{Type: "fill", ID: "textbox-0", Text: "hello"}.String())
	assert.Equal(t, "press Enter", Action{Type: "press", Key: "Enter"}.String())
	assert.Equal(t, "wait 500ms", Action{Type: "wait", Duration: 500}.String())
}
