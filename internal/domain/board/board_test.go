package board

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/scene"
	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/teaching"
	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/tools"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/whiteboard/backend/internal/shared/utils"
)

// MockCompleter is a mock implementation of teaching.Completer for testing.
type MockCompleter struct {
	mock.Mock
}

// Complete mocks the Complete method.
func (m *MockCompleter) Complete(ctx context.Context, messages []teaching.Message, temperature float64) (string, error) {
	args := m.Called(ctx, messages, temperature)
	return args.String(0), args.Error(1)
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) record(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) types() []EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventType, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Type)
	}
	return out
}

func fastOptions() Options {
	opts := DefaultOptions()
	opts.Pacing = teaching.Pacing{}
	return opts
}

func newBoard(t *testing.T, completer teaching.Completer) *Board {
	t.Helper()
	var collab Collaborators
	if completer != nil {
		collab.Completer = completer
	}
	b, err := New(fastOptions(), collab)
	require.NoError(t, err)
	return b
}

func drag(t *testing.T, b *Board, from, to scene.Point) tools.Result {
	t.Helper()
	_, err := b.PointerDown(from)
	require.NoError(t, err)
	_, err = b.PointerMove(to)
	require.NoError(t, err)
	res, err := b.PointerUp(to)
	require.NoError(t, err)
	return res
}

func TestBoardRectangleDrag(t *testing.T) {
	b := newBoard(t, nil)
	require.NoError(t, b.SetActiveTool("rectangle"))
	require.NoError(t, b.SetBrushColor("#ff0000"))

	res := drag(t, b, scene.Point{X: 50, Y: 70}, scene.Point{X: 10, Y: 10})
	assert.Equal(t, scene.KindRectangle, res.Kind)

	snap := b.Snapshot()
	require.Len(t, snap.Primitives, 1)
	rect := snap.Primitives[0].(*scene.Rectangle)
	assert.Equal(t, 40.0, rect.Width)
	assert.Equal(t, 60.0, rect.Height)
	assert.Equal(t, "#ff0000", rect.Style.Stroke)
}

func TestBoardSelectionValidation(t *testing.T) {
	b := newBoard(t, nil)

	assert.ErrorIs(t, b.SetActiveTool("spray"), tools.ErrInvalidTool)
	assert.ErrorIs(t, b.SetBrushSize(0), tools.ErrInvalidBrushSize)
	assert.ErrorIs(t, b.SetBrushColor("nope"), tools.ErrInvalidColor)
	assert.Error(t, b.SetTheme("neon"))

	require.NoError(t, b.SetBrushSize(12))
	assert.Equal(t, 12, b.Status().Tool.Size)
}

func TestBoardClear(t *testing.T) {
	b := newBoard(t, nil)
	require.NoError(t, b.SetTheme("cyber"))
	drag(t, b, scene.Point{X: 1, Y: 1}, scene.Point{X: 30, Y: 30})
	require.Equal(t, 1, b.Status().Primitives)

	b.Clear()

	snap := b.Snapshot()
	assert.Empty(t, snap.Primitives)
	assert.Equal(t, scene.ThemeCyber.Background(), snap.Background)
	assert.Equal(t, tools.StateIdle, b.Status().State)
}

func TestBoardExportLeavesSceneUnchanged(t *testing.T) {
	b := newBoard(t, nil)
	drag(t, b, scene.Point{X: 1, Y: 1}, scene.Point{X: 30, Y: 30})
	before := b.Snapshot()

	img, err := b.Export(context.Background())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(img.Data, []byte("\x89PNG")))
	assert.Regexp(t, `^whiteboard-\d+\.png$`, img.Filename)
	assert.Equal(t, before, b.Snapshot())
}

func TestBoardEditText(t *testing.T) {
	b := newBoard(t, nil)
	require.NoError(t, b.SetActiveTool("text"))

	res, err := b.PointerDown(scene.Point{X: 100, Y: 100})
	require.NoError(t, err)

	require.NoError(t, b.EditText(res.ID, "<script>x</script>E = mc<sup>2</sup>"))
	snap := b.Snapshot()
	require.Len(t, snap.Primitives, 1)
	assert.Equal(t, "E = mc2", snap.Primitives[0].(*scene.Text).Content)

	assert.Error(t, b.EditText(res.ID, strings.Repeat("x", utils.MaxTextLength+1)))
	assert.ErrorIs(t, b.EditText("prim_missing", "hi"), scene.ErrNotFound)
}

func TestBoardTeaching(t *testing.T) {
	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything, 0.7).
		Return("Circles are round.\nDRAW_CIRCLE: 300,200,50 COLOR green", nil).Once()
	b := newBoard(t, completer)

	log := &eventLog{}
	b.Subscribe(log.record)

	result, err := b.RequestAITeaching(context.Background(), "Explain circles")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Report.Applied)
	assert.Equal(t, 1, b.Status().Primitives)
	assert.True(t, b.Status().Configured)
	assert.False(t, b.Status().Session.IsProcessing)
	assert.Equal(t, []EventType{EventSession, EventScene, EventSession}, log.types())
	require.Len(t, b.Sessions(), 1)
	assert.Equal(t, uint64(1), b.SessionStats().Completed)
}

func TestBoardLocksToolsWhileTeaching(t *testing.T) {
	completer := new(MockCompleter)
	entered := make(chan struct{})
	completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(entered)
			<-args.Get(0).(context.Context).Done()
		}).
		Return("", context.Canceled)
	b := newBoard(t, completer)

	done := make(chan error, 1)
	go func() {
		_, err := b.RequestAITeaching(context.Background(), "Explain gravity")
		done <- err
	}()
	<-entered

	_, err := b.PointerDown(scene.Point{X: 1, Y: 1})
	assert.ErrorIs(t, err, tools.ErrToolsLocked)

	_, err = b.RequestAITeaching(context.Background(), "Another")
	assert.Equal(t, teaching.KindBusy, teaching.KindOf(err))

	assert.True(t, b.CancelTeaching())
	select {
	case err := <-done:
		assert.Equal(t, teaching.KindCanceled, teaching.KindOf(err))
	case <-time.After(2 * time.Second):
		t.Fatal("teaching did not stop after cancel")
	}

	_, err = b.PointerDown(scene.Point{X: 1, Y: 1})
	assert.NoError(t, err)
	assert.False(t, b.CancelTeaching())
}

func TestBoardUnlockedTools(t *testing.T) {
	opts := fastOptions()
	opts.LockTools = false
	b, err := New(opts, Collaborators{})
	require.NoError(t, err)

	_, err = b.PointerDown(scene.Point{X: 1, Y: 1})
	assert.NoError(t, err)
	assert.False(t, b.Status().Configured)
}

func TestBoardPublishesEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetricsWith(reg)
	defer metrics.Close()

	b := newBoard(t, nil).WithMetrics(metrics)
	log := &eventLog{}
	b.Subscribe(log.record)

	require.NoError(t, b.SetBrushColor("blue"))
	drag(t, b, scene.Point{X: 1, Y: 1}, scene.Point{X: 30, Y: 30})

	types := log.types()
	require.NotEmpty(t, types)
	assert.Equal(t, EventTool, types[0])
	assert.Contains(t, types, EventScene)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Primitives))

	log.mu.Lock()
	last := log.events[len(log.events)-1]
	log.mu.Unlock()
	change, ok := last.Data.(SceneChange)
	require.True(t, ok)
	assert.Equal(t, 1, change.Size)
}
