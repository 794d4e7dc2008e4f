package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testMsg struct {
	n int
}

func (m *testMsg) NewMessage() Message { return &testMsg{} }

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestLoopPriorityOrder(t *testing.T) {
	var order []int
	l := NewLoop()
	record := func(lv int) Controller {
		return ControlFunc(func(cc ControlContext) error {
			require.Equal(t, lv, cc.PriorityLevel())
			order = append(order, lv)
			return nil
		})
	}
	l.AddController(PrLvActuate, record(PrLvActuate))
	l.AddController(PrLvSense, record(PrLvSense))
	l.AddController(PrLvControl, record(PrLvControl))
	l.Iterate(context.Background())
	require.Equal(t, []int{PrLvSense, PrLvControl, PrLvActuate}, order)
}

func TestLoopIterationTime(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	l := NewLoop()
	l.Clock = clock
	var seen []time.Time
	l.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		seen = append(seen, cc.Time())
		return nil
	}))
	l.Iterate(context.Background())
	clock.now = clock.now.Add(time.Second)
	l.Iterate(context.Background())
	require.Equal(t, []time.Time{time.Unix(100, 0), time.Unix(101, 0)}, seen)
}

func TestLoopMessages(t *testing.T) {
	l := NewLoop()
	var got []int
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			if m, ok := mctx.CurrentMessage().(*testMsg); ok && m.n%2 == 0 {
				mctx.MessageTaken()
				got = append(got, m.n)
			}
		}))
		return nil
	}))
	var left []int
	l.AddController(PrLvIdle, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			mctx.MessageTaken()
			left = append(left, mctx.CurrentMessage().(*testMsg).n)
		}))
		return nil
	}))
	for i := 1; i <= 4; i++ {
		l.PostMessage(&testMsg{n: i})
	}
	l.Iterate(context.Background())
	require.Equal(t, []int{2, 4}, got)
	require.Equal(t, []int{1, 3}, left)

	got, left = nil, nil
	l.Iterate(context.Background())
	require.Empty(t, got)
	require.Empty(t, left)
}

func TestLoopStopProcessing(t *testing.T) {
	l := NewLoop()
	var first, rest []int
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			mctx.MessageTaken()
			first = append(first, mctx.CurrentMessage().(*testMsg).n)
			mctx.StopProcessing()
		}))
		return nil
	}))
	l.AddController(PrLvIdle, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			rest = append(rest, mctx.CurrentMessage().(*testMsg).n)
		}))
		return nil
	}))
	for i := 1; i <= 3; i++ {
		l.PostMessage(&testMsg{n: i})
	}
	l.Iterate(context.Background())
	require.Equal(t, []int{1}, first)
	require.Equal(t, []int{2, 3}, rest)
}

func TestLoopPostRun(t *testing.T) {
	l := NewLoop()
	var calls []string
	l.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		calls = append(calls, "sense")
		cc.PostRunAt(PrLvPostProc, ControlFunc(func(ControlContext) error {
			calls = append(calls, "flush")
			return nil
		}))
		return nil
	}))
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		calls = append(calls, "control")
		return errors.New("logged, not fatal")
	}))
	l.Iterate(context.Background())
	require.Equal(t, []string{"sense", "control", "flush"}, calls)
}

func TestLoopRunTriggerNext(t *testing.T) {
	l := NewLoop()
	l.Interval = time.Hour
	iterated := make(chan struct{}, 1)
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			mctx.MessageTaken()
			select {
			case iterated <- struct{}{}:
			default:
			}
		}))
		return nil
	}))
	l.AddRunnable(RunFunc(func(ctx context.Context) error {
		ctl := LoopCtlFrom(ctx)
		ctl.PostMessage(&testMsg{n: 1})
		ctl.TriggerNext()
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	select {
	case <-iterated:
	case <-time.After(time.Second):
		t.Fatal("iteration not triggered")
	}
	cancel()
	select {
	case err := <-done:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("loop not stopped")
	}
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())
	errs.Add(errors.New("a"))
	require.EqualError(t, errs.Aggregate(), "a")
	errs.Add(errors.New("b"))
	require.EqualError(t, errs.Aggregate(), "multiple errors:\na\nb")
}
