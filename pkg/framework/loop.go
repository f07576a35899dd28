package framework

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is used when Loop.Interval is not set.
const DefaultInterval = 100 * time.Millisecond

// Loop runs controllers every Interval, or earlier when triggered.
type Loop struct {
	Interval time.Duration

	controllers [PriorityLevels][]Controller
	runners     []Runnable

	lock     sync.Mutex
	pending  []Message
	wakeOnce sync.Once
	wakeUpCh chan struct{}

	iterations uint64
	overruns   uint64
}

// LoopAdder adds its controllers and runnables to a loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopCtxKeyType struct{}

var loopCtxKey loopCtxKeyType

// LoopCtlFrom gets the LoopControl from the context passed to
// Runnables of a loop, or to controllers.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey).(LoopControl)
}

// NewLoop creates a Loop with DefaultInterval.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController adds controllers at the priority level. A controller
// which is also Runnable is started with the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	l.controllers[priorityLevel] = append(l.controllers[priorityLevel], ctls...)
	for _, ctl := range ctls {
		if r, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, r)
		}
	}
	return l
}

// AddRunnable adds Runnables started with the loop.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Iterations returns the number of iterations run.
func (l *Loop) Iterations() uint64 {
	return atomic.LoadUint64(&l.iterations)
}

// Overruns returns the number of iterations which took longer than Interval.
func (l *Loop) Overruns() uint64 {
	return atomic.LoadUint64(&l.overruns)
}

// Run implements Runnable. It waits for all Runnables to exit before
// returning.
func (l *Loop) Run(ctx context.Context) error {
	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	wakeUpCh := l.wakeUpChan()

	runner := NewRunnerWith(context.WithValue(ctx, loopCtxKey, LoopControl(l)))
	runner.Go(l.runners...)
	defer func() {
		if err := runner.Wait(); err != nil {
			glog.Errorf("loop runners: %v", err)
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			l.runIteration(ctx, now, interval)
		case <-wakeUpCh:
			l.runIteration(ctx, time.Now(), interval)
		}
	}
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.pending = append(l.pending, msg)
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpChan() <- struct{}{}:
	default:
	}
}

func (l *Loop) wakeUpChan() chan struct{} {
	l.wakeOnce.Do(func() { l.wakeUpCh = make(chan struct{}, 1) })
	return l.wakeUpCh
}

func (l *Loop) runIteration(ctx context.Context, now time.Time, interval time.Duration) {
	l.lock.Lock()
	msgs := l.pending
	l.pending = nil
	l.lock.Unlock()

	it := &iteration{
		loop:     l,
		time:     now,
		seq:      atomic.AddUint64(&l.iterations, 1),
		messages: msgs,
	}
	it.ctx = context.WithValue(ctx, loopCtxKey, LoopControl(it))
	for lv, ctls := range l.controllers {
		it.level = lv
		for _, ctl := range ctls {
			if err := ctl.Control(it); err != nil {
				glog.Errorf("controller at level %d: %v", lv, err)
			}
		}
	}
	if n := len(it.messages); n > 0 {
		glog.V(3).Infof("iteration %d: %d messages not taken", it.seq, n)
	}
	if elapsed := time.Since(now); elapsed > interval {
		atomic.AddUint64(&l.overruns, 1)
		glog.V(2).Infof("iteration %d overran: %v", it.seq, elapsed)
	}
}

type iteration struct {
	loop     *Loop
	ctx      context.Context
	time     time.Time
	seq      uint64
	level    int
	messages []Message
}

func (it *iteration) Context() context.Context { return it.ctx }
func (it *iteration) Time() time.Time          { return it.time }
func (it *iteration) PriorityLevel() int       { return it.level }
func (it *iteration) Iteration() uint64        { return it.seq }
func (it *iteration) Messages() MessageStore   { return it }
func (it *iteration) PostMessage(msg Message)  { it.loop.PostMessage(msg) }
func (it *iteration) TriggerNext()             { it.loop.TriggerNext() }

func (it *iteration) AddMessages(msgs ...Message) {
	it.messages = append(it.messages, msgs...)
}

// ProcessMessages implements MessageStore. Messages added while
// processing are kept after the remaining ones.
func (it *iteration) ProcessMessages(proc MessageProcessor) {
	msgs := it.messages
	it.messages = nil
	remains := msgs[:0]
	mctx := &messageContext{iter: it}
	for i, msg := range msgs {
		mctx.msg, mctx.taken = msg, false
		proc.ProcessMessage(mctx)
		if !mctx.taken {
			remains = append(remains, msg)
		}
		if mctx.stop {
			remains = append(remains, msgs[i+1:]...)
			break
		}
	}
	it.messages = append(remains, it.messages...)
}

type messageContext struct {
	iter  *iteration
	msg   Message
	taken bool
	stop  bool
}

func (c *messageContext) CurrentMessage() Message     { return c.msg }
func (c *messageContext) MessageTaken()               { c.taken = true }
func (c *messageContext) StopProcessing()             { c.stop = true }
func (c *messageContext) AddMessages(msgs ...Message) { c.iter.AddMessages(msgs...) }
