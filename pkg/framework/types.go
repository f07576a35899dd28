// Package framework runs a program as a control loop. Each iteration
// takes the messages posted since the previous one and passes them
// through controllers in priority order. Background work runs as
// Runnables next to the loop.
package framework

import (
	"context"
	"time"
)

// Named is implemented by things with a name for logging.
type Named interface {
	Name() string
}

// Runnable is a background worker, it returns when the context is done.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Message is anything posted into the loop.
type Message interface {
	// NewMessage creates an empty message of the same type.
	NewMessage() Message
}

// Controller is invoked once per iteration at its priority level.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc is the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error {
	return f(cc)
}

// TimeSource provides the time of the current iteration.
type TimeSource interface {
	Time() time.Time
}

// ControlContext is passed to controllers during an iteration.
type ControlContext interface {
	TimeSource
	LoopControl

	Context() context.Context
	PriorityLevel() int
	// Iteration counts iterations from 1.
	Iteration() uint64
	// Messages are the messages of this iteration not taken so far.
	Messages() MessageStore
}

// Priority levels, lower runs first.
const (
	PriorityLevels = 16

	PrLvTop = 0
	// PrLvInput is for controllers turning external input into messages.
	PrLvInput = 4
	// PrLvControl is for the controllers processing messages.
	PrLvControl = 8
	// PrLvOutput is for controllers writing to hardware.
	PrLvOutput   = 12
	PrLvPostProc = PriorityLevels - 2
	PrLvIdle     = PriorityLevels - 1
)

// LoopControl is usable from any goroutine.
type LoopControl interface {
	// PostMessage queues the message for the next iteration.
	PostMessage(Message)
	// TriggerNext starts the next iteration without waiting for the interval.
	TriggerNext()
}

// MessageStore holds the messages of an iteration.
type MessageStore interface {
	MessageAppender
	ProcessMessages(MessageProcessor)
}

// MessageAppender adds messages visible to the controllers running later
// in the same iteration.
type MessageAppender interface {
	AddMessages(msgs ...Message)
}

// MessageProcessor is called on each message in the store.
type MessageProcessor interface {
	ProcessMessage(MessageProcessingContext)
}

// ProcessMessageFunc is the func form of MessageProcessor.
type ProcessMessageFunc func(MessageProcessingContext)

// ProcessMessage implements MessageProcessor.
func (f ProcessMessageFunc) ProcessMessage(mc MessageProcessingContext) {
	f(mc)
}

// MessageProcessingContext is the state of processing one message.
type MessageProcessingContext interface {
	MessageAppender

	CurrentMessage() Message
	// MessageTaken removes the message from the store.
	MessageTaken()
	// StopProcessing skips the remaining messages.
	StopProcessing()
}
