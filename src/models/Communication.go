package models

import (
	"context"

	"github.com/tevino/abool"
)

// The communication struct that is managing
// all the communication between the different goroutines.
type Communication struct {
	Context         *context.Context
	CancelContext   *context.CancelFunc
	HandleBootstrap chan string
	HandleONVIF     chan PtzCommand
	IsConfiguring   *abool.AtomicBool
}
