package serverapp

import (
	"context"
	"errors"
	"fmt"
)

// Stop reasons returned by WaitForStop.
const (
	StopReasonContext     = "context"
	StopReasonServerError = "server_error"
)

var errServerStopped = errors.New("server stopped unexpectedly")

// Start launches the HTTP server goroutine. It requires Init to have
// completed; calling it again returns the same error channel.
func (a *App) Start() (<-chan error, error) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()

	if !a.initialized {
		return nil, fmt.Errorf("app is not initialized")
	}
	if !a.started {
		a.serverErrors = startServer(a.cfg, a.logger, a.srv)
		a.started = true
	}
	return a.serverErrors, nil
}

// WaitForStop blocks until ctx is done or the server fails. A nil
// serverErrors waits on the channel returned by Start.
func (a *App) WaitForStop(ctx context.Context, serverErrors <-chan error) (reason string, err error) {
	if serverErrors == nil {
		a.stateMu.Lock()
		serverErrors = a.serverErrors
		a.stateMu.Unlock()
	}
	if ctx == nil && serverErrors == nil {
		return "", fmt.Errorf("nothing to wait for")
	}

	var done <-chan struct{}
	if ctx != nil {
		done = ctx.Done()
	}

	select {
	case err := <-serverErrors:
		if err == nil {
			err = errServerStopped
		}
		return StopReasonServerError, err
	case <-done:
		a.logger.Info("stop requested", "cause", context.Cause(ctx).Error())
		return StopReasonContext, nil
	}
}
