// internal/magnet/observer.go
package magnet

import "time"

// Observer receives driver lifecycle events. It is the exact contract the
// driver emits on; the prometheus adapter lives in internal/observability.
// Implementations must be cheap and must not call back into the driver.
type Observer interface {
	RampStarted()
	RampCompleted(d time.Duration)
	RampAbnormal(state RampState)
	InterlockRejected()
	HeaterSwitched(enable bool, d time.Duration)
	HeaterTimedOut()
}

type nopObserver struct{}

func (nopObserver) RampStarted()                       {}
func (nopObserver) RampCompleted(time.Duration)        {}
func (nopObserver) RampAbnormal(RampState)             {}
func (nopObserver) InterlockRejected()                 {}
func (nopObserver) HeaterSwitched(bool, time.Duration) {}
func (nopObserver) HeaterTimedOut()                    {}
