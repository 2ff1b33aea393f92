package playback

import (
	"time"

	log "github.com/sirupsen/logrus"
)

const sleepTick = time.Second

// SetSleepTimer starts a countdown of seconds after which playback pauses.
// Zero or a negative value cancels a running countdown without pausing.
// The countdown keeps running across track changes.
func (c *Controller) SetSleepTimer(seconds int) error {
	return c.do(func() error {
		c.setSleepTimer(seconds)
		return nil
	})
}

// SleepRemaining returns the seconds left on the sleep countdown, or 0.
func (c *Controller) SleepRemaining() int {
	return c.Snapshot().SleepRemaining
}

// scheduleAdvance defers advance by d. Only the latest scheduled advance
// can fire.
func (c *Controller) scheduleAdvance(d time.Duration) {
	c.pendingToken++
	token := c.pendingToken
	c.pendingNext = time.AfterFunc(d, func() {
		c.post(func() {
			if token != c.pendingToken || c.pendingNext == nil {
				return
			}
			c.pendingNext = nil
			c.advance()
		})
	})
	log.WithFields(log.Fields{"kind": c.kind, "delay": d}).Debug("next track scheduled")
}

func (c *Controller) cancelPendingAdvance() {
	if c.pendingNext == nil {
		return
	}
	c.pendingNext.Stop()
	c.pendingNext = nil
	c.pendingToken++
}

func (c *Controller) setSleepTimer(seconds int) {
	c.stopSleep()
	if seconds <= 0 {
		c.notifySleep(SleepChange{})
		return
	}
	c.sleepRemaining = seconds
	c.notifySleep(SleepChange{Remaining: seconds})
	c.armSleepTick()
}

func (c *Controller) armSleepTick() {
	c.sleepToken++
	token := c.sleepToken
	c.sleepTimer = time.AfterFunc(sleepTick, func() {
		c.post(func() {
			if token != c.sleepToken {
				return
			}
			c.sleepStep()
		})
	})
}

func (c *Controller) sleepStep() {
	c.sleepTimer = nil
	c.sleepRemaining--
	if c.sleepRemaining > 0 {
		c.notifySleep(SleepChange{Remaining: c.sleepRemaining})
		c.armSleepTick()
		return
	}
	c.fireSleep()
}

func (c *Controller) fireSleep() {
	c.sleepRemaining = 0
	c.sleepToken++
	log.WithField("kind", c.kind).Info("sleep timer fired")
	c.opts.Metrics.SleepFired(string(c.kind))
	c.pause()
	c.notifySleep(SleepChange{Fired: true})
}

func (c *Controller) stopSleep() {
	if c.sleepTimer != nil {
		c.sleepTimer.Stop()
		c.sleepTimer = nil
	}
	c.sleepToken++
	c.sleepRemaining = 0
}
