package molview

import (
	"time"
)

type Time struct {
	Time time.Time
	Dt   time.Duration
}

// Seconds returns the frame delta as float seconds.
func (t *Time) Seconds() float32 {
	return float32(t.Dt.Seconds())
}

type TimeModule struct{}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Time{
		Time: time.Now(),
	})
	app.UseSystem(
		System(timeSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
}

func timeSystem(timeResource *Time) {
	now := time.Now()

	timeResource.Dt = now.Sub(timeResource.Time)
	timeResource.Time = now
}
