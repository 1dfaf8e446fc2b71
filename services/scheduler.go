// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartEngineScheduler runs the convenience jobs: returning postponed tasks
// to pending once their resume date passes, and reminding members about
// slots they booked. Correctness never depends on these ticks; the same
// time math runs lazily at read time.
func StartEngineScheduler(tasks *TaskService, events *EventService) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			n, err := tasks.ReactivateDueTasks()
			if err != nil {
				log.Printf("[Scheduler] Failed to reactivate postponed tasks: %v", err)
				return
			}
			if n > 0 {
				log.Printf("✅ Reactivated %d postponed task(s)", n)
			}
		}),
	)

	_, _ = sched.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(func() {
			n, err := events.EnqueueDueReminders()
			if err != nil {
				log.Printf("[Scheduler] Failed to enqueue event reminders: %v", err)
				return
			}
			if n > 0 {
				log.Printf("✅ Enqueued reminders for %d event slot(s)", n)
			}
		}),
	)
}
