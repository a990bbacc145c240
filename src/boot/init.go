package boot

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"ktx/src/korail"
	"ktx/src/lib"
)

// InitScheduler starts the background sweep that evicts cached reservations
// once their payment deadline passes; the operator voids them upstream too.
func InitScheduler(svc *korail.Service) {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	j, err := sched.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(func() {
			if n := svc.PruneExpiredReservations(); n > 0 {
				log.Printf("[Scheduler] 결제 기한 초과 예약 정리 - %d건", n)
			}
		}),
	)
	if err != nil {
		log.Printf("Error running job: %s\n", err.Error())
		return
	}
	log.Printf("Job ID: %s\n", j.ID().String())
	sched.Start()
}
