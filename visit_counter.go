package main

// VisitCounter sends an incrementing int64 on its channel, stopping when it
// has issued maxcount visit numbers or when it receives a value on stop.
// If maxcount is 0, it runs until stop closes. It returns true if it stopped
// because of stop, false otherwise.
func VisitCounter(log Logger, maxcount int64, output chan int64, stop chan struct{}) bool {
	var count int64

	defer func() {
		log.Info("visit counter exiting after %d visits\n", count)
	}()

	for {
		if maxcount > 0 && count >= maxcount {
			return false
		}
		count++
		select {
		case <-stop:
			return true
		case output <- count:
			// do nothing
		}
	}
}
