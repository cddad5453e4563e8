// feedsim writes a synthetic telemetry file the way the simulator's data
// plugin does: the whole file truncated and rewritten each tick with one
// key:value|key:value line. Useful for exercising the dashboard without a
// running simulator.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

var (
	out      = flag.String("out", "GetData.txt", "Output file path")
	interval = flag.Duration("interval", 200*time.Millisecond, "Write interval")
	topSpeed = flag.Float64("top-speed", 35.0, "Cruising speed in m/s")
	length   = flag.Float64("length", 69.8, "Train length in metres")
	loco     = flag.String("loco", "RSC_Class323Pack01 Class 323", "Loco name field")
	kph      = flag.Bool("kph", false, "Report a KPH speedometer")
)

// scenario is a simple out-and-back speed schedule: pull away, cruise,
// pass a restriction, recover.
type scenario struct {
	simTime float64
	speed   float64
}

func (s *scenario) tick(dt float64) {
	s.simTime += dt

	// Accelerate at 0.5 m/s^2 to the cruising speed, then hold.
	target := *topSpeed
	if s.speed < target {
		s.speed = math.Min(target, s.speed+0.5*dt)
	}
}

// limits describes the speed restriction ahead of the train. The boundary
// starts 2km out and closes at line speed; after passing it, the next
// boundary is reported far away at a higher limit.
func (s *scenario) limits() (current, next, distance float64) {
	const boundaryAt = 2000.0
	travelled := s.speed * s.simTime // crude but fine for a fixture

	if travelled < boundaryAt {
		return 100.0, 40.0, boundaryAt - travelled
	}
	return 40.0, 100.0, 4000.0 - travelled
}

func (s *scenario) line() string {
	current, next, distance := s.limits()
	speedoType := 1.0
	if *kph {
		speedoType = 2.0
	}

	fields := []string{
		fmt.Sprintf("SimulationTime:%.3f", s.simTime),
		fmt.Sprintf("CurrentSpeed:%.4f", s.speed),
		fmt.Sprintf("SpeedoType:%.0f", speedoType),
		fmt.Sprintf("CurrentSpeedLimit:%.1f", current),
		fmt.Sprintf("NextSpeedLimitSpeed:%.1f", next),
		fmt.Sprintf("NextSpeedLimitDistance:%.1f", distance),
		fmt.Sprintf("TrainLength:%.1f", *length),
		fmt.Sprintf("CurvatureActual:%.5f", 0.002*math.Sin(s.simTime/30)),
		fmt.Sprintf("Gradient:%.2f", 0.0),
		"Regulator:0.75",
		"TrainBrakeControl:0.0",
		"LocoName:" + *loco,
	}
	return strings.Join(fields, "|")
}

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("writing synthetic telemetry to %s every %v", *out, *interval)

	s := &scenario{}
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Print("stopped")
			return
		case <-ticker.C:
			s.tick(interval.Seconds())
			if err := os.WriteFile(*out, []byte(s.line()+"\n"), 0o644); err != nil {
				log.Printf("writing %s: %v", *out, err)
			}
		}
	}
}
