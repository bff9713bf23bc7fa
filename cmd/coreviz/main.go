// Command coreviz is a thin wiring harness: it binds the LiDAR UDP port,
// builds a Pipeline with the default configuration, and drives one Tick per
// loop iteration, logging the result. It contains no core logic of its own —
// everything interesting lives in pkg/core and the internal packages it
// composes.
package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/chd-flightcore/lidar-core/internal/geometry"
	"github.com/chd-flightcore/lidar-core/internal/telemetry"
	"github.com/chd-flightcore/lidar-core/pkg/core"
)

const lidarPort = 56301

func main() {
	warnTrigger := flag.Float64("warn-trigger-distance", 0.75, "avoidance warn-trigger distance, meters")
	goalX := flag.Float64("goal-x", 0, "APF goal X, sensor frame meters")
	goalY := flag.Float64("goal-y", 0, "APF goal Y, sensor frame meters")
	goalZ := flag.Float64("goal-z", 0, "APF goal Z, sensor frame meters")
	planGoal := flag.Bool("plan", false, "run APF toward the goal each tick")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: lidarPort})
	if err != nil {
		sugar.Fatalw("bind lidar udp port", "port", lidarPort, "error", err)
	}
	defer conn.Close()

	config := core.DefaultCoreConfig()
	config.WarnTriggerDistance = float32(*warnTrigger)
	config.Logger = sugar

	pipeline := core.NewPipeline(conn, config, telemetry.NewLogPublisher(sugar))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var goal *geometry.Vector3
	if *planGoal {
		goal = &geometry.Vector3{X: float32(*goalX), Y: float32(*goalY), Z: float32(*goalZ)}
	}

	for ctx.Err() == nil {
		result, err := pipeline.Tick(ctx, goal)
		if err != nil {
			sugar.Errorw("tick failed", "error", err)
			continue
		}
		sugar.Infow("tick complete",
			"frame_id", result.FrameID,
			"points_in", result.PointsIn,
			"occupied_depths", len(result.Occupancy),
		)
	}
}
