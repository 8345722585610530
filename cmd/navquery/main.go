package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
)

func main() {
	profile := flag.String("profile", "default", "navigation profile in config/profiles (basename) or a .yaml path")
	levelName := flag.String("level", "", "level name in levels/ (basename, .json optional); overrides the profile")
	from := flag.String("from", "", "start position in world units as x,y (default: player spawn)")
	to := flag.String("to", "", "goal position in world units as x,y (default: first enemy spawn)")
	solver := flag.String("solver", "", "astar, dijkstra or dijkstra_euclidean; overrides the profile")
	repeat := flag.Int("repeat", 1, "run the query n times to exercise the path cache")
	usePhysics := flag.Bool("physics", false, "build the mesh from the level's chipmunk space")
	script := flag.String("script", "", "tengo script in scripting/scripts (basename) or a .tengo path")
	frames := flag.Int("frames", 300, "frames to run the script for")
	watch := flag.Bool("watch", false, "rerun when profiles, levels or scripts change")
	flag.Parse()

	s, err := newSession(options{
		profile: *profile,
		level:   *levelName,
		from:    *from,
		to:      *to,
		solver:  *solver,
		repeat:  *repeat,
		physics: *usePhysics,
		script:  *script,
		frames:  *frames,
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := s.run(); err != nil {
		log.Fatal(err)
	}
	if !*watch {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := s.watch(ctx); err != nil {
		log.Fatal(err)
	}
}
