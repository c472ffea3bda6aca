package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mvailland/cadence/internal/catalog"
	"github.com/mvailland/cadence/internal/config"
	"github.com/mvailland/cadence/internal/errmsg"
	"github.com/mvailland/cadence/internal/playback"
	"github.com/mvailland/cadence/internal/store"
	"github.com/mvailland/cadence/internal/stream"
	"github.com/mvailland/cadence/internal/transport"
	"github.com/mvailland/cadence/internal/transport/mpv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, errmsg.Format(errmsg.OpInitialize, err))
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	engine := mpv.New(cfg.MpvPath(), cfg.Transport.MpvArgs...)
	handle := transport.NewHandle(engine)
	defer handle.Close()

	orch := playback.New(handle, st, playback.WithProgressInterval(cfg.ProgressInterval()))
	if err := orch.Init(ctx); err != nil {
		return err
	}
	defer orch.Close()

	if cfg.Stream.MediaDir != "" {
		go serveStream(cfg)
	}

	var cat *catalog.Client
	if cfg.HasCatalog() {
		cat = catalog.New(cfg.Catalog.URL)
	}

	return controlLoop(ctx, orch, cat)
}

func openStore(cfg *config.Config) (*store.Manager, error) {
	if cfg.DataDir != "" {
		return store.OpenPath(filepath.Join(cfg.DataDir, "cadence.db"))
	}
	return store.Open()
}

func serveStream(cfg *config.Config) {
	h := stream.NewHandler(cfg.Stream.MediaDir)
	if err := http.ListenAndServe(cfg.StreamListenAddr(), h.Mux()); err != nil {
		fmt.Fprintln(os.Stderr, errmsg.Format(errmsg.OpStreamServe, err))
	}
}

// controlLoop reads commands from stdin until EOF or quit. It is the
// minimal interactive surface over the playback engine; a richer UI can
// replace it without touching the engine.
func controlLoop(ctx context.Context, orch *playback.Orchestrator, cat *catalog.Client) error {
	printStatus(orch)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		if cmd == "quit" || cmd == "q" {
			return nil
		}
		if msg := dispatch(ctx, orch, cat, cmd, args); msg != "" {
			fmt.Println(msg)
		}
	}
}

//nolint:cyclop // flat command table, one case per command
func dispatch(ctx context.Context, orch *playback.Orchestrator, cat *catalog.Client, cmd string, args []string) string {
	switch cmd {
	case "play":
		return errmsg.Format(errmsg.OpPlaybackStart, orch.Play(ctx))
	case "pause":
		return errmsg.Format(errmsg.OpPlaybackPause, orch.Pause(ctx))
	case "toggle", "p":
		return errmsg.Format(errmsg.OpPlaybackStart, orch.TogglePlay(ctx))
	case "next", "n":
		return errmsg.Format(errmsg.OpPlaybackNext, orch.Next(ctx))
	case "prev":
		return errmsg.Format(errmsg.OpPlaybackPrev, orch.Prev(ctx))
	case "seek":
		if len(args) != 1 {
			return "usage: seek <seconds>"
		}
		secs, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return "usage: seek <seconds>"
		}
		pos := time.Duration(secs * float64(time.Second))
		return errmsg.Format(errmsg.OpPlaybackSeek, orch.Seek(ctx, pos))
	case "goto":
		if len(args) != 1 {
			return "usage: goto <index>"
		}
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			return "usage: goto <index>"
		}
		return errmsg.Format(errmsg.OpPlaybackJump, orch.PlayAt(ctx, idx))
	case "rm":
		if len(args) != 1 {
			return "usage: rm <index>"
		}
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			return "usage: rm <index>"
		}
		orch.RemoveAt(idx)
		return ""
	case "shuffle", "s":
		return errmsg.Format(errmsg.OpShuffleToggle, orch.ToggleShuffle(ctx))
	case "repeat", "r":
		return errmsg.Format(errmsg.OpRepeatCycle, orch.CycleRepeatMode(ctx))
	case "load":
		return loadFromCatalog(ctx, orch, cat, args)
	case "queue", "ls":
		printQueue(orch)
		return ""
	case "status", "st":
		printStatus(orch)
		return ""
	case "help", "h":
		return "commands: play pause toggle next prev seek goto rm shuffle repeat load queue status quit"
	default:
		return fmt.Sprintf("unknown command %q (try help)", cmd)
	}
}

func loadFromCatalog(ctx context.Context, orch *playback.Orchestrator, cat *catalog.Client, args []string) string {
	if cat == nil {
		return "no catalog server configured"
	}

	limit := 200
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return "usage: load [limit]"
		}
		limit = n
	}

	tracks, err := cat.Tracks(ctx, limit)
	if err != nil {
		return errmsg.Format(errmsg.OpCatalogList, err)
	}
	if len(tracks) == 0 {
		return "catalog returned no tracks"
	}

	if err := orch.LoadQueue(ctx, cat.PlaybackTracks(tracks), 0); err != nil {
		return errmsg.Format(errmsg.OpQueueLoad, err)
	}
	return fmt.Sprintf("loaded %d tracks", len(tracks))
}

func printQueue(orch *playback.Orchestrator) {
	queue := orch.Queue()
	if len(queue) == 0 {
		fmt.Println("queue is empty")
		return
	}
	current := orch.Index()
	for i, trk := range queue {
		marker := "  "
		if i == current {
			marker = "> "
		}
		label := trk.Title
		if trk.Artist != "" {
			label = trk.Artist + " - " + label
		}
		fmt.Printf("%s%3d  %s\n", marker, i, label)
	}
}

func printStatus(orch *playback.Orchestrator) {
	current := orch.CurrentTrack()
	if current == nil {
		fmt.Println("nothing loaded")
		return
	}

	state := "paused"
	if orch.IsPlaying() {
		state = "playing"
	}

	flags := []string{}
	if orch.Shuffle() {
		flags = append(flags, "shuffle")
	}
	if mode := orch.RepeatMode(); mode != playback.RepeatOff {
		flags = append(flags, "repeat:"+mode.String())
	}
	suffix := ""
	if len(flags) > 0 {
		suffix = "  [" + strings.Join(flags, " ") + "]"
	}

	fmt.Printf("%s  %s - %s  %s/%s%s\n",
		state, current.Artist, current.Title,
		formatDuration(orch.Position()), formatDuration(orch.Duration()), suffix)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}
