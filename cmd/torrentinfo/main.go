// Command torrentinfo parses a .torrent file or a magnet URI given on
// the command line and prints its metainfo and announce list, the way
// cmd/omnicloud wires the session's subsystems together at startup but
// scoped to just this module's parse/inspect path.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/omnicloud/torrentcore/internal/quark"
	"github.com/omnicloud/torrentcore/internal/torrent"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <path-to-torrent-or-magnet-uri>\n", os.Args[0])
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	runID := uuid.New().String()
	if logPath := os.Getenv("TORRENTCORE_LOG_FILE"); logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Printf("[%s] warning: failed to open log file %q: %v", runID, logPath, err)
		} else {
			defer f.Close()
			log.SetOutput(f)
		}
	}

	arg := flag.Arg(0)
	log.Printf("[%s] inspecting %q", runID, arg)

	if m, err := torrent.ParseMagnet(arg); err == nil {
		printMagnet(m)
		return
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		log.Fatalf("[%s] cannot read %q: %v", runID, arg, err)
	}
	mi, err := torrent.Parse(data)
	if err != nil {
		log.Fatalf("[%s] failed to parse %q: %v", runID, arg, err)
	}
	printMetainfo(mi)
}

func printMagnet(m *torrent.Magnet) {
	fmt.Printf("magnet link\n")
	fmt.Printf("  info hash: %x\n", m.InfoHash)
	fmt.Printf("  name:      %s\n", m.Name)
	fmt.Printf("  trackers:  %d\n", len(m.Trackers))
	for _, tr := range m.Trackers {
		fmt.Printf("    - %s\n", tr)
	}
	fmt.Printf("  webseeds:  %d\n", len(m.Webseeds))
}

func printMetainfo(mi *torrent.Metainfo) {
	fmt.Printf("name:         %s\n", mi.Name)
	fmt.Printf("info hash:    %x\n", mi.InfoHash)
	fmt.Printf("piece size:   %d\n", mi.PieceSize)
	fmt.Printf("piece count:  %d\n", mi.PieceCount)
	fmt.Printf("total size:   %d\n", mi.TotalSize())
	fmt.Printf("private:      %v\n", mi.IsPrivate)
	fmt.Printf("files:        %d\n", len(mi.Files))
	for _, f := range mi.Files {
		fmt.Printf("  - %s (%d bytes)\n", joinPath(f.Path), f.Length)
	}
	if mi.Announce != nil && mi.Announce.Len() > 0 {
		fmt.Printf("trackers:\n")
		for i := 0; i < mi.Announce.Len(); i++ {
			e := mi.Announce.At(i)
			fmt.Printf("  tier %d: %s\n", e.Tier, quark.String(e.Announce))
		}
	}
	if len(mi.Webseeds) > 0 {
		fmt.Printf("webseeds:\n")
		for _, w := range mi.Webseeds {
			fmt.Printf("  - %s\n", w)
		}
	}
}

func joinPath(components []string) string {
	out := ""
	for i, c := range components {
		if i > 0 {
			out += "/"
		}
		out += c
	}
	return out
}
