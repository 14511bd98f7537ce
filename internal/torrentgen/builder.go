// Package torrentgen builds a torrent.Metainfo from a filesystem tree
// (§4.7 "Build"). It keeps the teacher's piece-hashing pipeline shape —
// a bounded worker pool fed by a single streaming reader — rebuilt on
// this module's own torrent.Metainfo instead of anacrolix/torrent's
// metainfo.Info, and with in-memory rather than Postgres-backed
// checkpointing since a library build has no multi-server resume
// requirement.
package torrentgen

import (
	"crypto/sha1"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/omnicloud/torrentcore/internal/announce"
	"github.com/omnicloud/torrentcore/internal/corerr"
	"github.com/omnicloud/torrentcore/internal/torrent"
)

// Options configures Build.
type Options struct {
	// PieceSize overrides the automatic size-tiered piece length.
	// Zero selects 16 MiB under 100 GiB of content, 32 MiB at or
	// above it, matching the teacher's calculatePieceSize tiers.
	PieceSize int64

	// Workers bounds the hashing worker pool. Zero defaults to 4,
	// matching the teacher's NewGenerator default; values above 16
	// are capped, matching its cap.
	Workers int

	Comment     string
	Source      string
	IsPrivate   bool
	Webseeds    []string
	Trackers    []string
	CreatedBy   string
	AnonCreator bool // omit CreatedBy/CreationDate when true
}

func (o Options) pieceSize(totalSize int64) int64 {
	if o.PieceSize > 0 {
		return o.PieceSize
	}
	const (
		size100GiB = 100 * 1024 * 1024 * 1024
		size16MiB  = 16 * 1024 * 1024
		size32MiB  = 32 * 1024 * 1024
	)
	if totalSize < size100GiB {
		return size16MiB
	}
	return size32MiB
}

func (o Options) workers() int {
	n := o.Workers
	if n <= 0 {
		n = 4
	}
	if n > 16 {
		n = 16
	}
	return n
}

type fileRef struct {
	absPath string
	rel     []string
	size    int64
}

// Build walks root (a single file or a directory tree), hashes its
// content into fixed-size pieces with a bounded worker pool, and
// returns the resulting Metainfo along with the encoded .torrent bytes.
func Build(root string, opts Options) (*torrent.Metainfo, []byte, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, nil, corerr.Wrap(corerr.IoFailure, "cannot stat build root", err)
	}

	files, name, err := collectFiles(root, fi)
	if err != nil {
		return nil, nil, err
	}
	var total int64
	for _, f := range files {
		total += f.size
	}

	pieceSize := opts.pieceSize(total)
	pieces, err := hashPieces(files, pieceSize, opts.workers())
	if err != nil {
		return nil, nil, err
	}

	al := announce.New()
	for _, tr := range opts.Trackers {
		if _, err := al.Add(tr, al.NextTier()); err != nil {
			return nil, nil, err
		}
	}

	m := &torrent.Metainfo{
		Name:      name,
		Comment:   opts.Comment,
		Source:    opts.Source,
		IsPrivate: opts.IsPrivate,
		PieceSize: pieceSize,
		Pieces:    pieces,
		Webseeds:  opts.Webseeds,
		Announce:  al,
	}
	m.PieceCount = len(pieces)
	if !opts.AnonCreator {
		m.Creator = opts.CreatedBy
	}
	for _, f := range files {
		m.Files = append(m.Files, torrent.FileEntry{Path: f.rel, Length: f.size})
	}

	encoded := m.Encode()
	return m, encoded, nil
}

func collectFiles(root string, fi os.FileInfo) ([]fileRef, string, error) {
	name := fi.Name()
	if !fi.IsDir() {
		return []fileRef{{absPath: root, rel: []string{name}, size: fi.Size()}}, name, nil
	}

	var files []fileRef
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		comps := splitRelPath(rel)
		if !torrent.IsSubpathPortable(comps) {
			return corerr.Newf(corerr.PathUnsafe, "unsafe path component in %q", rel)
		}
		files = append(files, fileRef{absPath: p, rel: comps, size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, "", corerr.Wrap(corerr.IoFailure, "failed to walk build root", err)
	}
	sort.Slice(files, func(i, j int) bool {
		return filepath.Join(files[i].rel...) < filepath.Join(files[j].rel...)
	})
	return files, name, nil
}

func splitRelPath(rel string) []string {
	rel = filepath.ToSlash(rel)
	var out []string
	for _, c := range splitSlash(rel) {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func splitSlash(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

type pieceJob struct {
	index int
	data  []byte
}

// hashPieces streams file content through a bounded worker pool one
// piece at a time, holding at most about pieceSize*(workers*3+2) bytes
// at once: up to workers*2 queued pieces, one piece per busy worker,
// one piece waiting to be queued, and the piece being filled.
func hashPieces(files []fileRef, pieceSize int64, workers int) ([]torrent.PieceHash, error) {
	var total int64
	for _, f := range files {
		total += f.size
	}
	pieceCount := int((total + pieceSize - 1) / pieceSize)
	if pieceCount == 0 {
		pieceCount = 0
	}
	results := make([]torrent.PieceHash, pieceCount)

	jobs := make(chan pieceJob, workers*2)
	var wg sync.WaitGroup
	var firstErr error
	var errMu sync.Mutex

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results[job.index] = torrent.PieceHash(sha1.Sum(job.data))
			}
		}()
	}

	current := make([]byte, 0, pieceSize)
	index := 0
	flush := func() {
		if len(current) == 0 {
			return
		}
		buf := make([]byte, len(current))
		copy(buf, current)
		jobs <- pieceJob{index: index, data: buf}
		index++
		current = current[:0]
	}

	readBuf := make([]byte, 512*1024)
	for _, f := range files {
		if err := func() error {
			fh, err := os.Open(f.absPath)
			if err != nil {
				return corerr.Wrap(corerr.IoFailure, "failed to open "+f.absPath, err)
			}
			defer fh.Close()
			for {
				n, err := fh.Read(readBuf)
				if n > 0 {
					chunk := readBuf[:n]
					for len(chunk) > 0 {
						room := int(pieceSize) - len(current)
						take := len(chunk)
						if take > room {
							take = room
						}
						current = append(current, chunk[:take]...)
						chunk = chunk[take:]
						if len(current) == int(pieceSize) {
							flush()
						}
					}
				}
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return corerr.Wrap(corerr.IoFailure, "failed reading "+f.absPath, err)
				}
			}
		}(); err != nil {
			errMu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			errMu.Unlock()
			break
		}
	}
	flush()
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if len(current) != 0 {
		return nil, corerr.New(corerr.IoFailure, "internal error: unflushed tail piece")
	}
	return results, nil
}
