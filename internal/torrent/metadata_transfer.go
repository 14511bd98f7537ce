package torrent

import (
	"crypto/sha1"
	"time"

	"github.com/omnicloud/torrentcore/internal/bencode"
	"github.com/omnicloud/torrentcore/internal/corerr"
	"github.com/omnicloud/torrentcore/internal/quark"
	"github.com/omnicloud/torrentcore/internal/variant"
)

// MetadataPieceSize is the BEP-9 chunk size for ut_metadata transfer.
const MetadataPieceSize = 16 * 1024

// metadataQuietPeriod is how long a requested piece must go unanswered
// before it is eligible to be requested again (§4.7).
const metadataQuietPeriod = 3 * time.Second

// MetadataTransfer drives a BEP-9 "incomplete metadata" download: it
// schedules 16 KiB piece requests with a quiet-period retry policy,
// validates and stores received pieces, and assembles + verifies the
// complete info dict once every piece has arrived.
type MetadataTransfer struct {
	size       int64
	pieceCount int
	pieces     [][]byte
	have       int

	queue []metadataQueueEntry
}

type metadataQueueEntry struct {
	index         int
	lastRequested time.Time
}

// NewMetadataTransfer starts a transfer for an info dict of exactly
// size bytes, splitting it into MetadataPieceSize chunks.
func NewMetadataTransfer(size int64) *MetadataTransfer {
	count := int((size + MetadataPieceSize - 1) / MetadataPieceSize)
	t := &MetadataTransfer{
		size:       size,
		pieceCount: count,
		pieces:     make([][]byte, count),
		queue:      make([]metadataQueueEntry, count),
	}
	for i := range t.queue {
		t.queue[i] = metadataQueueEntry{index: i}
	}
	return t
}

// PieceCount reports how many 16 KiB pieces make up the info dict.
func (t *MetadataTransfer) PieceCount() int { return t.pieceCount }

// pieceLen returns the expected length of piece index: MetadataPieceSize
// for every piece but the last, which holds whatever remains.
func (t *MetadataTransfer) pieceLen(index int) int64 {
	remaining := t.size - int64(index)*MetadataPieceSize
	if remaining > MetadataPieceSize {
		return MetadataPieceSize
	}
	return remaining
}

// NextRequest returns the next piece index to request as of now: the
// queue front, but only if it was last requested more than the quiet
// period ago (or never). On success the entry is moved to the tail
// with its timestamp updated, matching the request-queue contract in
// §4.7.
func (t *MetadataTransfer) NextRequest(now time.Time) (int, bool) {
	if len(t.queue) == 0 {
		return 0, false
	}
	front := t.queue[0]
	if !front.lastRequested.IsZero() && now.Sub(front.lastRequested) <= metadataQuietPeriod {
		return 0, false
	}
	t.queue = append(t.queue[1:], metadataQueueEntry{index: front.index, lastRequested: now})
	return front.index, true
}

// Deliver records a received piece, validating its length against the
// piece's expected size for its position. Delivering an already-held
// piece is a no-op (idempotent under duplicate/retransmitted data).
func (t *MetadataTransfer) Deliver(index int, data []byte) error {
	if index < 0 || index >= t.pieceCount {
		return corerr.Newf(corerr.ParseFailure, "metadata piece index %d out of range [0,%d)", index, t.pieceCount)
	}
	want := t.pieceLen(index)
	if int64(len(data)) != want {
		return corerr.Newf(corerr.ParseFailure, "metadata piece %d: got %d bytes, want %d", index, len(data), want)
	}
	if t.pieces[index] != nil {
		return nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	t.pieces[index] = cp
	t.have++

	for i, e := range t.queue {
		if e.index == index {
			t.queue = append(t.queue[:i], t.queue[i+1:]...)
			break
		}
	}
	return nil
}

// Complete reports whether every piece has been received.
func (t *MetadataTransfer) Complete() bool { return t.have == t.pieceCount }

// Restart discards all progress, returning every piece to the request
// queue in index order. Called after a hash mismatch (§4.7: "on
// mismatch the download is discarded and restarted").
func (t *MetadataTransfer) Restart() {
	for i := range t.pieces {
		t.pieces[i] = nil
	}
	t.have = 0
	t.queue = make([]metadataQueueEntry, t.pieceCount)
	for i := range t.queue {
		t.queue[i] = metadataQueueEntry{index: i}
	}
}

// Assemble concatenates every received piece and verifies it hashes to
// infoHash. On success it returns the raw info-dict bytes. On mismatch
// it calls Restart and returns a HashMismatch error, per §4.7.
func (t *MetadataTransfer) Assemble(infoHash [20]byte) ([]byte, error) {
	if !t.Complete() {
		return nil, corerr.New(corerr.ParseFailure, "metadata transfer is not complete")
	}
	buf := make([]byte, 0, t.size)
	for _, p := range t.pieces {
		buf = append(buf, p...)
	}
	if sha1.Sum(buf) != infoHash {
		t.Restart()
		return nil, corerr.New(corerr.HashMismatch, "assembled info dict does not match info-hash")
	}
	return buf, nil
}

// FinishMagnet combines a magnet's already-known outer fields
// (trackers, webseeds) with a just-assembled raw info-dict byte string
// into a complete .torrent document, and parses the result back into a
// Metainfo so the caller gets the same validated view Parse would
// produce from a file on disk.
func FinishMagnet(m *Magnet, infoBytes []byte) (*Metainfo, []byte, error) {
	infoVal, _, err := bencode.Decode(infoBytes, bencode.Options{})
	if err != nil {
		return nil, nil, err
	}

	top := variant.Map()
	top.InsertOrAssign(quark.KeyInfo, infoVal)
	if len(m.Trackers) > 0 {
		top.InsertOrAssign(quark.KeyAnnounce, variant.String(m.Trackers[0]))
	}
	if len(m.Webseeds) > 0 {
		wsVec := variant.Vector()
		for _, w := range m.Webseeds {
			wsVec.PushString(w)
		}
		top.InsertOrAssign(quark.KeyURLList, wsVec)
	}
	if len(m.Trackers) > 1 {
		tiersVec := variant.Vector()
		for _, tr := range m.Trackers {
			tier := variant.Vector()
			tier.PushString(tr)
			tiersVec.PushVariant(tier)
		}
		top.InsertOrAssign(quark.KeyAnnounceList, tiersVec)
	}

	out := bencode.Encode(&top)
	mi, err := Parse(out)
	if err != nil {
		return nil, nil, err
	}
	return mi, out, nil
}
