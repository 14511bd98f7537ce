package torrent

import (
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/omnicloud/torrentcore/internal/announce"
	"github.com/omnicloud/torrentcore/internal/corerr"
)

// Magnet is a parsed magnet: URI (§4.7 "Magnet-link input", BEP-9).
// It carries only what a v1 magnet link can express: the info-hash,
// a display name, trackers, and webseeds; the info dict itself is
// absent until a MetadataTransfer completes it.
type Magnet struct {
	InfoHash [20]byte
	Name     string
	Trackers []string
	Webseeds []string
}

// ParseMagnet parses a "magnet:?xt=urn:btih:<40-hex>&dn=...&tr=...&ws=..."
// URI. Unknown query parameters are ignored per BEP-9.
func ParseMagnet(raw string) (*Magnet, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "magnet" {
		return nil, corerr.New(corerr.ParseFailure, "not a magnet URI")
	}
	q := u.Query()

	var hashHex string
	for _, xt := range q["xt"] {
		const prefix = "urn:btih:"
		if strings.HasPrefix(xt, prefix) {
			hashHex = xt[len(prefix):]
			break
		}
	}
	if len(hashHex) != 40 {
		return nil, corerr.New(corerr.ParseFailure, "magnet URI missing a 40-hex-char v1 info-hash")
	}
	hashBytes, err := hex.DecodeString(hashHex)
	if err != nil {
		return nil, corerr.Wrap(corerr.ParseFailure, "info-hash is not valid hex", err)
	}

	m := &Magnet{Name: q.Get("dn"), Trackers: q["tr"], Webseeds: q["ws"]}
	copy(m.InfoHash[:], hashBytes)
	return m, nil
}

// Magnet serializes back to a magnet: URI. Query parameter order is
// xt, dn (if set), tr*, ws* — not specified by BEP-9 but kept stable
// so Magnet(ParseMagnet(s)) is deterministic.
func (m *Magnet) Magnet() string {
	var sb strings.Builder
	sb.WriteString("magnet:?xt=urn:btih:")
	sb.WriteString(hex.EncodeToString(m.InfoHash[:]))
	if m.Name != "" {
		sb.WriteString("&dn=")
		sb.WriteString(url.QueryEscape(m.Name))
	}
	for _, tr := range m.Trackers {
		sb.WriteString("&tr=")
		sb.WriteString(url.QueryEscape(tr))
	}
	for _, ws := range m.Webseeds {
		sb.WriteString("&ws=")
		sb.WriteString(url.QueryEscape(ws))
	}
	return sb.String()
}

// ToMetainfo builds an incomplete Metainfo from a magnet link: no
// files or pieces yet, just the fields a magnet can express. A
// subsequent MetadataTransfer fills in the info dict.
func (m *Magnet) ToMetainfo() (*Metainfo, error) {
	al := announce.New()
	for _, tr := range m.Trackers {
		if _, err := al.Add(tr, al.NextTier()); err != nil {
			return nil, err
		}
	}
	return &Metainfo{
		InfoHash: m.InfoHash,
		Name:     m.Name,
		Webseeds: m.Webseeds,
		Announce: al,
	}, nil
}
