// Package checkpoint serialises a frontier and its consumed mark-entry prefix into a single
// compressed blob, and reverses the process (spec §4.8/§6).
//
// The wire format is two NUL-joined JSON documents, compressed as a whole. spec §6 calls for
// Brotli; no repository in the example pack this module was built from imports a Brotli
// implementation, so github.com/klauspost/compress's zstd codec is substituted (see DESIGN.md).
package checkpoint

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/herohde/steno/pkg/board"
	"github.com/herohde/steno/pkg/board/fen"
	"github.com/herohde/steno/pkg/steno/model"
	"github.com/herohde/steno/pkg/steno/stenoerr"
)

// wireMoveSet and wirePosition mirror model.MoveSet/model.Position in a JSON-friendly shape:
// a Position's board is not serialised directly, only its FEN position key, per spec §4.8
// ("the board of every Position is reconstructed from the key FEN").
type wireMoveSet struct {
	SAN        []string `json:"san"`
	Result     string   `json:"result,omitempty"`
	Captures   string   `json:"captures,omitempty"`
	Promotions string   `json:"promotions,omitempty"`
}

type wirePosition struct {
	Key         string        `json:"key"`
	CheckFuture bool          `json:"check_future"`
	MoveSets    []wireMoveSet `json:"move_sets"`
}

type wireMarkEntry struct {
	Index      int    `json:"index"`
	Marks      string `json:"marks"`
	Conditions string `json:"conditions"`
}

// Save serialises the frontier and the consumed mark-entry prefix (marks/conditions only,
// trailing '$' removed, per spec §4.8) into a compressed blob.
func Save(fr model.Frontier, prefix []model.MarkEntry, render func(model.MarkEntry) (marks, conds string)) ([]byte, error) {
	positions := make([]wirePosition, 0, len(fr))
	for _, key := range fr.Keys() {
		p := fr[key]
		wp := wirePosition{Key: p.Key, CheckFuture: p.CheckFuture}
		for _, ms := range p.MoveSets {
			wp.MoveSets = append(wp.MoveSets, wireMoveSet{SAN: ms.SAN, Result: ms.Result, Captures: ms.Captures, Promotions: ms.Promotions})
		}
		positions = append(positions, wp)
	}

	entries := make([]wireMarkEntry, 0, len(prefix))
	for _, e := range prefix {
		marks, conds := render(e)
		entries = append(entries, wireMarkEntry{Index: e.Index, Marks: marks, Conditions: conds})
	}

	frJSON, err := json.Marshal(positions)
	if err != nil {
		return nil, stenoerr.Wrap(stenoerr.InvalidFile, err, "encoding frontier")
	}
	prefixJSON, err := json.Marshal(entries)
	if err != nil {
		return nil, stenoerr.Wrap(stenoerr.InvalidFile, err, "encoding mark prefix")
	}

	var blob bytes.Buffer
	blob.Write(frJSON)
	blob.WriteByte(0)
	blob.Write(prefixJSON)

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, stenoerr.Wrap(stenoerr.InvalidFile, err, "creating compressor")
	}
	defer enc.Close()

	return enc.EncodeAll(blob.Bytes(), nil), nil
}

// Loaded is the decoded, not-yet-reconstructed checkpoint contents.
type Loaded struct {
	Frontier model.Frontier
	Prefix   []wireMarkEntry
}

// Load decompresses and decodes a checkpoint blob, reconstructing each Position's board from
// its key FEN plus a derived half-move number (moves_of_first_moveset/2 + 2, spec §4.8).
func Load(data []byte) (*Loaded, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, stenoerr.Wrap(stenoerr.InvalidCheckpointChunk, err, "creating decompressor")
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, stenoerr.Wrap(stenoerr.InvalidCheckpointChunk, err, "decompressing checkpoint")
	}

	parts := bytes.SplitN(raw, []byte{0}, 2)
	if len(parts) != 2 {
		return nil, stenoerr.New(stenoerr.InvalidCheckpointChunk, "malformed checkpoint: missing NUL separator")
	}

	var positions []wirePosition
	if err := json.Unmarshal(parts[0], &positions); err != nil {
		return nil, stenoerr.Wrap(stenoerr.InvalidCheckpointChunk, err, "decoding frontier")
	}
	var entries []wireMarkEntry
	if err := json.Unmarshal(parts[1], &entries); err != nil {
		return nil, stenoerr.Wrap(stenoerr.InvalidCheckpointChunk, err, "decoding mark prefix")
	}

	fr := make(model.Frontier, len(positions))
	for _, wp := range positions {
		moveCount := 0
		if len(wp.MoveSets) > 0 {
			moveCount = len(wp.MoveSets[0].SAN)
		}
		halfmoveNumber := moveCount/2 + 2

		b, turn, _, _, err := fen.Decode(wp.Key + fmt.Sprintf(" 0 %d", halfmoveNumber))
		if err != nil {
			return nil, stenoerr.Wrap(stenoerr.InvalidFen, err, "reconstructing position %q", wp.Key)
		}

		p := &model.Position{Key: wp.Key, Board: board.NewBoard(b, turn, 0, halfmoveNumber), CheckFuture: wp.CheckFuture}
		for _, wms := range wp.MoveSets {
			p.MoveSets = append(p.MoveSets, model.MoveSet{SAN: wms.SAN, Result: wms.Result, Captures: wms.Captures, Promotions: wms.Promotions})
		}
		fr[wp.Key] = p
	}

	return &Loaded{Frontier: fr, Prefix: entries}, nil
}
