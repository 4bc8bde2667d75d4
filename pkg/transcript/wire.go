package transcript

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kzg-ceremony/sequencer/pkg/ceremony"
	"github.com/kzg-ceremony/sequencer/pkg/codec"
	"github.com/kzg-ceremony/sequencer/pkg/curve"
)

// hexEncode encodes a compressed point as a lowercase "0x"-prefixed hex
// string. hexDecode rejects uppercase hex digits, matching the wire format's
// case-sensitivity requirement.
func hexEncode(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

func hexDecode(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") {
		if strings.HasPrefix(s, "0X") {
			return nil, fmt.Errorf("transcript: uppercase 0x prefix is rejected: %q", s)
		}
		return nil, &codec.Error{Kind: codec.MissingPrefix}
	}
	trimmed := s[len("0x"):]
	if strings.ToLower(trimmed) != trimmed {
		return nil, fmt.Errorf("transcript: uppercase hex digits are rejected: %q", s)
	}
	return hex.DecodeString(trimmed)
}

func encodeG1(p curve.G1Affine) string {
	b := codec.EncodeG1(p)
	return hexEncode(b[:])
}

func encodeG2(p curve.G2Affine) string {
	b := codec.EncodeG2(p)
	return hexEncode(b[:])
}

func decodeG1(s string) (curve.G1Affine, error) {
	raw, err := hexDecode(s)
	if err != nil {
		return curve.G1Affine{}, err
	}
	return codec.DecodeG1(raw)
}

func decodeG2(s string) (curve.G2Affine, error) {
	raw, err := hexDecode(s)
	if err != nil {
		return curve.G2Affine{}, err
	}
	return codec.DecodeG2(raw)
}

type wirePowersOfTau struct {
	G1Powers []string `json:"G1Powers"`
	G2Powers []string `json:"G2Powers"`
}

type wireWitness struct {
	RunningProducts []string `json:"runningProducts"`
	PotPubkeys      []string `json:"potPubkeys"`
	BLSSignatures   []*string `json:"blsSignatures"`
}

type wireSubTranscript struct {
	NumG1Powers int             `json:"numG1Powers"`
	NumG2Powers int             `json:"numG2Powers"`
	PowersOfTau wirePowersOfTau `json:"powersOfTau"`
	Witness     wireWitness     `json:"witness"`
}

type wireBatchTranscript struct {
	Transcripts                []wireSubTranscript `json:"transcripts"`
	ParticipantIDs              []string            `json:"participantIds"`
	ParticipantECDSASignatures []*string           `json:"participantEcdsaSignatures"`
}

func toWireSubTranscript(t SubTranscript) (wireSubTranscript, error) {
	g1 := make([]string, len(t.Powers.G1))
	for i, p := range t.Powers.G1 {
		g1[i] = encodeG1(p)
	}
	g2 := make([]string, len(t.Powers.G2))
	for i, p := range t.Powers.G2 {
		g2[i] = encodeG2(p)
	}
	products := make([]string, len(t.Witness.RunningProducts))
	for i, p := range t.Witness.RunningProducts {
		products[i] = encodeG1(p)
	}
	pubkeys := make([]string, len(t.Witness.PotPubkeys))
	for i, p := range t.Witness.PotPubkeys {
		pubkeys[i] = encodeG2(p)
	}
	return wireSubTranscript{
		NumG1Powers: t.Size.NumG1,
		NumG2Powers: t.Size.NumG2,
		PowersOfTau: wirePowersOfTau{G1Powers: g1, G2Powers: g2},
		Witness: wireWitness{
			RunningProducts: products,
			PotPubkeys:      pubkeys,
			BLSSignatures:   t.Witness.BLSSignatures,
		},
	}, nil
}

func fromWireSubTranscript(w wireSubTranscript) (SubTranscript, error) {
	g1 := make([]curve.G1Affine, len(w.PowersOfTau.G1Powers))
	for i, s := range w.PowersOfTau.G1Powers {
		p, err := decodeG1(s)
		if err != nil {
			return SubTranscript{}, fmt.Errorf("transcript: G1Powers[%d]: %w", i, err)
		}
		g1[i] = p
	}
	g2 := make([]curve.G2Affine, len(w.PowersOfTau.G2Powers))
	for i, s := range w.PowersOfTau.G2Powers {
		p, err := decodeG2(s)
		if err != nil {
			return SubTranscript{}, fmt.Errorf("transcript: G2Powers[%d]: %w", i, err)
		}
		g2[i] = p
	}
	products := make([]curve.G1Affine, len(w.Witness.RunningProducts))
	for i, s := range w.Witness.RunningProducts {
		p, err := decodeG1(s)
		if err != nil {
			return SubTranscript{}, fmt.Errorf("transcript: runningProducts[%d]: %w", i, err)
		}
		products[i] = p
	}
	pubkeys := make([]curve.G2Affine, len(w.Witness.PotPubkeys))
	for i, s := range w.Witness.PotPubkeys {
		p, err := decodeG2(s)
		if err != nil {
			return SubTranscript{}, fmt.Errorf("transcript: potPubkeys[%d]: %w", i, err)
		}
		pubkeys[i] = p
	}
	return SubTranscript{
		Size:   ceremony.Size{NumG1: w.NumG1Powers, NumG2: w.NumG2Powers},
		Powers: ceremony.PowersOfTau{G1: g1, G2: g2},
		Witness: Witness{
			RunningProducts: products,
			PotPubkeys:      pubkeys,
			BLSSignatures:   w.Witness.BLSSignatures,
		},
	}, nil
}

// MarshalJSON implements the transcript JSON wire format from the external
// interface table: { transcripts, participantIds, participantEcdsaSignatures }.
func (bt *BatchTranscript) MarshalJSON() ([]byte, error) {
	bt.mu.RLock()
	defer bt.mu.RUnlock()

	w := wireBatchTranscript{
		ParticipantIDs:              bt.participantIDs,
		ParticipantECDSASignatures: bt.participantECDSASignatures,
	}
	w.Transcripts = make([]wireSubTranscript, len(bt.transcripts))
	for i, t := range bt.transcripts {
		wt, err := toWireSubTranscript(t)
		if err != nil {
			return nil, err
		}
		w.Transcripts[i] = wt
	}
	return json.Marshal(w)
}

// UnmarshalJSON reconstructs a BatchTranscript from its wire form. Unknown
// fields are rejected via json.Decoder.DisallowUnknownFields.
func (bt *BatchTranscript) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	var w wireBatchTranscript
	if err := dec.Decode(&w); err != nil {
		return fmt.Errorf("transcript: decode: %w", err)
	}

	subs := make([]SubTranscript, len(w.Transcripts))
	for i, wt := range w.Transcripts {
		s, err := fromWireSubTranscript(wt)
		if err != nil {
			return fmt.Errorf("transcript: sub-transcript %d: %w", i, err)
		}
		subs[i] = s
	}

	bt.mu.Lock()
	defer bt.mu.Unlock()
	bt.transcripts = subs
	bt.participantIDs = w.ParticipantIDs
	bt.participantECDSASignatures = w.ParticipantECDSASignatures
	return nil
}
