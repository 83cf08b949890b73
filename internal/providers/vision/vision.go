// Package vision wraps the managed recognition APIs for the gate:
// plate OCR and face search. The heavy lifting happens remotely;
// locally we only filter the OCR candidates through the plate
// heuristics and apply the face-match threshold.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/smartcondo/condominio/internal/config"
	vehicledomain "github.com/smartcondo/condominio/internal/vehicle/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Candidate struct {
	Plate      string  `json:"plate"`
	Confidence float64 `json:"confidence"`
}

type Result struct {
	// Plate is the best candidate after filtering, normalized. Empty
	// when no candidate survives the heuristics.
	Plate      string      `json:"plate"`
	Confidence float64     `json:"confidence"`
	Candidates []Candidate `json:"candidates"`
}

// FaceMatch is the outcome of a face search. UserRef carries the
// external image id the collection was seeded with, which is our user
// id.
type FaceMatch struct {
	Matched    bool    `json:"matched"`
	UserRef    string  `json:"user_ref,omitempty"`
	Confidence float64 `json:"confidence"`
}

type Provider interface {
	RecognizePlate(ctx context.Context, imageURL string) (Result, error)
	VerifyFace(ctx context.Context, imageURL string) (FaceMatch, error)
}

var (
	ErrNotConfigured = errors.New("vision_provider_not_configured")
	ErrRemoteFailure = errors.New("vision_remote_failure")
	ErrNoPlateFound  = errors.New("no_plate_found")
)

// faceMatchThreshold mirrors the collection's FaceMatchThreshold;
// matches below it are reported as no match.
const faceMatchThreshold = 85.0

type restProvider struct {
	client       *retryablehttp.Client
	endpoint     string
	faceEndpoint string
	apiKey       string
	log          *zap.Logger
}

type Params struct {
	fx.In

	Cfg config.Config
	Log *zap.Logger
}

func New(p Params) Provider {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil
	return &restProvider{
		client:       client,
		endpoint:     p.Cfg.VisionEndpoint,
		faceEndpoint: p.Cfg.VisionFaceEndpoint,
		apiKey:       p.Cfg.VisionAPIKey,
		log:          p.Log.Named("vision"),
	}
}

var Module = fx.Module("providers.vision",
	fx.Provide(New),
)

func (p *restProvider) RecognizePlate(ctx context.Context, imageURL string) (Result, error) {
	if p.endpoint == "" {
		return Result{}, ErrNotConfigured
	}

	body, err := json.Marshal(map[string]string{"image_url": imageURL})
	if err != nil {
		return Result{}, err
	}
	req, err := retryablehttp.NewRequestWithContext(
		ctx, http.MethodPost, p.endpoint, bytes.NewReader(body),
	)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Warn("recognition request failed", zap.Error(err))
		return Result{}, ErrRemoteFailure
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}
	if resp.StatusCode >= 400 {
		p.log.Warn("recognition failed", zap.Int("status", resp.StatusCode))
		return Result{}, ErrRemoteFailure
	}

	var parsed struct {
		Results []struct {
			Plate      string  `json:"plate"`
			Confidence float64 `json:"confidence"`
		} `json:"results"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Result{}, err
	}

	candidates := make([]Candidate, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		candidates = append(candidates, Candidate{Plate: r.Plate, Confidence: r.Confidence})
	}
	return SelectBest(candidates)
}

func (p *restProvider) VerifyFace(ctx context.Context, imageURL string) (FaceMatch, error) {
	if p.faceEndpoint == "" {
		return FaceMatch{}, ErrNotConfigured
	}

	body, err := json.Marshal(map[string]string{"image_url": imageURL})
	if err != nil {
		return FaceMatch{}, err
	}
	req, err := retryablehttp.NewRequestWithContext(
		ctx, http.MethodPost, p.faceEndpoint, bytes.NewReader(body),
	)
	if err != nil {
		return FaceMatch{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Warn("face search request failed", zap.Error(err))
		return FaceMatch{}, ErrRemoteFailure
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return FaceMatch{}, err
	}
	if resp.StatusCode >= 400 {
		p.log.Warn("face search failed", zap.Int("status", resp.StatusCode))
		return FaceMatch{}, ErrRemoteFailure
	}

	var parsed struct {
		Matches []struct {
			UserRef    string  `json:"user_ref"`
			Similarity float64 `json:"similarity"`
		} `json:"matches"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return FaceMatch{}, err
	}

	// An empty match list is a successful "nobody we know" answer.
	var best FaceMatch
	for _, m := range parsed.Matches {
		if m.Similarity > best.Confidence {
			best = FaceMatch{UserRef: m.UserRef, Confidence: m.Similarity}
		}
	}
	if best.Confidence < faceMatchThreshold {
		return FaceMatch{Confidence: best.Confidence}, nil
	}
	best.Matched = true
	return best, nil
}

// SelectBest filters OCR candidates and picks the winner: exact pattern
// matches beat heuristic-only matches, confidence breaks ties.
func SelectBest(candidates []Candidate) (Result, error) {
	result := Result{Candidates: candidates}

	var (
		best        string
		bestConf    float64
		bestPattern bool
	)
	for _, candidate := range candidates {
		if !vehicledomain.IsLikelyPlate(candidate.Plate) {
			continue
		}
		pattern := vehicledomain.MatchesKnownPattern(candidate.Plate)
		if best == "" ||
			(pattern && !bestPattern) ||
			(pattern == bestPattern && candidate.Confidence > bestConf) {
			best = vehicledomain.NormalizePlate(candidate.Plate)
			bestConf = candidate.Confidence
			bestPattern = pattern
		}
	}
	if best == "" {
		return result, ErrNoPlateFound
	}

	result.Plate = best
	result.Confidence = bestConf
	return result, nil
}
