package vision_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartcondo/condominio/internal/config"
	"github.com/smartcondo/condominio/internal/providers/vision"
)

func TestSelectBestPrefersKnownPattern(t *testing.T) {
	result, err := vision.SelectBest([]vision.Candidate{
		{Plate: "a1b2c3d4x", Confidence: 0.95},
		{Plate: "abc-1234", Confidence: 0.80},
	})
	require.NoError(t, err)
	require.Equal(t, "ABC1234", result.Plate)
	require.InDelta(t, 0.80, result.Confidence, 0.001)
}

func TestSelectBestConfidenceBreaksTies(t *testing.T) {
	result, err := vision.SelectBest([]vision.Candidate{
		{Plate: "AAA-111-B", Confidence: 0.70},
		{Plate: "BBB-222-C", Confidence: 0.90},
	})
	require.NoError(t, err)
	require.Equal(t, "BBB222C", result.Plate)
}

func TestSelectBestNoUsableCandidate(t *testing.T) {
	_, err := vision.SelectBest([]vision.Candidate{
		{Plate: "??", Confidence: 0.99},
		{Plate: "", Confidence: 0.5},
	})
	require.ErrorIs(t, err, vision.ErrNoPlateFound)
}

func TestRecognizePlateNotConfigured(t *testing.T) {
	provider := vision.New(vision.Params{
		Cfg: config.Config{},
		Log: zap.NewNop(),
	})

	_, err := provider.RecognizePlate(context.Background(), "https://example.com/gate.jpg")
	require.ErrorIs(t, err, vision.ErrNotConfigured)
}

func TestRecognizePlateRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		var body struct {
			ImageURL string `json:"image_url"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "https://example.com/gate.jpg", body.ImageURL)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"plate": "xyz-987-a", "confidence": 0.93},
			},
		})
	}))
	defer srv.Close()

	provider := vision.New(vision.Params{
		Cfg: config.Config{VisionEndpoint: srv.URL, VisionAPIKey: "test-key"},
		Log: zap.NewNop(),
	})

	result, err := provider.RecognizePlate(context.Background(), "https://example.com/gate.jpg")
	require.NoError(t, err)
	require.Equal(t, "XYZ987A", result.Plate)
}

func TestVerifyFaceMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"matches": []map[string]any{
				{"user_ref": "123456789", "similarity": 97.4},
				{"user_ref": "987654321", "similarity": 88.0},
			},
		})
	}))
	defer srv.Close()

	provider := vision.New(vision.Params{
		Cfg: config.Config{VisionFaceEndpoint: srv.URL, VisionAPIKey: "test-key"},
		Log: zap.NewNop(),
	})

	match, err := provider.VerifyFace(context.Background(), "https://example.com/gate.jpg")
	require.NoError(t, err)
	require.True(t, match.Matched)
	require.Equal(t, "123456789", match.UserRef)
	require.InDelta(t, 97.4, match.Confidence, 0.001)
}

func TestVerifyFaceBelowThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"matches": []map[string]any{
				{"user_ref": "123456789", "similarity": 61.0},
			},
		})
	}))
	defer srv.Close()

	provider := vision.New(vision.Params{
		Cfg: config.Config{VisionFaceEndpoint: srv.URL},
		Log: zap.NewNop(),
	})

	match, err := provider.VerifyFace(context.Background(), "https://example.com/gate.jpg")
	require.NoError(t, err)
	require.False(t, match.Matched)
	require.Empty(t, match.UserRef)
}

func TestVerifyFaceNobodyKnown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"matches": []map[string]any{}})
	}))
	defer srv.Close()

	provider := vision.New(vision.Params{
		Cfg: config.Config{VisionFaceEndpoint: srv.URL},
		Log: zap.NewNop(),
	})

	match, err := provider.VerifyFace(context.Background(), "https://example.com/gate.jpg")
	require.NoError(t, err)
	require.False(t, match.Matched)
}

func TestVerifyFaceNotConfigured(t *testing.T) {
	provider := vision.New(vision.Params{
		Cfg: config.Config{VisionEndpoint: "https://plates.example.com"},
		Log: zap.NewNop(),
	})

	_, err := provider.VerifyFace(context.Background(), "https://example.com/gate.jpg")
	require.ErrorIs(t, err, vision.ErrNotConfigured)
}

func TestRecognizePlateRemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	provider := vision.New(vision.Params{
		Cfg: config.Config{VisionEndpoint: srv.URL, VisionAPIKey: "test-key"},
		Log: zap.NewNop(),
	})

	_, err := provider.RecognizePlate(context.Background(), "https://example.com/gate.jpg")
	require.ErrorIs(t, err, vision.ErrRemoteFailure)
}
