// Package services exposes the nearby-places lookup and speech synthesis.
package services

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/kilianp07/omnidispatch/api/respond"
	"github.com/kilianp07/omnidispatch/core/logger"
	"github.com/kilianp07/omnidispatch/core/model"
	"github.com/kilianp07/omnidispatch/core/speech"
)

// PlaceFinder resolves nearby services for a location.
type PlaceFinder interface {
	Nearby(ctx context.Context, loc model.Location, kind model.EmergencyType) []model.Place
}

var errSpeechDisabled = errors.New("ElevenLabs API key not configured")

// NewNearbyHandler serves GET /api/places/nearby?lat=&lng=&type=.
func NewNearbyHandler(f PlaceFinder) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
		lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
		if errLat != nil || errLng != nil {
			respond.Error(w, respond.ErrBadRequest)
			return
		}
		kind := model.EmergencyType(q.Get("type"))
		if kind == "" {
			kind = model.EmergencyMedical
		}
		if !kind.Valid() {
			kind = model.EmergencyGeneral
		}
		places := f.Nearby(r.Context(), model.Location{Lat: lat, Lng: lng}, kind)
		if places == nil {
			places = []model.Place{}
		}
		respond.JSON(w, http.StatusOK, map[string]any{"places": places})
	})
}

// NewSpeakHandler serves POST /api/voice/speak. Synthesis failures are
// reported in the body with the original text so clients can fall back to
// local speech. synth may be nil when speech is disabled.
func NewSpeakHandler(synth speech.Synthesizer, log logger.Logger) http.Handler {
	log = logger.OrNop(log)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		if err := respond.Decode(r, &req, false); err != nil {
			respond.Error(w, err)
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			respond.Error(w, respond.ErrBadRequest)
			return
		}
		if synth == nil {
			respond.JSON(w, http.StatusOK, map[string]any{"error": errSpeechDisabled.Error(), "text": req.Text})
			return
		}
		audio, err := synth.Synthesize(r.Context(), req.Text)
		if err != nil {
			log.Warnf("speech synthesis failed: %v", err)
			respond.JSON(w, http.StatusOK, map[string]any{"error": err.Error(), "text": req.Text})
			return
		}
		respond.JSON(w, http.StatusOK, map[string]any{
			"success": true,
			"audio":   base64.StdEncoding.EncodeToString(audio.Data),
			"format":  audio.Format,
		})
	})
}
